package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a client's rating of a counsellor, one per pairing.
type Review struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CounsellorID uuid.UUID      `gorm:"column:counsellor_id;type:uuid;not null;uniqueIndex:idx_review_counsellor_client,priority:1"`
	Counsellor   *Counsellor    `gorm:"foreignKey:CounsellorID"`
	ClientID     uuid.UUID      `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_review_counsellor_client,priority:2"`
	Client       *ClientProfile `gorm:"foreignKey:ClientID"`
	Rating       int            `gorm:"column:rating;not null"`
	Comment      *string        `gorm:"column:comment"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
