package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
)

// ClientProfile holds the therapy-seeker side of a user account.
type ClientProfile struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User            *User         `gorm:"foreignKey:UserID"`
	DateOfBirth     *time.Time    `gorm:"column:date_of_birth"`
	Gender          *enums.Gender `gorm:"column:gender;type:text"`
	EmergencyName   *string       `gorm:"column:emergency_contact_name"`
	EmergencyPhone  *string       `gorm:"column:emergency_contact_phone"`
	TotalSessions   int           `gorm:"column:total_sessions;not null;default:0"`
	LastSessionDate *time.Time    `gorm:"column:last_session_date"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
