package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
)

// Counsellor holds the practitioner side of a user account.
type Counsellor struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User            *User           `gorm:"foreignKey:UserID"`
	LicenseNumber   string          `gorm:"column:license_number;not null"`
	Bio             *string         `gorm:"column:bio"`
	Gender          *enums.Gender   `gorm:"column:gender;type:text"`
	YearsExperience int             `gorm:"column:years_experience;not null;default:0"`
	SessionFee      decimal.Decimal `gorm:"column:session_fee;type:numeric(10,2);not null"`
	SessionDuration int             `gorm:"column:session_duration_minutes;not null;default:60"`
	MeetLink        *string         `gorm:"column:meet_link"`
	IsApproved      bool            `gorm:"column:is_approved;not null;default:false"`
	ProfileVisible  bool            `gorm:"column:profile_visible;not null;default:true"`
	Rating          decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	TotalReviews    int             `gorm:"column:total_reviews;not null;default:0"`
	TotalSessions   int             `gorm:"column:total_sessions;not null;default:0"`
	TotalClients    int             `gorm:"column:total_clients;not null;default:0"`

	Specializations []Specialization  `gorm:"many2many:counsellor_specializations"`
	Approaches      []TherapyApproach `gorm:"many2many:counsellor_approaches"`
	Languages       []Language        `gorm:"many2many:counsellor_languages"`
	AgeGroups       []AgeGroup        `gorm:"many2many:counsellor_age_groups"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
