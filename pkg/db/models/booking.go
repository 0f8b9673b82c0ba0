package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
)

// Booking is one client/counsellor session request and its lifecycle.
type Booking struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Reference     string                     `gorm:"column:reference;not null;uniqueIndex"`
	ClientID      uuid.UUID                  `gorm:"column:client_id;type:uuid;not null;index"`
	Client        *ClientProfile             `gorm:"foreignKey:ClientID"`
	CounsellorID  uuid.UUID                  `gorm:"column:counsellor_id;type:uuid;not null;index"`
	Counsellor    *Counsellor                `gorm:"foreignKey:CounsellorID"`
	SlotID        *uuid.UUID                 `gorm:"column:slot_id;type:uuid"`
	Slot          *AvailabilitySlot          `gorm:"foreignKey:SlotID"`
	SessionDate   time.Time                  `gorm:"column:session_date;type:date;not null"`
	SessionTime   string                     `gorm:"column:session_time;type:text;not null"`
	Duration      int                        `gorm:"column:duration_minutes;not null"`
	SessionFee    decimal.Decimal            `gorm:"column:session_fee;type:numeric(10,2);not null"`
	MeetLink      *string                    `gorm:"column:meet_link"`
	ClientNotes   *string                    `gorm:"column:client_notes"`
	Status        enums.BookingStatus        `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.BookingPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ConfirmedAt   *time.Time                 `gorm:"column:confirmed_at"`
	CompletedAt   *time.Time                 `gorm:"column:completed_at"`
	CancelledAt   *time.Time                 `gorm:"column:cancelled_at"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
