package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is one bookable window on a counsellor's calendar.
// StartTime/EndTime are wall-clock "HH:MM" strings; Date carries the day.
type AvailabilitySlot struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CounsellorID    uuid.UUID `gorm:"column:counsellor_id;type:uuid;not null;uniqueIndex:idx_slot_counsellor_date_start,priority:1"`
	Date            time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_slot_counsellor_date_start,priority:2"`
	StartTime       string    `gorm:"column:start_time;type:text;not null;uniqueIndex:idx_slot_counsellor_date_start,priority:3"`
	EndTime         string    `gorm:"column:end_time;type:text;not null"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null"`
	IsBooked        bool      `gorm:"column:is_booked;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
