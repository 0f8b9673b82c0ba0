package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
)

// Payment is a single gateway attempt for a booking. Retries create a new
// row rather than mutating a failed one.
type Payment struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Reference          string              `gorm:"column:reference;not null;uniqueIndex"`
	BookingID          uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;index"`
	Booking            *Booking            `gorm:"foreignKey:BookingID"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency           string              `gorm:"column:currency;type:text;not null;default:'INR'"`
	GatewayOrderID     *string             `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID   *string             `gorm:"column:gateway_payment_id"`
	GatewaySignature   *string             `gorm:"column:gateway_signature"`
	Status             enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	GatewayPayload     *string             `gorm:"column:gateway_payload;type:jsonb"`
	ErrorMessage       *string             `gorm:"column:error_message"`
	PaidAt             *time.Time          `gorm:"column:paid_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
