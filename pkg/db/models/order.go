package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fotoclick/backend/pkg/enums"
)

// Order tracks a purchase from creation through payment confirmation.
// PublicID is the customer-facing lookup handle; ID stays internal.
type Order struct {
	ID                int64                `gorm:"column:id;primaryKey;autoIncrement"`
	PublicID          uuid.UUID            `gorm:"column:public_id;type:uuid;not null;uniqueIndex"`
	UserID            *int64               `gorm:"column:user_id;index"`
	GuestToken        *string              `gorm:"column:guest_token;index"`
	CustomerEmail     *string              `gorm:"column:customer_email"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod     *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	PaymentStatus     enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	OrderStatus       enums.OrderStatus    `gorm:"column:order_status;type:text;not null;default:'pending'"`
	ExternalPaymentID *string              `gorm:"column:external_payment_id"`
	DiscountID        *int64               `gorm:"column:discount_id"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
