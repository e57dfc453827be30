package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Earning records a photographer's payout for one settled order item.
// Amount and CommissionPercentage are snapshots taken at settlement time.
type Earning struct {
	ID                   int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PhotographerID       int64           `gorm:"column:photographer_id;not null;index"`
	OrderID              int64           `gorm:"column:order_id;not null;index"`
	OrderItemID          int64           `gorm:"column:order_item_id;not null;uniqueIndex"`
	Amount               decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CommissionPercentage decimal.Decimal `gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	EarnedPhotoFraction  decimal.Decimal `gorm:"column:earned_photo_fraction;type:numeric(8,4);not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
}
