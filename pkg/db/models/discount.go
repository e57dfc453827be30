package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount is a redeemable percentage-off code.
type Discount struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Code       string          `gorm:"column:code;type:text;not null;uniqueIndex"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	Active     bool            `gorm:"column:active;not null;default:true"`
	ExpiresAt  *time.Time      `gorm:"column:expires_at"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
