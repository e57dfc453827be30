package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem freezes price and quantity for one photo at the moment of sale.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	PhotoID   int64           `gorm:"column:photo_id;not null"`
	Photo     *Photo          `gorm:"foreignKey:PhotoID"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Format    *string         `gorm:"column:format"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
