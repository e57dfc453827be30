package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Photographer owns photos and accrues earnings after each settled sale.
// CommissionPercentage is the slice of each sale the platform keeps.
type Photographer struct {
	ID                   int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID               *int64          `gorm:"column:user_id;uniqueIndex"`
	DisplayName          string          `gorm:"column:display_name;not null"`
	ContactEmail         *string         `gorm:"column:contact_email"`
	CommissionPercentage decimal.Decimal `gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
