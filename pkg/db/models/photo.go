package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Photo is a sellable item. ObjectKey points at the stored image; the
// backend never inspects file bytes.
type Photo struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PhotographerID int64           `gorm:"column:photographer_id;not null;index"`
	Photographer   *Photographer   `gorm:"foreignKey:PhotographerID"`
	AlbumID        *int64          `gorm:"column:album_id;index"`
	Title          *string         `gorm:"column:title"`
	ObjectKey      string          `gorm:"column:object_key;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
