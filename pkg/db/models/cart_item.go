package models

import "time"

// CartItem references a photo and a quantity. At most one row exists per
// (cart, photo) pair; adding the same photo again bumps the quantity.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    int64     `gorm:"column:cart_id;not null;uniqueIndex:ux_cart_items_cart_photo"`
	PhotoID   int64     `gorm:"column:photo_id;not null;uniqueIndex:ux_cart_items_cart_photo"`
	Photo     *Photo    `gorm:"foreignKey:PhotoID"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
