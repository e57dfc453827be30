package models

import "time"

// Cart holds pre-purchase items for exactly one user or one guest token.
// The XOR on the two identity columns is enforced at the service layer.
type Cart struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        *int64     `gorm:"column:user_id;uniqueIndex"`
	GuestToken    *string    `gorm:"column:guest_token;uniqueIndex"`
	CustomerEmail *string    `gorm:"column:customer_email"`
	DiscountCode  *string    `gorm:"column:discount_code"`
	Items         []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
