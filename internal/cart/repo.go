package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
)

// Repository persists carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUserID loads a user's cart with items and their photos.
func (r *Repository) FindByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByGuestToken loads a guest cart with items and their photos.
func (r *Repository) FindByGuestToken(ctx context.Context, token string) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		Where("guest_token = ?", token).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID loads a cart by primary key with items and photos.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a cart row.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateCustomerEmail sets or clears the cart's checkout contact email.
func (r *Repository) UpdateCustomerEmail(ctx context.Context, cartID int64, email *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("customer_email", email).Error
}

// FindItemByPhoto returns the cart item for a photo, if present.
func (r *Repository) FindItemByPhoto(ctx context.Context, cartID, photoID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND photo_id = ?", cartID, photoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItem returns a cart item restricted to the provided cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart item.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity sets the quantity on an item.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItem removes a single cart item.
func (r *Repository) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// DeleteItems removes every item in the cart, keeping the cart row.
func (r *Repository) DeleteItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// ReassignItem moves an item into another cart.
func (r *Repository) ReassignItem(ctx context.Context, itemID, toCartID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("cart_id", toCartID).Error
}

// DeleteCart removes the cart row. Items must already be gone or moved.
func (r *Repository) DeleteCart(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("cart_items.created_at ASC, cart_items.id ASC")
}
