package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	"github.com/fotoclick/backend/pkg/pagination"
)

// Repository persists orders and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrdersRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with items, photos and photographers.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		Preload("Items.Photo.Photographer").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByPublicID loads an order by its customer-facing UUID.
func (r *Repository) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		Preload("Items.Photo.Photographer").
		Where("public_id = ?", publicID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a page of orders, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Photo").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.GuestToken != nil {
		query = query.Where("guest_token = ?", *filter.GuestToken)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.OrderStatus != nil {
		query = query.Where("order_status = ?", *filter.OrderStatus)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ConfirmPayment applies the payment flip only while the order is still
// pending. It reports false when no pending row matched, meaning a
// concurrent confirmation already won.
func (r *Repository) ConfirmPayment(ctx context.Context, orderID int64, fields map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateFields applies a column patch to the order.
func (r *Repository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItems removes the order's items.
func (r *Repository) DeleteItems(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error
}

// Delete removes the order row itself.
func (r *Repository) Delete(ctx context.Context, orderID int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", orderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EmptyCartFor clears the cart items of the identity that placed the
// order. The cart row stays.
func (r *Repository) EmptyCartFor(ctx context.Context, userID *int64, guestToken *string) error {
	carts := r.db.WithContext(ctx).Model(&models.Cart{}).Select("id")
	switch {
	case userID != nil:
		carts = carts.Where("user_id = ?", *userID)
	case guestToken != nil:
		carts = carts.Where("guest_token = ?", *guestToken)
	default:
		return nil
	}

	return r.db.WithContext(ctx).
		Where("cart_id IN (?)", carts).
		Delete(&models.CartItem{}).Error
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at ASC, order_items.id ASC")
}
