package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/pagination"
)

// OrdersRepository defines the persistence surface required by the order
// service. Reads preload items with their photos and photographers so
// settlement never lazy-loads.
type OrdersRepository interface {
	WithTx(tx *gorm.DB) OrdersRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	ConfirmPayment(ctx context.Context, orderID int64, fields map[string]any) (bool, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	DeleteItems(ctx context.Context, orderID int64) error
	Delete(ctx context.Context, orderID int64) error
	EmptyCartFor(ctx context.Context, userID *int64, guestToken *string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type earningsSettler interface {
	SettleOrderTx(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Earning, error)
	DeleteByOrderTx(ctx context.Context, tx *gorm.DB, orderID int64) error
}

type photoLoader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Photo, error)
}
