package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart
// service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	FindByGuestToken(ctx context.Context, token string) (*models.Cart, error)
	FindByID(ctx context.Context, id int64) (*models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	UpdateCustomerEmail(ctx context.Context, cartID int64, email *string) error
	FindItemByPhoto(ctx context.Context, cartID, photoID int64) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	DeleteItems(ctx context.Context, cartID int64) error
	ReassignItem(ctx context.Context, itemID, toCartID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
}
