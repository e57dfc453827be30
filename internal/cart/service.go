package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type photoLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Photo, error)
}

// Service exposes cart operations. Every call takes the resolved caller
// identity; exactly one of user id or guest token owns any cart.
type Service interface {
	ResolveOrCreate(ctx context.Context, identity permissions.Identity) (*CartView, error)
	AddItem(ctx context.Context, identity permissions.Identity, input AddItemInput) (*CartView, error)
	UpdateItem(ctx context.Context, identity permissions.Identity, itemID int64, input UpdateItemInput) (*CartView, error)
	DeleteItem(ctx context.Context, identity permissions.Identity, itemID int64) (*CartView, error)
	Empty(ctx context.Context, identity permissions.Identity) error
	SetCustomerEmail(ctx context.Context, identity permissions.Identity, email string) error
	MergeGuestIntoUser(ctx context.Context, userID int64, guestToken string) (*CartView, error)
}

type service struct {
	repo   CartRepository
	tx     txRunner
	photos photoLoader
	logg   *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, photos photoLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if photos == nil {
		return nil, fmt.Errorf("photo loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, photos: photos, logg: logg}, nil
}

// ResolveOrCreate returns the caller's cart, creating an empty one on
// first touch.
func (s *service) ResolveOrCreate(ctx context.Context, identity permissions.Identity) (*CartView, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}

	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		cart, err = s.resolveOrCreateTx(ctx, s.repo.WithTx(tx), identity)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cart")
	}
	return viewFromModel(cart), nil
}

// AddItem puts a photo in the cart. Adding a photo already present bumps
// the existing line's quantity instead of creating a duplicate row.
func (s *service) AddItem(ctx context.Context, identity permissions.Identity, input AddItemInput) (*CartView, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}
	if input.PhotoID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.photos.FindByID(ctx, input.PhotoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
	}

	var cartID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.resolveOrCreateTx(ctx, repo, identity)
		if err != nil {
			return err
		}
		cartID = cart.ID

		existing, err := repo.FindItemByPhoto(ctx, cart.ID, input.PhotoID)
		if err == nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		_, err = repo.CreateItem(ctx, &models.CartItem{
			CartID:   cart.ID,
			PhotoID:  input.PhotoID,
			Quantity: input.Quantity,
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.reload(ctx, cartID)
}

// UpdateItem sets a line's quantity. Quantity zero or below removes the
// line. Items outside the caller's cart read as not found.
func (s *service) UpdateItem(ctx context.Context, identity permissions.Identity, itemID int64, input UpdateItemInput) (*CartView, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	cart, err := s.resolveExisting(ctx, s.repo, identity)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if input.Quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
	} else if err := s.repo.UpdateItemQuantity(ctx, item.ID, input.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, cart.ID)
}

// DeleteItem removes a line outright.
func (s *service) DeleteItem(ctx context.Context, identity permissions.Identity, itemID int64) (*CartView, error) {
	return s.UpdateItem(ctx, identity, itemID, UpdateItemInput{Quantity: 0})
}

// Empty removes every line but keeps the cart row and its identity binding.
func (s *service) Empty(ctx context.Context, identity permissions.Identity) error {
	cart, err := s.resolveExisting(ctx, s.repo, identity)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
	}
	return nil
}

// SetCustomerEmail records the checkout contact on the cart. Guests need
// it before checkout; users default to their account email.
func (s *service) SetCustomerEmail(ctx context.Context, identity permissions.Identity, email string) error {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" || !strings.Contains(trimmed, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	cart, err := s.resolveExisting(ctx, s.repo, identity)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateCustomerEmail(ctx, cart.ID, &trimmed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart email")
	}
	return nil
}

// MergeGuestIntoUser folds a guest cart into the user's cart in one
// transaction: quantities add up when both carts hold the same photo,
// remaining guest lines move over, and the guest cart row disappears.
// Running it twice with the same token is a no-op.
func (s *service) MergeGuestIntoUser(ctx context.Context, userID int64, guestToken string) (*CartView, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(guestToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}

	var userCartID int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		guestCart, err := repo.FindByGuestToken(ctx, guestToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to merge; fall through to the user's cart.
				userCart, err := s.resolveOrCreateTx(ctx, repo, permissions.UserIdentity(userID, nil))
				if err != nil {
					return err
				}
				userCartID = userCart.ID
				return nil
			}
			return err
		}

		userCart, err := s.resolveOrCreateTx(ctx, repo, permissions.UserIdentity(userID, nil))
		if err != nil {
			return err
		}
		userCartID = userCart.ID

		userItemsByPhoto := make(map[int64]models.CartItem, len(userCart.Items))
		for _, item := range userCart.Items {
			userItemsByPhoto[item.PhotoID] = item
		}

		for _, guestItem := range guestCart.Items {
			if existing, ok := userItemsByPhoto[guestItem.PhotoID]; ok {
				if err := repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+guestItem.Quantity); err != nil {
					return err
				}
				if err := repo.DeleteItem(ctx, guestItem.ID); err != nil {
					return err
				}
				continue
			}
			if err := repo.ReassignItem(ctx, guestItem.ID, userCart.ID); err != nil {
				return err
			}
		}

		if guestCart.CustomerEmail != nil && userCart.CustomerEmail == nil {
			if err := repo.UpdateCustomerEmail(ctx, userCart.ID, guestCart.CustomerEmail); err != nil {
				return err
			}
		}

		return repo.DeleteCart(ctx, guestCart.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge guest cart")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": userID,
		"cart_id": userCartID,
	}), "guest cart merged")

	return s.reload(ctx, userCartID)
}

func (s *service) resolveOrCreateTx(ctx context.Context, repo CartRepository, identity permissions.Identity) (*models.Cart, error) {
	cart, err := s.findByIdentity(ctx, repo, identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := &models.Cart{}
	if identity.IsUser() {
		record.UserID = identity.UserID
	} else {
		record.GuestToken = identity.GuestToken
	}
	return repo.Create(ctx, record)
}

// resolveExisting maps a missing cart to not-found instead of creating
// one; mutations on absent carts have nothing to act on.
func (s *service) resolveExisting(ctx context.Context, repo CartRepository, identity permissions.Identity) (*models.Cart, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}
	cart, err := s.findByIdentity(ctx, repo, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) findByIdentity(ctx context.Context, repo CartRepository, identity permissions.Identity) (*models.Cart, error) {
	if identity.IsUser() {
		return repo.FindByUserID(ctx, *identity.UserID)
	}
	return repo.FindByGuestToken(ctx, *identity.GuestToken)
}

func (s *service) reload(ctx context.Context, cartID int64) (*CartView, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return viewFromModel(cart), nil
}
