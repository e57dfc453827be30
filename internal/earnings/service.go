package earnings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/pagination"
)

// EarningsListResult is a page of earning rows.
type EarningsListResult struct {
	Earnings   []EarningDTO `json:"earnings"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

type earningRepository interface {
	WithTx(tx *gorm.DB) *Repository
	CreateAll(ctx context.Context, rows []models.Earning) error
	ListByPhotographer(ctx context.Context, photographerID int64, limit int, cursor *pagination.Cursor) ([]models.Earning, error)
	SummaryByPhotographer(ctx context.Context, photographerID int64) (*Summary, error)
	SummaryAll(ctx context.Context) ([]Summary, error)
	ExistsForOrder(ctx context.Context, orderID int64) (bool, error)
	DeleteByOrder(ctx context.Context, orderID int64) error
}

type photographerResolver interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error)
}

// Service computes and reads settlement earnings.
type Service interface {
	// SettleOrderTx writes earning rows for a paid order inside the
	// caller's transaction. Items whose photo or photographer no longer
	// exists are skipped with a warning so the rest of the order settles.
	SettleOrderTx(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Earning, error)
	// DeleteByOrderTx drops an order's earning rows inside the caller's
	// transaction. Order deletion runs it before removing the items.
	DeleteByOrderTx(ctx context.Context, tx *gorm.DB, orderID int64) error
	ListForPhotographer(ctx context.Context, identity permissions.Identity, photographerID int64, params pagination.Params) (*EarningsListResult, error)
	SummaryForPhotographer(ctx context.Context, identity permissions.Identity, photographerID int64) (*Summary, error)
	SummaryAll(ctx context.Context, identity permissions.Identity) ([]Summary, error)
}

type service struct {
	repo          earningRepository
	photographers photographerResolver
	logg          *logger.Logger
}

// NewService constructs the earnings service.
func NewService(repo earningRepository, photographers photographerResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if photographers == nil {
		return nil, fmt.Errorf("photographer resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, photographers: photographers, logg: logg}, nil
}

func (s *service) SettleOrderTx(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Earning, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	repo := s.repo.WithTx(tx)

	settled, err := repo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check settlement")
	}
	if settled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already settled")
	}

	rows := make([]models.Earning, 0, len(order.Items))
	for _, item := range order.Items {
		if item.Photo == nil || item.Photo.Photographer == nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id":      order.ID,
				"order_item_id": item.ID,
				"photo_id":      item.PhotoID,
			}), "skipping settlement for item without photo or photographer")
			continue
		}

		split, err := ComputeLine(item.Price, item.Quantity, item.Photo.Photographer.CommissionPercentage)
		if err != nil {
			return nil, err
		}

		rows = append(rows, models.Earning{
			PhotographerID:       item.Photo.Photographer.ID,
			OrderID:              order.ID,
			OrderItemID:          item.ID,
			Amount:               split.Earning,
			CommissionPercentage: split.CommissionPercentage,
			EarnedPhotoFraction:  split.PhotoFraction,
		})
	}

	if err := repo.CreateAll(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create earnings")
	}
	return rows, nil
}

func (s *service) DeleteByOrderTx(ctx context.Context, tx *gorm.DB, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := s.repo.WithTx(tx).DeleteByOrder(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete earnings")
	}
	return nil
}

func (s *service) ListForPhotographer(ctx context.Context, identity permissions.Identity, photographerID int64, params pagination.Params) (*EarningsListResult, error) {
	if err := s.authorize(ctx, identity, photographerID); err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByPhotographer(ctx, photographerID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}

	result := &EarningsListResult{Earnings: make([]EarningDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			next := pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: rows[limit-1].CreatedAt,
				ID:        rows[limit-1].ID,
			})
			result.NextCursor = &next
			break
		}
		result.Earnings = append(result.Earnings, dtoFromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) SummaryForPhotographer(ctx context.Context, identity permissions.Identity, photographerID int64) (*Summary, error) {
	if err := s.authorize(ctx, identity, photographerID); err != nil {
		return nil, err
	}
	summary, err := s.repo.SummaryByPhotographer(ctx, photographerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize earnings")
	}
	return summary, nil
}

func (s *service) SummaryAll(ctx context.Context, identity permissions.Identity) ([]Summary, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionViewAnyEarnings)); err != nil {
		return nil, err
	}
	summaries, err := s.repo.SummaryAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize earnings")
	}
	return summaries, nil
}

// authorize applies the two-tier check: view_any grants every
// photographer, view_own only the caller's linked profile.
func (s *service) authorize(ctx context.Context, identity permissions.Identity, photographerID int64) error {
	if photographerID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "photographer id is required")
	}
	if err := permissions.Require(identity.Set, permissions.RequireAny(
		enums.PermissionViewOwnEarnings,
		enums.PermissionViewAnyEarnings,
	)); err != nil {
		return err
	}
	if identity.Set.Has(enums.PermissionFullAccess) || identity.Set.Has(enums.PermissionViewAnyEarnings) {
		return nil
	}

	if !identity.IsUser() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	photographer, err := s.photographers.FindByUserID(ctx, *identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "no photographer profile linked to account")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve photographer")
	}
	if photographer.ID != photographerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "earnings belong to another photographer")
	}
	return nil
}
