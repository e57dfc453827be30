package photographers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/pagination"
)

// PhotographerDTO is the transport shape for a photographer.
type PhotographerDTO struct {
	ID                   int64           `json:"id"`
	UserID               *int64          `json:"user_id,omitempty"`
	DisplayName          string          `json:"display_name"`
	ContactEmail         *string         `json:"contact_email,omitempty"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// UpsertPhotographerInput carries creation and edit payloads. A nil
// CommissionPercentage on create falls back to the configured default.
type UpsertPhotographerInput struct {
	UserID               *int64           `json:"user_id,omitempty"`
	DisplayName          string           `json:"display_name" validate:"required"`
	ContactEmail         *string          `json:"contact_email,omitempty" validate:"omitempty,email"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
}

// PhotographerListResult is a page of photographers.
type PhotographerListResult struct {
	Photographers []PhotographerDTO `json:"photographers"`
	NextCursor    *string           `json:"next_cursor,omitempty"`
}

type photographerRepository interface {
	Create(ctx context.Context, record *models.Photographer) (*models.Photographer, error)
	FindByID(ctx context.Context, id int64) (*models.Photographer, error)
	FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photographer, error)
	Update(ctx context.Context, record *models.Photographer) (*models.Photographer, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages photographer profiles.
type Service interface {
	Create(ctx context.Context, identity permissions.Identity, input UpsertPhotographerInput) (*PhotographerDTO, error)
	GetByID(ctx context.Context, id int64) (*PhotographerDTO, error)
	ResolveOwn(ctx context.Context, identity permissions.Identity) (*PhotographerDTO, error)
	List(ctx context.Context, identity permissions.Identity, params pagination.Params) (*PhotographerListResult, error)
	Update(ctx context.Context, identity permissions.Identity, id int64, input UpsertPhotographerInput) (*PhotographerDTO, error)
	Delete(ctx context.Context, identity permissions.Identity, id int64) error
}

type service struct {
	repo          photographerRepository
	commissionCfg config.CommissionConfig
}

// NewService constructs the photographers service.
func NewService(repo photographerRepository, commissionCfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("photographers repository required")
	}
	return &service{repo: repo, commissionCfg: commissionCfg}, nil
}

func (s *service) Create(ctx context.Context, identity permissions.Identity, input UpsertPhotographerInput) (*PhotographerDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionCreatePhotographer)); err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	commission, err := s.resolveCommission(input.CommissionPercentage)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Create(ctx, &models.Photographer{
		UserID:               input.UserID,
		DisplayName:          displayName,
		ContactEmail:         input.ContactEmail,
		CommissionPercentage: commission,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create photographer")
	}
	return fromModel(record), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*PhotographerDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photographer id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photographer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photographer")
	}
	return fromModel(record), nil
}

// ResolveOwn returns the photographer profile linked to the calling user.
func (s *service) ResolveOwn(ctx context.Context, identity permissions.Identity) (*PhotographerDTO, error) {
	if !identity.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	record, err := s.repo.FindByUserID(ctx, *identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photographer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photographer")
	}
	return fromModel(record), nil
}

func (s *service) List(ctx context.Context, identity permissions.Identity, params pagination.Params) (*PhotographerListResult, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionListPhotographers)); err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photographers")
	}

	result := &PhotographerListResult{Photographers: make([]PhotographerDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			next := pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: rows[limit-1].CreatedAt,
				ID:        rows[limit-1].ID,
			})
			result.NextCursor = &next
			break
		}
		result.Photographers = append(result.Photographers, *fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, identity permissions.Identity, id int64, input UpsertPhotographerInput) (*PhotographerDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionEditPhotographer)); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photographer id is required")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photographer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photographer")
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		record.DisplayName = name
	}
	if input.ContactEmail != nil {
		record.ContactEmail = input.ContactEmail
	}
	if input.CommissionPercentage != nil {
		commission, err := s.resolveCommission(input.CommissionPercentage)
		if err != nil {
			return nil, err
		}
		record.CommissionPercentage = commission
	}

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update photographer")
	}
	return fromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, identity permissions.Identity, id int64) error {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionDeletePhotographer)); err != nil {
		return err
	}
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "photographer id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photographer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photographer")
	}
	return nil
}

func (s *service) resolveCommission(pct *decimal.Decimal) (decimal.Decimal, error) {
	if pct == nil {
		return decimal.NewFromFloat(s.commissionCfg.DefaultPercentage), nil
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "commission percentage must be between 0 and 100")
	}
	return *pct, nil
}

func fromModel(record *models.Photographer) *PhotographerDTO {
	if record == nil {
		return nil
	}
	return &PhotographerDTO{
		ID:                   record.ID,
		UserID:               record.UserID,
		DisplayName:          record.DisplayName,
		ContactEmail:         record.ContactEmail,
		CommissionPercentage: record.CommissionPercentage,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}
