package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/pagination"
)

// PhotoDTO is the transport shape for a catalog photo. ObjectKey stays
// internal; clients always go through signed URLs.
type PhotoDTO struct {
	ID               int64           `json:"id"`
	PhotographerID   int64           `json:"photographer_id"`
	PhotographerName *string         `json:"photographer_name,omitempty"`
	Title            *string         `json:"title,omitempty"`
	Price            decimal.Decimal `json:"price"`
	ViewURL          *string         `json:"view_url,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UploadPhotoInput describes a new photo awaiting upload.
type UploadPhotoInput struct {
	Filename    string          `json:"filename" validate:"required"`
	ContentType string          `json:"content_type" validate:"required"`
	Title       *string         `json:"title,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
}

// UploadPhotoResult pairs the created record with its presigned PUT URL.
type UploadPhotoResult struct {
	Photo     PhotoDTO `json:"photo"`
	UploadURL string   `json:"upload_url"`
}

// EditPhotoInput patches title and price.
type EditPhotoInput struct {
	Title *string          `json:"title,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// PhotoListResult is a page of photos.
type PhotoListResult struct {
	Photos     []PhotoDTO `json:"photos"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

type photoRepository interface {
	Create(ctx context.Context, record *models.Photo) (*models.Photo, error)
	FindByID(ctx context.Context, id int64) (*models.Photo, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photo, error)
	Update(ctx context.Context, record *models.Photo) (*models.Photo, error)
	Delete(ctx context.Context, id int64) error
}

type photographerResolver interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error)
}

type objectSigner interface {
	GenerateUploadURL(filename, contentType string) (string, string, error)
	GenerateViewURL(objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

// Service manages the photo catalog.
type Service interface {
	Upload(ctx context.Context, identity permissions.Identity, input UploadPhotoInput) (*UploadPhotoResult, error)
	GetByID(ctx context.Context, id int64) (*PhotoDTO, error)
	List(ctx context.Context, params pagination.Params) (*PhotoListResult, error)
	Edit(ctx context.Context, identity permissions.Identity, id int64, input EditPhotoInput) (*PhotoDTO, error)
	Delete(ctx context.Context, identity permissions.Identity, id int64) error
}

type service struct {
	repo          photoRepository
	photographers photographerResolver
	signer        objectSigner
	logg          *logger.Logger
}

// NewService constructs the photos service.
func NewService(repo photoRepository, photographers photographerResolver, signer objectSigner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("photos repository required")
	}
	if photographers == nil {
		return nil, fmt.Errorf("photographer resolver required")
	}
	if signer == nil {
		return nil, fmt.Errorf("object signer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          repo,
		photographers: photographers,
		signer:        signer,
		logg:          logg,
	}, nil
}

// Upload creates the catalog record and hands back a presigned PUT URL.
// The caller must own a photographer profile; the photo is always
// attributed to it.
func (s *service) Upload(ctx context.Context, identity permissions.Identity, input UploadPhotoInput) (*UploadPhotoResult, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionUploadPhoto)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Filename) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filename is required")
	}
	if !strings.HasPrefix(input.ContentType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type must be an image")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	photographer, err := s.resolvePhotographer(ctx, identity)
	if err != nil {
		return nil, err
	}

	uploadURL, objectKey, err := s.signer.GenerateUploadURL(input.Filename, input.ContentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	record, err := s.repo.Create(ctx, &models.Photo{
		PhotographerID: photographer.ID,
		Title:          input.Title,
		ObjectKey:      objectKey,
		Price:          input.Price,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create photo")
	}

	dto := s.toDTO(ctx, record)
	return &UploadPhotoResult{Photo: *dto, UploadURL: uploadURL}, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*PhotoDTO, error) {
	record, err := s.loadPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, record), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*PhotoListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}

	result := &PhotoListResult{Photos: make([]PhotoDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			next := pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: rows[limit-1].CreatedAt,
				ID:        rows[limit-1].ID,
			})
			result.NextCursor = &next
			break
		}
		result.Photos = append(result.Photos, *s.toDTO(ctx, &rows[i]))
	}
	return result, nil
}

func (s *service) Edit(ctx context.Context, identity permissions.Identity, id int64, input EditPhotoInput) (*PhotoDTO, error) {
	record, err := s.loadPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwnership(ctx, identity, record, enums.PermissionEditOwnPhoto, enums.PermissionEditAnyPhoto); err != nil {
		return nil, err
	}

	if input.Title != nil {
		record.Title = input.Title
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		record.Price = *input.Price
	}

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update photo")
	}
	return s.toDTO(ctx, updated), nil
}

// Delete removes the catalog row and then the stored object. The object
// delete is best effort: a missing blob must not resurrect the row.
func (s *service) Delete(ctx context.Context, identity permissions.Identity, id int64) error {
	record, err := s.loadPhoto(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwnership(ctx, identity, record, enums.PermissionDeleteOwnPhoto, enums.PermissionDeleteAnyPhoto); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo")
	}

	if err := s.signer.Delete(ctx, record.ObjectKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "object_key", record.ObjectKey), "delete photo object failed")
	}
	return nil
}

// authorizeOwnership applies the two-tier check: the any-permission
// allows outright, the own-permission only for the caller's photographer.
func (s *service) authorizeOwnership(ctx context.Context, identity permissions.Identity, record *models.Photo, ownPerm, anyPerm enums.Permission) error {
	decision := permissions.Evaluate(identity.Set, permissions.RequireAny(ownPerm, anyPerm))
	if !decision.Allowed {
		return permissions.Require(identity.Set, permissions.RequireAny(ownPerm, anyPerm))
	}
	if identity.Set.Has(enums.PermissionFullAccess) || identity.Set.Has(anyPerm) {
		return nil
	}

	photographer, err := s.resolvePhotographer(ctx, identity)
	if err != nil {
		return err
	}
	if photographer.ID != record.PhotographerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "photo belongs to another photographer")
	}
	return nil
}

func (s *service) resolvePhotographer(ctx context.Context, identity permissions.Identity) (*models.Photographer, error) {
	if !identity.IsUser() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	photographer, err := s.photographers.FindByUserID(ctx, *identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no photographer profile linked to account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve photographer")
	}
	return photographer, nil
}

func (s *service) loadPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
	}
	return record, nil
}

func (s *service) toDTO(ctx context.Context, record *models.Photo) *PhotoDTO {
	dto := &PhotoDTO{
		ID:             record.ID,
		PhotographerID: record.PhotographerID,
		Title:          record.Title,
		Price:          record.Price,
		CreatedAt:      record.CreatedAt,
	}
	if record.Photographer != nil {
		name := record.Photographer.DisplayName
		dto.PhotographerName = &name
	}
	if viewURL, err := s.signer.GenerateViewURL(record.ObjectKey); err == nil {
		dto.ViewURL = &viewURL
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "photo_id", record.ID), "sign view url failed")
	}
	return dto
}
