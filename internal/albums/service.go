package albums

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

// AlbumPhotoDTO is one photo as listed inside an album.
type AlbumPhotoDTO struct {
	ID    int64   `json:"id"`
	Title *string `json:"title,omitempty"`
}

// AlbumDTO is the transport shape of an album.
type AlbumDTO struct {
	ID               int64           `json:"id"`
	PhotographerID   int64           `json:"photographer_id"`
	PhotographerName *string         `json:"photographer_name,omitempty"`
	Name             string          `json:"name"`
	Description      *string         `json:"description,omitempty"`
	Photos           []AlbumPhotoDTO `json:"photos"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CreateAlbumInput creates an album owned by the caller's photographer.
type CreateAlbumInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=255"`
}

// UpdateAlbumInput patches name and description.
type UpdateAlbumInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=255"`
}

// SetPhotosInput replaces the album's membership with the given photos.
type SetPhotosInput struct {
	PhotoIDs []int64 `json:"photo_ids" validate:"required"`
}

type albumRepository interface {
	Create(ctx context.Context, record *models.Album) (*models.Album, error)
	FindByID(ctx context.Context, id int64) (*models.Album, error)
	List(ctx context.Context) ([]models.Album, error)
	Update(ctx context.Context, record *models.Album) (*models.Album, error)
	Delete(ctx context.Context, id int64) error
	ReplacePhotos(ctx context.Context, albumID int64, photoIDs []int64) error
	PhotosByIDs(ctx context.Context, ids []int64) ([]models.Photo, error)
}

type photographerResolver interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error)
}

// Service manages albums. Browsing is public; mutations carry the
// two-tier own/any permission check.
type Service interface {
	Create(ctx context.Context, identity permissions.Identity, input CreateAlbumInput) (*AlbumDTO, error)
	GetByID(ctx context.Context, id int64) (*AlbumDTO, error)
	List(ctx context.Context) ([]AlbumDTO, error)
	Update(ctx context.Context, identity permissions.Identity, id int64, input UpdateAlbumInput) (*AlbumDTO, error)
	Delete(ctx context.Context, identity permissions.Identity, id int64) error
	SetPhotos(ctx context.Context, identity permissions.Identity, id int64, input SetPhotosInput) (*AlbumDTO, error)
}

type service struct {
	repo          albumRepository
	photographers photographerResolver
	logg          *logger.Logger
}

// NewService constructs the albums service.
func NewService(repo albumRepository, photographers photographerResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("albums repository required")
	}
	if photographers == nil {
		return nil, fmt.Errorf("photographer resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, photographers: photographers, logg: logg}, nil
}

// Create builds an album attributed to the caller's photographer profile.
func (s *service) Create(ctx context.Context, identity permissions.Identity, input CreateAlbumInput) (*AlbumDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionCreateAlbum)); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "album name is required")
	}

	photographer, err := s.resolvePhotographer(ctx, identity)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Create(ctx, &models.Album{
		PhotographerID: photographer.ID,
		Name:           name,
		Description:    input.Description,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create album")
	}

	s.logg.Info(s.logg.WithField(ctx, "album_id", record.ID), "album created")
	return toDTO(record), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*AlbumDTO, error) {
	record, err := s.loadAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(record), nil
}

func (s *service) List(ctx context.Context) ([]AlbumDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list albums")
	}
	out := make([]AlbumDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, identity permissions.Identity, id int64, input UpdateAlbumInput) (*AlbumDTO, error) {
	record, err := s.loadAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwnership(ctx, identity, record, enums.PermissionEditOwnAlbum, enums.PermissionEditAnyAlbum); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "album name cannot be empty")
		}
		record.Name = name
	}
	if input.Description != nil {
		record.Description = input.Description
	}

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update album")
	}
	return toDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, identity permissions.Identity, id int64) error {
	record, err := s.loadAlbum(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwnership(ctx, identity, record, enums.PermissionDeleteOwnAlbum, enums.PermissionDeleteAnyAlbum); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete album")
	}
	s.logg.Info(s.logg.WithField(ctx, "album_id", id), "album deleted")
	return nil
}

// SetPhotos replaces the album's membership. Only photos belonging to the
// album's photographer can be attached.
func (s *service) SetPhotos(ctx context.Context, identity permissions.Identity, id int64, input SetPhotosInput) (*AlbumDTO, error) {
	record, err := s.loadAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwnership(ctx, identity, record, enums.PermissionEditOwnAlbum, enums.PermissionEditAnyAlbum); err != nil {
		return nil, err
	}

	if len(input.PhotoIDs) > 0 {
		photos, err := s.repo.PhotosByIDs(ctx, input.PhotoIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photos")
		}
		if len(photos) != len(uniqueIDs(input.PhotoIDs)) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		for _, photo := range photos {
			if photo.PhotographerID != record.PhotographerID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo belongs to another photographer")
			}
		}
	}

	if err := s.repo.ReplacePhotos(ctx, id, input.PhotoIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace album photos")
	}
	return s.GetByID(ctx, id)
}

// authorizeOwnership applies the two-tier check: the any-permission
// allows outright, the own-permission only for the caller's photographer.
func (s *service) authorizeOwnership(ctx context.Context, identity permissions.Identity, record *models.Album, ownPerm, anyPerm enums.Permission) error {
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
		return pkgerrors.New(pkgerrors.CodeForbidden, "album belongs to another photographer")
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

func (s *service) loadAlbum(ctx context.Context, id int64) (*models.Album, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "album id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "album not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load album")
	}
	return record, nil
}

func toDTO(record *models.Album) *AlbumDTO {
	dto := &AlbumDTO{
		ID:             record.ID,
		PhotographerID: record.PhotographerID,
		Name:           record.Name,
		Description:    record.Description,
		Photos:         make([]AlbumPhotoDTO, 0, len(record.Photos)),
		CreatedAt:      record.CreatedAt,
	}
	if record.Photographer != nil {
		name := record.Photographer.DisplayName
		dto.PhotographerName = &name
	}
	for _, photo := range record.Photos {
		dto.Photos = append(dto.Photos, AlbumPhotoDTO{ID: photo.ID, Title: photo.Title})
	}
	return dto
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
