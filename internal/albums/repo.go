package albums

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
)

// Repository exposes album persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an albums repo bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an album.
func (r *Repository) Create(ctx context.Context, record *models.Album) (*models.Album, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads an album with its photos and photographer.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Album, error) {
	var record models.Album
	err := r.db.WithContext(ctx).
		Preload("Photographer").
		Preload("Photos", photoOrder).
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every album with photos eagerly loaded, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Album, error) {
	var rows []models.Album
	err := r.db.WithContext(ctx).
		Preload("Photographer").
		Preload("Photos", photoOrder).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided album.
func (r *Repository) Update(ctx context.Context, record *models.Album) (*models.Album, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Delete detaches the album's photos and removes the album row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).
			Where("album_id = ?", id).
			Update("album_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Album{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReplacePhotos swaps the album's membership: current photos are
// detached, then the given photo ids are attached.
func (r *Repository) ReplacePhotos(ctx context.Context, albumID int64, photoIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).
			Where("album_id = ?", albumID).
			Update("album_id", nil).Error; err != nil {
			return err
		}
		if len(photoIDs) == 0 {
			return nil
		}
		return tx.Model(&models.Photo{}).
			Where("id IN ?", photoIDs).
			Update("album_id", albumID).Error
	})
}

// PhotosByIDs loads the given photos without preloads.
func (r *Repository) PhotosByIDs(ctx context.Context, ids []int64) ([]models.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Photo
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func photoOrder(db *gorm.DB) *gorm.DB {
	return db.Order("photos.created_at ASC, photos.id ASC")
}
