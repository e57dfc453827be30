package photos

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/pagination"
)

// Repository exposes photo catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photos repo bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a photo.
func (r *Repository) Create(ctx context.Context, record *models.Photo) (*models.Photo, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads a photo with its photographer.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Photo, error) {
	var record models.Photo
	err := r.db.WithContext(ctx).
		Preload("Photographer").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDs loads the photos matching the given ids, photographer included.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) ([]models.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Photo
	err := r.db.WithContext(ctx).
		Preload("Photographer").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns a page of photos ordered by creation time.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photo, error) {
	query := r.db.WithContext(ctx).
		Preload("Photographer").
		Order("created_at ASC, id ASC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Photo
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided photo.
func (r *Repository) Update(ctx context.Context, record *models.Photo) (*models.Photo, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a photo row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Photo{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
