package photographers

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/pagination"
)

// Repository exposes photographer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photographers repo bound to the provided DB.
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

// Create inserts a photographer.
func (r *Repository) Create(ctx context.Context, record *models.Photographer) (*models.Photographer, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads a photographer by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Photographer, error) {
	var record models.Photographer
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByUserID loads the photographer profile linked to a user account.
func (r *Repository) FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error) {
	var record models.Photographer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns a page of photographers ordered by creation time.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photographer, error) {
	query := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Photographer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided photographer.
func (r *Repository) Update(ctx context.Context, record *models.Photographer) (*models.Photographer, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a photographer row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Photographer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
