package earnings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/pagination"
)

// Summary aggregates settled earnings for one photographer.
type Summary struct {
	PhotographerID     int64           `json:"photographer_id"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalPhotoFraction decimal.Decimal `json:"total_photo_fraction"`
	SaleCount          int64           `json:"sale_count"`
}

// Repository persists earning rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an earnings repo bound to the provided DB.
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

// CreateAll inserts the earning rows in one statement.
func (r *Repository) CreateAll(ctx context.Context, rows []models.Earning) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListByPhotographer returns a page of the photographer's earnings,
// newest first.
func (r *Repository) ListByPhotographer(ctx context.Context, photographerID int64, limit int, cursor *pagination.Cursor) ([]models.Earning, error) {
	query := r.db.WithContext(ctx).
		Where("photographer_id = ?", photographerID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Earning
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SummaryByPhotographer aggregates one photographer's settled earnings.
func (r *Repository) SummaryByPhotographer(ctx context.Context, photographerID int64) (*Summary, error) {
	summary := Summary{PhotographerID: photographerID}
	row := struct {
		TotalAmount        decimal.Decimal
		TotalPhotoFraction decimal.Decimal
		SaleCount          int64
	}{}

	err := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Select("COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(earned_photo_fraction), 0) AS total_photo_fraction, COUNT(*) AS sale_count").
		Where("photographer_id = ?", photographerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary.TotalAmount = row.TotalAmount
	summary.TotalPhotoFraction = row.TotalPhotoFraction
	summary.SaleCount = row.SaleCount
	return &summary, nil
}

// SummaryAll aggregates earnings per photographer across the platform.
func (r *Repository) SummaryAll(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	err := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Select("photographer_id, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(earned_photo_fraction), 0) AS total_photo_fraction, COUNT(*) AS sale_count").
		Group("photographer_id").
		Order("photographer_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByOrder removes an order's earning rows. Order deletion calls
// this before dropping the items the rows reference.
func (r *Repository) DeleteByOrder(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.Earning{}).Error
}

// ExistsForOrder reports whether the order has already been settled.
func (r *Repository) ExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EarningDTO is the transport shape of one settled earning row.
type EarningDTO struct {
	ID                   int64           `json:"id"`
	PhotographerID       int64           `json:"photographer_id"`
	OrderID              int64           `json:"order_id"`
	OrderItemID          int64           `json:"order_item_id"`
	Amount               decimal.Decimal `json:"amount"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	EarnedPhotoFraction  decimal.Decimal `json:"earned_photo_fraction"`
	CreatedAt            time.Time       `json:"created_at"`
}

func dtoFromModel(row *models.Earning) EarningDTO {
	return EarningDTO{
		ID:                   row.ID,
		PhotographerID:       row.PhotographerID,
		OrderID:              row.OrderID,
		OrderItemID:          row.OrderItemID,
		Amount:               row.Amount,
		CommissionPercentage: row.CommissionPercentage,
		EarnedPhotoFraction:  row.EarnedPhotoFraction,
		CreatedAt:            row.CreatedAt,
	}
}
