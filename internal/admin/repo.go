package admin

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
)

// SalesTotals aggregates the paid side of the order book.
type SalesTotals struct {
	PaidOrders   int64           `gorm:"column:paid_orders"`
	GrossRevenue decimal.Decimal `gorm:"column:gross_revenue"`
}

// PhotographerBreakdown is one photographer's settled sales. Gross is what
// customers paid for their photos, Net is what the photographer keeps.
type PhotographerBreakdown struct {
	PhotographerID int64           `gorm:"column:photographer_id"`
	DisplayName    string          `gorm:"column:display_name"`
	Gross          decimal.Decimal `gorm:"column:gross"`
	Net            decimal.Decimal `gorm:"column:net"`
	SaleCount      int64           `gorm:"column:sale_count"`
}

// Repository aggregates across orders and earnings for the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SalesTotals sums paid orders only; pending and failed checkouts never
// count as revenue.
func (r *Repository) SalesTotals(ctx context.Context) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS paid_orders, COALESCE(SUM(total), 0) AS gross_revenue").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// PhotographerBreakdowns reconstructs gross per photographer from the
// settled order items and pairs it with the net amounts recorded at
// settlement time.
func (r *Repository) PhotographerBreakdowns(ctx context.Context) ([]PhotographerBreakdown, error) {
	var rows []PhotographerBreakdown
	err := r.db.WithContext(ctx).
		Model(&models.Earning{}).
		Select(
			"earnings.photographer_id AS photographer_id, " +
				"photographers.display_name AS display_name, " +
				"COALESCE(SUM(order_items.price * order_items.quantity), 0) AS gross, " +
				"COALESCE(SUM(earnings.amount), 0) AS net, " +
				"COUNT(*) AS sale_count",
		).
		Joins("JOIN order_items ON order_items.id = earnings.order_item_id").
		Joins("JOIN photographers ON photographers.id = earnings.photographer_id").
		Group("earnings.photographer_id, photographers.display_name").
		Order("earnings.photographer_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
