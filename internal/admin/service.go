package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

// Dashboard is the back-office financial overview.
type Dashboard struct {
	PaidOrders      int64               `json:"paid_orders"`
	GrossRevenue    decimal.Decimal     `json:"gross_revenue"`
	NetEarnings     decimal.Decimal     `json:"net_earnings"`
	TotalCommission decimal.Decimal     `json:"total_commission"`
	Photographers   []PhotographerSales `json:"photographers"`
}

// PhotographerSales is one photographer's line on the dashboard.
// Commission is derived, never stored: gross minus net.
type PhotographerSales struct {
	PhotographerID int64           `json:"photographer_id"`
	DisplayName    string          `json:"display_name"`
	Gross          decimal.Decimal `json:"gross"`
	Net            decimal.Decimal `json:"net"`
	Commission     decimal.Decimal `json:"commission"`
	SaleCount      int64           `json:"sale_count"`
}

type dashboardRepository interface {
	SalesTotals(ctx context.Context) (*SalesTotals, error)
	PhotographerBreakdowns(ctx context.Context) ([]PhotographerBreakdown, error)
}

// Service serves the admin dashboard.
type Service interface {
	Dashboard(ctx context.Context, identity permissions.Identity) (*Dashboard, error)
}

type service struct {
	repo dashboardRepository
	logg *logger.Logger
}

func NewService(repo dashboardRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Dashboard needs the full back-office read surface: all orders plus all
// earnings.
func (s *service) Dashboard(ctx context.Context, identity permissions.Identity) (*Dashboard, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(
		enums.PermissionListAllOrders,
		enums.PermissionViewAnyEarnings,
	)); err != nil {
		return nil, err
	}

	totals, err := s.repo.SalesTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales totals")
	}
	breakdowns, err := s.repo.PhotographerBreakdowns(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photographer breakdowns")
	}

	dashboard := &Dashboard{
		PaidOrders:      totals.PaidOrders,
		GrossRevenue:    totals.GrossRevenue,
		NetEarnings:     decimal.Zero,
		TotalCommission: decimal.Zero,
		Photographers:   make([]PhotographerSales, 0, len(breakdowns)),
	}
	for _, row := range breakdowns {
		commission := row.Gross.Sub(row.Net)
		dashboard.NetEarnings = dashboard.NetEarnings.Add(row.Net)
		dashboard.TotalCommission = dashboard.TotalCommission.Add(commission)
		dashboard.Photographers = append(dashboard.Photographers, PhotographerSales{
			PhotographerID: row.PhotographerID,
			DisplayName:    row.DisplayName,
			Gross:          row.Gross,
			Net:            row.Net,
			Commission:     commission,
			SaleCount:      row.SaleCount,
		})
	}
	return dashboard, nil
}
