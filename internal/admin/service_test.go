package admin

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:admin_%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.Photographer{},
		&models.Photo{},
		&models.Order{},
		&models.OrderItem{},
		&models.Earning{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "admin-test", Output: io.Discard})
	svc, err := NewService(NewRepository(gdb), logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, gdb
}

func adminIdentity() permissions.Identity {
	return permissions.UserIdentity(1, permissions.NewSet(
		enums.PermissionListAllOrders,
		enums.PermissionViewAnyEarnings,
	))
}

func TestDashboardAggregatesPaidOrders(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	studio := &models.Photographer{DisplayName: "Studio", CommissionPercentage: decimal.NewFromInt(20)}
	freelancer := &models.Photographer{DisplayName: "Freelancer", CommissionPercentage: decimal.NewFromInt(10)}
	for _, p := range []*models.Photographer{studio, freelancer} {
		if err := gdb.Create(p).Error; err != nil {
			t.Fatalf("seed photographer: %v", err)
		}
	}

	paid := &models.Order{
		PublicID:      uuid.New(),
		Total:         decimal.NewFromInt(300),
		PaymentStatus: enums.PaymentStatusPaid,
		OrderStatus:   enums.OrderStatusPaid,
	}
	pending := &models.Order{
		PublicID:      uuid.New(),
		Total:         decimal.NewFromInt(999),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
	}
	for _, o := range []*models.Order{paid, pending} {
		if err := gdb.Create(o).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	// studio sold 100x2 at 20%, freelancer 100x1 at 10%
	items := []*models.OrderItem{
		{OrderID: paid.ID, PhotoID: 1, Price: decimal.NewFromInt(100), Quantity: 2},
		{OrderID: paid.ID, PhotoID: 2, Price: decimal.NewFromInt(100), Quantity: 1},
	}
	for _, item := range items {
		if err := gdb.Create(item).Error; err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	earnings := []*models.Earning{
		{
			PhotographerID:       studio.ID,
			OrderID:              paid.ID,
			OrderItemID:          items[0].ID,
			Amount:               decimal.NewFromInt(160),
			CommissionPercentage: decimal.NewFromInt(20),
			EarnedPhotoFraction:  decimal.NewFromFloat(1.6),
		},
		{
			PhotographerID:       freelancer.ID,
			OrderID:              paid.ID,
			OrderItemID:          items[1].ID,
			Amount:               decimal.NewFromInt(90),
			CommissionPercentage: decimal.NewFromInt(10),
			EarnedPhotoFraction:  decimal.NewFromFloat(0.9),
		},
	}
	for _, earning := range earnings {
		if err := gdb.Create(earning).Error; err != nil {
			t.Fatalf("seed earning: %v", err)
		}
	}

	dashboard, err := svc.Dashboard(ctx, adminIdentity())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if dashboard.PaidOrders != 1 {
		t.Fatalf("expected 1 paid order, got %d", dashboard.PaidOrders)
	}
	if !dashboard.GrossRevenue.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected gross 300 excluding pending orders, got %s", dashboard.GrossRevenue)
	}
	if !dashboard.NetEarnings.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected net 250, got %s", dashboard.NetEarnings)
	}
	if !dashboard.TotalCommission.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected commission 50, got %s", dashboard.TotalCommission)
	}

	if len(dashboard.Photographers) != 2 {
		t.Fatalf("expected 2 photographer rows, got %d", len(dashboard.Photographers))
	}
	studioRow := dashboard.Photographers[0]
	if studioRow.DisplayName != "Studio" || !studioRow.Gross.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected studio row %+v", studioRow)
	}
	if !studioRow.Commission.Equal(decimal.NewFromInt(40)) || studioRow.SaleCount != 1 {
		t.Fatalf("unexpected studio split %+v", studioRow)
	}
	freelancerRow := dashboard.Photographers[1]
	if !freelancerRow.Net.Equal(decimal.NewFromInt(90)) || !freelancerRow.Commission.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected freelancer split %+v", freelancerRow)
	}
}

func TestDashboardEmptyBook(t *testing.T) {
	svc, _ := newTestService(t)

	dashboard, err := svc.Dashboard(context.Background(), adminIdentity())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dashboard.PaidOrders != 0 || !dashboard.GrossRevenue.IsZero() {
		t.Fatalf("expected zero totals, got %+v", dashboard)
	}
	if len(dashboard.Photographers) != 0 {
		t.Fatalf("expected no photographer rows, got %+v", dashboard.Photographers)
	}
}

func TestDashboardRequiresBackOfficeRead(t *testing.T) {
	svc, _ := newTestService(t)

	// list_all_orders alone is not enough
	partial := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionListAllOrders))
	_, err := svc.Dashboard(context.Background(), partial)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// full_access bypasses the pair
	root := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionFullAccess))
	if _, err := svc.Dashboard(context.Background(), root); err != nil {
		t.Fatalf("full access dashboard: %v", err)
	}
}
