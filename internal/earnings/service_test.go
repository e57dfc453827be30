package earnings

import (
	"context"
	"fmt"
	"io"
	"testing"

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

type dbPhotographerResolver struct {
	db *gorm.DB
}

func (r dbPhotographerResolver) FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error) {
	var record models.Photographer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:earnings_%s?mode=memory&cache=shared", t.Name())
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

	logg := logger.New(logger.Options{ServiceName: "earnings-test", Output: io.Discard})
	svc, err := NewService(NewRepository(gdb), dbPhotographerResolver{db: gdb}, logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, gdb
}

func TestSettleOrderSplitsPerItem(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	photographer := &models.Photographer{DisplayName: "Studio", CommissionPercentage: decimal.NewFromInt(20)}
	if err := gdb.Create(photographer).Error; err != nil {
		t.Fatalf("seed photographer: %v", err)
	}

	order := &models.Order{
		ID: 5,
		Items: []models.OrderItem{
			{
				ID:       10,
				PhotoID:  1,
				Price:    decimal.NewFromInt(100),
				Quantity: 1,
				Photo:    &models.Photo{ID: 1, Photographer: photographer},
			},
			{
				ID:       11,
				PhotoID:  2,
				Price:    decimal.NewFromInt(50),
				Quantity: 2,
				Photo:    &models.Photo{ID: 2, Photographer: photographer},
			},
		},
	}

	var rows []models.Earning
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = svc.SettleOrderTx(ctx, tx, order)
		return err
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 earnings, got %d", len(rows))
	}
	if !rows[0].Amount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected first earning 80, got %s", rows[0].Amount)
	}
	if !rows[0].EarnedPhotoFraction.Equal(decimal.NewFromFloat(0.8)) {
		t.Fatalf("expected fraction 0.8, got %s", rows[0].EarnedPhotoFraction)
	}
	if !rows[1].Amount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected second earning 80, got %s", rows[1].Amount)
	}
	if !rows[1].EarnedPhotoFraction.Equal(decimal.NewFromFloat(1.6)) {
		t.Fatalf("expected fraction 1.6, got %s", rows[1].EarnedPhotoFraction)
	}

	var persisted int64
	gdb.Model(&models.Earning{}).Where("order_id = ?", order.ID).Count(&persisted)
	if persisted != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", persisted)
	}
}

func TestSettleOrderSkipsOrphanedItems(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	photographer := &models.Photographer{DisplayName: "Studio", CommissionPercentage: decimal.NewFromInt(10)}
	if err := gdb.Create(photographer).Error; err != nil {
		t.Fatalf("seed photographer: %v", err)
	}

	order := &models.Order{
		ID: 6,
		Items: []models.OrderItem{
			{ID: 20, PhotoID: 9, Price: decimal.NewFromInt(30), Quantity: 1, Photo: nil},
			{
				ID:       21,
				PhotoID:  3,
				Price:    decimal.NewFromInt(40),
				Quantity: 1,
				Photo:    &models.Photo{ID: 3, Photographer: photographer},
			},
		},
	}

	var rows []models.Earning
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = svc.SettleOrderTx(ctx, tx, order)
		return err
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected orphaned item skipped, got %d rows", len(rows))
	}
	if rows[0].OrderItemID != 21 {
		t.Fatalf("expected surviving item settled, got item %d", rows[0].OrderItemID)
	}
}

func TestSettleOrderRejectsDoubleSettlement(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	if err := gdb.Create(&models.Earning{
		PhotographerID:       1,
		OrderID:              7,
		OrderItemID:          30,
		Amount:               decimal.NewFromInt(10),
		CommissionPercentage: decimal.NewFromInt(20),
		EarnedPhotoFraction:  decimal.NewFromInt(1),
	}).Error; err != nil {
		t.Fatalf("seed earning: %v", err)
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		_, err := svc.SettleOrderTx(ctx, tx, &models.Order{ID: 7})
		return err
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSummaryOwnershipChecks(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	ownerUserID := int64(50)
	mine := &models.Photographer{UserID: &ownerUserID, DisplayName: "Mine", CommissionPercentage: decimal.NewFromInt(20)}
	if err := gdb.Create(mine).Error; err != nil {
		t.Fatalf("seed photographer: %v", err)
	}
	if err := gdb.Create(&models.Earning{
		PhotographerID:       mine.ID,
		OrderID:              1,
		OrderItemID:          1,
		Amount:               decimal.NewFromInt(80),
		CommissionPercentage: decimal.NewFromInt(20),
		EarnedPhotoFraction:  decimal.NewFromFloat(0.8),
	}).Error; err != nil {
		t.Fatalf("seed earning: %v", err)
	}

	owner := permissions.UserIdentity(ownerUserID, permissions.NewSet(enums.PermissionViewOwnEarnings))
	summary, err := svc.SummaryForPhotographer(ctx, owner, mine.ID)
	if err != nil {
		t.Fatalf("own summary: %v", err)
	}
	if !summary.TotalAmount.Equal(decimal.NewFromInt(80)) || summary.SaleCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// view_own on another photographer's earnings
	_, err = svc.SummaryForPhotographer(ctx, owner, mine.ID+1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// view_any sees everyone
	auditor := permissions.UserIdentity(99, permissions.NewSet(enums.PermissionViewAnyEarnings))
	if _, err := svc.SummaryForPhotographer(ctx, auditor, mine.ID); err != nil {
		t.Fatalf("any summary: %v", err)
	}

	all, err := svc.SummaryAll(ctx, auditor)
	if err != nil {
		t.Fatalf("summary all: %v", err)
	}
	if len(all) != 1 || all[0].PhotographerID != mine.ID {
		t.Fatalf("unexpected platform summary %+v", all)
	}
}
