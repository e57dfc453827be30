package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	"github.com/fotoclick/backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.Photographer{},
		&models.Photo{},
		&models.Order{},
		&models.OrderItem{},
		&models.Cart{},
		&models.CartItem{},
	))
	return gdb
}

func seedPhoto(t *testing.T, gdb *gorm.DB, title string, price int64) *models.Photo {
	t.Helper()

	photographer := &models.Photographer{
		DisplayName:          "Studio",
		CommissionPercentage: decimal.NewFromInt(20),
	}
	require.NoError(t, gdb.Create(photographer).Error)

	photo := &models.Photo{
		PhotographerID: photographer.ID,
		Title:          &title,
		ObjectKey:      "photos/" + title + ".jpg",
		Price:          decimal.NewFromInt(price),
	}
	require.NoError(t, gdb.Create(photo).Error)
	return photo
}

func TestRepositoryCreateAndFindPreloadsItems(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	photo := seedPhoto(t, gdb, "sunset", 120)
	userID := int64(7)

	order := &models.Order{
		PublicID:      uuid.New(),
		UserID:        &userID,
		Total:         decimal.NewFromInt(240),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
		Items: []models.OrderItem{
			{PhotoID: photo.ID, Price: decimal.NewFromInt(120), Quantity: 2},
		},
	}

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Photo)
	require.NotNil(t, found.Items[0].Photo.Photographer)
	assert.Equal(t, "Studio", found.Items[0].Photo.Photographer.DisplayName)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(240)))

	byPublic, err := repo.FindByPublicID(ctx, created.PublicID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPublic.ID)

	_, err = repo.FindByPublicID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFiltersByOwnerAndStatus(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	alice := int64(1)
	bob := int64(2)
	for i, spec := range []struct {
		user   *int64
		status enums.PaymentStatus
	}{
		{&alice, enums.PaymentStatusPaid},
		{&alice, enums.PaymentStatusPending},
		{&bob, enums.PaymentStatusPaid},
	} {
		order := &models.Order{
			PublicID:      uuid.New(),
			UserID:        spec.user,
			Total:         decimal.NewFromInt(int64(10 * (i + 1))),
			PaymentStatus: spec.status,
			OrderStatus:   enums.OrderStatusPending,
		}
		require.NoError(t, gdb.Create(order).Error)
	}

	mine, err := repo.List(ctx, ListFilter{UserID: &alice}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	paid := enums.PaymentStatusPaid
	minePaid, err := repo.List(ctx, ListFilter{UserID: &alice, PaymentStatus: &paid}, 10, nil)
	require.NoError(t, err)
	require.Len(t, minePaid, 1)
	assert.True(t, minePaid[0].Total.Equal(decimal.NewFromInt(10)))
}

func TestRepositoryListPaginatesWithCursor(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 3; i++ {
		order := &models.Order{
			PublicID:      uuid.New(),
			Total:         decimal.NewFromInt(int64(i + 1)),
			PaymentStatus: enums.PaymentStatusPending,
			OrderStatus:   enums.OrderStatusPending,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, gdb.Create(order).Error)
	}

	first, err := repo.List(ctx, ListFilter{}, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	last := first[len(first)-1]
	second, err := repo.List(ctx, ListFilter{}, 2, &pagination.Cursor{
		CreatedAt: last.CreatedAt,
		ID:        last.ID,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].CreatedAt.Before(last.CreatedAt))
}

func TestRepositoryConfirmPaymentFlipsPendingOnce(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	order := &models.Order{
		PublicID:      uuid.New(),
		Total:         decimal.NewFromInt(75),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
	}
	require.NoError(t, gdb.Create(order).Error)

	fields := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"payment_method": enums.PaymentMethodCash,
		"order_status":   enums.OrderStatusPaid,
	}

	flipped, err := repo.ConfirmPayment(ctx, order.ID, fields)
	require.NoError(t, err)
	assert.True(t, flipped)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, found.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPaid, found.OrderStatus)

	// the row is no longer pending, so a second flip matches nothing
	flipped, err = repo.ConfirmPayment(ctx, order.ID, fields)
	require.NoError(t, err)
	assert.False(t, flipped)

	flipped, err = repo.ConfirmPayment(ctx, 404, fields)
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestRepositoryUpdateFieldsMissingRow(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	err := repo.UpdateFields(ctx, 404, map[string]any{"order_status": enums.OrderStatusShipped})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	order := &models.Order{
		PublicID:      uuid.New(),
		Total:         decimal.NewFromInt(50),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
	}
	require.NoError(t, gdb.Create(order).Error)

	require.NoError(t, repo.UpdateFields(ctx, order.ID, map[string]any{
		"order_status": enums.OrderStatusShipped,
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, found.OrderStatus)
}

func TestRepositoryDeleteRemovesOrderAndItems(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	photo := seedPhoto(t, gdb, "dunes", 80)
	order := &models.Order{
		PublicID:      uuid.New(),
		Total:         decimal.NewFromInt(80),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
		Items: []models.OrderItem{
			{PhotoID: photo.ID, Price: decimal.NewFromInt(80), Quantity: 1},
		},
	}
	require.NoError(t, gdb.Create(order).Error)

	require.NoError(t, repo.DeleteItems(ctx, order.ID))
	require.NoError(t, repo.Delete(ctx, order.ID))

	var itemCount int64
	require.NoError(t, gdb.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	assert.ErrorIs(t, repo.Delete(ctx, order.ID), gorm.ErrRecordNotFound)
}

func TestRepositoryEmptyCartForClearsOnlyThatIdentity(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()

	photo := seedPhoto(t, gdb, "harbor", 60)

	guestToken := "guest-abc"
	guestCart := &models.Cart{
		GuestToken: &guestToken,
		Items:      []models.CartItem{{PhotoID: photo.ID, Quantity: 2}},
	}
	require.NoError(t, gdb.Create(guestCart).Error)

	userID := int64(9)
	userCart := &models.Cart{
		UserID: &userID,
		Items:  []models.CartItem{{PhotoID: photo.ID, Quantity: 1}},
	}
	require.NoError(t, gdb.Create(userCart).Error)

	require.NoError(t, repo.EmptyCartFor(ctx, nil, &guestToken))

	var guestItems, userItems int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Where("cart_id = ?", guestCart.ID).Count(&guestItems).Error)
	require.NoError(t, gdb.Model(&models.CartItem{}).Where("cart_id = ?", userCart.ID).Count(&userItems).Error)
	assert.Zero(t, guestItems)
	assert.EqualValues(t, 1, userItems)

	var cartRows int64
	require.NoError(t, gdb.Model(&models.Cart{}).Count(&cartRows).Error)
	assert.EqualValues(t, 2, cartRows)
}
