package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/mailer"
	"github.com/fotoclick/backend/pkg/metrics"
	"github.com/fotoclick/backend/pkg/pagination"
)

// Service drives the order lifecycle.
type Service interface {
	Create(ctx context.Context, identity permissions.Identity, input CreateOrderInput) (*OrderDTO, error)
	GetByID(ctx context.Context, identity permissions.Identity, id int64) (*OrderDTO, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, identity permissions.Identity, filter ListFilter, params pagination.Params) (*OrderListResult, error)
	ListMine(ctx context.Context, identity permissions.Identity, params pagination.Params) (*OrderListResult, error)
	MarkAsPaid(ctx context.Context, input MarkAsPaidInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, identity permissions.Identity, id int64, input UpdateStatusInput) (*OrderDTO, error)
	Edit(ctx context.Context, identity permissions.Identity, id int64, input EditOrderInput) (*OrderDTO, error)
	Delete(ctx context.Context, identity permissions.Identity, id int64) error
	ResendConfirmation(ctx context.Context, identity permissions.Identity, id int64) error
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo     OrdersRepository
	Tx       txRunner
	Photos   photoLoader
	Earnings earningsSettler
	Mailer   mailer.Sender
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     OrdersRepository
	tx       txRunner
	photos   photoLoader
	earnings earningsSettler
	mail     mailer.Sender
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService constructs the order service. Mailer and metrics may be nil;
// both are best-effort concerns.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Photos == nil {
		return nil, fmt.Errorf("photo loader required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings settler required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		photos:   params.Photos,
		earnings: params.Earnings,
		mail:     params.Mailer,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Create builds a pending order for the calling identity. Prices are
// snapshotted from the catalog at this moment; later photo price changes
// never touch the order.
func (s *service) Create(ctx context.Context, identity permissions.Identity, input CreateOrderInput) (*OrderDTO, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	photoIDs := make([]int64, 0, len(input.Items))
	for _, item := range input.Items {
		if item.PhotoID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		photoIDs = append(photoIDs, item.PhotoID)
	}

	photos, err := s.photos.FindByIDs(ctx, photoIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photos")
	}
	photosByID := make(map[int64]*models.Photo, len(photos))
	for i := range photos {
		photosByID[photos[i].ID] = &photos[i]
	}

	order := &models.Order{
		PublicID:      uuid.New(),
		UserID:        identity.UserID,
		GuestToken:    identity.GuestToken,
		CustomerEmail: normalizeEmail(input.CustomerEmail, identity.Email),
		DiscountID:    input.DiscountID,
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPending,
		Total:         decimal.Zero,
	}

	for _, item := range input.Items {
		photo, ok := photosByID[item.PhotoID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		lineTotal := photo.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Total = order.Total.Add(lineTotal)
		order.Items = append(order.Items, models.OrderItem{
			PhotoID:  photo.ID,
			Price:    photo.Price,
			Quantity: item.Quantity,
			Format:   item.Format,
		})
	}
	order.Total = order.Total.Round(2)

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.ID), "order created")
	return dtoFromModel(created), nil
}

// MarkAsPaid confirms payment and settles the order atomically: payment
// columns flip, earnings rows are written, and the placing identity's
// cart empties in one transaction. The flip is conditional on the row
// still being pending, so of two concurrent confirmations exactly one
// commits; the loser returns Conflict and changes nothing. Unless
// FinalStatus overrides it, any order_status not already implying
// payment (including shipped or rejected, which Edit can produce) is
// advanced to paid. The confirmation email goes out after commit, best
// effort.
func (s *service) MarkAsPaid(ctx context.Context, input MarkAsPaidInput) (*OrderDTO, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	start := time.Now()
	var paid *models.Order
	var settledCount int

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}

		method := input.Method
		fields := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"payment_method": method,
		}
		switch {
		case input.FinalStatus != nil:
			fields["order_status"] = *input.FinalStatus
		case !order.OrderStatus.RequiresPayment():
			fields["order_status"] = enums.OrderStatusPaid
		}
		if input.ExternalPaymentID != nil {
			fields["external_payment_id"] = *input.ExternalPaymentID
		}
		flipped, err := repo.ConfirmPayment(ctx, order.ID, fields)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		}

		rows, err := s.earnings.SettleOrderTx(ctx, tx, order)
		if err != nil {
			return err
		}
		settledCount = len(rows)

		if err := repo.EmptyCartFor(ctx, order.UserID, order.GuestToken); err != nil {
			return err
		}

		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentMethod = &method
		if status, ok := fields["order_status"].(enums.OrderStatus); ok {
			order.OrderStatus = status
		}
		order.ExternalPaymentID = input.ExternalPaymentID
		paid = order
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}

	s.metrics.ObserveSettlement(input.Method.String(), time.Since(start))
	s.metrics.AddEarnings(settledCount)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": paid.ID,
		"method":   input.Method.String(),
		"earnings": settledCount,
	}), "order paid and settled")

	s.sendConfirmation(ctx, paid)
	return dtoFromModel(paid), nil
}

// UpdateStatus moves the order through its lifecycle. A transition into a
// paid-implying status while payment is still pending is a payment
// confirmation, so it requires an explicit manual method and delegates to
// MarkAsPaid.
func (s *service) UpdateStatus(ctx context.Context, identity permissions.Identity, id int64, input UpdateStatusInput) (*OrderDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionUpdateOrderStatus)); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status.RequiresPayment() && order.PaymentStatus != enums.PaymentStatusPaid {
		if input.Method == nil || !input.Method.IsManual() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"confirming payment through a status change requires a manual payment method")
		}
		return s.MarkAsPaid(ctx, MarkAsPaidInput{
			OrderID:     id,
			Method:      *input.Method,
			FinalStatus: &input.Status,
		})
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]any{"order_status": input.Status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.OrderStatus = input.Status
	return dtoFromModel(order), nil
}

// Edit applies a raw column patch. It never settles earnings, empties
// carts, or sends email, whatever fields it touches.
func (s *service) Edit(ctx context.Context, identity permissions.Identity, id int64, input EditOrderInput) (*OrderDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionEditOrder)); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	fields := map[string]any{}
	if input.CustomerEmail != nil {
		fields["customer_email"] = strings.ToLower(strings.TrimSpace(*input.CustomerEmail))
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		fields["payment_method"] = *input.PaymentMethod
	}
	if input.PaymentStatus != nil {
		if !input.PaymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
		}
		fields["payment_status"] = *input.PaymentStatus
	}
	if input.OrderStatus != nil {
		if !input.OrderStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		fields["order_status"] = *input.OrderStatus
	}
	if input.ExternalPaymentID != nil {
		fields["external_payment_id"] = *input.ExternalPaymentID
	}
	if input.DiscountID != nil {
		fields["discount_id"] = *input.DiscountID
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "edit order")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dtoFromModel(order), nil
}

// Delete removes the order and everything hanging off it: earnings first,
// then items, then the order row, in one transaction.
func (s *service) Delete(ctx context.Context, identity permissions.Identity, id int64) error {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionDeleteOrder)); err != nil {
		return err
	}
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.earnings.DeleteByOrderTx(ctx, tx, id); err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, id), "order deleted")
	return nil
}

// GetByID returns the order to its owner, or to callers holding
// list_all_orders.
func (s *service) GetByID(ctx context.Context, identity permissions.Identity, id int64) (*OrderDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.owns(identity, order) {
		if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionListAllOrders)); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return dtoFromModel(order), nil
}

// GetByPublicID looks an order up by its customer-facing UUID. The UUID
// is unguessable and doubles as the access token for payment-return
// pages.
func (s *service) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*OrderDTO, error) {
	if publicID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order public id is required")
	}
	order, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return dtoFromModel(order), nil
}

// ListAll pages through every order. Requires list_all_orders.
func (s *service) ListAll(ctx context.Context, identity permissions.Identity, filter ListFilter, params pagination.Params) (*OrderListResult, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionListAllOrders)); err != nil {
		return nil, err
	}
	return s.list(ctx, filter, params)
}

// ListMine pages through the calling identity's own orders.
func (s *service) ListMine(ctx context.Context, identity permissions.Identity, params pagination.Params) (*OrderListResult, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}
	filter := ListFilter{}
	if identity.IsUser() {
		filter.UserID = identity.UserID
	} else {
		filter.GuestToken = identity.GuestToken
	}
	return s.list(ctx, filter, params)
}

// ResendConfirmation re-sends the payment confirmation email for a paid
// order.
func (s *service) ResendConfirmation(ctx context.Context, identity permissions.Identity, id int64) error {
	order, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.owns(identity, order) {
		if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionListAllOrders)); err != nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if order.CustomerEmail == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no customer email")
	}

	if err := s.sendConfirmationErr(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send confirmation")
	}
	return nil
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			next := pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: rows[limit-1].CreatedAt,
				ID:        rows[limit-1].ID,
			})
			result.NextCursor = &next
			break
		}
		result.Orders = append(result.Orders, *dtoFromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) owns(identity permissions.Identity, order *models.Order) bool {
	if identity.IsUser() && order.UserID != nil {
		return *identity.UserID == *order.UserID
	}
	if identity.IsGuest() && order.GuestToken != nil {
		return *identity.GuestToken == *order.GuestToken
	}
	return false
}

func (s *service) sendConfirmation(ctx context.Context, order *models.Order) {
	if err := s.sendConfirmationErr(ctx, order); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID), "confirmation email failed")
	}
}

func (s *service) sendConfirmationErr(ctx context.Context, order *models.Order) error {
	if s.mail == nil || order.CustomerEmail == nil {
		return nil
	}

	var lines strings.Builder
	for _, item := range order.Items {
		title := fmt.Sprintf("photo #%d", item.PhotoID)
		if item.Photo != nil && item.Photo.Title != nil {
			title = *item.Photo.Title
		}
		fmt.Fprintf(&lines, "<li>%s x%d - %s</li>", title, item.Quantity, item.Price.StringFixed(2))
	}

	return s.mail.Send(ctx, mailer.Message{
		To:      []string{*order.CustomerEmail},
		Subject: fmt.Sprintf("Order %s confirmed", order.PublicID),
		HTML: fmt.Sprintf(
			"<p>Thanks for your purchase.</p><ul>%s</ul><p>Total: %s</p>",
			lines.String(), order.Total.StringFixed(2),
		),
	})
}

func normalizeEmail(explicit, fallback *string) *string {
	for _, candidate := range []*string{explicit, fallback} {
		if candidate == nil {
			continue
		}
		trimmed := strings.ToLower(strings.TrimSpace(*candidate))
		if trimmed != "" {
			return &trimmed
		}
	}
	return nil
}
