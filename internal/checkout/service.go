package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fotoclick/backend/internal/cart"
	"github.com/fotoclick/backend/internal/orders"
	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/mercadopago"
	"github.com/fotoclick/backend/pkg/metrics"
)

// Service turns carts into orders and keeps order state in sync with the
// payment provider.
type Service interface {
	StartCheckout(ctx context.Context, identity permissions.Identity, input StartCheckoutInput) (*CheckoutSession, error)
	HandlePaymentNotification(ctx context.Context, paymentID string) error
}

// StartCheckoutInput carries the optional contact email for the order.
// Guests must supply one here or have set it on the cart beforehand.
type StartCheckoutInput struct {
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// CheckoutSession is what the frontend needs to send the customer to the
// provider's checkout page.
type CheckoutSession struct {
	OrderID       int64  `json:"order_id"`
	OrderPublicID string `json:"order_public_id"`
	PreferenceID  string `json:"preference_id"`
	InitPoint     string `json:"init_point"`
}

type cartResolver interface {
	ResolveOrCreate(ctx context.Context, identity permissions.Identity) (*cart.CartView, error)
}

type orderGateway interface {
	Create(ctx context.Context, identity permissions.Identity, input orders.CreateOrderInput) (*orders.OrderDTO, error)
	MarkAsPaid(ctx context.Context, input orders.MarkAsPaidInput) (*orders.OrderDTO, error)
}

type paymentProvider interface {
	CreatePreference(ctx context.Context, pref mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Carts    cartResolver
	Orders   orderGateway
	Provider paymentProvider
	Config   config.MercadoPagoConfig
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
}

type service struct {
	carts    cartResolver
	orders   orderGateway
	provider paymentProvider
	cfg      config.MercadoPagoConfig
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService constructs the checkout service. Metrics may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart resolver required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    params.Carts,
		orders:   params.Orders,
		provider: params.Provider,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// StartCheckout snapshots the identity's cart into a pending order and opens
// a checkout preference with the provider. The cart itself stays untouched
// until payment confirms.
func (s *service) StartCheckout(ctx context.Context, identity permissions.Identity, input StartCheckoutInput) (*CheckoutSession, error) {
	if !identity.Resolved() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a user or guest token is required")
	}

	view, err := s.carts.ResolveOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	items := make([]orders.CreateOrderItemInput, 0, len(view.Items))
	for _, item := range view.Items {
		if !item.Available {
			continue
		}
		items = append(items, orders.CreateOrderItemInput{
			PhotoID:  item.PhotoID,
			Quantity: item.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	email := resolveEmail(input.CustomerEmail, view.CustomerEmail, identity.Email)
	if identity.IsGuest() && email == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest checkout requires a customer email")
	}

	order, err := s.orders.Create(ctx, identity, orders.CreateOrderInput{
		Items:         items,
		CustomerEmail: email,
	})
	if err != nil {
		return nil, err
	}

	pref, err := s.provider.CreatePreference(ctx, s.preferenceFor(order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout preference")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":      order.ID,
		"preference_id": pref.ID,
	}), "checkout session opened")

	return &CheckoutSession{
		OrderID:       order.ID,
		OrderPublicID: order.PublicID.String(),
		PreferenceID:  pref.ID,
		InitPoint:     pref.InitPoint,
	}, nil
}

// HandlePaymentNotification processes one provider webhook delivery. The
// notification body is never trusted; the payment is re-fetched from the
// provider and only its status drives the order. A nil return acknowledges
// the delivery; an error asks the provider to retry.
func (s *service) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	if strings.TrimSpace(paymentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	payment, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		s.metrics.IncWebhookEvent("provider_error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment from provider")
	}

	orderID, err := strconv.ParseInt(payment.ExternalReference, 10, 64)
	if err != nil || orderID <= 0 {
		s.metrics.IncWebhookEvent("unmatched")
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"payment_id":         paymentID,
			"external_reference": payment.ExternalReference,
		}), "payment notification has no usable order reference")
		return nil
	}

	if !payment.Approved() {
		s.metrics.IncWebhookEvent("ignored")
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"payment_id": paymentID,
			"status":     payment.Status,
			"order_id":   orderID,
		}), "payment not approved, nothing to do")
		return nil
	}

	externalID := strconv.FormatInt(payment.ID, 10)
	_, err = s.orders.MarkAsPaid(ctx, orders.MarkAsPaidInput{
		OrderID:           orderID,
		Method:            enums.PaymentMethodOnline,
		ExternalPaymentID: &externalID,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.IncWebhookEvent("duplicate")
			s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order already paid, acknowledging redelivery")
			return nil
		}
		s.metrics.IncWebhookEvent("error")
		return err
	}

	s.metrics.IncWebhookEvent("settled")
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order settled from payment notification")
	return nil
}

func (s *service) preferenceFor(order *orders.OrderDTO) mercadopago.PreferenceRequest {
	pref := mercadopago.PreferenceRequest{
		ExternalReference: strconv.FormatInt(order.ID, 10),
		NotificationURL:   s.cfg.NotificationURL,
	}
	for _, item := range order.Items {
		title := fmt.Sprintf("Photo #%d", item.PhotoID)
		if item.Title != nil {
			title = *item.Title
		}
		pref.Items = append(pref.Items, mercadopago.PreferenceItem{
			Title:      title,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price.InexactFloat64(),
			CurrencyID: s.cfg.CurrencyID,
		})
	}
	if s.cfg.SuccessURL != "" || s.cfg.FailureURL != "" || s.cfg.PendingURL != "" {
		pref.BackURLs = &mercadopago.BackURLs{
			Success: s.cfg.SuccessURL,
			Failure: s.cfg.FailureURL,
			Pending: s.cfg.PendingURL,
		}
	}
	if s.cfg.SuccessURL != "" {
		pref.AutoReturn = "approved"
	}
	if order.CustomerEmail != nil {
		pref.PayerEmail = &mercadopago.PreferencePayer{Email: *order.CustomerEmail}
	}
	return pref
}

func resolveEmail(candidates ...*string) *string {
	for _, candidate := range candidates {
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
