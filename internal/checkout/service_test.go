package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fotoclick/backend/internal/cart"
	"github.com/fotoclick/backend/internal/orders"
	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/mercadopago"
)

func TestStartCheckoutBuildsPreferenceFromCart(t *testing.T) {
	title := "Sunset"
	email := "buyer@example.com"
	carts := &stubCartResolver{view: &cart.CartView{
		ID: 1,
		Items: []cart.CartItemView{
			{PhotoID: 1, Title: &title, Quantity: 2, UnitPrice: decimal.NewFromInt(100), Available: true},
			{PhotoID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(50), Available: false},
		},
	}}
	gateway := &stubOrderGateway{}
	provider := &stubProvider{preference: &mercadopago.Preference{ID: "pref-1", InitPoint: "https://mp.test/init"}}
	svc := buildCheckoutService(t, carts, gateway, provider)

	session, err := svc.StartCheckout(context.Background(), permissions.GuestIdentity("g-1"), StartCheckoutInput{CustomerEmail: &email})
	if err != nil {
		t.Fatalf("start checkout: %v", err)
	}

	if session.PreferenceID != "pref-1" || session.InitPoint != "https://mp.test/init" {
		t.Fatalf("unexpected session %+v", session)
	}
	if len(gateway.createdInput.Items) != 1 || gateway.createdInput.Items[0].PhotoID != 1 {
		t.Fatalf("expected only available lines ordered, got %+v", gateway.createdInput.Items)
	}
	if gateway.createdInput.CustomerEmail == nil || *gateway.createdInput.CustomerEmail != email {
		t.Fatalf("expected customer email forwarded, got %v", gateway.createdInput.CustomerEmail)
	}
	if provider.preferenceReq.ExternalReference != "1" {
		t.Fatalf("expected order id as external reference, got %q", provider.preferenceReq.ExternalReference)
	}
	if len(provider.preferenceReq.Items) != 1 || provider.preferenceReq.Items[0].Title != "Sunset" {
		t.Fatalf("unexpected preference items %+v", provider.preferenceReq.Items)
	}
	if provider.preferenceReq.Items[0].UnitPrice != 100 || provider.preferenceReq.Items[0].CurrencyID != "ARS" {
		t.Fatalf("unexpected preference pricing %+v", provider.preferenceReq.Items[0])
	}
	if provider.preferenceReq.BackURLs == nil || provider.preferenceReq.AutoReturn != "approved" {
		t.Fatalf("expected back urls with auto return, got %+v", provider.preferenceReq)
	}
}

func TestStartCheckoutEmptyCart(t *testing.T) {
	carts := &stubCartResolver{view: &cart.CartView{ID: 1}}
	svc := buildCheckoutService(t, carts, &stubOrderGateway{}, &stubProvider{})

	_, err := svc.StartCheckout(context.Background(), permissions.GuestIdentity("g-1"), StartCheckoutInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartCheckoutGuestNeedsEmail(t *testing.T) {
	carts := &stubCartResolver{view: &cart.CartView{
		ID:    1,
		Items: []cart.CartItemView{{PhotoID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10), Available: true}},
	}}
	svc := buildCheckoutService(t, carts, &stubOrderGateway{}, &stubProvider{})

	_, err := svc.StartCheckout(context.Background(), permissions.GuestIdentity("g-1"), StartCheckoutInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// a cart-level email satisfies it
	cartEmail := "cart@example.com"
	carts.view.CustomerEmail = &cartEmail
	provider := &stubProvider{preference: &mercadopago.Preference{ID: "pref-2"}}
	svc = buildCheckoutService(t, carts, &stubOrderGateway{}, provider)
	if _, err := svc.StartCheckout(context.Background(), permissions.GuestIdentity("g-1"), StartCheckoutInput{}); err != nil {
		t.Fatalf("start checkout with cart email: %v", err)
	}
}

func TestNotificationApprovedConfirmsOrder(t *testing.T) {
	gateway := &stubOrderGateway{}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                987,
		Status:            "approved",
		ExternalReference: "42",
	}}
	svc := buildCheckoutService(t, &stubCartResolver{}, gateway, provider)

	if err := svc.HandlePaymentNotification(context.Background(), "987"); err != nil {
		t.Fatalf("handle notification: %v", err)
	}
	if gateway.paidInput.OrderID != 42 {
		t.Fatalf("expected order 42 confirmed, got %+v", gateway.paidInput)
	}
	if gateway.paidInput.Method != enums.PaymentMethodOnline {
		t.Fatalf("expected online method, got %s", gateway.paidInput.Method)
	}
	if gateway.paidInput.ExternalPaymentID == nil || *gateway.paidInput.ExternalPaymentID != "987" {
		t.Fatalf("expected provider payment id recorded, got %v", gateway.paidInput.ExternalPaymentID)
	}
}

func TestNotificationNonApprovedIsAcknowledged(t *testing.T) {
	gateway := &stubOrderGateway{}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                987,
		Status:            "rejected",
		ExternalReference: "42",
	}}
	svc := buildCheckoutService(t, &stubCartResolver{}, gateway, provider)

	if err := svc.HandlePaymentNotification(context.Background(), "987"); err != nil {
		t.Fatalf("non-approved delivery must ack, got %v", err)
	}
	if gateway.paidCalls != 0 {
		t.Fatal("non-approved payment must not touch the order")
	}
}

func TestNotificationMalformedReferenceIsAcknowledged(t *testing.T) {
	gateway := &stubOrderGateway{}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                987,
		Status:            "approved",
		ExternalReference: "not-an-order",
	}}
	svc := buildCheckoutService(t, &stubCartResolver{}, gateway, provider)

	if err := svc.HandlePaymentNotification(context.Background(), "987"); err != nil {
		t.Fatalf("malformed reference must ack, got %v", err)
	}
	if gateway.paidCalls != 0 {
		t.Fatal("malformed reference must not touch any order")
	}
}

func TestNotificationDuplicateConfirmationIsBenign(t *testing.T) {
	gateway := &stubOrderGateway{paidErr: pkgerrors.New(pkgerrors.CodeConflict, "order already paid")}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                987,
		Status:            "approved",
		ExternalReference: "42",
	}}
	svc := buildCheckoutService(t, &stubCartResolver{}, gateway, provider)

	if err := svc.HandlePaymentNotification(context.Background(), "987"); err != nil {
		t.Fatalf("already-paid redelivery must ack, got %v", err)
	}
}

func TestNotificationProviderFailurePropagates(t *testing.T) {
	provider := &stubProvider{paymentErr: errors.New("provider down")}
	svc := buildCheckoutService(t, &stubCartResolver{}, &stubOrderGateway{}, provider)

	err := svc.HandlePaymentNotification(context.Background(), "987")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for retry, got %v", err)
	}
}

func TestNotificationOrderWriteFailurePropagates(t *testing.T) {
	gateway := &stubOrderGateway{paidErr: pkgerrors.New(pkgerrors.CodeDependency, "database down")}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                987,
		Status:            "approved",
		ExternalReference: "42",
	}}
	svc := buildCheckoutService(t, &stubCartResolver{}, gateway, provider)

	if err := svc.HandlePaymentNotification(context.Background(), "987"); err == nil {
		t.Fatal("expected write failure to propagate for retry")
	}
}

func buildCheckoutService(t *testing.T, carts *stubCartResolver, gateway *stubOrderGateway, provider *stubProvider) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Carts:    carts,
		Orders:   gateway,
		Provider: provider,
		Config: config.MercadoPagoConfig{
			SuccessURL:      "https://shop.test/checkout/success",
			FailureURL:      "https://shop.test/checkout/failure",
			NotificationURL: "https://shop.test/webhooks/mercadopago",
			CurrencyID:      "ARS",
		},
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubCartResolver struct {
	view *cart.CartView
}

func (s *stubCartResolver) ResolveOrCreate(ctx context.Context, identity permissions.Identity) (*cart.CartView, error) {
	if s.view == nil {
		return &cart.CartView{}, nil
	}
	return s.view, nil
}

type stubOrderGateway struct {
	createdInput orders.CreateOrderInput
	paidInput    orders.MarkAsPaidInput
	paidCalls    int
	paidErr      error
}

func (s *stubOrderGateway) Create(ctx context.Context, identity permissions.Identity, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.createdInput = input
	dto := &orders.OrderDTO{ID: 1, PublicID: uuid.New(), CustomerEmail: input.CustomerEmail}
	for _, item := range input.Items {
		dto.Items = append(dto.Items, orders.OrderItemDTO{
			PhotoID:  item.PhotoID,
			Quantity: item.Quantity,
			Price:    decimal.NewFromInt(100),
		})
	}
	if len(dto.Items) > 0 {
		title := "Sunset"
		dto.Items[0].Title = &title
	}
	return dto, nil
}

func (s *stubOrderGateway) MarkAsPaid(ctx context.Context, input orders.MarkAsPaidInput) (*orders.OrderDTO, error) {
	s.paidCalls++
	s.paidInput = input
	if s.paidErr != nil {
		return nil, s.paidErr
	}
	return &orders.OrderDTO{ID: input.OrderID}, nil
}

type stubProvider struct {
	preference    *mercadopago.Preference
	preferenceReq mercadopago.PreferenceRequest
	payment       *mercadopago.Payment
	paymentErr    error
}

func (s *stubProvider) CreatePreference(ctx context.Context, pref mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	s.preferenceReq = pref
	if s.preference == nil {
		return &mercadopago.Preference{ID: "pref"}, nil
	}
	return s.preference, nil
}

func (s *stubProvider) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	return s.payment, nil
}
