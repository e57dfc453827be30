package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	checkoutsvc "github.com/fotoclick/backend/internal/checkout"
	"github.com/fotoclick/backend/internal/permissions"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/types"
)

type stubCheckoutService struct {
	handled []string
	err     error
}

func (s *stubCheckoutService) StartCheckout(ctx context.Context, identity permissions.Identity, input checkoutsvc.StartCheckoutInput) (*checkoutsvc.CheckoutSession, error) {
	panic("not implemented")
}

func (s *stubCheckoutService) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	s.handled = append(s.handled, paymentID)
	return s.err
}

func TestWebhookProcessesPaymentNotification(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := MercadoPagoWebhook(svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?type=payment&data.id=987", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(svc.handled) != 1 || svc.handled[0] != "987" {
		t.Fatalf("expected payment 987 handled, got %v", svc.handled)
	}
}

func TestWebhookReadsBodyNotification(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := MercadoPagoWebhook(svc, nil, nil)

	body := strings.NewReader(`{"type":"payment","data":{"id":"555"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(svc.handled) != 1 || svc.handled[0] != "555" {
		t.Fatalf("expected payment 555 handled, got %v", svc.handled)
	}
}

func TestWebhookIgnoresOtherTopics(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := MercadoPagoWebhook(svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?type=merchant_order&data.id=1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", w.Code)
	}
	if len(svc.handled) != 0 {
		t.Fatalf("non-payment topic must not be handled, got %v", svc.handled)
	}
}

func TestWebhookDuplicateDeliveryShortCircuits(t *testing.T) {
	svc := &stubCheckoutService{}
	guard := checkoutsvc.NewIdempotencyGuard(newMemoryIdempotencyStore(), "mercadopago", time.Hour)
	handler := MercadoPagoWebhook(svc, guard, nil)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?type=payment&data.id=987", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, w.Code)
		}
	}

	if len(svc.handled) != 1 {
		t.Fatalf("expected exactly one processing, got %d", len(svc.handled))
	}
}

func TestWebhookFailureReleasesClaimAndErrors(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDependency, "provider down")}
	guard := checkoutsvc.NewIdempotencyGuard(newMemoryIdempotencyStore(), "mercadopago", time.Hour)
	handler := MercadoPagoWebhook(svc, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?type=payment&data.id=987", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for retryable failure, got %d", w.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}

	// claim was released, the retry processes again
	svc.err = nil
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?type=payment&data.id=987", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", w.Code)
	}
	if len(svc.handled) != 2 {
		t.Fatalf("expected two processing attempts, got %d", len(svc.handled))
	}
}

type memoryIdempotencyStore struct {
	keys map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: map[string]string{}}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return s.keys[key], nil
}

func (s *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = "1"
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}
