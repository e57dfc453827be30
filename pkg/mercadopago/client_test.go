package mercadopago

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fotoclick/backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.MercadoPagoConfig{
		AccessToken: "TEST-token",
		BaseURL:     server.URL,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(context.Background(), config.MercadoPagoConfig{}, nil)
	if err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestGetPayment(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer TEST-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":123,"status":"approved","external_reference":"42","transaction_amount":50.0}`))
	}))

	payment, err := client.GetPayment(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if !payment.Approved() {
		t.Fatal("expected approved payment")
	}
	if payment.ExternalReference != "42" {
		t.Fatalf("unexpected external reference %q", payment.ExternalReference)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Payment not found"}`))
	}))

	_, err := client.GetPayment(context.Background(), "999")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Payment not found" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCreatePreference(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://pay.example/pref-1"}`))
	}))

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []PreferenceItem{{Title: "Photo", Quantity: 1, UnitPrice: 50}},
		ExternalReference: "42",
	})
	if err != nil {
		t.Fatalf("CreatePreference failed: %v", err)
	}
	if pref.ID != "pref-1" {
		t.Fatalf("unexpected preference id %q", pref.ID)
	}
	if pref.InitPoint == "" {
		t.Fatal("expected init point")
	}
}

func TestCreatePreferenceRequiresItems(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))

	if _, err := client.CreatePreference(context.Background(), PreferenceRequest{}); err == nil {
		t.Fatal("expected items validation error")
	}
}
