package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestGuardClaimsFirstDeliveryOnly(t *testing.T) {
	store := newStubIdempotencyStore()
	guard := NewIdempotencyGuard(store, "mercadopago", time.Hour)

	first, err := guard.CheckAndMark(context.Background(), "notif-1")
	if err != nil || !first {
		t.Fatalf("expected first delivery claim, got %v/%v", first, err)
	}
	second, err := guard.CheckAndMark(context.Background(), "notif-1")
	if err != nil || second {
		t.Fatalf("expected redelivery rejected, got %v/%v", second, err)
	}

	// a different id is its own claim
	other, err := guard.CheckAndMark(context.Background(), "notif-2")
	if err != nil || !other {
		t.Fatalf("expected independent claim, got %v/%v", other, err)
	}
}

func TestGuardReleaseAllowsRetry(t *testing.T) {
	store := newStubIdempotencyStore()
	guard := NewIdempotencyGuard(store, "mercadopago", time.Hour)

	if _, err := guard.CheckAndMark(context.Background(), "notif-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := guard.Release(context.Background(), "notif-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	retry, err := guard.CheckAndMark(context.Background(), "notif-1")
	if err != nil || !retry {
		t.Fatalf("expected retry claim after release, got %v/%v", retry, err)
	}
}

func TestGuardFailsOpenOnStoreError(t *testing.T) {
	store := newStubIdempotencyStore()
	store.setNXErr = errors.New("redis down")
	guard := NewIdempotencyGuard(store, "mercadopago", time.Hour)

	first, err := guard.CheckAndMark(context.Background(), "notif-1")
	if !first {
		t.Fatal("store failure must fail open")
	}
	if err == nil {
		t.Fatal("store failure should still surface for logging")
	}
}

func TestNilGuardAlwaysProcesses(t *testing.T) {
	var guard *IdempotencyGuard
	first, err := guard.CheckAndMark(context.Background(), "notif-1")
	if err != nil || !first {
		t.Fatalf("nil guard must process everything, got %v/%v", first, err)
	}
	if err := guard.Release(context.Background(), "notif-1"); err != nil {
		t.Fatalf("nil guard release: %v", err)
	}
}

type stubIdempotencyStore struct {
	keys     map[string]string
	setNXErr error
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: map[string]string{}}
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.keys[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setNXErr != nil {
		return false, s.setNXErr
	}
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}
