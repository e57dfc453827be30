package checkout

import (
	"context"
	"time"

	"github.com/fotoclick/backend/pkg/redis"
)

// IdempotencyGuard deduplicates provider webhook deliveries. Each
// notification id is claimed with SetNX before processing; redeliveries of
// a claimed id are short-circuited. When processing fails the claim is
// released so the provider's retry gets another attempt.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	scope string
	ttl   time.Duration
}

// NewIdempotencyGuard builds a guard over the given store. Scope namespaces
// the keys, e.g. "mercadopago".
func NewIdempotencyGuard(store redis.IdempotencyStore, scope string, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{store: store, scope: scope, ttl: ttl}
}

// CheckAndMark claims the notification id. It returns true when this is the
// first delivery and the caller should process it, false when the id was
// already claimed. Store errors fail open; payment confirmation stays
// idempotent downstream.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, id string) (bool, error) {
	if g == nil || g.store == nil {
		return true, nil
	}
	key := g.store.IdempotencyKey(g.scope, id)
	claimed, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return true, err
	}
	return claimed, nil
}

// Release drops the claim so a retry can process the id again.
func (g *IdempotencyGuard) Release(ctx context.Context, id string) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, id))
}
