package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

const (
	defaultGuardTTL = 24 * time.Hour
	pendingMarker   = "pending"
	// pendingClaimTTL bounds how long an unfinished claim blocks retries.
	pendingClaimTTL = 30 * time.Second
)

// PurchaseGuard stores purchase idempotency keys.
// Key format: purchase:<user_id>:<sweet_id>:<client_key>
// The value is "pending" while the purchase runs and expires after pendingClaimTTL.
// Once the purchase completes it holds the JSON-encoded resulting sweet for
// the full ttl.
type PurchaseGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPurchaseGuard wraps client. A non-positive ttl falls back to 24h.
func NewPurchaseGuard(client *redis.Client, ttl time.Duration) *PurchaseGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &PurchaseGuard{client: client, ttl: ttl}
}

// Claim reserves key with SET NX. When the key is already taken it returns
// the stored result, or nil while the first purchase is still pending.
func (g *PurchaseGuard) Claim(ctx context.Context, key string) (bool, *domain.Sweet, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), pendingMarker, g.pendingTTL()).Result()
	if err != nil {
		return false, nil, fmt.Errorf("purchase guard claim: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	raw, err := g.client.Get(ctx, g.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; treat as still in flight.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("purchase guard read: %w", err)
	}
	prior, err := decodeResult(raw)
	if err != nil {
		return false, nil, err
	}
	return false, prior, nil
}

// Complete replaces the pending marker with the purchase result and extends
// the key to the full ttl.
func (g *PurchaseGuard) Complete(ctx context.Context, key string, result *domain.Sweet) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("purchase guard encode: %w", err)
	}
	return g.client.Set(ctx, g.key(key), raw, g.ttl).Err()
}

// Release drops key so the client may retry a failed purchase.
func (g *PurchaseGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *PurchaseGuard) pendingTTL() time.Duration {
	return min(pendingClaimTTL, g.ttl)
}

func (g *PurchaseGuard) key(k string) string {
	return "purchase:" + k
}

func decodeResult(raw string) (*domain.Sweet, error) {
	if raw == pendingMarker {
		return nil, nil
	}
	var s domain.Sweet
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("purchase guard decode: %w", err)
	}
	return &s, nil
}
