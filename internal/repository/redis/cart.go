package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/pkg/database"
	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

const keyPrefix = "cart:"

var errVersionMismatch = errors.New("cart version mismatch")

// CartRepository implements repository.CartRepository using Redis. Carts are
// stored as JSON under cart:{userID} and expire after the configured TTL.
type CartRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client redis.UniversalClient, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(userID string) string {
	return keyPrefix + userID
}

// Get retrieves a cart by user ID from Redis.
func (r *CartRepository) Get(ctx context.Context, userID string) (_ *domain.Cart, err error) {
	key := cartKey(userID)
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "GetCart", "GET "+key)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}

	return &cart, nil
}

// SaveIfVersion writes cart inside a WATCH/MULTI transaction so the write
// only lands if the stored version still equals expectedVersion.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (_ bool, err error) {
	key := cartKey(cart.UserID)
	ctx, end := database.TraceOp(ctx, database.SystemRedis, "SaveCartIfVersion", "WATCH "+key+" MULTI SET EXEC")
	defer func() { end(err) }()

	txf := func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return errVersionMismatch
		}

		next := *cart
		next.Version = expectedVersion + 1
		data, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		cart.Version = expectedVersion + 1
		return true, nil
	case errors.Is(err, errVersionMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis save cart: %w", err)
	}
}

// storedVersion reads only the version field of the stored cart; a missing
// cart is version 0.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get cart: %w", err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return 0, fmt.Errorf("unmarshal cart version: %w", err)
	}
	return header.Version, nil
}
