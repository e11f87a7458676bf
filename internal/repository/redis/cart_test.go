package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ghstore/internal/domain"
	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartRepository(client, 24*time.Hour), mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		ID:     "cart-001",
		UserID: "user-001",
		Items: []domain.LineItem{
			{
				ID:          domain.LineItemID("prod-1", "var-1"),
				ProductID:   "prod-1",
				VariantID:   "var-1",
				Name:        "Shea Butter 250g",
				SKU:         "SHEA-250",
				UnitPrice:   decimal.RequireFromString("45.50"),
				Quantity:    2,
				MaxQuantity: 10,
			},
		},
		Currency:  "GHS",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func storeCart(t *testing.T, mr *miniredis.Miniredis, cart *domain.Cart) {
	t.Helper()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set(keyPrefix+cart.UserID, string(data)))
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)
	cart := sampleCart()
	storeCart(t, mr, cart)

	got, err := repo.Get(context.Background(), cart.UserID)
	require.NoError(t, err)

	assert.Equal(t, cart.ID, got.ID)
	assert.Equal(t, "GHS", got.Currency)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, 10, got.Items[0].MaxQuantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"user-x", "{not json"))

	_, err := repo.Get(context.Background(), "user-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_NullItemsBecomeEmpty(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"user-y", `{"id":"c","user_id":"user-y","items":null,"version":3}`))

	got, err := repo.Get(context.Background(), "user-y")
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

func TestCartRepository_SaveIfVersion_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)
	cart := sampleCart()

	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, mr.Exists(keyPrefix+cart.UserID))
	assert.Equal(t, 24*time.Hour, mr.TTL(keyPrefix+cart.UserID))

	mr.FastForward(25 * time.Hour)
	_, err = repo.Get(context.Background(), cart.UserID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "user-001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestCartRepository_SaveIfVersion_NewCart(t *testing.T) {
	repo, _ := setupTestRedis(t)
	cart := sampleCart()
	cart.Version = 0

	ok, err := repo.SaveIfVersion(context.Background(), cart, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cart.Version)

	got, err := repo.Get(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestCartRepository_SaveIfVersion_Matching(t *testing.T) {
	repo, mr := setupTestRedis(t)
	cart := sampleCart()
	storeCart(t, mr, cart)

	cart.Items[0].Quantity = 5
	ok, err := repo.SaveIfVersion(context.Background(), cart, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, cart.Version)

	got, err := repo.Get(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 5, got.Items[0].Quantity)
	assert.Equal(t, 24*time.Hour, mr.TTL(keyPrefix+cart.UserID))
}

func TestCartRepository_SaveIfVersion_Stale(t *testing.T) {
	repo, mr := setupTestRedis(t)
	stored := sampleCart()
	stored.Version = 4
	storeCart(t, mr, stored)

	stale := sampleCart()
	stale.Items[0].Quantity = 9
	ok, err := repo.SaveIfVersion(context.Background(), stale, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, stale.Version)

	got, err := repo.Get(context.Background(), stored.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestCartRepository_SaveIfVersion_ConcurrentWritersOneWins(t *testing.T) {
	repo, mr := setupTestRedis(t)
	base := sampleCart()
	storeCart(t, mr, base)

	const writers = 8
	var wg sync.WaitGroup
	results := make([]bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := sampleCart()
			c.Items[0].Quantity = i + 1
			ok, err := repo.SaveIfVersion(context.Background(), c, 1)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	got, err := repo.Get(context.Background(), base.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}
