package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cottonstyle/internal/pricing"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()

	draft := newDraft("u1", []pricing.CartItem{
		{ProductID: "P1", ShopID: "S1", Quantity: 2, DiscountPrice: decimal.RequireFromString("100.50")},
	}, pricing.Quote{OverallProductPrice: decimal.NewNullDecimal(decimal.NewFromInt(201))}, time.Now().UTC())
	draft.Address = &ShippingAddress{Address1: "1 Main St", Address2: "Apt 2", ZipCode: "560001", Country: "IN", City: "Bengaluru"}

	require.NoError(t, store.Save(ctx, draft))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, StateAddressPending, got.State)
	assert.Equal(t, "Bengaluru", got.Address.City)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].DiscountPrice.Equal(decimal.RequireFromString("100.5")))

	require.NoError(t, store.Delete(ctx, "u1"))
	_, err = store.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newDraft("u2", nil, pricing.Quote{}, time.Now())))
	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, "u2")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisStore_DeleteMissingIsNoop(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, time.Minute)

	assert.NoError(t, store.Delete(context.Background(), "nobody"))
}

func TestRedisStore_Lock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, time.Hour)
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "u1", time.Minute)
	require.NoError(t, err)

	_, err = store.Lock(ctx, "u1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := store.Lock(ctx, "u2", time.Minute)
	require.NoError(t, err)
	other()

	unlock()
	again, err := store.Lock(ctx, "u1", time.Minute)
	require.NoError(t, err)

	// an expired lock taken by someone else is not released by its old owner
	mr.FastForward(2 * time.Minute)
	thief, err := store.Lock(ctx, "u1", time.Minute)
	require.NoError(t, err)
	again()
	_, err = store.Lock(ctx, "u1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
	thief()
}
