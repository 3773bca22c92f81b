package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewStoreWithClient(client), mr
}

func TestWriteReadRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	err := store.Write(ctx, "some-key", payload{Name: "widget", Count: 3})
	require.NoError(t, err)

	var got payload
	found, err := store.ReadJSON(ctx, "some-key", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestReadMissingKey(t *testing.T) {
	store, _ := setupTestStore(t)

	var dest []string
	found, err := store.ReadJSON(context.Background(), "nope", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, dest)
}

func TestReadCorruptValueSelfHeals(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(KeyCart, "{not json at all"))

	var dest []string
	found, err := store.ReadJSON(ctx, KeyCart, &dest)
	require.NoError(t, err)
	assert.False(t, found)

	// the offending key must be gone, not just ignored
	assert.False(t, mr.Exists(KeyCart))
}

func TestRemove(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "a", 1))
	require.NoError(t, store.Write(ctx, "b", 2))

	require.NoError(t, store.Remove(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))

	// removing an absent key is a no-op
	assert.NoError(t, store.Remove(ctx, "a"))
}

func TestCommitAppliesWritesAndRemoves(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, KeyCart, []int{1, 2}))

	tx := &Tx{}
	require.NoError(t, tx.Write(KeyOrders, []string{"order-1"}))
	tx.Remove(KeyCart)

	require.NoError(t, store.Commit(ctx, tx))

	assert.True(t, mr.Exists(KeyOrders))
	assert.False(t, mr.Exists(KeyCart))

	var orders []string
	found, err := store.ReadJSON(ctx, KeyOrders, &orders)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"order-1"}, orders)
}

func TestCommitEmptyTxIsNoop(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.Commit(context.Background(), &Tx{}))
}

func TestReviewsKey(t *testing.T) {
	assert.Equal(t, "reviews_42", ReviewsKey(42))
}
