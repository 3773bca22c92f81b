// Package kvstore is the persistent key-value layer every slice mirrors
// its state into. Values are JSON snapshots of in-memory lists; the store
// is never the source of truth while the process is running.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Persisted keys. The layout is private to the application.
const (
	KeyCart           = "cart"
	KeySavedForLater  = "savedForLater"
	KeyWishlist       = "wishlist"
	KeyOrders         = "orders"
	KeyToken          = "token"
	KeyUser           = "user"
	KeyRecentlyViewed = "recentlyViewed"
)

// ReviewsKey returns the per-product review list key.
func ReviewsKey(productID int64) string {
	return fmt.Sprintf("reviews_%d", productID)
}

type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStore connects to redis and returns the key-value store.
func NewStore(addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewStoreWithClient(rdb), nil
}

// NewStoreWithClient wraps an existing redis client. Used by tests.
func NewStoreWithClient(rdb *redis.Client) *Store {
	return &Store{
		rdb:    rdb,
		logger: util.GetLogger(),
	}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// ReadJSON loads the value stored under key into dest. A missing key
// reports (false, nil). A value that no longer parses as JSON is treated
// as absent and the key is deleted so the corruption cannot resurface.
func (s *Store) ReadJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %q failed: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Discarding corrupt persisted value",
			zap.String("key", key),
			zap.Error(err))
		if delErr := s.rdb.Del(ctx, key).Err(); delErr != nil {
			s.logger.Warn("Failed to clear corrupt key",
				zap.String("key", key),
				zap.Error(delErr))
		}
		return false, nil
	}

	return true, nil
}

// Write stores value under key as JSON.
func (s *Store) Write(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q failed: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("write %q failed: %w", key, err)
	}
	return nil
}

// Remove deletes the given keys. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("remove %v failed: %w", keys, err)
	}
	return nil
}

// Tx collects writes and removes to be applied in one atomic commit.
// Writes are applied before removes.
type Tx struct {
	writes  []txWrite
	removes []string
}

type txWrite struct {
	key  string
	data []byte
}

// Write queues a JSON write. The value is marshaled immediately so a
// marshal failure surfaces before anything is applied.
func (t *Tx) Write(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %q failed: %w", key, err)
	}
	t.writes = append(t.writes, txWrite{key: key, data: data})
	return nil
}

// Remove queues a key deletion.
func (t *Tx) Remove(key string) {
	t.removes = append(t.removes, key)
}

// Commit applies all queued operations in a single MULTI/EXEC pipeline:
// either every write and remove lands, or none do.
func (s *Store) Commit(ctx context.Context, tx *Tx) error {
	if len(tx.writes) == 0 && len(tx.removes) == 0 {
		return nil
	}

	pipe := s.rdb.TxPipeline()
	for _, w := range tx.writes {
		pipe.Set(ctx, w.key, w.data, 0)
	}
	for _, key := range tx.removes {
		pipe.Del(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}
