package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmehta/truthdare/internal/models"
)

// RedisStore keeps each room's session in a single Redis hash. Counter
// mutations map onto HINCRBY and field sets onto HSET, so independent fields
// mutate safely even when two workers interleave.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects a session store to Redis and verifies the
// connection with a short ping.
func NewRedisStore(addr string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func sessionKey(roomID int64) string {
	return fmt.Sprintf("td:session:%d", roomID)
}

func (r *RedisStore) Get(ctx context.Context, roomID int64) (*models.Session, error) {
	h, err := r.rdb.HGetAll(ctx, sessionKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall session %d: %w", roomID, err)
	}
	if len(h) == 0 {
		return nil, ErrNotFound
	}
	return DecodeSession(roomID, h)
}

// Create claims the room by HSETNX on the game_id field; if another session
// already holds it, ErrExists is returned and nothing is written.
func (r *RedisStore) Create(ctx context.Context, roomID int64, s *models.Session) error {
	h, err := EncodeSession(s)
	if err != nil {
		return err
	}
	key := sessionKey(roomID)

	ok, err := r.rdb.HSetNX(ctx, key, FieldGameID, h[FieldGameID]).Result()
	if err != nil {
		return fmt.Errorf("hsetnx session %d: %w", roomID, err)
	}
	if !ok {
		return ErrExists
	}

	delete(h, FieldGameID)
	if err := r.rdb.HSet(ctx, key, h).Err(); err != nil {
		return fmt.Errorf("hset session %d: %w", roomID, err)
	}
	return nil
}

func (r *RedisStore) IncrField(ctx context.Context, roomID int64, field string, delta int) error {
	if err := r.rdb.HIncrBy(ctx, sessionKey(roomID), field, int64(delta)).Err(); err != nil {
		return fmt.Errorf("hincrby session %d %s: %w", roomID, field, err)
	}
	return nil
}

func (r *RedisStore) SetFields(ctx context.Context, roomID int64, fields map[string]any) error {
	enc := make(map[string]string, len(fields))
	for k, v := range fields {
		s, err := EncodeField(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		enc[k] = s
	}
	if err := r.rdb.HSet(ctx, sessionKey(roomID), enc).Err(); err != nil {
		return fmt.Errorf("hset session %d: %w", roomID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, roomID int64) error {
	if err := r.rdb.Del(ctx, sessionKey(roomID)).Err(); err != nil {
		return fmt.Errorf("del session %d: %w", roomID, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
