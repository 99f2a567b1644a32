package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "rifa:session:"

// RedisStore keeps sessions as JSON values that expire on their own after the idle TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping -> %w", err)
	}

	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, userID string) (Session, error) {
	raw, err := r.client.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("r.client.Get -> %w", err)
	}

	var s Session
	if err = json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = r.client.Set(ctx, keyPrefix+s.UserID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("r.client.Set -> %w", err)
	}

	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("r.client.Del -> %w", err)
	}

	return nil
}

func (r *RedisStore) Prune(context.Context, time.Time) (int, error) {
	return 0, nil
}
