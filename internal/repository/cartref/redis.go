package cartref

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkblot-storefront/internal/domain"

	"github.com/go-redis/redis/v8"
)

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores references as plain string keys. A positive ttl lets stale
// references age out roughly when the remote cart does.
func NewRedis(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

// DialRedis parses url, connects and verifies the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func (r *redisRepo) key(profileID string) string {
	return Key + ":" + profileID
}

func (r *redisRepo) Get(ctx context.Context, profileID string) (string, error) {
	id, err := r.client.Get(ctx, r.key(profileID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get cart reference: %w", err)
	}
	return id, nil
}

func (r *redisRepo) Put(ctx context.Context, profileID, cartID string) error {
	if err := r.client.Set(ctx, r.key(profileID), cartID, r.ttl).Err(); err != nil {
		return fmt.Errorf("put cart reference: %w", err)
	}
	return nil
}

func (r *redisRepo) Delete(ctx context.Context, profileID string) error {
	n, err := r.client.Del(ctx, r.key(profileID)).Result()
	if err != nil {
		return fmt.Errorf("delete cart reference: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *redisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
