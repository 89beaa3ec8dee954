package linkstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/albumduel/albumduel-server/internal/domain"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps links in redis using SET with an expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores link for ttl.
func (s *RedisStore) Put(ctx context.Context, link *domain.ProviderLink, ttl time.Duration) error {
	if err := checkPut(link, ttl); err != nil {
		return err
	}
	link.ExpiresAt = link.LinkedAt.Add(ttl)

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal link: %w", err)
	}
	return s.client.Set(ctx, linkKey(link.UserID, link.Provider), data, ttl).Err()
}

// Get returns the live link for user and provider.
func (s *RedisStore) Get(ctx context.Context, userID, provider string) (*domain.ProviderLink, error) {
	data, err := s.client.Get(ctx, linkKey(userID, provider)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}

	var link domain.ProviderLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("unmarshal link: %w", err)
	}
	return &link, nil
}

// Delete removes the link.
func (s *RedisStore) Delete(ctx context.Context, userID, provider string) error {
	return s.client.Del(ctx, linkKey(userID, provider)).Err()
}

// Ping sends a PING.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
