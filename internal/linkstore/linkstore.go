// Package linkstore keeps short-lived provider links outside the main
// database. Links expire on their own; an expired link reads as missing.
package linkstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
)

// Backend names accepted in configuration.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

const keyPrefix = "link:"

// ErrNotFound is returned when no live link exists.
var ErrNotFound = errors.New("provider link not found")

// Store persists provider links with a time to live.
type Store interface {
	Put(ctx context.Context, link *domain.ProviderLink, ttl time.Duration) error
	Get(ctx context.Context, userID, provider string) (*domain.ProviderLink, error)
	Delete(ctx context.Context, userID, provider string) error
	Ping(ctx context.Context) error
	Close() error
}

func linkKey(userID, provider string) string {
	return keyPrefix + userID + ":" + provider
}

func checkPut(link *domain.ProviderLink, ttl time.Duration) error {
	if link == nil || link.UserID == "" || link.Provider == "" {
		return errors.New("link requires user and provider")
	}
	if ttl <= 0 {
		return fmt.Errorf("invalid link ttl %s", ttl)
	}
	return nil
}
