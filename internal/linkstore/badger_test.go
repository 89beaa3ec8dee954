package linkstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
)

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLink(linkedAt time.Time) *domain.ProviderLink {
	return &domain.ProviderLink{
		UserID:     "usr-1",
		Provider:   domain.ProviderLastFM,
		Username:   "rj",
		SessionKey: "sk-123",
		LinkedAt:   linkedAt,
	}
}

func TestBadgerStore_PutGetDelete(t *testing.T) {
	s := newBadgerStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, testLink(now), time.Hour))

	got, err := s.Get(ctx, "usr-1", domain.ProviderLastFM)
	require.NoError(t, err)
	assert.Equal(t, "rj", got.Username)
	assert.Equal(t, "sk-123", got.SessionKey)
	assert.WithinDuration(t, now.Add(time.Hour), got.ExpiresAt, time.Millisecond)

	_, err = s.Get(ctx, "usr-1", domain.ProviderSpotify)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "usr-1", domain.ProviderLastFM))
	require.NoError(t, s.Delete(ctx, "usr-1", domain.ProviderLastFM))
	_, err = s.Get(ctx, "usr-1", domain.ProviderLastFM)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_Expiry(t *testing.T) {
	s := newBadgerStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, testLink(now), time.Minute))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := s.Get(ctx, "usr-1", domain.ProviderLastFM)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_InvalidPut(t *testing.T) {
	s := newBadgerStore(t)
	ctx := context.Background()

	assert.Error(t, s.Put(ctx, testLink(time.Now()), 0))
	assert.Error(t, s.Put(ctx, &domain.ProviderLink{Provider: domain.ProviderLastFM}, time.Hour))
	assert.NoError(t, s.Ping(ctx))
}
