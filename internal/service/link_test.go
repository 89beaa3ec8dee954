package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/linkstore"
	"github.com/albumduel/albumduel-server/internal/validation"
)

func setupLinkTest(t *testing.T, ttl time.Duration) *LinkService {
	t.Helper()
	links, err := linkstore.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = links.Close() })
	return NewLinkService(links, ttl, validation.New(), discardLogger())
}

func TestLinkService_LinkGetUnlink(t *testing.T) {
	svc := setupLinkTest(t, time.Hour)
	ctx := context.Background()

	link, err := svc.Link(ctx, "usr-1", LinkRequest{Provider: domain.ProviderLastFM, Username: "rj", SessionKey: "sk"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), link.ExpiresAt, 5*time.Second)

	got, err := svc.Get(ctx, "usr-1", domain.ProviderLastFM)
	require.NoError(t, err)
	assert.Equal(t, "rj", got.Username)

	require.NoError(t, svc.Unlink(ctx, "usr-1", domain.ProviderLastFM))
	require.NoError(t, svc.Unlink(ctx, "usr-1", domain.ProviderLastFM))

	_, err = svc.Get(ctx, "usr-1", domain.ProviderLastFM)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestLinkService_Validation(t *testing.T) {
	svc := setupLinkTest(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Link(ctx, "usr-1", LinkRequest{Provider: "myspace", Username: "tom"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = svc.Link(ctx, "usr-1", LinkRequest{Provider: domain.ProviderSpotify, Username: " "})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
