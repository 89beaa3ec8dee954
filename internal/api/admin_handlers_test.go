package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/service"
)

func TestReconcile_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.issueToken(t, "alice")
	member := ts.issueToken(t, "bob")

	assert.Equal(t, http.StatusUnauthorized, ts.api.Post("/api/v1/admin/reconcile").Code)
	assert.Equal(t, http.StatusForbidden, ts.api.Post("/api/v1/admin/reconcile", member).Code)

	resp := ts.api.Post("/api/v1/admin/reconcile", admin)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report := decode[service.ReconcileReport](t, resp)
	assert.Equal(t, 0, report.AlbumsMerged)
}

func TestReconcile_MergesDuplicates(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.issueToken(t, "alice")
	ctx := context.Background()

	spotify := "4LH4d3cOWNNsVw41Gqt2kv"
	now := time.Now()
	for _, a := range []*domain.Album{
		{Title: "The Dark Side of the Moon", Artist: "Pink Floyd", Source: domain.SourceLastFM, CreatedAt: now, UpdatedAt: now},
		{Title: "The Dark Side Of The Moon", Artist: "Pink Floyd", SpotifyID: &spotify, Source: domain.SourceSpotify, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, ts.store.CreateAlbum(ctx, a))
	}

	report := decode[service.ReconcileReport](t, ts.api.Post("/api/v1/admin/reconcile", admin))
	assert.Equal(t, 1, report.AlbumsMerged)

	albums, err := ts.store.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, spotify, *albums[0].SpotifyID)
}
