package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/service"
	"github.com/albumduel/albumduel-server/internal/store"
)

func TestImportAlbums(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.issueToken(t, "alice")

	body := map[string]any{
		"source": "lastfm",
		"albums": []map[string]any{
			{"title": "Blonde", "artist": "Frank Ocean", "year": 2016},
			{"title": "In Rainbows", "artist": "Radiohead"},
		},
	}
	resp := ts.api.Post("/api/v1/library/import", authz, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[service.ImportResult](t, resp)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.AddedToLibrary)

	// Same albums again only match.
	res = decode[service.ImportResult](t, ts.api.Post("/api/v1/library/import", authz, body))
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 0, res.AddedToLibrary)

	lib := decode[store.PaginatedResult[service.LibraryAlbum]](t, ts.api.Get("/api/v1/library", authz))
	require.Len(t, lib.Items, 2)
	assert.Equal(t, "Blonde", lib.Items[0].Album.Title)
	assert.InDelta(t, 1500.0, lib.Items[0].State.Rating, 1e-9)
	assert.False(t, lib.HasMore)
}

func TestImportAlbums_Validation(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.issueToken(t, "alice")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "unknown source",
			body:       map[string]any{"source": "napster", "albums": []map[string]any{{"title": "x", "artist": "y"}}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "empty batch",
			body:       map[string]any{"source": "lastfm", "albums": []map[string]any{}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "blank title",
			body:       map[string]any{"source": "lastfm", "albums": []map[string]any{{"title": " ", "artist": "y"}}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "year out of range",
			body:       map[string]any{"source": "lastfm", "albums": []map[string]any{{"title": "x", "artist": "y", "year": 1200}}},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/library/import", authz, tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}
}

func TestExclusions(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.issueToken(t, "alice")
	imported := decode[service.ImportResult](t, ts.api.Post("/api/v1/library/import/demo", authz))
	target := imported.Albums[0].AlbumID

	resp := ts.api.Post("/api/v1/exclusions", authz, map[string]any{"album_id": target})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	// Idempotent.
	resp = ts.api.Post("/api/v1/exclusions", authz, map[string]any{"album_id": target})
	require.Equal(t, http.StatusNoContent, resp.Code)

	list := decode[ExclusionsResponse](t, ts.api.Get("/api/v1/exclusions", authz))
	require.Len(t, list.Exclusions, 1)
	assert.Equal(t, target, list.Exclusions[0].AlbumID)

	stats := decode[domain.Stats](t, ts.api.Get("/api/v1/stats", authz))
	assert.Equal(t, 1, stats.ExcludedAlbums)

	resp = ts.api.Delete("/api/v1/exclusions/"+strconv.FormatInt(target, 10), authz)
	require.Equal(t, http.StatusNoContent, resp.Code)

	list = decode[ExclusionsResponse](t, ts.api.Get("/api/v1/exclusions", authz))
	assert.Empty(t, list.Exclusions)

	resp = ts.api.Post("/api/v1/exclusions", authz, map[string]any{"album_id": 424242})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListLibrary_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	authz := ts.issueToken(t, "alice")
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/library/import/demo", authz).Code)

	first := decode[store.PaginatedResult[service.LibraryAlbum]](t, ts.api.Get("/api/v1/library?limit=3", authz))
	require.Len(t, first.Items, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, 4, first.Total)

	second := decode[store.PaginatedResult[service.LibraryAlbum]](t, ts.api.Get("/api/v1/library?limit=3&cursor="+first.NextCursor, authz))
	require.Len(t, second.Items, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "Random Access Memories", second.Items[0].Album.Title)

	resp := ts.api.Get("/api/v1/library?cursor=not-a-cursor", authz)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
