package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore opens a migrated SQLite store in a temp dir.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *sqlite.Store, id string) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &domain.User{
		ID:             id,
		Provider:       "test",
		ProviderUserID: id,
		DisplayName:    id,
		Role:           domain.RoleMember,
		CreatedAt:      time.Now(),
	}))
}

type albumOpt func(*domain.Album)

func withYear(y int) albumOpt        { return func(a *domain.Album) { a.Year = &y } }
func withSpotify(id string) albumOpt { return func(a *domain.Album) { a.SpotifyID = &id } }
func withCover(url string) albumOpt  { return func(a *domain.Album) { a.SetCover(url, "test") } }
func withMBID(mbid string) albumOpt  { return func(a *domain.Album) { a.MBID = &mbid } }

func createAlbum(t *testing.T, s *sqlite.Store, title, artist string, opts ...albumOpt) *domain.Album {
	t.Helper()
	now := time.Now().UTC()
	a := &domain.Album{
		Title:     title,
		Artist:    artist,
		Source:    domain.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(a)
	}
	require.NoError(t, s.CreateAlbum(context.Background(), a))
	return a
}

// addToLibrary creates albums and adds them to the user's library.
func addToLibrary(t *testing.T, s *sqlite.Store, userID string, albums ...*domain.Album) {
	t.Helper()
	for _, a := range albums {
		_, err := s.AddUserAlbum(context.Background(), &domain.UserAlbum{
			UserID:    userID,
			AlbumID:   a.ID,
			AddedFrom: domain.SourceManual,
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}
}
