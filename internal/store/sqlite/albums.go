package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/normalize"
	"github.com/albumduel/albumduel-server/internal/store"
)

// albumColumns is the ordered list of columns selected in album queries.
// Must match the scan order in scanAlbum.
const albumColumns = `a.id, a.title, a.artist, a.year, a.spotify_id, a.mbid,
	a.cover_url, a.cover_provider, a.genres, a.source, a.created_at, a.updated_at`

// scanAlbum scans a sql.Row (or sql.Rows via its Scan method) into a domain.Album.
// Extra destinations are scanned after the album columns.
func scanAlbum(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Album, error) {
	var (
		a             domain.Album
		year          sql.NullInt64
		spotifyID     sql.NullString
		mbid          sql.NullString
		coverURL      sql.NullString
		coverProvider sql.NullString
		createdAt     string
		updatedAt     string
	)

	dest := []any{
		&a.ID, &a.Title, &a.Artist, &year, &spotifyID, &mbid,
		&coverURL, &coverProvider, &a.Genres, &a.Source, &createdAt, &updatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	a.Year = intPtr(year)
	a.SpotifyID = stringPtr(spotifyID)
	a.MBID = stringPtr(mbid)
	a.CoverURL = stringPtr(coverURL)
	a.CoverProvider = stringPtr(coverProvider)

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) queryAlbums(ctx context.Context, query string, args ...any) ([]*domain.Album, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*domain.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (s *Store) queryAlbum(ctx context.Context, query string, args ...any) (*domain.Album, error) {
	a, err := scanAlbum(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return a, err
}

// CreateAlbum inserts an album and assigns its ID.
func (s *Store) CreateAlbum(ctx context.Context, album *domain.Album) error {
	key := normalize.MatchKey(album.Title, album.Artist)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO albums (
			title, artist, title_key, artist_key, year, spotify_id, mbid,
			cover_url, cover_provider, genres, source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		album.Title,
		album.Artist,
		key.Title,
		key.Artist,
		nullableInt(album.Year),
		nullableString(album.SpotifyID),
		nullableString(album.MBID),
		nullableString(album.CoverURL),
		nullableString(album.CoverProvider),
		album.Genres,
		album.Source,
		formatTime(album.CreatedAt),
		formatTime(album.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert album: %w", err)
	}
	album.ID, err = res.LastInsertId()
	return err
}

// GetAlbum retrieves an album by ID.
// Returns store.ErrNotFound if the album does not exist.
func (s *Store) GetAlbum(ctx context.Context, id int64) (*domain.Album, error) {
	return s.queryAlbum(ctx, `SELECT `+albumColumns+` FROM albums a WHERE a.id = ?`, id)
}

// GetAlbumsByIDs returns the albums that exist among ids, keyed by ID.
func (s *Store) GetAlbumsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Album, error) {
	out := make(map[int64]*domain.Album, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	marks, args := placeholders(ids)
	albums, err := s.queryAlbums(ctx, `SELECT `+albumColumns+` FROM albums a WHERE a.id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, a := range albums {
		out[a.ID] = a
	}
	return out, nil
}

// UpdateAlbum overwrites the mutable fields of an album.
func (s *Store) UpdateAlbum(ctx context.Context, album *domain.Album) error {
	key := normalize.MatchKey(album.Title, album.Artist)
	res, err := s.db.ExecContext(ctx, `
		UPDATE albums SET
			title = ?, artist = ?, title_key = ?, artist_key = ?, year = ?,
			spotify_id = ?, mbid = ?, cover_url = ?, cover_provider = ?,
			genres = ?, updated_at = ?
		WHERE id = ?`,
		album.Title,
		album.Artist,
		key.Title,
		key.Artist,
		nullableInt(album.Year),
		nullableString(album.SpotifyID),
		nullableString(album.MBID),
		nullableString(album.CoverURL),
		nullableString(album.CoverProvider),
		album.Genres,
		formatTime(album.UpdatedAt),
		album.ID,
	)
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAlbums returns every album ordered by ID.
func (s *Store) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	return s.queryAlbums(ctx, `SELECT `+albumColumns+` FROM albums a ORDER BY a.id`)
}

// FindAlbumBySpotifyID returns the oldest album with the given Spotify id.
func (s *Store) FindAlbumBySpotifyID(ctx context.Context, spotifyID string) (*domain.Album, error) {
	return s.queryAlbum(ctx,
		`SELECT `+albumColumns+` FROM albums a WHERE a.spotify_id = ? ORDER BY a.id LIMIT 1`, spotifyID)
}

// FindAlbumByMBID returns the oldest album with the given MusicBrainz id.
func (s *Store) FindAlbumByMBID(ctx context.Context, mbid string) (*domain.Album, error) {
	return s.queryAlbum(ctx,
		`SELECT `+albumColumns+` FROM albums a WHERE a.mbid = ? ORDER BY a.id LIMIT 1`, mbid)
}

// FindAlbumByMatchKey returns the oldest album whose normalized title and
// artist tokens equal the given keys.
func (s *Store) FindAlbumByMatchKey(ctx context.Context, titleKey, artistKey string) (*domain.Album, error) {
	return s.queryAlbum(ctx,
		`SELECT `+albumColumns+` FROM albums a
		WHERE a.title_key = ? AND a.artist_key = ? ORDER BY a.id LIMIT 1`,
		titleKey, artistKey)
}

// FindCoverSibling returns another album matching q that has a cover.
func (s *Store) FindCoverSibling(ctx context.Context, q store.CoverSiblingQuery) (*domain.Album, error) {
	var (
		where string
		args  []any
	)
	switch q.Mode {
	case store.SiblingByMBID:
		if q.MBID == "" {
			return nil, store.ErrNotFound
		}
		where, args = `a.mbid = ?`, []any{q.MBID}
	case store.SiblingBySpotifyID:
		if q.SpotifyID == "" {
			return nil, store.ErrNotFound
		}
		where, args = `a.spotify_id = ?`, []any{q.SpotifyID}
	case store.SiblingByTitleArtist:
		key := normalize.MatchKey(q.Title, q.Artist)
		if key.Title == "" || key.Artist == "" {
			return nil, store.ErrNotFound
		}
		where, args = `a.title_key = ? AND a.artist_key = ?`, []any{key.Title, key.Artist}
	default:
		return nil, fmt.Errorf("unknown sibling mode %d", q.Mode)
	}

	args = append(args, q.ExcludeID)
	return s.queryAlbum(ctx, `SELECT `+albumColumns+` FROM albums a
		WHERE `+where+` AND a.id <> ? AND a.cover_url IS NOT NULL AND a.cover_url <> ''
		ORDER BY a.id LIMIT 1`, args...)
}
