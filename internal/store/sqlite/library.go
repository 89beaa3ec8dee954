package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

// AddUserAlbum adds an album to a user's library. It reports false when the
// album was already there.
func (s *Store) AddUserAlbum(ctx context.Context, ua *domain.UserAlbum) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_albums (user_id, album_id, added_from, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, album_id) DO NOTHING`,
		ua.UserID, ua.AlbumID, ua.AddedFrom, formatTime(ua.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("insert user album: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListUserAlbums returns the albums in a user's library, excluded ones
// included, in the order they were added.
func (s *Store) ListUserAlbums(ctx context.Context, userID string) ([]*domain.Album, error) {
	return s.queryAlbums(ctx, `
		SELECT `+albumColumns+`
		FROM user_albums ua
		JOIN albums a ON a.id = ua.album_id
		WHERE ua.user_id = ?
		ORDER BY ua.created_at, a.id`, userID)
}

// ListEligibleAlbumIDs returns the ids of the user's library albums that
// are not excluded.
func (s *Store) ListEligibleAlbumIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ua.album_id
		FROM user_albums ua
		WHERE ua.user_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM exclusions e
			WHERE e.user_id = ua.user_id AND e.album_id = ua.album_id
		  )
		ORDER BY ua.album_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddExclusion hides an album from the user. Excluding twice is a no-op.
// Returns store.ErrNotFound if the album does not exist.
func (s *Store) AddExclusion(ctx context.Context, ex *domain.Exclusion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exclusions (user_id, album_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, album_id) DO NOTHING`,
		ex.UserID, ex.AlbumID, formatTime(ex.CreatedAt))
	if err != nil && isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	return err
}

// RemoveExclusion makes an album visible again. Removing a missing
// exclusion is a no-op.
func (s *Store) RemoveExclusion(ctx context.Context, userID string, albumID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM exclusions WHERE user_id = ? AND album_id = ?`, userID, albumID)
	return err
}

// ListExclusions returns the user's exclusions, newest first.
func (s *Store) ListExclusions(ctx context.Context, userID string) ([]*domain.Exclusion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, album_id, created_at FROM exclusions
		WHERE user_id = ? ORDER BY created_at DESC, album_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Exclusion
	for rows.Next() {
		var (
			ex        domain.Exclusion
			createdAt string
		)
		if err := rows.Scan(&ex.UserID, &ex.AlbumID, &createdAt); err != nil {
			return nil, err
		}
		if ex.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &ex)
	}
	return out, rows.Err()
}

// GetStats counts the user's activity, ignoring excluded albums.
func (s *Store) GetStats(ctx context.Context, userID string) (*domain.Stats, error) {
	var st domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM rating_states r
			 WHERE r.user_id = ?1
			   AND r.album_id NOT IN (SELECT album_id FROM exclusions WHERE user_id = ?1)),
			(SELECT COUNT(*) FROM judgments j
			 WHERE j.user_id = ?1
			   AND j.album_a NOT IN (SELECT album_id FROM exclusions WHERE user_id = ?1)
			   AND j.album_b NOT IN (SELECT album_id FROM exclusions WHERE user_id = ?1)),
			(SELECT COUNT(*) FROM user_albums WHERE user_id = ?1),
			(SELECT COUNT(*) FROM exclusions WHERE user_id = ?1)`,
		userID,
	).Scan(&st.RatedAlbums, &st.TotalJudgments, &st.LibraryAlbums, &st.ExcludedAlbums)
	if errors.Is(err, sql.ErrNoRows) {
		return &st, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
