package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const ratingColumns = `r.user_id, r.album_id, r.rating, r.comparison_count, r.updated_at`

func scanRatingState(scanner interface{ Scan(dest ...any) error }) (*domain.RatingState, error) {
	var (
		st        domain.RatingState
		updatedAt string
	)
	if err := scanner.Scan(&st.UserID, &st.AlbumID, &st.Rating, &st.ComparisonCount, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

func getRatingStates(ctx context.Context, q querier, userID string, albumIDs []int64) (map[int64]*domain.RatingState, error) {
	out := make(map[int64]*domain.RatingState, len(albumIDs))
	if len(albumIDs) == 0 {
		return out, nil
	}
	marks, args := placeholders(albumIDs)
	rows, err := q.QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM rating_states r
		WHERE r.user_id = ? AND r.album_id IN (`+marks+`)`,
		append([]any{userID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanRatingState(rows)
		if err != nil {
			return nil, err
		}
		out[st.AlbumID] = st
	}
	return out, rows.Err()
}

func upsertRatingState(ctx context.Context, q querier, st domain.RatingState) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO rating_states (user_id, album_id, rating, comparison_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, album_id) DO UPDATE SET
			rating = excluded.rating,
			comparison_count = excluded.comparison_count,
			updated_at = excluded.updated_at`,
		st.UserID, st.AlbumID, st.Rating, st.ComparisonCount, formatTime(st.UpdatedAt))
	return err
}

// GetRatingStates returns the stored states for the given albums. Albums the
// user never rated are absent from the map.
func (s *Store) GetRatingStates(ctx context.Context, userID string, albumIDs []int64) (map[int64]*domain.RatingState, error) {
	return getRatingStates(ctx, s.db, userID, albumIDs)
}

// RecordJudgment loads both rating states, lets apply compute the new ones,
// and persists them together with the judgment in a single transaction.
// Returns store.ErrNotFound if either album does not exist.
func (s *Store) RecordJudgment(ctx context.Context, j *domain.Judgment, apply store.ApplyFunc) (*store.JudgmentResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var found int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM albums WHERE id IN (?, ?)`, j.AlbumA, j.AlbumB,
	).Scan(&found); err != nil {
		return nil, err
	}
	if found != 2 {
		return nil, store.ErrNotFound
	}

	states, err := getRatingStates(ctx, tx, j.UserID, []int64{j.AlbumA, j.AlbumB})
	if err != nil {
		return nil, fmt.Errorf("load rating states: %w", err)
	}

	newA, newB, err := apply(states[j.AlbumA], states[j.AlbumB])
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newA.UserID, newA.AlbumID, newA.UpdatedAt = j.UserID, j.AlbumA, now
	newB.UserID, newB.AlbumID, newB.UpdatedAt = j.UserID, j.AlbumB, now

	if err := upsertRatingState(ctx, tx, newA); err != nil {
		return nil, fmt.Errorf("save rating state %d: %w", j.AlbumA, err)
	}
	if err := upsertRatingState(ctx, tx, newB); err != nil {
		return nil, fmt.Errorf("save rating state %d: %w", j.AlbumB, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO judgments (id, user_id, album_a, album_b, winner, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.AlbumA, j.AlbumB, nullableID(j.Winner), formatTime(j.CreatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert judgment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &store.JudgmentResult{StateA: newA, StateB: newB}, nil
}

// ListRatedAlbums returns every (album, state) pair the user has rated,
// skipping excluded albums.
func (s *Store) ListRatedAlbums(ctx context.Context, userID string) ([]domain.RatedAlbum, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+albumColumns+`, `+ratingColumns+`
		FROM rating_states r
		JOIN albums a ON a.id = r.album_id
		WHERE r.user_id = ?1
		  AND NOT EXISTS (
			SELECT 1 FROM exclusions e WHERE e.user_id = ?1 AND e.album_id = r.album_id
		  )
		ORDER BY a.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatedAlbum
	for rows.Next() {
		var (
			st        domain.RatingState
			updatedAt string
		)
		a, err := scanAlbum(rows, &st.UserID, &st.AlbumID, &st.Rating, &st.ComparisonCount, &updatedAt)
		if err != nil {
			return nil, err
		}
		if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, domain.RatedAlbum{Album: a, State: st})
	}
	return out, rows.Err()
}

// ListJudgments returns the user's judgments, oldest first.
func (s *Store) ListJudgments(ctx context.Context, userID string) ([]*domain.Judgment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, album_a, album_b, winner, created_at
		FROM judgments WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Judgment
	for rows.Next() {
		var (
			j         domain.Judgment
			winner    sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&j.ID, &j.UserID, &j.AlbumA, &j.AlbumB, &winner, &createdAt); err != nil {
			return nil, err
		}
		j.Winner = idPtr(winner)
		if j.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}

// CountJudgments returns how many judgments the user has recorded.
func (s *Store) CountJudgments(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM judgments WHERE user_id = ?`, userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
