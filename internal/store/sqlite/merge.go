package sqlite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/rating"
	"github.com/albumduel/albumduel-server/internal/store"
)

// MergeAlbums folds each duplicate into the canonical album and deletes
// it. The whole group is one transaction; duplicates are processed in
// order against the same canonical record:
//
//   - rating states move to the canonical album, or are merged by
//     comparison count when the user already rated it
//   - judgments are repointed; those that would compare the canonical
//     album with itself are dropped
//   - library and exclusion rows move, skipping ones the user already has
//
// Returns store.ErrNotFound if any album does not exist.
func (s *Store) MergeAlbums(ctx context.Context, canonicalID int64, duplicateIDs []int64) (*store.MergeResult, error) {
	if slices.Contains(duplicateIDs, canonicalID) {
		return nil, fmt.Errorf("merge album %d into itself", canonicalID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := append([]int64{canonicalID}, duplicateIDs...)
	marks, args := placeholders(ids)
	var found int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM albums WHERE id IN (`+marks+`)`, args...,
	).Scan(&found); err != nil {
		return nil, err
	}
	if found != len(ids) {
		return nil, store.ErrNotFound
	}

	result := &store.MergeResult{}
	for _, dupID := range duplicateIDs {
		if err := mergeOne(ctx, tx, dupID, canonicalID, result); err != nil {
			return nil, fmt.Errorf("merge album %d into %d: %w", dupID, canonicalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func mergeOne(ctx context.Context, tx querier, dupID, canonID int64, result *store.MergeResult) error {
	if err := mergeRatingStates(ctx, tx, dupID, canonID, result); err != nil {
		return err
	}
	if err := repointJudgments(ctx, tx, dupID, canonID, result); err != nil {
		return err
	}

	moved, err := moveMembership(ctx, tx, "user_albums", dupID, canonID)
	if err != nil {
		return err
	}
	result.LibraryRowsMoved += moved

	moved, err = moveMembership(ctx, tx, "exclusions", dupID, canonID)
	if err != nil {
		return err
	}
	result.ExclusionRowsMoved += moved

	if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, dupID); err != nil {
		return fmt.Errorf("delete duplicate album: %w", err)
	}
	result.AlbumsMerged++
	return nil
}

func mergeRatingStates(ctx context.Context, tx querier, dupID, canonID int64, result *store.MergeResult) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM rating_states r WHERE r.album_id = ?`, dupID)
	if err != nil {
		return fmt.Errorf("load duplicate states: %w", err)
	}
	var dupStates []*domain.RatingState
	for rows.Next() {
		st, err := scanRatingState(rows)
		if err != nil {
			rows.Close()
			return err
		}
		dupStates = append(dupStates, st)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	now := time.Now().UTC()
	for _, dup := range dupStates {
		existing, err := getRatingStates(ctx, tx, dup.UserID, []int64{canonID})
		if err != nil {
			return err
		}

		canon, ok := existing[canonID]
		if !ok {
			if _, err := tx.ExecContext(ctx,
				`UPDATE rating_states SET album_id = ? WHERE user_id = ? AND album_id = ?`,
				canonID, dup.UserID, dupID); err != nil {
				return fmt.Errorf("repoint rating state: %w", err)
			}
			result.StatesRepointed++
			continue
		}

		merged := rating.WeightedMerge(*canon, *dup)
		merged.UpdatedAt = now
		if err := upsertRatingState(ctx, tx, merged); err != nil {
			return fmt.Errorf("save merged rating state: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM rating_states WHERE user_id = ? AND album_id = ?`, dup.UserID, dupID); err != nil {
			return fmt.Errorf("delete duplicate rating state: %w", err)
		}
		result.StatesMerged++
	}
	return nil
}

func repointJudgments(ctx context.Context, tx querier, dupID, canonID int64, result *store.MergeResult) error {
	// Judgments between the two records would compare the canonical album
	// with itself once repointed.
	res, err := tx.ExecContext(ctx, `
		DELETE FROM judgments
		WHERE (album_a = ?1 AND album_b = ?2) OR (album_a = ?2 AND album_b = ?1)`,
		dupID, canonID)
	if err != nil {
		return fmt.Errorf("drop self judgments: %w", err)
	}
	dropped, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drop self judgments: %w", err)
	}
	result.JudgmentsDropped += int(dropped)

	res, err = tx.ExecContext(ctx, `
		UPDATE judgments SET
			album_a = CASE WHEN album_a = ?1 THEN ?2 ELSE album_a END,
			album_b = CASE WHEN album_b = ?1 THEN ?2 ELSE album_b END,
			winner  = CASE WHEN winner  = ?1 THEN ?2 ELSE winner  END
		WHERE album_a = ?1 OR album_b = ?1 OR winner = ?1`,
		dupID, canonID)
	if err != nil {
		return fmt.Errorf("repoint judgments: %w", err)
	}
	repointed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repoint judgments: %w", err)
	}
	result.JudgmentsRepointed += int(repointed)
	return nil
}

// moveMembership repoints (user_id, album_id) rows in table from dupID to
// canonID. Rows the user already has for canonID are dropped.
func moveMembership(ctx context.Context, tx querier, table string, dupID, canonID int64) (int, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE `+table+` SET album_id = ? WHERE album_id = ?`, canonID, dupID)
	if err != nil {
		return 0, fmt.Errorf("repoint %s: %w", table, err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repoint %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE album_id = ?`, dupID); err != nil {
		return 0, fmt.Errorf("drop duplicate %s: %w", table, err)
	}
	return int(moved), nil
}
