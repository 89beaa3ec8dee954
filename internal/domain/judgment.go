package domain

import "time"

// Judgment is an immutable record of one pairwise comparison.
// Winner is nil for a draw. Reconciliation may rewrite album ids to a
// canonical record but never edits the outcome.
type Judgment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AlbumA    int64     `json:"album_a"`
	AlbumB    int64     `json:"album_b"`
	Winner    *int64    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDraw reports whether the judgment recorded no winner.
func (j *Judgment) IsDraw() bool {
	return j.Winner == nil
}
