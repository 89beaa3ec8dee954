package domain

import "time"

// RatingState is a user's rating for one album. At most one exists per
// (user, album); an album never compared has no row and behaves as the
// default state.
type RatingState struct {
	UserID          string    `json:"user_id"`
	AlbumID         int64     `json:"album_id"`
	Rating          float64   `json:"rating"`
	ComparisonCount int       `json:"comparison_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RatedAlbum pairs an album with the user's rating state for it.
type RatedAlbum struct {
	Album *Album
	State RatingState
}

// RankingEntry is one row of a user's leaderboard.
type RankingEntry struct {
	Album           *Album  `json:"album"`
	Rating          float64 `json:"rating"`
	DisplayScore    float64 `json:"display_score"`
	ComparisonCount int     `json:"comparison_count"`
	MergedAlbumIDs  []int64 `json:"merged_album_ids"`
}

// Stats summarises a user's ranking activity, excluding hidden albums.
type Stats struct {
	RatedAlbums    int `json:"rated_albums"`
	TotalJudgments int `json:"total_judgments"`
	LibraryAlbums  int `json:"library_albums"`
	ExcludedAlbums int `json:"excluded_albums"`
}
