package domain

import "time"

// Album sources recorded on import.
const (
	SourceSpotify = "spotify"
	SourceLastFM  = "lastfm"
	SourceAOTY    = "aoty"
	SourceDemo    = "demo"
	SourceManual  = "manual"
)

// Album is a catalogue record. The same real-world album may exist as
// several records imported from different providers until reconciliation
// merges them.
type Album struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Year          *int      `json:"year,omitempty"`
	SpotifyID     *string   `json:"spotify_id,omitempty"`
	MBID          *string   `json:"mbid,omitempty"`
	CoverURL      *string   `json:"cover_url,omitempty"`
	CoverProvider *string   `json:"cover_provider,omitempty"`
	Genres        string    `json:"genres,omitempty"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasStreamingID reports whether the album carries a streaming identifier.
func (a *Album) HasStreamingID() bool {
	return a.SpotifyID != nil && *a.SpotifyID != ""
}

// HasCover reports whether the album has a cover image.
func (a *Album) HasCover() bool {
	return a.CoverURL != nil && *a.CoverURL != ""
}

// YearOrZero returns the release year, treating unknown as 0.
func (a *Album) YearOrZero() int {
	if a.Year == nil {
		return 0
	}
	return *a.Year
}

// SetCover records a resolved cover and the provider it came from.
func (a *Album) SetCover(url, provider string) {
	a.CoverURL = &url
	a.CoverProvider = &provider
	a.Touch()
}

// Touch updates the UpdatedAt timestamp.
func (a *Album) Touch() {
	a.UpdatedAt = time.Now().UTC()
}

// UserAlbum associates an album with a user's library.
// The library is the pool comparisons are drawn from.
type UserAlbum struct {
	UserID    string    `json:"user_id"`
	AlbumID   int64     `json:"album_id"`
	AddedFrom string    `json:"added_from,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Exclusion hides an album from one user's comparison pool, rankings and
// stats. Other users are unaffected.
type Exclusion struct {
	UserID    string    `json:"user_id"`
	AlbumID   int64     `json:"album_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to v, or nil when v is zero.
func IntPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
