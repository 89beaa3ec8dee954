package domain

import "time"

// Providers a user may link for imports.
const (
	ProviderLastFM  = "lastfm"
	ProviderSpotify = "spotify"
	ProviderAOTY    = "aoty"
)

// ProviderLink is the ephemeral linkage between a user and an external
// provider account. It lives only in the link store and expires.
type ProviderLink struct {
	UserID     string    `json:"user_id"`
	Provider   string    `json:"provider"`
	Username   string    `json:"username"`
	SessionKey string    `json:"session_key,omitempty"`
	LinkedAt   time.Time `json:"linked_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
