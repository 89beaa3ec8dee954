package covers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/albumduel/albumduel-server/internal/ratelimit"
)

const (
	defaultTokenURL   = "https://accounts.spotify.com/api/token"
	defaultAPIBaseURL = "https://api.spotify.com/v1"
	searchLimit       = 5

	// limiterKey is the outbound limiter bucket shared by all Spotify calls.
	limiterKey = "spotify"

	// Refresh tokens a little before Spotify expires them.
	tokenExpirySlack = 30 * time.Second
)

// SpotifyConfig configures the Spotify Web API client.
type SpotifyConfig struct {
	ClientID      string
	ClientSecret  string
	SearchEnabled bool

	// Overrides for tests. Empty means the public endpoints.
	TokenURL   string
	APIBaseURL string
}

// SpotifyClient fetches album artwork from the Spotify Web API using the
// client-credentials flow. Calls are rate limited and go through a circuit
// breaker so an outage does not stall imports.
type SpotifyClient struct {
	http          *http.Client
	clientID      string
	clientSecret  string
	tokenURL      string
	apiBaseURL    string
	searchEnabled bool
	limiter       *ratelimit.KeyedRateLimiter
	breaker       *gobreaker.CircuitBreaker[[]byte]
	logger        *slog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewSpotifyClient creates a client. It returns ErrNotConfigured when
// credentials are missing; callers treat that as "Spotify disabled".
func NewSpotifyClient(cfg SpotifyConfig, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) (*SpotifyClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}

	c := &SpotifyClient{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		tokenURL:      cmp.Or(cfg.TokenURL, defaultTokenURL),
		apiBaseURL:    strings.TrimSuffix(cmp.Or(cfg.APIBaseURL, defaultAPIBaseURL), "/"),
		searchEnabled: cfg.SearchEnabled,
		limiter:       limiter,
		logger:        logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "spotify-api",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing album is an answer, not an outage.
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type albumObject struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	Images      []image `json:"images"`
}

type searchResponse struct {
	Albums struct {
		Items []albumObject `json:"items"`
	} `json:"albums"`
}

// accessToken returns a cached token, fetching a new one when expired.
func (c *SpotifyClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", wrapError("token", "", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", wrapError("token", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", wrapError("token", "", statusError(resp.StatusCode))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", wrapError("token", "", fmt.Errorf("parse response: %w", err))
	}
	if tok.AccessToken == "" {
		return "", wrapError("token", "", ErrUnauthorized)
	}

	c.token = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.token, nil
}

func (c *SpotifyClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// get performs an authenticated GET against the Web API.
func (c *SpotifyClient) get(ctx context.Context, op, ref, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, wrapError(op, ref, fmt.Errorf("rate limit: %w", err))
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.apiBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, statusError(resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if errors.Is(err, ErrUnauthorized) {
		c.invalidateToken()
	}
	if err != nil {
		return nil, wrapError(op, ref, err)
	}
	return body, nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

// AlbumCover returns the largest cover image of a Spotify album.
func (c *SpotifyClient) AlbumCover(ctx context.Context, spotifyID string) (string, error) {
	body, err := c.get(ctx, "album", spotifyID, "/albums/"+url.PathEscape(spotifyID), nil)
	if err != nil {
		return "", err
	}

	var album albumObject
	if err := json.Unmarshal(body, &album); err != nil {
		return "", wrapError("album", spotifyID, fmt.Errorf("parse response: %w", err))
	}
	if len(album.Images) == 0 {
		return "", nil
	}
	return album.Images[0].URL, nil
}

// SearchCover searches albums by title and artist. When year is known, a
// result released that year is preferred over the top hit.
func (c *SpotifyClient) SearchCover(ctx context.Context, title, artist string, year *int) (string, error) {
	q := fmt.Sprintf("album:%s artist:%s", title, artist)
	params := url.Values{}
	params.Set("q", q)
	params.Set("type", "album")
	params.Set("limit", fmt.Sprintf("%d", searchLimit))

	c.logger.Debug("searching spotify", "query", q)

	body, err := c.get(ctx, "search", q, "/search", params)
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrapError("search", q, fmt.Errorf("parse response: %w", err))
	}

	items := resp.Albums.Items
	if len(items) == 0 {
		return "", ErrNotFound
	}

	best := items[0]
	if year != nil {
		prefix := fmt.Sprintf("%04d", *year)
		for _, it := range items {
			if strings.HasPrefix(it.ReleaseDate, prefix) && len(it.Images) > 0 {
				best = it
				break
			}
		}
	}
	if len(best.Images) == 0 {
		return "", nil
	}
	return best.Images[0].URL, nil
}

// BreakerState reports the circuit breaker state for health output.
func (c *SpotifyClient) BreakerState() string {
	return c.breaker.State().String()
}
