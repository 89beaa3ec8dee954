package providers

import (
	"errors"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/config"
	"github.com/albumduel/albumduel-server/internal/covers"
	"github.com/albumduel/albumduel-server/internal/ratelimit"
	"github.com/albumduel/albumduel-server/internal/service"
)

// SpotifyClientHandle wraps the Spotify client and its outbound limiter.
// Client is nil when Spotify credentials are not configured.
type SpotifyClientHandle struct {
	Client  *covers.SpotifyClient
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *SpotifyClientHandle) Shutdown() error {
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return nil
}

// ProvideSpotifyClient provides the Spotify cover client, or a handle with
// a nil client when Spotify is disabled.
func ProvideSpotifyClient(i do.Injector) (*SpotifyClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if !cfg.Spotify.Enabled() {
		log.Info("Spotify cover lookups disabled (no client credentials)")
		return &SpotifyClientHandle{}, nil
	}

	limiter := ratelimit.New(cfg.Spotify.RateLimit, max(1, int(cfg.Spotify.RateLimit)))
	client, err := covers.NewSpotifyClient(covers.SpotifyConfig{
		ClientID:      cfg.Spotify.ClientID,
		ClientSecret:  cfg.Spotify.ClientSecret,
		SearchEnabled: cfg.Spotify.SearchEnabled,
	}, limiter, log)
	if errors.Is(err, covers.ErrNotConfigured) {
		limiter.Stop()
		return &SpotifyClientHandle{}, nil
	}
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	log.Info("Spotify cover lookups enabled",
		"search", cfg.Spotify.SearchEnabled,
		"rate_limit", cfg.Spotify.RateLimit,
	)

	return &SpotifyClientHandle{Client: client, limiter: limiter}, nil
}

// ProvideCoverService provides the cover resolution service.
func ProvideCoverService(i do.Injector) (*service.CoverService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	spotify := do.MustInvoke[*SpotifyClientHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	chain := covers.DefaultChain(storeHandle.Store, spotify.Client)
	return service.NewCoverService(storeHandle.Store, chain, metricsHandle.Metrics, log), nil
}
