package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/api"
	"github.com/albumduel/albumduel-server/internal/config"
	"github.com/albumduel/albumduel-server/internal/ratelimit"
	"github.com/albumduel/albumduel-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	tokenLimiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	defer h.tokenLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	links := do.MustInvoke[*LinkStoreHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Comparison: do.MustInvoke[*service.ComparisonService](i),
		Ranking:    do.MustInvoke[*service.RankingService](i),
		Library:    do.MustInvoke[*service.LibraryService](i),
		Reconcile:  do.MustInvoke[*service.ReconcileService](i),
		Link:       do.MustInvoke[*service.LinkService](i),
	}

	tokenLimiter := ratelimit.New(cfg.Auth.TokenRateLimit, cfg.Auth.TokenRateBurst)

	handler := api.NewServer(services, storeHandle.Store, links.Store, api.Options{
		CORSOrigins:        cfg.Server.CORSOrigins,
		CollaboratorSecret: cfg.Auth.CollaboratorSecret,
		Gatherer:           metricsHandle.Registry,
		TokenLimiter:       tokenLimiter,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	if cfg.Auth.CollaboratorSecret == "" {
		log.Warn("No collaborator secret configured; token endpoint accepts any caller")
	}

	return &HTTPServerHandle{Server: srv, tokenLimiter: tokenLimiter}, nil
}
