// Package di provides dependency injection configuration for the AlbumDuel server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/auth"
	"github.com/albumduel/albumduel-server/internal/config"
	"github.com/albumduel/albumduel-server/internal/di/providers"
	"github.com/albumduel/albumduel-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLinkStore)

	// Covers
	do.Provide(injector, providers.ProvideSpotifyClient)
	do.Provide(injector, providers.ProvideCoverService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideMaintenanceGate)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideComparisonService)
	do.Provide(injector, providers.ProvideRankingService)
	do.Provide(injector, providers.ProvideReconcileService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideLinkService)

	// Workers
	do.Provide(injector, providers.ProvideReconcileJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap opens configuration, logging and the database. Command-line
// tools stop here and invoke the services they use; anything else is
// built lazily on first use.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*slog.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	return nil
}

// Start bootstraps the container, opens everything the HTTP API depends
// on and starts the background job and the HTTP server.
func Start(injector *do.RootScope) error {
	if err := Bootstrap(injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LinkStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.LibraryService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ReconcileJob](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
