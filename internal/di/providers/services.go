package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/auth"
	"github.com/albumduel/albumduel-server/internal/config"
	"github.com/albumduel/albumduel-server/internal/service"
	"github.com/albumduel/albumduel-server/internal/validation"
)

// ProvideMaintenanceGate provides the gate shared by comparisons, imports
// and reconciliation.
func ProvideMaintenanceGate(i do.Injector) (*service.MaintenanceGate, error) {
	return service.NewMaintenanceGate(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, v, log), nil
}

// ProvideComparisonService provides the comparison ledger.
func ProvideComparisonService(i do.Injector) (*service.ComparisonService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gate := do.MustInvoke[*service.MaintenanceGate](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewComparisonService(storeHandle.Store, gate, metricsHandle.Metrics, log), nil
}

// ProvideRankingService provides the ranking aggregator.
func ProvideRankingService(i do.Injector) (*service.RankingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewRankingService(storeHandle.Store, log), nil
}

// ProvideReconcileService provides duplicate reconciliation.
func ProvideReconcileService(i do.Injector) (*service.ReconcileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gate := do.MustInvoke[*service.MaintenanceGate](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewReconcileService(storeHandle.Store, gate, metricsHandle.Metrics, log), nil
}

// ProvideLibraryService provides imports, exclusions and stats.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gate := do.MustInvoke[*service.MaintenanceGate](i)
	coverService := do.MustInvoke[*service.CoverService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewLibraryService(storeHandle.Store, gate, coverService, v, log), nil
}

// ProvideLinkService provides provider link management.
func ProvideLinkService(i do.Injector) (*service.LinkService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	links := do.MustInvoke[*LinkStoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewLinkService(links.Store, cfg.LinkStore.TTL, v, log), nil
}
