package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/config"
	"github.com/albumduel/albumduel-server/internal/linkstore"
	"github.com/albumduel/albumduel-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the SQLite database and applies migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// LinkStoreHandle wraps the provider link store with shutdown capability.
type LinkStoreHandle struct {
	linkstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *LinkStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideLinkStore opens the configured link store backend.
func ProvideLinkStore(i do.Injector) (*LinkStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	switch cfg.LinkStore.Backend {
	case linkstore.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		st, err := linkstore.NewRedis(ctx, linkstore.RedisOptions{
			Addr:     cfg.LinkStore.RedisAddr,
			Password: cfg.LinkStore.RedisPassword,
			DB:       cfg.LinkStore.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Link store initialized", "backend", linkstore.BackendRedis, "addr", cfg.LinkStore.RedisAddr)
		return &LinkStoreHandle{Store: st}, nil

	default:
		dir := cfg.Data.LinksPath()
		st, err := linkstore.OpenBadger(dir)
		if err != nil {
			return nil, err
		}
		log.Info("Link store initialized", "backend", linkstore.BackendBadger, "path", dir)
		return &LinkStoreHandle{Store: st}, nil
	}
}
