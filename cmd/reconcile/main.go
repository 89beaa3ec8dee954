// Package main runs one duplicate reconciliation pass against the
// configured database, prints the report as JSON and then resolves covers
// for albums that still have none.
//
// Usage:
//
//	DATA_PATH=~/AlbumDuel/data go run ./cmd/reconcile
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/di"
	"github.com/albumduel/albumduel-server/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*slog.Logger](injector)
	svc, err := do.Invoke[*service.ReconcileService](injector)
	if err != nil {
		log.Error("Failed to initialize reconciliation", "error", err)
		return 1
	}
	covers, err := do.Invoke[*service.CoverService](injector)
	if err != nil {
		log.Error("Failed to initialize cover resolution", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, runErr := svc.ReconcileDuplicates(ctx)
	if runErr != nil {
		log.Error("Reconciliation failed", "error", runErr)
		if report == nil {
			return 1
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error("Failed to encode report", "error", err)
		return 1
	}
	fmt.Println(string(out))

	if runErr == nil {
		filled, err := covers.ResolveMissing(ctx)
		if err != nil {
			log.Warn("Cover backfill stopped early", "filled", filled, "error", err)
		} else {
			log.Info("Cover backfill complete", "filled", filled)
		}
	}

	return exitCode(report, runErr)
}

// exitCode is 1 when the pass stopped early, 2 when some groups failed to
// merge and 0 otherwise.
func exitCode(report *service.ReconcileReport, err error) int {
	switch {
	case err != nil:
		return 1
	case report.FailedGroups > 0:
		return 2
	default:
		return 0
	}
}
