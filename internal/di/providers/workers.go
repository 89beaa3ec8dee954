package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/albumduel/albumduel-server/internal/config"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/logger"
	"github.com/albumduel/albumduel-server/internal/service"
)

// ReconcileJob runs periodic duplicate reconciliation.
type ReconcileJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable. It waits for a running pass to
// observe cancellation.
func (j *ReconcileJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideReconcileJob starts the scheduled reconciliation job. An interval
// of zero leaves the job idle.
func ProvideReconcileJob(i do.Injector) (*ReconcileJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	svc := do.MustInvoke[*service.ReconcileService](i)
	log := logger.Component(do.MustInvoke[*slog.Logger](i), "reconcile-job")

	ctx, cancel := context.WithCancel(context.Background())
	job := &ReconcileJob{cancel: cancel, done: make(chan struct{})}

	if cfg.Reconcile.Interval <= 0 {
		close(job.done)
		log.Info("Scheduled reconciliation disabled")
		return job, nil
	}

	go func() {
		defer close(job.done)
		runReconcileLoop(ctx, cfg.Reconcile.Interval, svc, log)
	}()

	log.Info("Scheduled reconciliation started", "interval", cfg.Reconcile.Interval)

	return job, nil
}

// reconciler is the part of ReconcileService the job needs.
type reconciler interface {
	ReconcileDuplicates(ctx context.Context) (*service.ReconcileReport, error)
}

func runReconcileLoop(ctx context.Context, interval time.Duration, svc reconciler, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := svc.ReconcileDuplicates(ctx)
			switch {
			case errors.Is(err, domainerrors.ErrConflict):
				log.Info("Reconciliation skipped, another pass is running")
			case err != nil:
				log.Warn("Scheduled reconciliation failed", "error", err)
			case report.AlbumsMerged > 0 || report.FailedGroups > 0:
				log.Info("Scheduled reconciliation completed",
					"albums_merged", report.AlbumsMerged,
					"failed_groups", report.FailedGroups,
				)
			}
		case <-ctx.Done():
			return
		}
	}
}
