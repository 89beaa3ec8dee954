package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/albumduel/albumduel-server/internal/canonical"
	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/metrics"
	"github.com/albumduel/albumduel-server/internal/normalize"
	"github.com/albumduel/albumduel-server/internal/store"
)

// ReconcileFailure describes a group whose merge was rolled back.
type ReconcileFailure struct {
	CanonicalID  int64   `json:"canonical_id"`
	DuplicateIDs []int64 `json:"duplicate_ids"`
	Error        string  `json:"error"`
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	StartedAt          time.Time          `json:"started_at"`
	FinishedAt         time.Time          `json:"finished_at"`
	AlbumsScanned      int                `json:"albums_scanned"`
	GroupsExamined     int                `json:"groups_examined"`
	AlbumsMerged       int                `json:"albums_merged"`
	StatesMerged       int                `json:"states_merged"`
	StatesRepointed    int                `json:"states_repointed"`
	JudgmentsRepointed int                `json:"judgments_repointed"`
	JudgmentsDropped   int                `json:"judgments_dropped"`
	LibraryRowsMoved   int                `json:"library_rows_moved"`
	ExclusionRowsMoved int                `json:"exclusion_rows_moved"`
	FailedGroups       int                `json:"failed_groups"`
	Failures           []ReconcileFailure `json:"failures,omitempty"`
}

func (r *ReconcileReport) add(m *store.MergeResult) {
	r.AlbumsMerged += m.AlbumsMerged
	r.StatesMerged += m.StatesMerged
	r.StatesRepointed += m.StatesRepointed
	r.JudgmentsRepointed += m.JudgmentsRepointed
	r.JudgmentsDropped += m.JudgmentsDropped
	r.LibraryRowsMoved += m.LibraryRowsMoved
	r.ExclusionRowsMoved += m.ExclusionRowsMoved
}

// ReconcileService merges albums that describe the same release.
type ReconcileService struct {
	store   store.Store
	gate    *MaintenanceGate
	metrics *metrics.Metrics
	logger  *slog.Logger
	running atomic.Bool
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(st store.Store, gate *MaintenanceGate, m *metrics.Metrics, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{store: st, gate: gate, metrics: m, logger: logger}
}

// ReconcileDuplicates groups albums by normalized title, artist and exact
// year, keeps one canonical album per group and folds the rest into it.
// Each group commits on its own; a failing group is logged, counted and
// skipped. Rating writes are held off for the whole pass.
//
// A second pass with no new data changes nothing.
func (s *ReconcileService) ReconcileDuplicates(ctx context.Context) (*ReconcileReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domainerrors.Conflict("reconciliation already running")
	}
	defer s.running.Store(false)

	release := s.gate.Exclusive()
	defer release()

	report := &ReconcileReport{StartedAt: time.Now().UTC()}

	albums, err := s.store.ListAlbums(ctx)
	if err != nil {
		s.metrics.ObserveReconcile(metrics.StatusFailure, time.Since(report.StartedAt), 0)
		return nil, err
	}
	report.AlbumsScanned = len(albums)

	for _, group := range groupDuplicates(albums) {
		if err := ctx.Err(); err != nil {
			s.finish(report, metrics.StatusFailure)
			return report, err
		}

		keep, dups := canonical.Split(group)
		dupIDs := make([]int64, len(dups))
		for i, d := range dups {
			dupIDs[i] = d.ID
		}
		report.GroupsExamined++

		res, err := s.store.MergeAlbums(ctx, keep.ID, dupIDs)
		if err != nil {
			report.FailedGroups++
			report.Failures = append(report.Failures, ReconcileFailure{
				CanonicalID:  keep.ID,
				DuplicateIDs: dupIDs,
				Error:        err.Error(),
			})
			s.logger.Error("failed to merge duplicate group",
				"canonical_id", keep.ID,
				"duplicate_ids", dupIDs,
				"title", keep.Title,
				"artist", keep.Artist,
				"error", err,
			)
			continue
		}

		report.add(res)
		s.logger.Info("merged duplicate albums",
			"canonical_id", keep.ID,
			"duplicate_ids", dupIDs,
			"title", keep.Title,
			"artist", keep.Artist,
			"states_merged", res.StatesMerged,
			"judgments_dropped", res.JudgmentsDropped,
		)
	}

	status := metrics.StatusSuccess
	if report.FailedGroups > 0 {
		status = metrics.StatusPartial
	}
	s.finish(report, status)
	return report, nil
}

func (s *ReconcileService) finish(report *ReconcileReport, status string) {
	report.FinishedAt = time.Now().UTC()
	elapsed := report.FinishedAt.Sub(report.StartedAt)
	s.metrics.ObserveReconcile(status, elapsed, report.AlbumsMerged)
	s.logger.Info("reconciliation finished",
		"status", status,
		"albums_scanned", report.AlbumsScanned,
		"groups", report.GroupsExamined,
		"albums_merged", report.AlbumsMerged,
		"failed_groups", report.FailedGroups,
		"duration", elapsed,
	)
}

// groupDuplicates returns the groups with more than one member, ordered by
// their smallest album id so passes are deterministic.
func groupDuplicates(albums []*domain.Album) [][]*domain.Album {
	byKey := make(map[normalize.GroupKey][]*domain.Album)
	for _, a := range albums {
		key := normalize.GroupKeyFor(a.Title, a.Artist, a.Year)
		byKey[key] = append(byKey[key], a)
	}

	var groups [][]*domain.Album
	for _, g := range byKey {
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	slices.SortFunc(groups, compareMinID)
	return groups
}

func compareMinID(a, b []*domain.Album) int {
	minID := func(g []*domain.Album) int64 {
		m := g[0].ID
		for _, x := range g[1:] {
			m = min(m, x.ID)
		}
		return m
	}
	return cmp.Compare(minID(a), minID(b))
}
