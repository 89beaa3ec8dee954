package service

import (
	"context"
	"log/slog"

	"github.com/albumduel/albumduel-server/internal/covers"
	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/metrics"
	"github.com/albumduel/albumduel-server/internal/store"
)

// CoverService fills in missing album covers. Resolution is best effort:
// strategy errors are logged and the next strategy is tried.
type CoverService struct {
	store      store.Store
	strategies []covers.Strategy
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewCoverService creates a cover service that tries strategies in order.
func NewCoverService(st store.Store, strategies []covers.Strategy, m *metrics.Metrics, logger *slog.Logger) *CoverService {
	return &CoverService{
		store:      st,
		strategies: strategies,
		metrics:    m,
		logger:     logger,
	}
}

// Resolve runs the strategy chain for an album without a cover and saves
// the first hit. suppliedURL is the cover the importing provider sent, if
// any. It reports whether a cover was stored.
func (s *CoverService) Resolve(ctx context.Context, album *domain.Album, suppliedURL, provider string) (bool, error) {
	if album.HasCover() {
		return false, nil
	}

	req := covers.Request{Album: album, CoverURL: suppliedURL, Provider: provider}
	for _, strategy := range s.strategies {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		name := strategy.Name()
		res, ok, err := strategy.Resolve(ctx, req)
		if err != nil {
			s.metrics.IncCoverResolution(name, metrics.ResultError)
			s.logger.Warn("cover strategy failed",
				"strategy", name,
				"album_id", album.ID,
				"error", err,
			)
			continue
		}
		if !ok {
			s.metrics.IncCoverResolution(name, metrics.ResultMiss)
			continue
		}

		s.metrics.IncCoverResolution(name, metrics.ResultHit)
		album.SetCover(res.URL, res.Provider)
		if err := s.store.UpdateAlbum(ctx, album); err != nil {
			return false, translateStoreError(err, "album")
		}
		s.logger.Debug("cover resolved",
			"album_id", album.ID,
			"strategy", name,
			"provider", res.Provider,
		)
		return true, nil
	}
	return false, nil
}

// ResolveMissing runs Resolve for every album without a cover and returns
// how many were filled.
func (s *CoverService) ResolveMissing(ctx context.Context) (int, error) {
	albums, err := s.store.ListAlbums(ctx)
	if err != nil {
		return 0, err
	}

	filled := 0
	for _, a := range albums {
		if a.HasCover() {
			continue
		}
		ok, err := s.Resolve(ctx, a, "", "")
		if err != nil {
			return filled, err
		}
		if ok {
			filled++
		}
	}
	return filled, nil
}
