package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/albumduel/albumduel-server/internal/canonical"
	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/normalize"
	"github.com/albumduel/albumduel-server/internal/rating"
	"github.com/albumduel/albumduel-server/internal/store"
)

// RankingService builds a user's leaderboard. It never writes.
type RankingService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRankingService creates a new ranking service.
func NewRankingService(st store.Store, logger *slog.Logger) *RankingService {
	return &RankingService{store: st, logger: logger}
}

type rankingGroup struct {
	albums   []*domain.Album
	weighted float64
	weight   float64
	rawCount int
}

// ComputeRankings returns the user's rated albums, merged by case-insensitive
// title and artist and sorted by merged rating, highest first. Excluded
// albums are left out.
//
// Records that reconciliation keeps apart, such as the same title released
// in different years, still show as one row here.
func (s *RankingService) ComputeRankings(ctx context.Context, userID string) ([]domain.RankingEntry, error) {
	rated, err := s.store.ListRatedAlbums(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := make(map[normalize.DisplayKey]*rankingGroup)
	var order []normalize.DisplayKey
	for _, r := range rated {
		key := normalize.DisplayKeyFor(r.Album.Title, r.Album.Artist)
		g, ok := groups[key]
		if !ok {
			g = &rankingGroup{}
			groups[key] = g
			order = append(order, key)
		}
		w := rating.DisplayWeight(r.State.ComparisonCount)
		g.albums = append(g.albums, r.Album)
		g.weighted += r.State.Rating * w
		g.weight += w
		g.rawCount += r.State.ComparisonCount
	}

	entries := make([]domain.RankingEntry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		merged := g.weighted / g.weight

		ids := make([]int64, len(g.albums))
		for i, a := range g.albums {
			ids[i] = a.ID
		}
		slices.Sort(ids)

		entries = append(entries, domain.RankingEntry{
			Album:           canonical.Fold(g.albums),
			Rating:          merged,
			DisplayScore:    rating.ToDisplayScore(merged),
			ComparisonCount: g.rawCount,
			MergedAlbumIDs:  ids,
		})
	}

	slices.SortStableFunc(entries, func(a, b domain.RankingEntry) int {
		return cmp.Compare(b.Rating, a.Rating)
	})

	s.logger.Debug("rankings computed",
		"user_id", userID,
		"rated_albums", len(rated),
		"entries", len(entries),
	)
	return entries, nil
}
