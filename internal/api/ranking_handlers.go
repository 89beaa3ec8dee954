package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

func (s *Server) registerRankingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRankings",
		Method:      http.MethodGet,
		Path:        "/api/v1/rankings",
		Summary:     "Get rankings",
		Description: "Returns the user's rated albums sorted by rating, duplicates merged for display",
		Tags:        []string{"Rankings"},
		Security:    bearerAuth,
	}, s.handleGetRankings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get stats",
		Tags:        []string{"Rankings"},
		Security:    bearerAuth,
	}, s.handleGetStats)
}

// PageInput carries the pagination query parameters.
type PageInput struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size, default 100"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
}

func (p PageInput) params() store.PaginationParams {
	return store.PaginationParams{Limit: p.Limit, Cursor: p.Cursor}
}

// RankingsOutput wraps one page of rankings, best first.
type RankingsOutput struct {
	Body *store.PaginatedResult[domain.RankingEntry]
}

func (s *Server) handleGetRankings(ctx context.Context, input *PageInput) (*RankingsOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Ranking.ComputeRankings(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "compute rankings", err)
	}

	page, err := store.Paginate(entries, input.params())
	if err != nil {
		return nil, s.fail(ctx, "paginate rankings", err)
	}
	return &RankingsOutput{Body: page}, nil
}

// StatsOutput wraps stats for Huma.
type StatsOutput struct {
	Body *domain.Stats
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Library.Stats(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "stats", err)
	}
	return &StatsOutput{Body: stats}, nil
}
