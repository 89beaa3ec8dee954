package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/service"
)

func (s *Server) registerCompareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getNextPair",
		Method:      http.MethodGet,
		Path:        "/api/v1/compare/next",
		Summary:     "Get next comparison",
		Description: "Returns two distinct, non-excluded albums from the user's library",
		Tags:        []string{"Compare"},
		Security:    bearerAuth,
	}, s.handleNextPair)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordComparison",
		Method:      http.MethodPost,
		Path:        "/api/v1/compare",
		Summary:     "Record comparison",
		Description: "Records one judgment and updates both ratings. Omit winner for a draw.",
		Tags:        []string{"Compare"},
		Security:    bearerAuth,
	}, s.handleRecordComparison)
}

// PairOutput wraps the next pair for Huma.
type PairOutput struct {
	Body *service.Pair
}

func (s *Server) handleNextPair(ctx context.Context, _ *struct{}) (*PairOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	pair, err := s.services.Comparison.NextPair(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "next pair", err)
	}
	return &PairOutput{Body: pair}, nil
}

// RecordComparisonRequest is the body of a comparison.
type RecordComparisonRequest struct {
	AlbumA int64  `json:"album_a" doc:"First album id"`
	AlbumB int64  `json:"album_b" doc:"Second album id"`
	Winner *int64 `json:"winner,omitempty" doc:"Winning album id; omitted for a draw"`
}

// RecordComparisonInput wraps the comparison request for Huma.
type RecordComparisonInput struct {
	Body RecordComparisonRequest
}

// ComparisonOutput wraps the comparison result for Huma.
type ComparisonOutput struct {
	Body *service.ComparisonResult
}

func (s *Server) handleRecordComparison(ctx context.Context, input *RecordComparisonInput) (*ComparisonOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Comparison.RecordComparison(ctx, user.ID, input.Body.AlbumA, input.Body.AlbumB, input.Body.Winner)
	if err != nil {
		return nil, s.fail(ctx, "record comparison", err)
	}
	return &ComparisonOutput{Body: res}, nil
}
