package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/domain"
)

func (s *Server) registerExclusionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listExclusions",
		Method:      http.MethodGet,
		Path:        "/api/v1/exclusions",
		Summary:     "List exclusions",
		Tags:        []string{"Exclusions"},
		Security:    bearerAuth,
	}, s.handleListExclusions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "excludeAlbum",
		Method:        http.MethodPost,
		Path:          "/api/v1/exclusions",
		Summary:       "Exclude album",
		Description:   "Hides an album from pairs, rankings and stats. Excluding twice is a no-op.",
		Tags:          []string{"Exclusions"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusNoContent,
	}, s.handleExcludeAlbum)

	huma.Register(s.api, huma.Operation{
		OperationID:   "includeAlbum",
		Method:        http.MethodDelete,
		Path:          "/api/v1/exclusions/{albumID}",
		Summary:       "Include album",
		Description:   "Makes an excluded album visible again",
		Tags:          []string{"Exclusions"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusNoContent,
	}, s.handleIncludeAlbum)
}

// ExclusionsResponse lists a user's exclusions, newest first.
type ExclusionsResponse struct {
	Exclusions []*domain.Exclusion `json:"exclusions"`
}

// ExclusionsOutput wraps exclusions for Huma.
type ExclusionsOutput struct {
	Body ExclusionsResponse
}

func (s *Server) handleListExclusions(ctx context.Context, _ *struct{}) (*ExclusionsOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	exclusions, err := s.services.Library.ListExclusions(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "list exclusions", err)
	}
	if exclusions == nil {
		exclusions = []*domain.Exclusion{}
	}
	return &ExclusionsOutput{Body: ExclusionsResponse{Exclusions: exclusions}}, nil
}

// ExcludeAlbumInput wraps an exclusion request for Huma.
type ExcludeAlbumInput struct {
	Body struct {
		AlbumID int64 `json:"album_id" doc:"Album to hide"`
	}
}

func (s *Server) handleExcludeAlbum(ctx context.Context, input *ExcludeAlbumInput) (*struct{}, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.ExcludeAlbum(ctx, user.ID, input.Body.AlbumID); err != nil {
		return nil, s.fail(ctx, "exclude album", err)
	}
	return nil, nil
}

// IncludeAlbumInput identifies the album to show again.
type IncludeAlbumInput struct {
	AlbumID int64 `path:"albumID" doc:"Album id"`
}

func (s *Server) handleIncludeAlbum(ctx context.Context, input *IncludeAlbumInput) (*struct{}, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.IncludeAlbum(ctx, user.ID, input.AlbumID); err != nil {
		return nil, s.fail(ctx, "include album", err)
	}
	return nil, nil
}
