package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/service"
)

func (s *Server) registerLinkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "putProviderLink",
		Method:      http.MethodPut,
		Path:        "/api/v1/links/{provider}",
		Summary:     "Link provider account",
		Description: "Stores a short-lived link used by import adapters",
		Tags:        []string{"Links"},
		Security:    bearerAuth,
	}, s.handlePutLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProviderLink",
		Method:      http.MethodGet,
		Path:        "/api/v1/links/{provider}",
		Summary:     "Get provider link",
		Tags:        []string{"Links"},
		Security:    bearerAuth,
	}, s.handleGetLink)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteProviderLink",
		Method:        http.MethodDelete,
		Path:          "/api/v1/links/{provider}",
		Summary:       "Unlink provider account",
		Tags:          []string{"Links"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLink)
}

// ProviderPath identifies a provider in the URL.
type ProviderPath struct {
	Provider string `path:"provider" doc:"Provider name" enum:"lastfm,spotify,aoty"`
}

// PutLinkInput wraps a link request for Huma.
type PutLinkInput struct {
	ProviderPath
	Body struct {
		Username   string `json:"username" doc:"Account name at the provider"`
		SessionKey string `json:"session_key,omitempty" doc:"Provider session key, if any"`
	}
}

// LinkOutput wraps a provider link for Huma.
type LinkOutput struct {
	Body *domain.ProviderLink
}

func (s *Server) handlePutLink(ctx context.Context, input *PutLinkInput) (*LinkOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.Link(ctx, user.ID, service.LinkRequest{
		Provider:   input.Provider,
		Username:   input.Body.Username,
		SessionKey: input.Body.SessionKey,
	})
	if err != nil {
		return nil, s.fail(ctx, "link provider", err)
	}
	return &LinkOutput{Body: link}, nil
}

func (s *Server) handleGetLink(ctx context.Context, input *ProviderPath) (*LinkOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.Get(ctx, user.ID, input.Provider)
	if err != nil {
		return nil, s.fail(ctx, "get provider link", err)
	}
	return &LinkOutput{Body: link}, nil
}

func (s *Server) handleDeleteLink(ctx context.Context, input *ProviderPath) (*struct{}, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Link.Unlink(ctx, user.ID, input.Provider); err != nil {
		return nil, s.fail(ctx, "unlink provider", err)
	}
	return nil, nil
}
