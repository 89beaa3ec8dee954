package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "issueToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/token",
		Summary:     "Issue access token",
		Description: "Called by the authentication collaborator after it has verified a user. Creates the user on first sight.",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.rateLimitByIP},
	}, s.handleIssueToken)
}

// IssueTokenRequest is the body of a token request.
type IssueTokenRequest struct {
	Provider       string `json:"provider" doc:"Identity provider that verified the user" example:"spotify"`
	ProviderUserID string `json:"provider_user_id" doc:"User id at the provider"`
	DisplayName    string `json:"display_name,omitempty" doc:"Name shown in the UI"`
}

// IssueTokenInput wraps the token request for Huma.
type IssueTokenInput struct {
	CollaboratorSecret string `header:"X-Collaborator-Secret" doc:"Shared secret of the authentication collaborator"`
	Body               IssueTokenRequest
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body *service.TokenResponse
}

func (s *Server) handleIssueToken(ctx context.Context, input *IssueTokenInput) (*TokenOutput, error) {
	if secret := s.opts.CollaboratorSecret; secret != "" &&
		subtle.ConstantTimeCompare([]byte(secret), []byte(input.CollaboratorSecret)) != 1 {
		return nil, domainerrors.Unauthorized("invalid collaborator secret")
	}

	resp, err := s.services.Auth.IssueToken(ctx, service.IssueTokenRequest{
		Provider:       input.Body.Provider,
		ProviderUserID: input.Body.ProviderUserID,
		DisplayName:    input.Body.DisplayName,
	})
	if err != nil {
		return nil, s.fail(ctx, "issue token", err)
	}
	return &TokenOutput{Body: resp}, nil
}
