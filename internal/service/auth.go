package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albumduel/albumduel-server/internal/auth"
	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/id"
	"github.com/albumduel/albumduel-server/internal/store"
	"github.com/albumduel/albumduel-server/internal/validation"
)

// IssueTokenRequest is sent by the authentication collaborator once it
// has verified a user with an external provider.
type IssueTokenRequest struct {
	Provider       string `json:"provider" validate:"required,max=64"`
	ProviderUserID string `json:"provider_user_id" validate:"notblank,max=256"`
	DisplayName    string `json:"display_name" validate:"max=200"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// AuthService maps external identities onto users and issues access
// tokens. Credentials are never handled here.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st store.Store, tokenService *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        st,
		tokenService: tokenService,
		validator:    v,
		logger:       logger,
	}
}

// IssueToken finds or creates the user for (provider, providerUserID) and
// returns an access token. The first user ever created becomes admin.
func (s *AuthService) IssueToken(ctx context.Context, req IssueTokenRequest) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &TokenResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
	}, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, req IssueTokenRequest) (*domain.User, error) {
	providerUserID := strings.TrimSpace(req.ProviderUserID)

	user, err := s.store.GetUserByProvider(ctx, req.Provider, providerUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = providerUserID
	}
	user = &domain.User{
		ID:             userID,
		Provider:       req.Provider,
		ProviderUserID: providerUserID,
		DisplayName:    displayName,
		Role:           domain.RoleMember,
		CreatedAt:      time.Now().UTC(),
	}
	if count == 0 {
		user.Role = domain.RoleAdmin
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent first login for the same identity.
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.store.GetUserByProvider(ctx, req.Provider, providerUserID)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"provider", user.Provider,
		"role", user.Role,
	)
	return user, nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
