package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/linkstore"
	"github.com/albumduel/albumduel-server/internal/validation"
)

// LinkRequest attaches an external provider account to a user.
type LinkRequest struct {
	Provider   string `json:"provider" validate:"required,oneof=lastfm spotify aoty"`
	Username   string `json:"username" validate:"notblank,max=256"`
	SessionKey string `json:"session_key,omitempty" validate:"max=1024"`
}

// LinkService manages short-lived provider links used by import adapters.
type LinkService struct {
	links     linkstore.Store
	ttl       time.Duration
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLinkService creates a link service whose links live for ttl.
func NewLinkService(links linkstore.Store, ttl time.Duration, v *validation.Validator, logger *slog.Logger) *LinkService {
	return &LinkService{links: links, ttl: ttl, validator: v, logger: logger}
}

// Link stores (or refreshes) the user's link to a provider.
func (s *LinkService) Link(ctx context.Context, userID string, req LinkRequest) (*domain.ProviderLink, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	link := &domain.ProviderLink{
		UserID:     userID,
		Provider:   req.Provider,
		Username:   req.Username,
		SessionKey: req.SessionKey,
		LinkedAt:   time.Now().UTC(),
	}
	if err := s.links.Put(ctx, link, s.ttl); err != nil {
		return nil, err
	}

	s.logger.Info("provider linked",
		"user_id", userID,
		"provider", req.Provider,
		"expires_at", link.ExpiresAt,
	)
	return link, nil
}

// Get returns the user's live link to provider.
func (s *LinkService) Get(ctx context.Context, userID, provider string) (*domain.ProviderLink, error) {
	link, err := s.links.Get(ctx, userID, provider)
	if errors.Is(err, linkstore.ErrNotFound) {
		return nil, domainerrors.NotFoundf("no %s link", provider)
	}
	return link, err
}

// Unlink removes the user's link to provider. Unlinking twice is a no-op.
func (s *LinkService) Unlink(ctx context.Context, userID, provider string) error {
	if err := s.links.Delete(ctx, userID, provider); err != nil {
		return err
	}
	s.logger.Info("provider unlinked", "user_id", userID, "provider", provider)
	return nil
}
