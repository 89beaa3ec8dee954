package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/auth"
	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/validation"
)

func setupAuthTest(t *testing.T) *AuthService {
	t.Helper()
	s := newTestStore(t)
	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{1}, 32), 15*time.Minute)
	require.NoError(t, err)
	return NewAuthService(s, tokens, validation.New(), discardLogger())
}

func TestAuthService_IssueToken_FirstUserIsAdmin(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	first, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "spotify", ProviderUserID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, first.User.Role)
	assert.Equal(t, "Bearer", first.TokenType)
	assert.NotEmpty(t, first.AccessToken)

	second, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "lastfm", ProviderUserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, second.User.Role)
	assert.Equal(t, "bob", second.User.DisplayName)
}

func TestAuthService_IssueToken_ReusesUser(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	first, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "spotify", ProviderUserID: "alice"})
	require.NoError(t, err)
	again, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "spotify", ProviderUserID: " alice "})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)

	// Same provider user id on another provider is a different person.
	other, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "lastfm", ProviderUserID: "alice"})
	require.NoError(t, err)
	assert.NotEqual(t, first.User.ID, other.User.ID)
}

func TestAuthService_IssueToken_Validation(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.IssueToken(context.Background(), IssueTokenRequest{Provider: "spotify", ProviderUserID: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, IssueTokenRequest{Provider: "spotify", ProviderUserID: "alice"})
	require.NoError(t, err)

	user, err := svc.VerifyAccessToken(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, issued.User.ID, user.ID)

	_, err = svc.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// A valid token for a user that no longer exists.
	ghost, _, err := svc.tokenService.GenerateAccessToken(&domain.User{ID: "usr-ghost", Role: domain.RoleMember})
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(ctx, ghost)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
