package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := mustCreateUser(t, s, "usr-1")

	got, err := s.GetUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.DisplayName != user.DisplayName {
		t.Errorf("DisplayName: got %q, want %q", got.DisplayName, user.DisplayName)
	}
	if got.Role != domain.RoleMember {
		t.Errorf("Role: got %q, want %q", got.Role, domain.RoleMember)
	}
	if got.CreatedAt.Unix() != user.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}

	byProvider, err := s.GetUserByProvider(ctx, "test", "usr-1")
	if err != nil {
		t.Fatalf("GetUserByProvider: %v", err)
	}
	if byProvider.ID != "usr-1" {
		t.Errorf("GetUserByProvider: got %q", byProvider.ID)
	}

	n, err := s.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers: got %d, want 1", n)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateProviderIdentity(t *testing.T) {
	s := newTestStore(t)
	u := mustCreateUser(t, s, "usr-1")

	dup := *u
	dup.ID = "usr-2"
	err := s.CreateUser(context.Background(), &dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
