// Package store defines the persistence interface for the AlbumDuel server.
package store

import (
	"context"

	"github.com/albumduel/albumduel-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByProvider(ctx context.Context, provider, providerUserID string) (*domain.User, error)
	CountUsers(ctx context.Context) (int, error)

	// Albums
	CreateAlbum(ctx context.Context, album *domain.Album) error
	GetAlbum(ctx context.Context, id int64) (*domain.Album, error)
	GetAlbumsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Album, error)
	UpdateAlbum(ctx context.Context, album *domain.Album) error
	ListAlbums(ctx context.Context) ([]*domain.Album, error)
	FindAlbumBySpotifyID(ctx context.Context, spotifyID string) (*domain.Album, error)
	FindAlbumByMBID(ctx context.Context, mbid string) (*domain.Album, error)
	FindAlbumByMatchKey(ctx context.Context, titleKey, artistKey string) (*domain.Album, error)
	FindCoverSibling(ctx context.Context, q CoverSiblingQuery) (*domain.Album, error)

	// Library
	AddUserAlbum(ctx context.Context, ua *domain.UserAlbum) (bool, error)
	ListUserAlbums(ctx context.Context, userID string) ([]*domain.Album, error)
	ListEligibleAlbumIDs(ctx context.Context, userID string) ([]int64, error)

	// Exclusions
	AddExclusion(ctx context.Context, ex *domain.Exclusion) error
	RemoveExclusion(ctx context.Context, userID string, albumID int64) error
	ListExclusions(ctx context.Context, userID string) ([]*domain.Exclusion, error)

	// Ratings and judgments
	GetRatingStates(ctx context.Context, userID string, albumIDs []int64) (map[int64]*domain.RatingState, error)
	RecordJudgment(ctx context.Context, j *domain.Judgment, apply ApplyFunc) (*JudgmentResult, error)
	ListRatedAlbums(ctx context.Context, userID string) ([]domain.RatedAlbum, error)
	ListJudgments(ctx context.Context, userID string) ([]*domain.Judgment, error)
	CountJudgments(ctx context.Context, userID string) (int, error)
	GetStats(ctx context.Context, userID string) (*domain.Stats, error)

	// Maintenance
	MergeAlbums(ctx context.Context, canonicalID int64, duplicateIDs []int64) (*MergeResult, error)
}

// ApplyFunc computes the new rating states for both sides of a judgment.
// It receives the stored states, nil where the album has never been rated
// by the user, and runs inside the write transaction.
type ApplyFunc func(stateA, stateB *domain.RatingState) (domain.RatingState, domain.RatingState, error)

// JudgmentResult holds the rating states persisted with a judgment.
type JudgmentResult struct {
	StateA domain.RatingState
	StateB domain.RatingState
}

// CoverSiblingMode selects how a cover sibling is matched.
type CoverSiblingMode int

const (
	SiblingByMBID CoverSiblingMode = iota
	SiblingBySpotifyID
	SiblingByTitleArtist
)

// CoverSiblingQuery looks for another album describing the same release
// that already has a cover.
type CoverSiblingQuery struct {
	Mode      CoverSiblingMode
	ExcludeID int64
	MBID      string
	SpotifyID string
	Title     string
	Artist    string
}

// MergeResult counts the rows touched while folding duplicate albums into
// their canonical record.
type MergeResult struct {
	AlbumsMerged       int
	StatesRepointed    int
	StatesMerged       int
	JudgmentsRepointed int
	JudgmentsDropped   int
	LibraryRowsMoved   int
	ExclusionRowsMoved int
}
