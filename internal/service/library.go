package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/normalize"
	"github.com/albumduel/albumduel-server/internal/rating"
	"github.com/albumduel/albumduel-server/internal/store"
	"github.com/albumduel/albumduel-server/internal/validation"
)

// AlbumUpsert is one album sent by an import collaborator.
type AlbumUpsert struct {
	Title     string  `json:"title" validate:"notblank,max=500"`
	Artist    string  `json:"artist" validate:"notblank,max=500"`
	Year      *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	CoverURL  *string `json:"cover_url,omitempty" validate:"omitempty,http_url"`
	SpotifyID *string `json:"spotify_id,omitempty" validate:"omitempty,spotifyid"`
	MBID      *string `json:"mbid,omitempty" validate:"omitempty,uuid"`
	Genres    string  `json:"genres,omitempty" validate:"max=500"`
}

type importBatch struct {
	Source string        `json:"source" validate:"required,oneof=spotify lastfm aoty demo manual"`
	Albums []AlbumUpsert `json:"albums" validate:"required,min=1,max=500,dive"`
}

// ImportedAlbum reports what happened to one upsert.
type ImportedAlbum struct {
	AlbumID        int64 `json:"album_id"`
	Created        bool  `json:"created"`
	AddedToLibrary bool  `json:"added_to_library"`
	CoverResolved  bool  `json:"cover_resolved"`
}

// ImportResult summarises an import batch.
type ImportResult struct {
	Created        int             `json:"created"`
	Matched        int             `json:"matched"`
	AddedToLibrary int             `json:"added_to_library"`
	CoversResolved int             `json:"covers_resolved"`
	Albums         []ImportedAlbum `json:"albums"`
}

// LibraryAlbum is an album in a user's library with its current rating.
type LibraryAlbum struct {
	Album    *domain.Album `json:"album"`
	State    ScoredState   `json:"state"`
	Excluded bool          `json:"excluded"`
}

var demoAlbums = []AlbumUpsert{
	{Title: "OK Computer", Artist: "Radiohead"},
	{Title: "To Pimp a Butterfly", Artist: "Kendrick Lamar"},
	{Title: "Kid A", Artist: "Radiohead"},
	{Title: "Random Access Memories", Artist: "Daft Punk"},
}

// LibraryService owns imports, exclusions and per-user statistics.
type LibraryService struct {
	store     store.Store
	gate      *MaintenanceGate
	covers    *CoverService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLibraryService creates a new library service. covers may be nil to
// skip cover resolution.
func NewLibraryService(st store.Store, gate *MaintenanceGate, covers *CoverService, v *validation.Validator, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:     st,
		gate:      gate,
		covers:    covers,
		validator: v,
		logger:    logger,
	}
}

// ImportAlbums finds or creates each album, adds it to the user's library
// and tries to resolve a cover for albums that still lack one. Matching
// tries the Spotify id, then the MusicBrainz id, then normalized title and
// artist. Re-importing the same batch changes nothing.
//
// Cover lookups may go to the network, so they run after the maintenance
// gate is released.
func (s *LibraryService) ImportAlbums(ctx context.Context, userID, source string, reqs []AlbumUpsert) (*ImportResult, error) {
	if err := s.validator.Validate(importBatch{Source: source, Albums: reqs}); err != nil {
		return nil, err
	}

	result, pending, err := s.importLocked(ctx, userID, source, reqs)
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		ok, err := s.covers.Resolve(ctx, p.album, p.suppliedURL, source)
		if err != nil {
			s.logger.Warn("cover resolution aborted", "album_id", p.album.ID, "error", err)
		}
		if ok {
			result.Albums[p.index].CoverResolved = true
			result.CoversResolved++
		}
	}

	s.logger.Info("albums imported",
		"user_id", userID,
		"source", source,
		"created", result.Created,
		"matched", result.Matched,
		"added_to_library", result.AddedToLibrary,
		"covers_resolved", result.CoversResolved,
	)
	return result, nil
}

// pendingCover is an imported album still waiting for a cover lookup.
type pendingCover struct {
	index       int
	album       *domain.Album
	suppliedURL string
}

// importLocked does the database half of an import under the shared side
// of the gate and returns the albums that still need a cover.
func (s *LibraryService) importLocked(ctx context.Context, userID, source string, reqs []AlbumUpsert) (*ImportResult, []pendingCover, error) {
	release := s.gate.Shared()
	defer release()

	result := &ImportResult{Albums: make([]ImportedAlbum, 0, len(reqs))}
	var pending []pendingCover
	for _, req := range reqs {
		album, created, err := s.findOrCreate(ctx, source, req)
		if err != nil {
			return nil, nil, err
		}

		added, err := s.store.AddUserAlbum(ctx, &domain.UserAlbum{
			UserID:    userID,
			AlbumID:   album.ID,
			AddedFrom: source,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, nil, err
		}

		if s.covers != nil && !album.HasCover() {
			p := pendingCover{index: len(result.Albums), album: album}
			if req.CoverURL != nil {
				p.suppliedURL = *req.CoverURL
			}
			pending = append(pending, p)
		}

		if created {
			result.Created++
		} else {
			result.Matched++
		}
		if added {
			result.AddedToLibrary++
		}
		result.Albums = append(result.Albums, ImportedAlbum{
			AlbumID:        album.ID,
			Created:        created,
			AddedToLibrary: added,
		})
	}
	return result, pending, nil
}

// ImportDemo adds a small fixed set of well-known albums to the library.
func (s *LibraryService) ImportDemo(ctx context.Context, userID string) (*ImportResult, error) {
	return s.ImportAlbums(ctx, userID, domain.SourceDemo, demoAlbums)
}

func (s *LibraryService) findOrCreate(ctx context.Context, source string, req AlbumUpsert) (*domain.Album, bool, error) {
	existing, err := s.match(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if fillMissing(existing, req) {
			existing.Touch()
			if err := s.store.UpdateAlbum(ctx, existing); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	now := time.Now().UTC()
	album := &domain.Album{
		Title:     strings.TrimSpace(req.Title),
		Artist:    strings.TrimSpace(req.Artist),
		Year:      req.Year,
		SpotifyID: req.SpotifyID,
		MBID:      req.MBID,
		Genres:    req.Genres,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAlbum(ctx, album); err != nil {
		return nil, false, err
	}
	return album, true, nil
}

// match looks for an existing album for req. It returns nil without error
// when there is none.
func (s *LibraryService) match(ctx context.Context, req AlbumUpsert) (*domain.Album, error) {
	lookups := []func() (*domain.Album, error){}
	if req.SpotifyID != nil && *req.SpotifyID != "" {
		lookups = append(lookups, func() (*domain.Album, error) {
			return s.store.FindAlbumBySpotifyID(ctx, *req.SpotifyID)
		})
	}
	if req.MBID != nil && *req.MBID != "" {
		lookups = append(lookups, func() (*domain.Album, error) {
			return s.store.FindAlbumByMBID(ctx, *req.MBID)
		})
	}
	key := normalize.MatchKey(req.Title, req.Artist)
	if key.Title != "" && key.Artist != "" {
		lookups = append(lookups, func() (*domain.Album, error) {
			return s.store.FindAlbumByMatchKey(ctx, key.Title, key.Artist)
		})
	}

	for _, lookup := range lookups {
		a, err := lookup()
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, nil
}

// fillMissing copies fields the album lacks from req. It never overwrites.
func fillMissing(a *domain.Album, req AlbumUpsert) bool {
	changed := false
	if a.Year == nil && req.Year != nil {
		a.Year = req.Year
		changed = true
	}
	if a.SpotifyID == nil && req.SpotifyID != nil && *req.SpotifyID != "" {
		a.SpotifyID = req.SpotifyID
		changed = true
	}
	if a.MBID == nil && req.MBID != nil && *req.MBID != "" {
		a.MBID = req.MBID
		changed = true
	}
	if a.Genres == "" && req.Genres != "" {
		a.Genres = req.Genres
		changed = true
	}
	return changed
}

// ExcludeAlbum hides an album from the user's pairs, rankings and stats.
func (s *LibraryService) ExcludeAlbum(ctx context.Context, userID string, albumID int64) error {
	release := s.gate.Shared()
	defer release()

	if _, err := s.store.GetAlbum(ctx, albumID); err != nil {
		return translateStoreError(err, "album")
	}
	err := s.store.AddExclusion(ctx, &domain.Exclusion{
		UserID:    userID,
		AlbumID:   albumID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return translateStoreError(err, "album")
	}
	s.logger.Info("album excluded", "user_id", userID, "album_id", albumID)
	return nil
}

// IncludeAlbum reverses ExcludeAlbum. Including a visible album is a no-op.
func (s *LibraryService) IncludeAlbum(ctx context.Context, userID string, albumID int64) error {
	release := s.gate.Shared()
	defer release()

	if _, err := s.store.GetAlbum(ctx, albumID); err != nil {
		return translateStoreError(err, "album")
	}
	return s.store.RemoveExclusion(ctx, userID, albumID)
}

// ListExclusions returns the user's excluded albums.
func (s *LibraryService) ListExclusions(ctx context.Context, userID string) ([]*domain.Exclusion, error) {
	return s.store.ListExclusions(ctx, userID)
}

// Stats returns the user's activity counts, ignoring excluded albums.
func (s *LibraryService) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	return s.store.GetStats(ctx, userID)
}

// ListLibrary returns the user's albums with their current ratings.
// Albums never compared show the default rating.
func (s *LibraryService) ListLibrary(ctx context.Context, userID string) ([]LibraryAlbum, error) {
	albums, err := s.store.ListUserAlbums(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return []LibraryAlbum{}, nil
	}

	ids := make([]int64, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	states, err := s.store.GetRatingStates(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	exclusions, err := s.store.ListExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[int64]bool, len(exclusions))
	for _, ex := range exclusions {
		excluded[ex.AlbumID] = true
	}

	out := make([]LibraryAlbum, len(albums))
	for i, a := range albums {
		st := rating.DefaultOrExisting(states[a.ID])
		st.UserID, st.AlbumID = userID, a.ID
		out[i] = LibraryAlbum{Album: a, State: scored(st), Excluded: excluded[a.ID]}
	}
	return out, nil
}
