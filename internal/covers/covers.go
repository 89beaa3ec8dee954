// Package covers resolves album cover images through an ordered list of
// strategies. Each strategy either finds a cover or reports a miss; the
// first hit wins.
package covers

import (
	"context"
	"errors"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

// Strategy names, also used as cover providers and metric labels.
const (
	StrategyDirect          = "direct"
	StrategySpotifyID       = "spotify-id"
	StrategyCopyMBID        = "copy-mbid"
	StrategyCopySpotifyID   = "copy-spotify-id"
	StrategyCopyTitleArtist = "copy-title-artist"
	StrategySpotifySearch   = "spotify-search"
)

// Request is what a strategy gets to work with: the album and whatever the
// importing provider knew about its cover.
type Request struct {
	Album *domain.Album
	// CoverURL and Provider are the cover supplied at import time, if any.
	CoverURL string
	Provider string
}

// Result is a resolved cover.
type Result struct {
	URL      string
	Provider string
}

// Strategy is one way of finding a cover. A miss is (Result{}, false, nil);
// an error means the strategy could not answer.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req Request) (Result, bool, error)
}

// Direct uses the cover URL supplied by the importing provider.
type Direct struct{}

func (Direct) Name() string { return StrategyDirect }

func (Direct) Resolve(_ context.Context, req Request) (Result, bool, error) {
	if req.CoverURL == "" {
		return Result{}, false, nil
	}
	provider := req.Provider
	if provider == "" {
		provider = req.Album.Source
	}
	return Result{URL: req.CoverURL, Provider: provider}, true, nil
}

// AlbumLookup fetches a cover for a known Spotify album id.
type AlbumLookup interface {
	AlbumCover(ctx context.Context, spotifyID string) (string, error)
}

// CoverSearch searches for a cover by title, artist and year.
type CoverSearch interface {
	SearchCover(ctx context.Context, title, artist string, year *int) (string, error)
}

// SpotifyByID looks the album up by its Spotify id.
type SpotifyByID struct {
	Client AlbumLookup
}

func (SpotifyByID) Name() string { return StrategySpotifyID }

func (s SpotifyByID) Resolve(ctx context.Context, req Request) (Result, bool, error) {
	if !req.Album.HasStreamingID() {
		return Result{}, false, nil
	}
	url, err := s.Client.AlbumCover(ctx, *req.Album.SpotifyID)
	return remoteResult(url, err)
}

// SpotifySearch searches Spotify by title, artist and year.
type SpotifySearch struct {
	Client CoverSearch
}

func (SpotifySearch) Name() string { return StrategySpotifySearch }

func (s SpotifySearch) Resolve(ctx context.Context, req Request) (Result, bool, error) {
	url, err := s.Client.SearchCover(ctx, req.Album.Title, req.Album.Artist, req.Album.Year)
	return remoteResult(url, err)
}

func remoteResult(url string, err error) (Result, bool, error) {
	switch {
	case errors.Is(err, ErrNotFound):
		return Result{}, false, nil
	case err != nil:
		return Result{}, false, err
	case url == "":
		return Result{}, false, nil
	}
	return Result{URL: url, Provider: domain.SourceSpotify}, true, nil
}

// SiblingFinder finds another album record that already has a cover.
type SiblingFinder interface {
	FindCoverSibling(ctx context.Context, q store.CoverSiblingQuery) (*domain.Album, error)
}

// CopySibling copies the cover of another record of the same release.
type CopySibling struct {
	Finder SiblingFinder
	Mode   store.CoverSiblingMode
}

func (c CopySibling) Name() string {
	switch c.Mode {
	case store.SiblingByMBID:
		return StrategyCopyMBID
	case store.SiblingBySpotifyID:
		return StrategyCopySpotifyID
	default:
		return StrategyCopyTitleArtist
	}
}

func (c CopySibling) Resolve(ctx context.Context, req Request) (Result, bool, error) {
	a := req.Album
	q := store.CoverSiblingQuery{
		Mode:      c.Mode,
		ExcludeID: a.ID,
		Title:     a.Title,
		Artist:    a.Artist,
	}
	if a.MBID != nil {
		q.MBID = *a.MBID
	}
	if a.SpotifyID != nil {
		q.SpotifyID = *a.SpotifyID
	}

	sibling, err := c.Finder.FindCoverSibling(ctx, q)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	provider := c.Name()
	if sibling.CoverProvider != nil {
		provider = *sibling.CoverProvider
	}
	return Result{URL: *sibling.CoverURL, Provider: provider}, true, nil
}

// DefaultChain returns the standard strategy order. Spotify strategies are
// left out when client is nil.
func DefaultChain(finder SiblingFinder, client *SpotifyClient) []Strategy {
	chain := []Strategy{Direct{}}
	if client != nil {
		chain = append(chain, SpotifyByID{Client: client})
	}
	chain = append(chain,
		CopySibling{Finder: finder, Mode: store.SiblingByMBID},
		CopySibling{Finder: finder, Mode: store.SiblingBySpotifyID},
		CopySibling{Finder: finder, Mode: store.SiblingByTitleArtist},
	)
	if client != nil && client.searchEnabled {
		chain = append(chain, SpotifySearch{Client: client})
	}
	return chain
}
