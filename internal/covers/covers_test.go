package covers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

type stubFinder struct {
	sibling *domain.Album
	err     error
	queries []store.CoverSiblingQuery
}

func (f *stubFinder) FindCoverSibling(_ context.Context, q store.CoverSiblingQuery) (*domain.Album, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.sibling == nil {
		return nil, store.ErrNotFound
	}
	return f.sibling, nil
}

type stubRemote struct {
	url string
	err error
}

func (r stubRemote) AlbumCover(context.Context, string) (string, error) { return r.url, r.err }

func (r stubRemote) SearchCover(context.Context, string, string, *int) (string, error) {
	return r.url, r.err
}

func TestDirect(t *testing.T) {
	album := &domain.Album{Source: domain.SourceAOTY}

	_, ok, err := Direct{}.Resolve(context.Background(), Request{Album: album})
	require.NoError(t, err)
	assert.False(t, ok)

	res, ok, err := Direct{}.Resolve(context.Background(), Request{Album: album, CoverURL: "https://aoty/cover.jpg"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Result{URL: "https://aoty/cover.jpg", Provider: domain.SourceAOTY}, res)
}

func TestSpotifyByID(t *testing.T) {
	ctx := context.Background()

	_, ok, err := SpotifyByID{Client: stubRemote{url: "x"}}.Resolve(ctx, Request{Album: &domain.Album{}})
	require.NoError(t, err)
	assert.False(t, ok, "albums without a spotify id are skipped")

	album := &domain.Album{SpotifyID: domain.StringPtr("sp1")}
	res, ok, err := SpotifyByID{Client: stubRemote{url: "https://i.scdn.co/a.jpg"}}.Resolve(ctx, Request{Album: album})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.SourceSpotify, res.Provider)

	_, ok, err = SpotifyByID{Client: stubRemote{err: ErrNotFound}}.Resolve(ctx, Request{Album: album})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = SpotifyByID{Client: stubRemote{err: ErrServer}}.Resolve(ctx, Request{Album: album})
	assert.ErrorIs(t, err, ErrServer)
}

func TestCopySibling(t *testing.T) {
	ctx := context.Background()
	album := &domain.Album{ID: 3, Title: "Kid A", Artist: "Radiohead", MBID: domain.StringPtr("mb-1")}

	finder := &stubFinder{sibling: &domain.Album{
		ID:            9,
		CoverURL:      domain.StringPtr("https://c/kida.jpg"),
		CoverProvider: domain.StringPtr("aoty"),
	}}
	strategy := CopySibling{Finder: finder, Mode: store.SiblingByMBID}
	assert.Equal(t, StrategyCopyMBID, strategy.Name())

	res, ok, err := strategy.Resolve(ctx, Request{Album: album})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Result{URL: "https://c/kida.jpg", Provider: "aoty"}, res)
	require.Len(t, finder.queries, 1)
	assert.Equal(t, int64(3), finder.queries[0].ExcludeID)
	assert.Equal(t, "mb-1", finder.queries[0].MBID)

	_, ok, err = CopySibling{Finder: &stubFinder{}, Mode: store.SiblingByTitleArtist}.Resolve(ctx, Request{Album: album})
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("db down")
	_, _, err = CopySibling{Finder: &stubFinder{err: boom}, Mode: store.SiblingBySpotifyID}.Resolve(ctx, Request{Album: album})
	assert.ErrorIs(t, err, boom)
}

func TestDefaultChain(t *testing.T) {
	names := func(chain []Strategy) []string {
		out := make([]string, len(chain))
		for i, s := range chain {
			out[i] = s.Name()
		}
		return out
	}

	assert.Equal(t,
		[]string{StrategyDirect, StrategyCopyMBID, StrategyCopySpotifyID, StrategyCopyTitleArtist},
		names(DefaultChain(&stubFinder{}, nil)))

	client := &SpotifyClient{searchEnabled: true}
	assert.Equal(t,
		[]string{StrategyDirect, StrategySpotifyID, StrategyCopyMBID, StrategyCopySpotifyID, StrategyCopyTitleArtist, StrategySpotifySearch},
		names(DefaultChain(&stubFinder{}, client)))
}
