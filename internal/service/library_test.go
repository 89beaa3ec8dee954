package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumduel/albumduel-server/internal/covers"
	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/store/sqlite"
	"github.com/albumduel/albumduel-server/internal/validation"
)

func setupLibraryTest(t *testing.T) (*LibraryService, *sqlite.Store) {
	t.Helper()
	s := newTestStore(t)
	createUser(t, s, "usr-1")
	createUser(t, s, "usr-2")
	coverSvc := NewCoverService(s, covers.DefaultChain(s, nil), nil, discardLogger())
	return NewLibraryService(s, NewMaintenanceGate(), coverSvc, validation.New(), discardLogger()), s
}

func TestImportAlbums_CreatesAndAddsToLibrary(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()

	res, err := svc.ImportAlbums(ctx, "usr-1", domain.SourceSpotify, []AlbumUpsert{
		{
			Title:     "Blonde",
			Artist:    "Frank Ocean",
			Year:      domain.IntPtr(2016),
			SpotifyID: domain.StringPtr("3mH6qwIy9crq0I9YQbOuDf"),
			CoverURL:  domain.StringPtr("https://i.scdn.co/image/blonde"),
		},
		{Title: "Channel Orange", Artist: "Frank Ocean"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.AddedToLibrary)
	assert.Equal(t, 1, res.CoversResolved)

	blonde, err := s.GetAlbum(ctx, res.Albums[0].AlbumID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceSpotify, blonde.Source)
	require.NotNil(t, blonde.CoverURL)
	assert.Equal(t, "https://i.scdn.co/image/blonde", *blonde.CoverURL)

	lib, err := svc.ListLibrary(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, lib, 2)
	assert.Equal(t, 1500.0, lib[0].State.Rating)
	assert.Equal(t, 50.0, lib[0].State.DisplayScore)
}

func TestImportAlbums_Idempotent(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()
	batch := []AlbumUpsert{{Title: "Blonde", Artist: "Frank Ocean"}}

	_, err := svc.ImportAlbums(ctx, "usr-1", domain.SourceLastFM, batch)
	require.NoError(t, err)
	res, err := svc.ImportAlbums(ctx, "usr-1", domain.SourceLastFM, batch)
	require.NoError(t, err)

	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Matched)
	assert.Zero(t, res.AddedToLibrary)

	albums, err := s.ListAlbums(ctx)
	require.NoError(t, err)
	assert.Len(t, albums, 1)
}

func TestImportAlbums_MatchesAcrossProviders(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()

	first, err := svc.ImportAlbums(ctx, "usr-1", domain.SourceLastFM, []AlbumUpsert{
		{Title: "Beyoncé", Artist: "Beyoncé"},
	})
	require.NoError(t, err)

	// A different spelling from another provider fills in the missing ids.
	second, err := svc.ImportAlbums(ctx, "usr-2", domain.SourceSpotify, []AlbumUpsert{
		{
			Title:     "BEYONCE",
			Artist:    "Beyonce",
			Year:      domain.IntPtr(2013),
			SpotifyID: domain.StringPtr("2UJwKSBUz6rtW4QLK74kQu"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Matched)
	assert.Equal(t, first.Albums[0].AlbumID, second.Albums[0].AlbumID)

	got, err := s.GetAlbum(ctx, first.Albums[0].AlbumID)
	require.NoError(t, err)
	assert.Equal(t, "Beyoncé", got.Title)
	require.NotNil(t, got.Year)
	assert.Equal(t, 2013, *got.Year)
	require.NotNil(t, got.SpotifyID)

	// A later lookup by Spotify id matches regardless of title.
	third, err := svc.ImportAlbums(ctx, "usr-2", domain.SourceSpotify, []AlbumUpsert{
		{Title: "Beyoncé [Platinum Edition]", Artist: "Beyoncé", SpotifyID: domain.StringPtr("2UJwKSBUz6rtW4QLK74kQu")},
	})
	require.NoError(t, err)
	assert.Equal(t, first.Albums[0].AlbumID, third.Albums[0].AlbumID)
}

func TestImportAlbums_Validation(t *testing.T) {
	svc, _ := setupLibraryTest(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		reqs   []AlbumUpsert
	}{
		{"empty batch", domain.SourceManual, nil},
		{"blank title", domain.SourceManual, []AlbumUpsert{{Title: "  ", Artist: "X"}}},
		{"year out of range", domain.SourceManual, []AlbumUpsert{{Title: "A", Artist: "X", Year: domain.IntPtr(1066)}}},
		{"bad spotify id", domain.SourceSpotify, []AlbumUpsert{{Title: "A", Artist: "X", SpotifyID: domain.StringPtr("nope")}}},
		{"unknown source", "napster", []AlbumUpsert{{Title: "A", Artist: "X"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportAlbums(ctx, "usr-1", tt.source, tt.reqs)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
		})
	}
}

func TestImportDemo(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()

	res, err := svc.ImportDemo(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)

	ids, err := s.ListEligibleAlbumIDs(ctx, "usr-1")
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestExclusions(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()

	res, err := svc.ImportDemo(ctx, "usr-1")
	require.NoError(t, err)
	target := res.Albums[0].AlbumID

	require.NoError(t, svc.ExcludeAlbum(ctx, "usr-1", target))
	require.NoError(t, svc.ExcludeAlbum(ctx, "usr-1", target))

	excluded, err := svc.ListExclusions(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, target, excluded[0].AlbumID)

	ids, err := s.ListEligibleAlbumIDs(ctx, "usr-1")
	require.NoError(t, err)
	assert.NotContains(t, ids, target)

	// Other users are unaffected.
	_, err = svc.ImportDemo(ctx, "usr-2")
	require.NoError(t, err)
	ids, err = s.ListEligibleAlbumIDs(ctx, "usr-2")
	require.NoError(t, err)
	assert.Contains(t, ids, target)

	require.NoError(t, svc.IncludeAlbum(ctx, "usr-1", target))
	require.NoError(t, svc.IncludeAlbum(ctx, "usr-1", target))
	excluded, err = svc.ListExclusions(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, excluded)

	assert.ErrorIs(t, svc.ExcludeAlbum(ctx, "usr-1", 9999), domainerrors.ErrNotFound)
	assert.ErrorIs(t, svc.IncludeAlbum(ctx, "usr-1", 9999), domainerrors.ErrNotFound)
}

func TestStats_IgnoresExcluded(t *testing.T) {
	svc, s := setupLibraryTest(t)
	ctx := context.Background()
	cmp := NewComparisonService(s, NewMaintenanceGate(), nil, discardLogger())

	res, err := svc.ImportDemo(ctx, "usr-1")
	require.NoError(t, err)
	a, b, c := res.Albums[0].AlbumID, res.Albums[1].AlbumID, res.Albums[2].AlbumID

	_, err = cmp.RecordComparison(ctx, "usr-1", a, b, &a)
	require.NoError(t, err)
	_, err = cmp.RecordComparison(ctx, "usr-1", b, c, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RatedAlbums)
	assert.Equal(t, 2, stats.TotalJudgments)
	assert.Equal(t, 4, stats.LibraryAlbums)

	require.NoError(t, svc.ExcludeAlbum(ctx, "usr-1", a))
	stats, err = svc.Stats(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RatedAlbums)
	assert.Equal(t, 1, stats.TotalJudgments)
	assert.Equal(t, 1, stats.ExcludedAlbums)
}

// blockingStrategy parks every lookup until unblock is closed.
type blockingStrategy struct {
	entered chan struct{}
	unblock chan struct{}
}

func (b *blockingStrategy) Name() string { return "slow" }

func (b *blockingStrategy) Resolve(ctx context.Context, _ covers.Request) (covers.Result, bool, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.unblock:
	case <-ctx.Done():
		return covers.Result{}, false, ctx.Err()
	}
	return covers.Result{}, false, nil
}

func TestImportAlbums_CoverLookupDoesNotHoldGate(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "usr-1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gate := NewMaintenanceGate()

	slow := &blockingStrategy{entered: make(chan struct{}, 1), unblock: make(chan struct{})}
	coverSvc := NewCoverService(s, []covers.Strategy{slow}, nil, discardLogger())
	lib := NewLibraryService(s, gate, coverSvc, validation.New(), discardLogger())
	cmp := NewComparisonService(s, gate, nil, discardLogger())
	reconciler := NewReconcileService(s, gate, nil, discardLogger())

	a := createAlbum(t, s, "Blue", "Joni Mitchell")
	b := createAlbum(t, s, "Court and Spark", "Joni Mitchell")

	importDone := make(chan error, 1)
	go func() {
		_, err := lib.ImportAlbums(ctx, "usr-1", domain.SourceManual, []AlbumUpsert{
			{Title: "Hejira", Artist: "Joni Mitchell"},
		})
		importDone <- err
	}()

	select {
	case <-slow.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("import never reached the cover lookup")
	}

	reconcileDone := make(chan error, 1)
	go func() {
		_, err := reconciler.ReconcileDuplicates(ctx)
		reconcileDone <- err
	}()
	select {
	case err := <-reconcileDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reconciliation waited on a cover lookup")
	}

	cmpDone := make(chan error, 1)
	go func() {
		_, err := cmp.RecordComparison(ctx, "usr-1", a.ID, b.ID, &a.ID)
		cmpDone <- err
	}()
	select {
	case err := <-cmpDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("comparison waited on a cover lookup")
	}

	select {
	case err := <-importDone:
		t.Fatalf("import finished before the cover lookup was released: %v", err)
	default:
	}

	close(slow.unblock)
	require.NoError(t, <-importDone)
}
