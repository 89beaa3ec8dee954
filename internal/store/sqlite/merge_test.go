package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	"github.com/albumduel/albumduel-server/internal/store"
)

func setState(t *testing.T, s *Store, userID string, albumID int64, r float64, count int) {
	t.Helper()
	if err := upsertRatingState(context.Background(), s.db, domain.RatingState{
		UserID: userID, AlbumID: albumID, Rating: r, ComparisonCount: count, UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("upsertRatingState: %v", err)
	}
}

func TestMergeAlbums_WeightedStates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "usr-1")
	mustCreateUser(t, s, "usr-2")
	canon := mustCreateAlbum(t, s, "Kid A", "Radiohead", 2000)
	dup := mustCreateAlbum(t, s, "kid a", "radiohead", 2000)

	setState(t, s, "usr-1", canon.ID, 1600, 10)
	setState(t, s, "usr-1", dup.ID, 1400, 5)
	setState(t, s, "usr-2", dup.ID, 1555, 3)

	res, err := s.MergeAlbums(ctx, canon.ID, []int64{dup.ID})
	if err != nil {
		t.Fatalf("MergeAlbums: %v", err)
	}
	if res.StatesMerged != 1 || res.StatesRepointed != 1 {
		t.Errorf("result: got %+v", res)
	}

	st1, _ := s.GetRatingStates(ctx, "usr-1", []int64{canon.ID, dup.ID})
	if _, ok := st1[dup.ID]; ok {
		t.Error("duplicate state survived")
	}
	if math.Abs(st1[canon.ID].Rating-1533.333) > 0.01 || st1[canon.ID].ComparisonCount != 15 {
		t.Errorf("merged state: got %+v", st1[canon.ID])
	}

	st2, _ := s.GetRatingStates(ctx, "usr-2", []int64{canon.ID})
	if st2[canon.ID] == nil || st2[canon.ID].Rating != 1555 || st2[canon.ID].ComparisonCount != 3 {
		t.Errorf("repointed state: got %+v", st2[canon.ID])
	}

	if _, err := s.GetAlbum(ctx, dup.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("duplicate album should be deleted, got %v", err)
	}
}

func TestMergeAlbums_Judgments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "usr-1")
	canon := mustCreateAlbum(t, s, "OK Computer", "Radiohead", 1997)
	dup := mustCreateAlbum(t, s, "OK Computer", "Radiohead", 1997)
	other := mustCreateAlbum(t, s, "Kid A", "Radiohead", 2000)

	record(t, s, "usr-1", dup.ID, other.ID, &dup.ID)
	record(t, s, "usr-1", other.ID, dup.ID, nil)
	record(t, s, "usr-1", canon.ID, dup.ID, &canon.ID)

	res, err := s.MergeAlbums(ctx, canon.ID, []int64{dup.ID})
	if err != nil {
		t.Fatalf("MergeAlbums: %v", err)
	}
	if res.JudgmentsDropped != 1 || res.JudgmentsRepointed != 2 {
		t.Errorf("result: got %+v", res)
	}

	judgments, err := s.ListJudgments(ctx, "usr-1")
	if err != nil {
		t.Fatalf("ListJudgments: %v", err)
	}
	if len(judgments) != 2 {
		t.Fatalf("expected 2 judgments, got %d", len(judgments))
	}
	for _, j := range judgments {
		if j.AlbumA == j.AlbumB {
			t.Errorf("self judgment persisted: %+v", j)
		}
		if j.AlbumA == dup.ID || j.AlbumB == dup.ID || (j.Winner != nil && *j.Winner == dup.ID) {
			t.Errorf("judgment still references duplicate: %+v", j)
		}
	}
	if judgments[0].Winner == nil || *judgments[0].Winner != canon.ID {
		t.Errorf("winner not repointed: %+v", judgments[0])
	}
}

func TestMergeAlbums_LibraryAndExclusions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "usr-1")
	mustCreateUser(t, s, "usr-2")
	canon := mustCreateAlbum(t, s, "A", "X", 0)
	dup := mustCreateAlbum(t, s, "a", "x", 0)

	addToLibrary(t, s, "usr-1", canon.ID, dup.ID)
	addToLibrary(t, s, "usr-2", dup.ID)
	if err := s.AddExclusion(ctx, &domain.Exclusion{UserID: "usr-2", AlbumID: dup.ID, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("AddExclusion: %v", err)
	}

	res, err := s.MergeAlbums(ctx, canon.ID, []int64{dup.ID})
	if err != nil {
		t.Fatalf("MergeAlbums: %v", err)
	}
	if res.LibraryRowsMoved != 1 || res.ExclusionRowsMoved != 1 {
		t.Errorf("result: got %+v", res)
	}

	lib1, _ := s.ListUserAlbums(ctx, "usr-1")
	if len(lib1) != 1 || lib1[0].ID != canon.ID {
		t.Errorf("usr-1 library: got %v", lib1)
	}
	ex2, _ := s.ListExclusions(ctx, "usr-2")
	if len(ex2) != 1 || ex2[0].AlbumID != canon.ID {
		t.Errorf("usr-2 exclusions: got %v", ex2)
	}
}

func TestMergeAlbums_Missing(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateAlbum(t, s, "A", "X", 0)

	if _, err := s.MergeAlbums(context.Background(), a.ID, []int64{999}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.MergeAlbums(context.Background(), a.ID, []int64{a.ID}); err == nil {
		t.Fatal("expected error merging an album into itself")
	}
}

func TestMergeAlbums_SeveralDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "usr-1")
	canon := mustCreateAlbum(t, s, "In Rainbows", "Radiohead", 2007)
	dup1 := mustCreateAlbum(t, s, "in rainbows", "Radiohead", 2007)
	dup2 := mustCreateAlbum(t, s, "IN RAINBOWS", "radiohead", 2007)

	setState(t, s, "usr-1", dup1.ID, 1600, 10)
	setState(t, s, "usr-1", dup2.ID, 1400, 5)

	res, err := s.MergeAlbums(ctx, canon.ID, []int64{dup1.ID, dup2.ID})
	if err != nil {
		t.Fatalf("MergeAlbums: %v", err)
	}
	if res.AlbumsMerged != 2 || res.StatesRepointed != 1 || res.StatesMerged != 1 {
		t.Errorf("result: got %+v", res)
	}

	states, _ := s.GetRatingStates(ctx, "usr-1", []int64{canon.ID})
	if math.Abs(states[canon.ID].Rating-1533.333) > 0.01 || states[canon.ID].ComparisonCount != 15 {
		t.Errorf("merged state: got %+v", states[canon.ID])
	}

	albums, _ := s.ListAlbums(ctx)
	if len(albums) != 1 {
		t.Errorf("expected 1 album left, got %d", len(albums))
	}
}

func TestMergeAlbums_FailureRollsBackGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	canon := mustCreateAlbum(t, s, "A", "X", 0)
	dup := mustCreateAlbum(t, s, "a", "x", 0)

	if _, err := s.MergeAlbums(ctx, canon.ID, []int64{dup.ID, 999}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAlbum(ctx, dup.ID); err != nil {
		t.Errorf("duplicate should survive a failed group: %v", err)
	}
}
