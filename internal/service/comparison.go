package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/id"
	"github.com/albumduel/albumduel-server/internal/metrics"
	"github.com/albumduel/albumduel-server/internal/rating"
	"github.com/albumduel/albumduel-server/internal/store"
)

// ScoredState is a rating state together with its display score.
type ScoredState struct {
	AlbumID         int64   `json:"album_id"`
	Rating          float64 `json:"rating"`
	DisplayScore    float64 `json:"display_score"`
	ComparisonCount int     `json:"comparison_count"`
}

func scored(st domain.RatingState) ScoredState {
	return ScoredState{
		AlbumID:         st.AlbumID,
		Rating:          st.Rating,
		DisplayScore:    rating.ToDisplayScore(st.Rating),
		ComparisonCount: st.ComparisonCount,
	}
}

// ComparisonResult is returned after a judgment has been recorded.
type ComparisonResult struct {
	JudgmentID string      `json:"judgment_id"`
	A          ScoredState `json:"a"`
	B          ScoredState `json:"b"`
}

// PairSide is one album offered for comparison.
type PairSide struct {
	Album *domain.Album `json:"album"`
	State ScoredState   `json:"state"`
}

// Pair is the next comparison offered to a user.
type Pair struct {
	A              PairSide `json:"a"`
	B              PairSide `json:"b"`
	TotalJudgments int      `json:"total_judgments"`
}

// ComparisonService records judgments and picks the next pair.
// It is the only writer of rating states outside reconciliation.
type ComparisonService struct {
	store   store.Store
	gate    *MaintenanceGate
	metrics *metrics.Metrics
	logger  *slog.Logger
	intN    func(n int) int
}

// NewComparisonService creates a new comparison service.
func NewComparisonService(st store.Store, gate *MaintenanceGate, m *metrics.Metrics, logger *slog.Logger) *ComparisonService {
	return &ComparisonService{
		store:   st,
		gate:    gate,
		metrics: m,
		logger:  logger,
		intN:    rand.IntN,
	}
}

// RecordComparison applies one judgment between albumA and albumB.
// winner must be albumA, albumB or nil for a draw.
func (s *ComparisonService) RecordComparison(ctx context.Context, userID string, albumA, albumB int64, winner *int64) (*ComparisonResult, error) {
	if albumA == albumB {
		return nil, domainerrors.InvalidInput("cannot compare an album with itself")
	}
	outcome, err := rating.OutcomeFor(albumA, albumB, winner)
	if err != nil {
		return nil, err
	}

	release := s.gate.Shared()
	defer release()

	judgmentID, err := id.Judgment()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate judgment id")
	}
	j := &domain.Judgment{
		ID:        judgmentID,
		UserID:    userID,
		AlbumA:    albumA,
		AlbumB:    albumB,
		Winner:    winner,
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.store.RecordJudgment(ctx, j, func(storedA, storedB *domain.RatingState) (domain.RatingState, domain.RatingState, error) {
		a := rating.DefaultOrExisting(storedA)
		b := rating.DefaultOrExisting(storedB)
		a.Rating, b.Rating = rating.ApplyOutcome(a.Rating, b.Rating, outcome, a.ComparisonCount, b.ComparisonCount)
		a.ComparisonCount++
		b.ComparisonCount++
		return a, b, nil
	})
	if err != nil {
		return nil, translateStoreError(err, "album")
	}

	s.metrics.IncComparison(outcomeLabel(outcome))
	s.logger.Debug("comparison recorded",
		"user_id", userID,
		"judgment_id", j.ID,
		"album_a", albumA,
		"album_b", albumB,
		"rating_a", res.StateA.Rating,
		"rating_b", res.StateB.Rating,
	)

	return &ComparisonResult{
		JudgmentID: j.ID,
		A:          scored(res.StateA),
		B:          scored(res.StateB),
	}, nil
}

// NextPair picks two distinct albums uniformly at random from the user's
// library, ignoring excluded albums.
func (s *ComparisonService) NextPair(ctx context.Context, userID string) (*Pair, error) {
	ids, err := s.store.ListEligibleAlbumIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) < 2 {
		return nil, domainerrors.InsufficientItems("import at least two albums to start comparing")
	}

	i := s.intN(len(ids))
	k := s.intN(len(ids) - 1)
	if k >= i {
		k++
	}
	pick := []int64{ids[i], ids[k]}

	albums, err := s.store.GetAlbumsByIDs(ctx, pick)
	if err != nil {
		return nil, err
	}
	states, err := s.store.GetRatingStates(ctx, userID, pick)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountJudgments(ctx, userID)
	if err != nil {
		return nil, err
	}

	side := func(albumID int64) (PairSide, error) {
		a, ok := albums[albumID]
		if !ok {
			return PairSide{}, domainerrors.NotFoundf("album %d not found", albumID)
		}
		st := rating.DefaultOrExisting(states[albumID])
		st.UserID, st.AlbumID = userID, albumID
		return PairSide{Album: a, State: scored(st)}, nil
	}

	left, err := side(pick[0])
	if err != nil {
		return nil, err
	}
	right, err := side(pick[1])
	if err != nil {
		return nil, err
	}
	return &Pair{A: left, B: right, TotalJudgments: total}, nil
}

func outcomeLabel(outcomeA float64) string {
	switch outcomeA {
	case rating.Win:
		return metrics.OutcomeWin
	case rating.Loss:
		return metrics.OutcomeLoss
	default:
		return metrics.OutcomeDraw
	}
}
