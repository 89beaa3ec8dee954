// Package rating implements the pairwise rating math: expected outcome,
// experience-based step size, rating updates, the count-weighted merge used
// when duplicate albums are combined, and the bounded 0-100 display score.
//
// Everything here is pure; persistence lives in the store.
package rating

import (
	"math"

	"github.com/albumduel/albumduel-server/internal/domain"
	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
)

const (
	// DefaultRating is the rating of an album that was never compared.
	DefaultRating = 1500.0

	// Scale is the rating difference at which the stronger side is
	// expected to win ten times as often.
	Scale = 400.0

	// Display curve parameters.
	displayCenter    = 1500.0
	displaySpread    = 120.0
	displayAmplitude = 45.0
)

// Outcomes for the A side of a comparison.
const (
	Loss = 0.0
	Draw = 0.5
	Win  = 1.0
)

// Expected returns the probability that A beats B.
// Expected(a, b) + Expected(b, a) == 1.
func Expected(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/Scale))
}

// StepSize returns the K-factor for an album with the given number of
// comparisons. New albums move fast, established ones settle.
func StepSize(comparisonCount int) float64 {
	switch {
	case comparisonCount < 20:
		return 40
	case comparisonCount < 50:
		return 20
	default:
		return 10
	}
}

// ApplyOutcome returns both new ratings after a comparison where A scored
// outcomeA (Loss, Draw or Win). Each side moves by its own step size, so the
// update is only zero-sum when both sides have the same experience band.
func ApplyOutcome(ratingA, ratingB, outcomeA float64, countA, countB int) (newA, newB float64) {
	ea := Expected(ratingA, ratingB)
	eb := 1.0 - ea

	newA = ratingA + StepSize(countA)*(outcomeA-ea)
	newB = ratingB + StepSize(countB)*((1.0-outcomeA)-eb)
	return newA, newB
}

// OutcomeFor converts a winner id into A's outcome. A nil winner is a draw.
func OutcomeFor(albumA, albumB int64, winner *int64) (float64, error) {
	switch {
	case winner == nil:
		return Draw, nil
	case *winner == albumA:
		return Win, nil
	case *winner == albumB:
		return Loss, nil
	default:
		return 0, domainerrors.InvalidInput("winner must be one of the compared albums or null")
	}
}

// ToDisplayScore maps a rating onto [0, 100] with one decimal. 1500 maps to
// 50; the curve is linear-ish near the centre and saturates towards 5 and
// 95 so a few blowout ratings do not stretch the visible scale.
func ToDisplayScore(r float64) float64 {
	x := (r - displayCenter) / displaySpread
	score := 50 + displayAmplitude*(x/(1+math.Abs(x)))
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

// DefaultOrExisting returns the stored state, or the default state when the
// album has never been compared by this user.
func DefaultOrExisting(state *domain.RatingState) domain.RatingState {
	if state == nil {
		return domain.RatingState{Rating: DefaultRating}
	}
	return *state
}

// WeightedMerge folds dup into canonical, weighting each rating by its
// comparison count. When neither side has any comparisons the canonical
// rating is kept. The result keeps canonical's identity.
func WeightedMerge(canonical, dup domain.RatingState) domain.RatingState {
	merged := canonical
	total := canonical.ComparisonCount + dup.ComparisonCount
	if total > 0 {
		merged.Rating = (canonical.Rating*float64(canonical.ComparisonCount) +
			dup.Rating*float64(dup.ComparisonCount)) / float64(total)
	}
	merged.ComparisonCount = total
	return merged
}

// DisplayWeight is the weight of one member when merging ratings at read
// time. It never returns zero so an uncompared album cannot empty the
// denominator.
func DisplayWeight(comparisonCount int) float64 {
	return float64(max(1, comparisonCount))
}
