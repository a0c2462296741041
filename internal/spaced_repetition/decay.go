package spaced_repetition

import (
	"fmt"
	"time"

	"github.com/example/wordmemo/pkg/models"
)

// DowngradeThreshold is the overdue multiplier after which a word decays
const DowngradeThreshold = 1.5

// DecayPolicy selects how the downgrade threshold is applied
type DecayPolicy string

const (
	// DecayAbsolute compares now against nextReviewDate*1.5 in epoch
	// milliseconds. For any realistic epoch the threshold lies decades in the
	// future, so the sweep almost never fires. This is the historical rule
	// and stays the default.
	DecayAbsolute DecayPolicy = "absolute"
	// DecayElapsedRatio fires once a word is overdue by more than half of
	// its last scheduled interval.
	DecayElapsedRatio DecayPolicy = "elapsed_ratio"
)

// ParseDecayPolicy validates a configured policy name
func ParseDecayPolicy(s string) (DecayPolicy, error) {
	switch DecayPolicy(s) {
	case DecayAbsolute, DecayElapsedRatio:
		return DecayPolicy(s), nil
	case "":
		return DecayAbsolute, nil
	default:
		return "", fmt.Errorf("unknown decay policy %q", s)
	}
}

// ShouldDowngrade reports whether the decay sweep must downgrade the word
func ShouldDowngrade(state *models.WordMemoryState, now time.Time, policy DecayPolicy) bool {
	switch policy {
	case DecayElapsedRatio:
		scheduled := state.NextReviewDate.Sub(state.LastReviewDate)
		if scheduled <= 0 {
			return now.After(state.NextReviewDate)
		}
		overdue := now.Sub(state.NextReviewDate)
		return float64(overdue) > float64(scheduled)*(DowngradeThreshold-1)
	default:
		return float64(now.UnixMilli()) > float64(state.NextReviewDate.UnixMilli())*DowngradeThreshold
	}
}

// ApplyDecay downgrades a forgotten word and reschedules it as not remembered.
// LastReviewDate is left alone: decay is not a review.
func ApplyDecay(state *models.WordMemoryState, now time.Time) {
	state.Level = Downgrade(state.Level)
	state.NextReviewDate = CalculateNextReview(state.Level, false, now)
}
