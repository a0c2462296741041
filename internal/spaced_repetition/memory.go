package spaced_repetition

import (
	"time"

	"github.com/example/wordmemo/pkg/models"
)

const day = 24 * time.Hour

// Interval is one row of the forgetting-curve table
type Interval struct {
	Remembered time.Duration
	Forgotten  time.Duration
}

// intervals is indexed by level; every defined level has a row.
var intervals = [models.LevelCount]Interval{
	models.LevelNew:      {Remembered: 1 * day, Forgotten: day / 2},
	models.LevelFamiliar: {Remembered: 3 * day, Forgotten: 1 * day},
	models.LevelLearning: {Remembered: 7 * day, Forgotten: 3 * day},
	models.LevelMastered: {Remembered: 30 * day, Forgotten: 7 * day},
	models.LevelArchived: {Remembered: 90 * day, Forgotten: 30 * day},
}

// NextInterval returns the review offset for a level and outcome
func NextInterval(level models.MemoryLevel, remembered bool) time.Duration {
	row := intervals[level.Clamp()]
	if remembered {
		return row.Remembered
	}
	return row.Forgotten
}

// IntervalDays is NextInterval expressed in (possibly fractional) days
func IntervalDays(level models.MemoryLevel, remembered bool) float64 {
	return NextInterval(level, remembered).Hours() / 24
}

// CalculateNextReview returns the due time for a word reviewed at now
func CalculateNextReview(level models.MemoryLevel, remembered bool, now time.Time) time.Time {
	return now.Add(NextInterval(level, remembered))
}

// Upgrade moves one level up, stopping at LevelArchived
func Upgrade(level models.MemoryLevel) models.MemoryLevel {
	if level >= models.LevelArchived {
		return models.LevelArchived
	}
	return level.Clamp() + 1
}

// Downgrade moves one level down, stopping at LevelNew
func Downgrade(level models.MemoryLevel) models.MemoryLevel {
	if level <= models.LevelNew {
		return models.LevelNew
	}
	return level.Clamp() - 1
}

// IsOverdue reports whether now is strictly after the scheduled review
func IsOverdue(state *models.WordMemoryState, now time.Time) bool {
	return now.After(state.NextReviewDate)
}

// IsDue reports whether the word may be reviewed (now >= next review)
func IsDue(state *models.WordMemoryState, now time.Time) bool {
	return !now.Before(state.NextReviewDate)
}

// ApplyRemembered records an explicit "remembered" click. The level goes up.
func ApplyRemembered(state *models.WordMemoryState, now time.Time) {
	state.CorrectCount++
	state.ReviewCount++
	state.Level = Upgrade(state.Level)
	state.LastReviewDate = now
	state.NextReviewDate = CalculateNextReview(state.Level, true, now)
}

// ApplyNotRemembered records an explicit "not yet" click. The level is kept.
func ApplyNotRemembered(state *models.WordMemoryState, now time.Time) {
	state.ReviewCount++
	state.LastReviewDate = now
	state.NextReviewDate = CalculateNextReview(state.Level, false, now)
}

// ApplyPracticeOutcome records a practice answer.
// A correct answer only upgrades a word that was already overdue, so words
// practiced ahead of schedule do not gain mastery. A wrong answer always
// downgrades.
func ApplyPracticeOutcome(state *models.WordMemoryState, isCorrect bool, now time.Time) {
	overdue := IsOverdue(state, now)
	state.ReviewCount++

	if isCorrect {
		state.CorrectCount++
		if overdue {
			state.Level = Upgrade(state.Level)
		}
	} else {
		state.Level = Downgrade(state.Level)
	}

	state.LastReviewDate = now
	state.NextReviewDate = CalculateNextReview(state.Level, isCorrect, now)
}
