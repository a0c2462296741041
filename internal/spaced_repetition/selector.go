package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/wordmemo/pkg/models"
)

const (
	// MaxPracticeWords caps a practice session
	MaxPracticeWords = 5
	// ExpiringHoursThreshold marks words due within this many hours
	ExpiringHoursThreshold = 24
)

// Priority tiers; lower is offered first
const (
	priorityOverdue  = 0
	priorityExpiring = 1
	priorityNormal   = 2
	// newWordBonus moves never-reviewed words ahead within their tier
	newWordBonus = 0.5
)

type candidate struct {
	word         models.Word
	priority     float64
	overdueHours float64
}

// SelectWordsForPractice picks up to MaxPracticeWords words for a session
func SelectWordsForPractice(words []models.Word, now time.Time) []models.Word {
	return SelectWords(words, now, MaxPracticeWords)
}

// SelectWords ranks non-archived words and returns at most limit of them.
//
// Ordering is (priority asc, overdueHours asc). Within the overdue tier this
// puts the least overdue word first.
func SelectWords(words []models.Word, now time.Time, limit int) []models.Word {
	if limit <= 0 || limit > MaxPracticeWords {
		limit = MaxPracticeWords
	}

	candidates := make([]candidate, 0, len(words))
	for _, w := range words {
		if w.MemoryState.Level >= models.LevelArchived {
			continue
		}

		overdueHours := now.Sub(w.MemoryState.NextReviewDate).Hours()

		var priority float64
		switch {
		case overdueHours > 0:
			priority = priorityOverdue
		case overdueHours > -ExpiringHoursThreshold:
			priority = priorityExpiring
		default:
			priority = priorityNormal
		}

		if w.MemoryState.ReviewCount == 0 {
			priority -= newWordBonus
		}

		candidates = append(candidates, candidate{word: w, priority: priority, overdueHours: overdueHours})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		return candidates[i].overdueHours < candidates[j].overdueHours
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	selected := make([]models.Word, len(candidates))
	for i, c := range candidates {
		selected[i] = c.word
	}
	return selected
}

// DueWords returns the words whose review time has come (next <= now)
func DueWords(words []models.Word, now time.Time) []models.Word {
	var due []models.Word
	for _, w := range words {
		if IsDue(&w.MemoryState, now) {
			due = append(due, w)
		}
	}
	return due
}
