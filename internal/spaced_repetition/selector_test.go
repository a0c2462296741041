package spaced_repetition

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/wordmemo/pkg/models"
	"github.com/stretchr/testify/assert"
)

func word(key string, level models.MemoryLevel, next time.Time, reviews int) models.Word {
	return models.Word{
		Word: key,
		MemoryState: models.WordMemoryState{
			Level:          level,
			ReviewCount:    reviews,
			NextReviewDate: next,
		},
	}
}

func keys(words []models.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Word
	}
	return out
}

func TestSelectWordsForPracticeCapsAndSkipsArchived(t *testing.T) {
	var words []models.Word
	for i := 0; i < 12; i++ {
		words = append(words, word(fmt.Sprintf("w%02d", i), models.LevelFamiliar, fixedNow.Add(-time.Duration(i)*time.Hour), 1))
	}
	words = append(words, word("archived", models.LevelArchived, fixedNow.Add(-100*day), 3))

	selected := SelectWordsForPractice(words, fixedNow)

	assert.Len(t, selected, MaxPracticeWords)
	assert.NotContains(t, keys(selected), "archived")
}

func TestSelectWordsOverdueFirst(t *testing.T) {
	words := []models.Word{
		word("later", models.LevelLearning, fixedNow.Add(5*day), 2),
		word("overdue", models.LevelLearning, fixedNow.Add(-time.Hour), 2),
	}

	selected := SelectWordsForPractice(words, fixedNow)
	assert.Equal(t, []string{"overdue", "later"}, keys(selected))
}

func TestSelectWordsTiers(t *testing.T) {
	words := []models.Word{
		word("normal", models.LevelFamiliar, fixedNow.Add(3*day), 1),
		word("expiring", models.LevelFamiliar, fixedNow.Add(2*time.Hour), 1),
		word("new-expiring", models.LevelNew, fixedNow.Add(20*time.Hour), 0),
		word("overdue", models.LevelFamiliar, fixedNow.Add(-2*time.Hour), 1),
		word("new-normal", models.LevelNew, fixedNow.Add(2*day), 0),
	}

	selected := SelectWordsForPractice(words, fixedNow)
	assert.Equal(t, []string{"overdue", "new-expiring", "expiring", "new-normal", "normal"}, keys(selected))
}

// Ascending overdueHours puts the least overdue word first inside the
// overdue tier. This pins the literal ordering.
func TestSelectWordsLeastOverdueFirst(t *testing.T) {
	words := []models.Word{
		word("very-late", models.LevelLearning, fixedNow.Add(-72*time.Hour), 2),
		word("bit-late", models.LevelLearning, fixedNow.Add(-1*time.Hour), 2),
		word("late", models.LevelLearning, fixedNow.Add(-10*time.Hour), 2),
	}

	selected := SelectWordsForPractice(words, fixedNow)
	assert.Equal(t, []string{"bit-late", "late", "very-late"}, keys(selected))
}

func TestSelectWordsEmptyAndLimit(t *testing.T) {
	assert.Empty(t, SelectWordsForPractice(nil, fixedNow))

	words := []models.Word{
		word("a", models.LevelNew, fixedNow, 0),
		word("b", models.LevelNew, fixedNow, 0),
		word("c", models.LevelNew, fixedNow, 0),
	}
	assert.Len(t, SelectWords(words, fixedNow, 2), 2)
	assert.Len(t, SelectWords(words, fixedNow, 50), 3)
}

func TestDueWords(t *testing.T) {
	words := []models.Word{
		word("due-now", models.LevelNew, fixedNow, 0),
		word("future", models.LevelNew, fixedNow.Add(time.Second), 0),
		word("past", models.LevelArchived, fixedNow.Add(-day), 4),
	}
	assert.Equal(t, []string{"due-now", "past"}, keys(DueWords(words, fixedNow)))
}
