package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/wordmemo/internal/practice"
	"github.com/example/wordmemo/internal/transfer"
	"github.com/example/wordmemo/pkg/models"
)

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func formatWord(w models.Word) string {
	var sb strings.Builder
	sb.WriteString("📖 " + w.Word)
	if w.Phonetic != "" {
		sb.WriteString(" " + w.Phonetic)
	}
	sb.WriteString("\n")

	for _, d := range w.Definitions {
		sb.WriteString("\n" + strings.TrimSpace(d.Pos+" "+d.Meaning))
	}
	if len(w.Examples) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range w.Examples {
		fmt.Fprintf(&sb, "\n• %s\n  %s", e.En, e.Zh)
	}
	if w.Etymology != "" {
		sb.WriteString("\n\n🌱 " + w.Etymology)
	}

	fmt.Fprintf(&sb, "\n\nLevel: %s · next review %s", w.MemoryState.Level, formatTime(w.MemoryState.NextReviewDate))
	return sb.String()
}

// formatHistory expects records newest first
func formatHistory(records []models.PracticeRecord) string {
	correct := 0
	for _, r := range records {
		if r.IsCorrect {
			correct++
		}
	}
	last := records[0]
	return fmt.Sprintf("Practiced %d time(s), %d correct · last %s",
		len(records), correct, formatTime(last.AnsweredTime()))
}

// formatCachedQuestions lists the newest questions last, at most limit of them
func formatCachedQuestions(questions []models.PracticeQuestion, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧠 %d cached question(s)", len(questions))
	if len(questions) > limit {
		questions = questions[len(questions)-limit:]
	}
	for _, q := range questions {
		fmt.Fprintf(&sb, "\n• [%s] %s → %s", q.Type, q.Question, q.CorrectAnswer)
	}
	return sb.String()
}

func formatAnswer(r practice.AnswerResult) string {
	var sb strings.Builder
	if r.IsCorrect {
		sb.WriteString("✅ Correct!")
	} else {
		fmt.Fprintf(&sb, "❌ Wrong. Correct answer: %s", r.CorrectAnswer)
	}
	if r.Explanation != "" {
		sb.WriteString("\n\n💡 " + r.Explanation)
	}
	return sb.String()
}

func formatStats(words []models.Word, due int, stats models.PracticeStats) string {
	var perLevel [models.LevelCount]int
	for _, w := range words {
		perLevel[w.MemoryState.Level.Clamp()]++
	}

	var sb strings.Builder
	sb.WriteString("📊 Statistics\n\n")
	fmt.Fprintf(&sb, "Words: %d (due now: %d)\n", len(words), due)
	for level := models.LevelNew; int(level) < models.LevelCount; level++ {
		fmt.Fprintf(&sb, "  %s: %d\n", level, perLevel[level])
	}

	fmt.Fprintf(&sb, "\nPractice sessions: %d\n", stats.Sessions)
	fmt.Fprintf(&sb, "Answers: %d", stats.Answered)
	if stats.Answered > 0 {
		fmt.Fprintf(&sb, " (%d%% correct)", stats.Correct*100/stats.Answered)
	}
	fmt.Fprintf(&sb, "\nWords practiced: %d", stats.WordsPracticed)
	return sb.String()
}

func formatImportResult(r *transfer.ImportResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Import finished:\n- Imported: %d\n- Skipped: %d\n", r.Imported, r.Skipped)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			sb.WriteString("- " + e + "\n")
		}
	}
	return sb.String()
}
