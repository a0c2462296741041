package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/wordmemo/pkg/models"
	"github.com/jmoiron/sqlx"
)

// DefaultQuestionCacheSize is how many questions are kept per word
const DefaultQuestionCacheSize = 10

// QuestionCacheRepository keeps the most recent generated questions per word.
// When a word has more than the limit, the oldest are evicted.
type QuestionCacheRepository struct {
	db    *sqlx.DB
	limit int
	now   func() time.Time
}

// NewQuestionCacheRepository creates a cache keeping up to limit questions per word
func NewQuestionCacheRepository(db *sqlx.DB, limit int) *QuestionCacheRepository {
	if limit <= 0 {
		limit = DefaultQuestionCacheSize
	}
	return &QuestionCacheRepository{db: db, limit: limit, now: time.Now}
}

// Save adds a question. A question whose ID is already cached is ignored.
func (r *QuestionCacheRepository) Save(ctx context.Context, q models.PracticeQuestion) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode question: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := tx.Rebind(`
		INSERT INTO practice_questions (question_id, word, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (question_id) DO NOTHING
	`)
	if _, err := tx.ExecContext(ctx, insert, q.ID, q.Word, string(payload), r.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to cache question: %w", err)
	}

	evict := tx.Rebind(`
		DELETE FROM practice_questions
		WHERE word = ? AND seq NOT IN (
			SELECT seq FROM practice_questions WHERE word = ? ORDER BY seq DESC LIMIT ?
		)
	`)
	if _, err := tx.ExecContext(ctx, evict, q.Word, q.Word, r.limit); err != nil {
		return fmt.Errorf("failed to evict cached questions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cached question: %w", err)
	}
	return nil
}

// ForWord returns the cached questions for a word, oldest first
func (r *QuestionCacheRepository) ForWord(ctx context.Context, word string) ([]models.PracticeQuestion, error) {
	var payloads []string
	query := r.db.Rebind("SELECT payload FROM practice_questions WHERE word = ? ORDER BY seq")
	if err := r.db.SelectContext(ctx, &payloads, query, word); err != nil {
		return nil, fmt.Errorf("failed to get cached questions: %w", err)
	}

	questions := make([]models.PracticeQuestion, 0, len(payloads))
	for _, p := range payloads {
		var q models.PracticeQuestion
		if err := json.Unmarshal([]byte(p), &q); err != nil {
			return nil, fmt.Errorf("failed to decode cached question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// RemoveWord drops every cached question for a word
func (r *QuestionCacheRepository) RemoveWord(ctx context.Context, word string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM practice_questions WHERE word = ?"), word); err != nil {
		return fmt.Errorf("failed to delete cached questions: %w", err)
	}
	return nil
}
