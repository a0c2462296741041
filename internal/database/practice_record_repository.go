package database

import (
	"context"
	"fmt"

	"github.com/example/wordmemo/pkg/models"
	"github.com/jmoiron/sqlx"
)

// PracticeRecordRepository handles database operations for answered questions
type PracticeRecordRepository struct {
	db *sqlx.DB
}

// NewPracticeRecordRepository creates a new repository instance
func NewPracticeRecordRepository(db *sqlx.DB) *PracticeRecordRepository {
	return &PracticeRecordRepository{db: db}
}

// Create inserts a practice record and sets its ID
func (r *PracticeRecordRepository) Create(ctx context.Context, rec *models.PracticeRecord) error {
	query := r.db.Rebind(`
		INSERT INTO practice_records (session_id, word, question_type, is_correct, answered_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		rec.SessionID,
		rec.Word,
		rec.Type,
		rec.IsCorrect,
		rec.AnsweredAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create practice record: %w", err)
	}
	return nil
}

// ForWord returns the records of one word, newest first
func (r *PracticeRecordRepository) ForWord(ctx context.Context, word string) ([]models.PracticeRecord, error) {
	var records []models.PracticeRecord
	query := r.db.Rebind(`
		SELECT id, session_id, word, question_type, is_correct, answered_at
		FROM practice_records
		WHERE word = ?
		ORDER BY answered_at DESC, id DESC
	`)
	if err := r.db.SelectContext(ctx, &records, query, word); err != nil {
		return nil, fmt.Errorf("failed to get practice records: %w", err)
	}
	return records, nil
}

// Stats summarizes all practice records
func (r *PracticeRecordRepository) Stats(ctx context.Context) (models.PracticeStats, error) {
	var stats models.PracticeStats
	query := `
		SELECT
			COUNT(DISTINCT session_id) AS sessions,
			COUNT(*) AS answered,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct,
			COUNT(DISTINCT word) AS words_practiced
		FROM practice_records
	`
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return models.PracticeStats{}, fmt.Errorf("failed to get practice statistics: %w", err)
	}
	return stats, nil
}
