package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/example/wordmemo/pkg/models"
	"github.com/jmoiron/sqlx"
)

const upsertWordQuery = `
	INSERT INTO words (` + wordColumns + `)
	VALUES (:word, :phonetic, :definitions, :examples, :etymology, :remarks, :source,
		:level, :review_count, :correct_count,
		:last_review_date, :next_review_date, :last_seen_date, :added_date, :updated_date)
	ON CONFLICT (word) DO UPDATE SET
		phonetic = excluded.phonetic,
		definitions = excluded.definitions,
		examples = excluded.examples,
		etymology = excluded.etymology,
		remarks = excluded.remarks,
		source = excluded.source,
		level = excluded.level,
		review_count = excluded.review_count,
		correct_count = excluded.correct_count,
		last_review_date = excluded.last_review_date,
		next_review_date = excluded.next_review_date,
		last_seen_date = excluded.last_seen_date,
		added_date = excluded.added_date,
		updated_date = excluded.updated_date
`

// WordRepository stores word records keyed by the lowercase word.
//
// UpdateOne serializes read-modify-write cycles inside the process and runs
// each one in a transaction, so a concurrent sweep and answer cannot lose
// each other's update.
type WordRepository struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetAll returns every word ordered by key
func (r *WordRepository) GetAll(ctx context.Context) ([]models.Word, error) {
	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+wordColumns+" FROM words ORDER BY word"); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}

	words := make([]models.Word, 0, len(rows))
	for _, row := range rows {
		w, err := row.toModel()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// Get returns a single word or ErrWordNotFound
func (r *WordRepository) Get(ctx context.Context, key string) (models.Word, error) {
	return getWord(ctx, r.db, key, "")
}

// Exists reports whether a record exists for key
func (r *WordRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM words WHERE word = ?"), key); err != nil {
		return false, fmt.Errorf("failed to check word: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of stored words
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}

// Put inserts or replaces a word record
func (r *WordRepository) Put(ctx context.Context, w models.Word) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return putWord(ctx, r.db, w)
}

// Remove deletes a word record. Removing a missing word is not an error.
func (r *WordRepository) Remove(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM words WHERE word = ?"), key); err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// UpdateOne reads the word, applies fn and writes the result atomically.
// If fn returns an error nothing is written and the error is returned as is.
func (r *WordRepository) UpdateOne(ctx context.Context, key string, fn func(*models.Word) error) (models.Word, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Word{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lock := ""
	if r.db.DriverName() == DriverPostgres {
		lock = " FOR UPDATE"
	}

	w, err := getWord(ctx, tx, key, lock)
	if err != nil {
		return models.Word{}, err
	}

	if err := fn(&w); err != nil {
		return models.Word{}, err
	}
	w.Word = key

	if err := putWord(ctx, tx, w); err != nil {
		return models.Word{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Word{}, fmt.Errorf("failed to commit word update: %w", err)
	}
	return w, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

func getWord(ctx context.Context, q queryer, key, suffix string) (models.Word, error) {
	var row wordRow
	query := q.Rebind("SELECT " + wordColumns + " FROM words WHERE word = ?" + suffix)
	if err := q.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Word{}, fmt.Errorf("%w: %s", ErrWordNotFound, key)
		}
		return models.Word{}, fmt.Errorf("failed to get word: %w", err)
	}
	return row.toModel()
}

func putWord(ctx context.Context, q queryer, w models.Word) error {
	row, err := toRow(w)
	if err != nil {
		return err
	}
	if _, err := q.NamedExecContext(ctx, upsertWordQuery, row); err != nil {
		return fmt.Errorf("failed to save word: %w", err)
	}
	return nil
}
