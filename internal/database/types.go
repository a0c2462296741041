package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordmemo/pkg/models"
)

var (
	// ErrWordNotFound is returned when no record exists for a word key
	ErrWordNotFound = errors.New("word not found")
)

const wordColumns = `word, phonetic, definitions, examples, etymology, remarks, source,
	level, review_count, correct_count,
	last_review_date, next_review_date, last_seen_date, added_date, updated_date`

// wordRow is the flat storage form of models.Word
type wordRow struct {
	Word           string `db:"word"`
	Phonetic       string `db:"phonetic"`
	Definitions    string `db:"definitions"`
	Examples       string `db:"examples"`
	Etymology      string `db:"etymology"`
	Remarks        string `db:"remarks"`
	Source         string `db:"source"`
	Level          int    `db:"level"`
	ReviewCount    int    `db:"review_count"`
	CorrectCount   int    `db:"correct_count"`
	LastReviewDate int64  `db:"last_review_date"`
	NextReviewDate int64  `db:"next_review_date"`
	LastSeenDate   int64  `db:"last_seen_date"`
	AddedDate      int64  `db:"added_date"`
	UpdatedDate    int64  `db:"updated_date"`
}

func toRow(w models.Word) (wordRow, error) {
	defs := w.Definitions
	if defs == nil {
		defs = []models.Definition{}
	}
	definitions, err := json.Marshal(defs)
	if err != nil {
		return wordRow{}, fmt.Errorf("failed to encode definitions: %w", err)
	}

	examples := w.Examples
	if examples == nil {
		examples = []models.Example{}
	}
	exampleData, err := json.Marshal(examples)
	if err != nil {
		return wordRow{}, fmt.Errorf("failed to encode examples: %w", err)
	}

	ms := w.MemoryState
	return wordRow{
		Word:           w.Word,
		Phonetic:       w.Phonetic,
		Definitions:    string(definitions),
		Examples:       string(exampleData),
		Etymology:      w.Etymology,
		Remarks:        w.Remarks,
		Source:         w.Source,
		Level:          int(ms.Level),
		ReviewCount:    ms.ReviewCount,
		CorrectCount:   ms.CorrectCount,
		LastReviewDate: ms.LastReviewDate.UnixMilli(),
		NextReviewDate: ms.NextReviewDate.UnixMilli(),
		LastSeenDate:   ms.LastSeenDate.UnixMilli(),
		AddedDate:      w.AddedDate.UnixMilli(),
		UpdatedDate:    w.UpdatedDate.UnixMilli(),
	}, nil
}

func (r wordRow) toModel() (models.Word, error) {
	level, err := models.ParseMemoryLevel(r.Level)
	if err != nil {
		return models.Word{}, fmt.Errorf("word %q: %w", r.Word, err)
	}

	w := models.Word{
		Word:      r.Word,
		Phonetic:  r.Phonetic,
		Etymology: r.Etymology,
		Remarks:   r.Remarks,
		Source:    r.Source,
		MemoryState: models.WordMemoryState{
			Level:          level,
			ReviewCount:    r.ReviewCount,
			CorrectCount:   r.CorrectCount,
			LastReviewDate: fromMillis(r.LastReviewDate),
			NextReviewDate: fromMillis(r.NextReviewDate),
			LastSeenDate:   fromMillis(r.LastSeenDate),
		},
		AddedDate:   fromMillis(r.AddedDate),
		UpdatedDate: fromMillis(r.UpdatedDate),
	}

	if err := json.Unmarshal([]byte(r.Definitions), &w.Definitions); err != nil {
		return models.Word{}, fmt.Errorf("word %q: failed to decode definitions: %w", r.Word, err)
	}
	if err := json.Unmarshal([]byte(r.Examples), &w.Examples); err != nil {
		return models.Word{}, fmt.Errorf("word %q: failed to decode examples: %w", r.Word, err)
	}
	return w, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
