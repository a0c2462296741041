// Package transfer moves vocabularies in and out of the store: YAML files
// (the portable format) and spreadsheets.
package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/wordmemo/internal/events"
	"github.com/example/wordmemo/internal/logger"
	sr "github.com/example/wordmemo/internal/spaced_repetition"
	"github.com/example/wordmemo/internal/vocabulary"
	"github.com/example/wordmemo/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Strategy decides what happens to an imported word that already exists
type Strategy string

const (
	// StrategySkip keeps the stored word untouched.
	StrategySkip Strategy = "skip"
	// StrategyOverwrite replaces the content and restarts the schedule at the stored level.
	StrategyOverwrite Strategy = "overwrite"
	// StrategyMerge unions definitions and examples and keeps the memory state.
	StrategyMerge Strategy = "merge"
)

// ParseStrategy validates a strategy name; empty means skip
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategySkip:
		return StrategySkip, nil
	case StrategyOverwrite:
		return StrategyOverwrite, nil
	case StrategyMerge:
		return StrategyMerge, nil
	default:
		return "", fmt.Errorf("unknown import strategy %q", s)
	}
}

// ExportableWord is a word without its memory state
type ExportableWord struct {
	Word        string              `yaml:"word" validate:"required,max=64"`
	Phonetic    string              `yaml:"phonetic"`
	Definitions []models.Definition `yaml:"definitions"`
	Examples    []models.Example    `yaml:"examples"`
	Etymology   string              `yaml:"etymology"`
	Remarks     string              `yaml:"remarks"`
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
}

// Store is the word storage used by transfers
type Store interface {
	GetAll(ctx context.Context) ([]models.Word, error)
	Get(ctx context.Context, key string) (models.Word, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, w models.Word) error
	UpdateOne(ctx context.Context, key string, fn func(*models.Word) error) (models.Word, error)
}

// Service imports and exports vocabularies
type Service struct {
	store    Store
	events   events.Publisher
	validate *validator.Validate
	now      func() time.Time
	log      *logger.Logger
}

// NewService creates a transfer service
func NewService(store Store, pub events.Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if pub == nil {
		pub = events.NewBus(log)
	}
	return &Service{
		store:    store,
		events:   pub,
		validate: validator.New(),
		now:      time.Now,
		log:      log.With("component", "transfer"),
	}
}

func toExportable(w models.Word) ExportableWord {
	return ExportableWord{
		Word:        w.Word,
		Phonetic:    w.Phonetic,
		Definitions: w.Definitions,
		Examples:    w.Examples,
		Etymology:   w.Etymology,
		Remarks:     w.Remarks,
	}
}

// fromExportable creates a fresh record at the given level, due after the
// level's remembered interval.
func fromExportable(e ExportableWord, level models.MemoryLevel, now time.Time) models.Word {
	return models.Word{
		Word:        e.Word,
		Phonetic:    e.Phonetic,
		Definitions: e.Definitions,
		Examples:    e.Examples,
		Etymology:   e.Etymology,
		Remarks:     e.Remarks,
		MemoryState: models.WordMemoryState{
			Level:          level,
			LastReviewDate: now,
			NextReviewDate: sr.CalculateNextReview(level, true, now),
			LastSeenDate:   now,
		},
		AddedDate:   now,
		UpdatedDate: now,
		Source:      "imported",
	}
}

// Import writes words into the store, resolving conflicts with strategy.
// Invalid entries are reported in the result and skipped.
func (s *Service) Import(ctx context.Context, words []ExportableWord, strategy Strategy) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	var changed []string

	for i, e := range words {
		raw := e.Word
		e.Word = vocabulary.NormalizeWord(raw)
		if strings.Trim(e.Word, "-") == "" && raw != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: invalid word %q", i+1, raw))
			continue
		}
		if err := s.validate.Struct(e); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}

		imported, err := s.importOne(ctx, e, strategy)
		if err != nil {
			return result, fmt.Errorf("failed to import %q: %w", e.Word, err)
		}
		if !imported {
			result.Skipped++
			continue
		}
		result.Imported++
		changed = append(changed, e.Word)
	}

	if len(changed) > 0 {
		s.events.Publish(ctx, events.ReasonImported, changed...)
	}
	s.log.Info("vocabulary imported",
		"strategy", string(strategy),
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

// importOne stores a new word, or rewrites an existing one atomically
// according to strategy. It reports whether anything was written.
func (s *Service) importOne(ctx context.Context, e ExportableWord, strategy Strategy) (bool, error) {
	now := s.now()

	exists, err := s.store.Exists(ctx, e.Word)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, s.store.Put(ctx, fromExportable(e, models.LevelNew, now))
	}

	var rewrite func(*models.Word) error
	switch strategy {
	case StrategyOverwrite:
		rewrite = func(w *models.Word) error {
			replaced := fromExportable(e, w.MemoryState.Level, now)
			replaced.Source = w.Source
			*w = replaced
			return nil
		}
	case StrategyMerge:
		rewrite = func(w *models.Word) error {
			*w = mergeWords(*w, e, now)
			return nil
		}
	default:
		return false, nil
	}

	if _, err := s.store.UpdateOne(ctx, e.Word, rewrite); err != nil {
		return false, err
	}
	return true, nil
}

// mergeWords keeps the stored memory state and added date, and unions the
// definitions and examples.
func mergeWords(existing models.Word, imported ExportableWord, now time.Time) models.Word {
	merged := existing

	merged.Definitions = append([]models.Definition(nil), existing.Definitions...)
	seenDefs := make(map[models.Definition]bool, len(existing.Definitions))
	for _, d := range existing.Definitions {
		seenDefs[d] = true
	}
	for _, d := range imported.Definitions {
		if !seenDefs[d] {
			seenDefs[d] = true
			merged.Definitions = append(merged.Definitions, d)
		}
	}

	merged.Examples = append([]models.Example(nil), existing.Examples...)
	seenExamples := make(map[models.Example]bool, len(existing.Examples))
	for _, e := range existing.Examples {
		seenExamples[e] = true
	}
	for _, e := range imported.Examples {
		if !seenExamples[e] {
			seenExamples[e] = true
			merged.Examples = append(merged.Examples, e)
		}
	}

	if imported.Phonetic != "" {
		merged.Phonetic = imported.Phonetic
	}
	if imported.Etymology != "" {
		merged.Etymology = imported.Etymology
	}
	if imported.Remarks != "" {
		merged.Remarks = imported.Remarks
	}

	stamp := "imported " + now.UTC().Format(time.RFC3339)
	if existing.Source != "" {
		merged.Source = existing.Source + ", " + stamp
	} else {
		merged.Source = stamp
	}
	merged.UpdatedDate = now
	return merged
}
