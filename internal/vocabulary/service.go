// Package vocabulary applies the scheduling rules to stored words. Every
// mutation is a single atomic read-modify-write on the store followed by a
// VocabularyUpdated event.
package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/example/wordmemo/internal/events"
	"github.com/example/wordmemo/internal/logger"
	sr "github.com/example/wordmemo/internal/spaced_repetition"
	"github.com/example/wordmemo/pkg/models"
)

var (
	ErrInvalidWord = errors.New("invalid word")
	ErrWordExists  = errors.New("word already in vocabulary")
	ErrWordPending = errors.New("word is already being added")
)

// Store is the storage collaborator
type Store interface {
	GetAll(ctx context.Context) ([]models.Word, error)
	Get(ctx context.Context, key string) (models.Word, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, w models.Word) error
	Remove(ctx context.Context, key string) error
	UpdateOne(ctx context.Context, key string, fn func(*models.Word) error) (models.Word, error)
}

// Explainer produces the structured description of a new word
type Explainer interface {
	GenerateExplanation(ctx context.Context, word string) (models.Explanation, error)
}

// Service is the entry point for every change to a word's memory state
type Service struct {
	store       Store
	events      events.Publisher
	explainer   Explainer
	now         func() time.Time
	decayPolicy sr.DecayPolicy
	maxPractice int
	log         *logger.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDecayPolicy selects the decay threshold semantics
func WithDecayPolicy(p sr.DecayPolicy) Option {
	return func(s *Service) { s.decayPolicy = p }
}

// WithExplainer enables explanation lookup when words are added
func WithExplainer(e Explainer) Option {
	return func(s *Service) { s.explainer = e }
}

// WithPracticeLimit lowers the number of words offered per session
func WithPracticeLimit(n int) Option {
	return func(s *Service) { s.maxPractice = n }
}

// NewService creates a vocabulary service
func NewService(store Store, pub events.Publisher, log *logger.Logger, opts ...Option) *Service {
	if store == nil {
		panic("store cannot be nil")
	}
	if pub == nil {
		pub = events.NewBus(log)
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Service{
		store:       store,
		events:      pub,
		now:         time.Now,
		decayPolicy: sr.DecayAbsolute,
		maxPractice: sr.MaxPracticeWords,
		log:         log.With("component", "vocabulary"),
		pending:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var nonWordChars = regexp.MustCompile(`[^a-z-]`)

// NormalizeWord lowercases the input and keeps only letters and hyphens
func NormalizeWord(raw string) string {
	return nonWordChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "")
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// AddWord captures a new word seen on a page. The word starts at LevelNew and
// is due one day later.
func (s *Service) AddWord(ctx context.Context, raw, source string) (models.Word, error) {
	key := NormalizeWord(raw)
	if key == "" || strings.Trim(key, "-") == "" {
		return models.Word{}, fmt.Errorf("%w: %q", ErrInvalidWord, raw)
	}

	if !s.markPending(key) {
		return models.Word{}, fmt.Errorf("%w: %s", ErrWordPending, key)
	}
	defer s.clearPending(key)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return models.Word{}, err
	}
	if exists {
		return models.Word{}, fmt.Errorf("%w: %s", ErrWordExists, key)
	}

	var explanation models.Explanation
	if s.explainer != nil {
		explanation, err = s.explainer.GenerateExplanation(ctx, key)
		if err != nil {
			return models.Word{}, err
		}
	}

	now := s.now()
	w := models.Word{
		Word:        key,
		Phonetic:    explanation.Phonetic,
		Definitions: explanation.Definitions,
		Examples:    explanation.Examples,
		Etymology:   explanation.Etymology,
		Source:      source,
		MemoryState: models.WordMemoryState{
			Level:          models.LevelNew,
			LastReviewDate: now,
			NextReviewDate: sr.CalculateNextReview(models.LevelNew, true, now),
			LastSeenDate:   now,
		},
		AddedDate:   now,
		UpdatedDate: now,
	}

	if err := s.store.Put(ctx, w); err != nil {
		return models.Word{}, err
	}
	s.log.Info("word added", "word", key, "source", source)
	s.events.Publish(ctx, events.ReasonAdded, key)
	return w, nil
}

func (s *Service) markPending(key string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *Service) clearPending(key string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, key)
}

// Get returns one word
func (s *Service) Get(ctx context.Context, key string) (models.Word, error) {
	return s.store.Get(ctx, normalizeKey(key))
}

// All returns the whole vocabulary
func (s *Service) All(ctx context.Context) ([]models.Word, error) {
	return s.store.GetAll(ctx)
}

// DeleteWord removes a word
func (s *Service) DeleteWord(ctx context.Context, key string) error {
	key = normalizeKey(key)
	if err := s.store.Remove(ctx, key); err != nil {
		return err
	}
	s.events.Publish(ctx, events.ReasonDeleted, key)
	return nil
}

// MarkRemembered handles the explicit "remembered" feedback
func (s *Service) MarkRemembered(ctx context.Context, key string) (models.Word, error) {
	return s.update(ctx, key, events.ReasonRemembered, func(w *models.Word, now time.Time) {
		sr.ApplyRemembered(&w.MemoryState, now)
	})
}

// MarkNotRemembered handles the explicit "not yet" feedback
func (s *Service) MarkNotRemembered(ctx context.Context, key string) (models.Word, error) {
	return s.update(ctx, key, events.ReasonNotRemembered, func(w *models.Word, now time.Time) {
		sr.ApplyNotRemembered(&w.MemoryState, now)
	})
}

// RecordPracticeOutcome applies a practice answer to the word
func (s *Service) RecordPracticeOutcome(ctx context.Context, key string, isCorrect bool) (models.Word, error) {
	return s.update(ctx, key, events.ReasonPractice, func(w *models.Word, now time.Time) {
		sr.ApplyPracticeOutcome(&w.MemoryState, isCorrect, now)
	})
}

func (s *Service) update(ctx context.Context, key, reason string, fn func(*models.Word, time.Time)) (models.Word, error) {
	key = normalizeKey(key)
	w, err := s.store.UpdateOne(ctx, key, func(w *models.Word) error {
		now := s.now()
		fn(w, now)
		w.UpdatedDate = now
		return nil
	})
	if err != nil {
		return models.Word{}, err
	}

	s.log.Debug("word updated",
		"word", key,
		"reason", reason,
		"level", w.MemoryState.Level.String(),
		"next_review", w.MemoryState.NextReviewDate)
	s.events.Publish(ctx, reason, key)
	return w, nil
}

// MarkSeen records that words were observed on a page. Missing words are
// skipped; the keys actually updated are returned.
func (s *Service) MarkSeen(ctx context.Context, keys ...string) ([]string, error) {
	var seen []string
	for _, key := range keys {
		key = normalizeKey(key)
		_, err := s.store.UpdateOne(ctx, key, func(w *models.Word) error {
			w.MemoryState.LastSeenDate = s.now()
			return nil
		})
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return seen, err
		}
		seen = append(seen, key)
	}
	return seen, nil
}

// SelectForPractice ranks the vocabulary for a practice session
func (s *Service) SelectForPractice(ctx context.Context) ([]models.Word, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return sr.SelectWords(words, s.now(), s.maxPractice), nil
}

// ReviewQueue returns the words that are due now
func (s *Service) ReviewQueue(ctx context.Context) ([]models.Word, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return sr.DueWords(words, s.now()), nil
}
