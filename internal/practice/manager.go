// Package practice runs practice sessions: it selects words, generates one
// question per word and feeds every answer back into the word's memory state.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Vocabulary is the word collaborator used by a session
type Vocabulary interface {
	Get(ctx context.Context, key string) (models.Word, error)
	SelectForPractice(ctx context.Context) ([]models.Word, error)
	RecordPracticeOutcome(ctx context.Context, key string, isCorrect bool) (models.Word, error)
}

// QuestionGenerator produces practice questions
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, w models.Word, t models.QuestionType) (models.PracticeQuestion, error)
}

// QuestionCache keeps generated questions per word
type QuestionCache interface {
	Save(ctx context.Context, q models.PracticeQuestion) error
}

// RecordStore keeps answered questions for statistics
type RecordStore interface {
	Create(ctx context.Context, rec *models.PracticeRecord) error
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	SessionID    string
	State        State
	Index        int
	Total        int
	CorrectCount int
	Question     models.PracticeQuestion
	Answered     bool
}

// Manager holds at most one session per owner
type Manager struct {
	vocab        Vocabulary
	generator    QuestionGenerator
	cache        QuestionCache
	records      RecordStore
	questionType models.QuestionType
	now          func() time.Time
	log          *logger.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

type Option func(*Manager)

// WithQuestionType selects the type of generated questions
func WithQuestionType(t models.QuestionType) Option {
	return func(m *Manager) { m.questionType = t }
}

// WithQuestionCache stores every generated question
func WithQuestionCache(c QuestionCache) Option {
	return func(m *Manager) { m.cache = c }
}

// WithRecordStore appends a record for every answer
func WithRecordStore(r RecordStore) Option {
	return func(m *Manager) { m.records = r }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager
func NewManager(vocab Vocabulary, generator QuestionGenerator, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Manager{
		vocab:        vocab,
		generator:    generator,
		questionType: models.QuestionChoice,
		now:          time.Now,
		log:          log.With("component", "practice"),
		sessions:     make(map[int64]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start selects words and generates all questions. Any generation failure
// fails the whole start and no session is created. An existing session of the
// owner is aborted once the new one is ready.
func (m *Manager) Start(ctx context.Context, owner int64) (Snapshot, error) {
	words, err := m.vocab.SelectForPractice(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if len(words) == 0 {
		return Snapshot{}, ErrNoWordsAvailable
	}

	questions := make([]models.PracticeQuestion, len(words))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range words {
		i, w := i, w
		g.Go(func() error {
			q, err := m.generator.GenerateQuestion(gctx, w, m.questionType)
			if err != nil {
				return &GenerationError{Word: w.Word, Err: err}
			}
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			questions[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.log.Warn("practice start failed", "owner", owner, "error", err)
		return Snapshot{}, err
	}
	m.cacheQuestions(ctx, questions)

	s := NewSession(uuid.NewString(), questions, m.now())
	if err := s.Begin(); err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	if old, ok := m.sessions[owner]; ok {
		old.Abort()
	}
	m.sessions[owner] = s
	snap := snapshot(s)
	m.mu.Unlock()

	m.log.Info("practice started", "owner", owner, "session", s.ID, "questions", len(questions))
	return snap, nil
}

func (m *Manager) cacheQuestions(ctx context.Context, questions []models.PracticeQuestion) {
	if m.cache == nil {
		return
	}
	for _, q := range questions {
		if err := m.cache.Save(ctx, q); err != nil {
			m.log.Warn("failed to cache question", "word", q.Word, "error", err)
		}
	}
}

// Current returns the owner's session
func (m *Manager) Current(owner int64) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[owner]
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	return snapshot(s), nil
}

// SubmitAnswer checks the answer to the current question and applies the
// outcome to the word. When the outcome cannot be persisted the result is
// still returned together with an error matching ErrDataConsistencyRisk.
func (m *Manager) SubmitAnswer(ctx context.Context, owner int64, answer string) (AnswerResult, error) {
	return m.submit(ctx, owner, func(models.PracticeQuestion) (string, error) {
		return answer, nil
	})
}

// SubmitChoice answers the choice question questionID with one of its
// options. A questionID other than the current question's fails with
// ErrStaleQuestion and nothing is recorded.
func (m *Manager) SubmitChoice(ctx context.Context, owner int64, questionID string, option int) (AnswerResult, error) {
	return m.submit(ctx, owner, func(q models.PracticeQuestion) (string, error) {
		if q.ID != questionID {
			return "", fmt.Errorf("%w: %w: %s", ErrInvalidTransition, ErrStaleQuestion, questionID)
		}
		if option < 0 || option >= len(q.Options) {
			return "", fmt.Errorf("%w: option %d out of range", ErrInvalidTransition, option)
		}
		return q.Options[option], nil
	})
}

// submit resolves the answer against the current question and records it
// while holding the lock, so the question cannot change in between.
func (m *Manager) submit(ctx context.Context, owner int64, pick func(models.PracticeQuestion) (string, error)) (AnswerResult, error) {
	m.mu.Lock()
	s, ok := m.sessions[owner]
	if !ok {
		m.mu.Unlock()
		return AnswerResult{}, fmt.Errorf("%w: %w", ErrInvalidTransition, ErrNoSession)
	}
	q, err := s.Current()
	if err != nil {
		m.mu.Unlock()
		return AnswerResult{}, err
	}
	answer, err := pick(q)
	if err != nil {
		m.mu.Unlock()
		return AnswerResult{}, err
	}
	result, err := s.Submit(answer)
	sessionID := s.ID
	m.mu.Unlock()
	if err != nil {
		return AnswerResult{}, err
	}

	if _, err := m.vocab.RecordPracticeOutcome(ctx, result.Word, result.IsCorrect); err != nil {
		m.log.Error("failed to persist practice outcome",
			"owner", owner,
			"word", result.Word,
			"correct", result.IsCorrect,
			"error", err)
		return result, fmt.Errorf("%w: %s: %w", ErrDataConsistencyRisk, result.Word, err)
	}

	if m.records != nil {
		rec := &models.PracticeRecord{
			SessionID:  sessionID,
			Word:       result.Word,
			Type:       q.Type,
			IsCorrect:  result.IsCorrect,
			AnsweredAt: m.now().UnixMilli(),
		}
		if err := m.records.Create(ctx, rec); err != nil {
			m.log.Warn("failed to save practice record", "word", result.Word, "error", err)
		}
	}
	return result, nil
}

// NextQuestion advances the session. After the last question the session is
// completed and removed.
func (m *Manager) NextQuestion(owner int64) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[owner]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidTransition, ErrNoSession)
	}
	state, err := s.Next()
	if err != nil {
		return Snapshot{}, err
	}
	snap := snapshot(s)
	if state == StateCompleted {
		delete(m.sessions, owner)
		m.log.Info("practice completed",
			"owner", owner,
			"session", s.ID,
			"correct", s.CorrectCount,
			"total", len(s.Questions))
	}
	return snap, nil
}

// Exit aborts the owner's session. It reports whether there was one.
func (m *Manager) Exit(owner int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[owner]
	if !ok {
		return false
	}
	s.Abort()
	delete(m.sessions, owner)
	return true
}

// Regenerate replaces the current unanswered question with a fresh one.
// Generator failures are returned as *GenerationError and leave the session
// unchanged.
func (m *Manager) Regenerate(ctx context.Context, owner int64) (Snapshot, error) {
	m.mu.Lock()
	s, ok := m.sessions[owner]
	if !ok {
		m.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidTransition, ErrNoSession)
	}
	q, err := s.Current()
	if err == nil && s.Answered() {
		err = fmt.Errorf("%w: question already answered", ErrInvalidTransition)
	}
	index := s.CurrentIndex
	m.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	w, err := m.vocab.Get(ctx, q.Word)
	if err != nil {
		return Snapshot{}, err
	}
	fresh, err := m.generator.GenerateQuestion(ctx, w, q.Type)
	if err != nil {
		return Snapshot{}, &GenerationError{Word: w.Word, Err: err}
	}
	// answers to the replaced question must not match the new one
	if fresh.ID == "" || fresh.ID == q.ID {
		fresh.ID = uuid.NewString()
	}
	m.cacheQuestions(ctx, []models.PracticeQuestion{fresh})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[owner] != s || s.CurrentIndex != index {
		return Snapshot{}, fmt.Errorf("%w: session moved on during regeneration", ErrInvalidTransition)
	}
	if err := s.Replace(fresh); err != nil {
		return Snapshot{}, err
	}
	return snapshot(s), nil
}

// IsGenerationFailure reports whether err came from question generation
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationFailure)
}

func snapshot(s *Session) Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		State:        s.State(),
		Index:        s.CurrentIndex,
		Total:        len(s.Questions),
		CorrectCount: s.CorrectCount,
		Answered:     s.Answered(),
	}
	if q, err := s.Current(); err == nil {
		snap.Question = q
	}
	return snap
}
