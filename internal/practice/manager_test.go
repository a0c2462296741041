package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/wordmemo/internal/ai"
	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

type outcome struct {
	word    string
	correct bool
}

type fakeVocabulary struct {
	words      []models.Word
	persistErr error

	mu       sync.Mutex
	outcomes []outcome
}

func (f *fakeVocabulary) Get(_ context.Context, key string) (models.Word, error) {
	for _, w := range f.words {
		if w.Word == key {
			return w, nil
		}
	}
	return models.Word{}, errors.New("word not found")
}

func (f *fakeVocabulary) SelectForPractice(context.Context) ([]models.Word, error) {
	return f.words, nil
}

func (f *fakeVocabulary) RecordPracticeOutcome(_ context.Context, key string, isCorrect bool) (models.Word, error) {
	if f.persistErr != nil {
		return models.Word{}, f.persistErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome{word: key, correct: isCorrect})
	return models.Word{Word: key}, nil
}

type fakeGenerator struct {
	failures map[string]error

	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) GenerateQuestion(_ context.Context, w models.Word, t models.QuestionType) (models.PracticeQuestion, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if err := f.failures[w.Word]; err != nil {
		return models.PracticeQuestion{}, err
	}
	return models.PracticeQuestion{
		ID:            fmt.Sprintf("%s-%d", w.Word, n),
		Word:          w.Word,
		Type:          t,
		Question:      fmt.Sprintf("What does '%s' mean?", w.Word),
		Options:       []string{"answer-" + w.Word, "wrong"},
		CorrectAnswer: "answer-" + w.Word,
		Explanation:   w.Word + " explained",
	}, nil
}

type fakeCache struct {
	mu    sync.Mutex
	saved []models.PracticeQuestion
}

func (f *fakeCache) Save(_ context.Context, q models.PracticeQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, q)
	return nil
}

type fakeRecords struct {
	records []models.PracticeRecord
}

func (f *fakeRecords) Create(_ context.Context, rec *models.PracticeRecord) error {
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

func words(keys ...string) []models.Word {
	out := make([]models.Word, len(keys))
	for i, k := range keys {
		out[i] = models.Word{Word: k}
	}
	return out
}

func newTestManager(vocab *fakeVocabulary, gen *fakeGenerator, opts ...Option) *Manager {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewManager(vocab, gen, logger.NewNop(), opts...)
}

const owner int64 = 42

func TestSessionRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	vocab := &fakeVocabulary{words: words("alpha", "beta", "gamma")}
	cache := &fakeCache{}
	records := &fakeRecords{}
	m := newTestManager(vocab, &fakeGenerator{}, WithQuestionCache(cache), WithRecordStore(records))

	snap, err := m.Start(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, snap.State)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, "alpha", snap.Question.Word)
	assert.Len(t, cache.saved, 3)

	answers := []string{"  ANSWER-alpha ", "wrong", "answer-gamma"}
	for i, answer := range answers {
		cur, err := m.Current(owner)
		require.NoError(t, err)
		assert.Equal(t, i, cur.Index)

		_, err = m.SubmitAnswer(ctx, owner, answer)
		require.NoError(t, err)

		snap, err = m.NextQuestion(owner)
		require.NoError(t, err)
	}

	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, 2, snap.CorrectCount)

	_, err = m.Current(owner)
	assert.True(t, errors.Is(err, ErrNoSession))
	_, err = m.SubmitAnswer(ctx, owner, "anything")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.Equal(t, []outcome{
		{word: "alpha", correct: true},
		{word: "beta", correct: false},
		{word: "gamma", correct: true},
	}, vocab.outcomes)

	require.Len(t, records.records, 3)
	assert.Equal(t, snap.SessionID, records.records[0].SessionID)
	assert.Equal(t, models.QuestionChoice, records.records[0].Type)
	assert.Equal(t, fixedNow.UnixMilli(), records.records[2].AnsweredAt)
}

func TestStartWithoutWords(t *testing.T) {
	m := newTestManager(&fakeVocabulary{}, &fakeGenerator{})

	_, err := m.Start(context.Background(), owner)
	assert.Equal(t, ErrNoWordsAvailable, err)

	_, err = m.Current(owner)
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestStartIsAllOrNothing(t *testing.T) {
	timeout := fmt.Errorf("%w after %s", ai.ErrTimeout, 30*time.Second)
	gen := &fakeGenerator{failures: map[string]error{"beta": timeout}}
	cache := &fakeCache{}
	m := newTestManager(&fakeVocabulary{words: words("alpha", "beta", "gamma")}, gen, WithQuestionCache(cache))

	_, err := m.Start(context.Background(), owner)
	require.Error(t, err)

	assert.Equal(t, "request timed out after 30s", err.Error())
	assert.True(t, errors.Is(err, ErrGenerationFailure))
	assert.True(t, errors.Is(err, ai.ErrTimeout))
	assert.True(t, IsGenerationFailure(err))

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "beta", genErr.Word)

	_, err = m.Current(owner)
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.Empty(t, cache.saved)
}

func TestDoubleSubmitIsRejected(t *testing.T) {
	ctx := context.Background()
	vocab := &fakeVocabulary{words: words("alpha", "beta")}
	m := newTestManager(vocab, &fakeGenerator{})

	_, err := m.Start(ctx, owner)
	require.NoError(t, err)

	result, err := m.SubmitAnswer(ctx, owner, "wrong")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, "answer-alpha", result.CorrectAnswer)
	assert.Equal(t, "alpha explained", result.Explanation)

	_, err = m.SubmitAnswer(ctx, owner, "answer-alpha")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Len(t, vocab.outcomes, 1)

	snap, err := m.Current(owner)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CorrectCount)
	assert.True(t, snap.Answered)
}

func TestPersistFailureIsReported(t *testing.T) {
	ctx := context.Background()
	vocab := &fakeVocabulary{words: words("alpha"), persistErr: errors.New("database is locked")}
	m := newTestManager(vocab, &fakeGenerator{})

	_, err := m.Start(ctx, owner)
	require.NoError(t, err)

	result, err := m.SubmitAnswer(ctx, owner, "answer-alpha")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataConsistencyRisk))
	assert.Contains(t, err.Error(), "database is locked")
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "alpha", result.Word)

	snap, err := m.NextQuestion(owner)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
}

func TestExit(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeVocabulary{words: words("alpha", "beta")}, &fakeGenerator{})

	assert.False(t, m.Exit(owner))

	_, err := m.Start(ctx, owner)
	require.NoError(t, err)
	assert.True(t, m.Exit(owner))

	_, err = m.NextQuestion(owner)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSessionsAreIsolatedPerOwner(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeVocabulary{words: words("alpha", "beta")}, &fakeGenerator{})

	_, err := m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = m.Start(ctx, 2)
	require.NoError(t, err)

	_, err = m.NextQuestion(1)
	require.NoError(t, err)

	one, err := m.Current(1)
	require.NoError(t, err)
	two, err := m.Current(2)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Index)
	assert.Equal(t, 0, two.Index)
	assert.NotEqual(t, one.SessionID, two.SessionID)
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	m := newTestManager(&fakeVocabulary{words: words("alpha", "beta")}, gen)

	before, err := m.Start(ctx, owner)
	require.NoError(t, err)

	after, err := m.Regenerate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "alpha", after.Question.Word)
	assert.NotEqual(t, before.Question.ID, after.Question.ID)
	assert.Equal(t, before.SessionID, after.SessionID)

	gen.failures = map[string]error{"alpha": errors.New("API error: rate limited")}
	_, err = m.Regenerate(ctx, owner)
	assert.True(t, errors.Is(err, ErrGenerationFailure))
	assert.Equal(t, "API error: rate limited", err.Error())

	cur, err := m.Current(owner)
	require.NoError(t, err)
	assert.Equal(t, after.Question.ID, cur.Question.ID)

	gen.failures = nil
	_, err = m.SubmitAnswer(ctx, owner, "answer-alpha")
	require.NoError(t, err)
	_, err = m.Regenerate(ctx, owner)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSubmitChoiceChecksQuestion(t *testing.T) {
	ctx := context.Background()
	vocab := &fakeVocabulary{words: words("alpha", "beta")}
	m := newTestManager(vocab, &fakeGenerator{})

	first, err := m.Start(ctx, owner)
	require.NoError(t, err)

	result, err := m.SubmitChoice(ctx, owner, first.Question.ID, 0)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)

	second, err := m.NextQuestion(owner)
	require.NoError(t, err)
	assert.Equal(t, "beta", second.Question.Word)

	// a button left over from the first question
	_, err = m.SubmitChoice(ctx, owner, first.Question.ID, 0)
	assert.True(t, errors.Is(err, ErrStaleQuestion))
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = m.SubmitChoice(ctx, owner, second.Question.ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	cur, err := m.Current(owner)
	require.NoError(t, err)
	assert.False(t, cur.Answered)
	assert.Equal(t, []outcome{{word: "alpha", correct: true}}, vocab.outcomes)

	// options of a replaced question no longer count
	regenerated, err := m.Regenerate(ctx, owner)
	require.NoError(t, err)
	_, err = m.SubmitChoice(ctx, owner, second.Question.ID, 0)
	assert.True(t, errors.Is(err, ErrStaleQuestion))

	result, err = m.SubmitChoice(ctx, owner, regenerated.Question.ID, 1)
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, "wrong", result.SelectedAnswer)
}
