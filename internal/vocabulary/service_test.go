package vocabulary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/wordmemo/internal/database"
	"github.com/example/wordmemo/internal/events"
	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

type published struct {
	reason string
	words  []string
}

type recorder struct {
	events []published
}

func (r *recorder) Publish(_ context.Context, reason string, words ...string) {
	r.events = append(r.events, published{reason: reason, words: words})
}

type fakeExplainer struct {
	explanation models.Explanation
	err         error
	calls       int
}

func (f *fakeExplainer) GenerateExplanation(_ context.Context, word string) (models.Explanation, error) {
	f.calls++
	if f.err != nil {
		return models.Explanation{}, f.err
	}
	e := f.explanation
	e.Word = word
	return e, nil
}

func newTestStore(t *testing.T) *database.WordRepository {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewWordRepository(db)
}

func newTestService(t *testing.T, store Store, opts ...Option) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(store, rec, logger.NewNop(), opts...), rec
}

func putWord(t *testing.T, store Store, key string, state models.WordMemoryState) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), models.Word{
		Word:        key,
		MemoryState: state,
		AddedDate:   fixedNow.Add(-30 * 24 * time.Hour),
		UpdatedDate: fixedNow.Add(-24 * time.Hour),
	}))
}

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "ephemeral", NormalizeWord("  Ephemeral! "))
	assert.Equal(t, "well-known", NormalizeWord("Well-Known"))
	assert.Equal(t, "", NormalizeWord("1234"))
}

func TestAddWord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	explainer := &fakeExplainer{explanation: models.Explanation{
		Phonetic:    "/ˈkæʃ/",
		Definitions: []models.Definition{{Pos: "n.", Meaning: "缓存"}},
		Examples:    []models.Example{{En: "Clear the cache.", Zh: "清除缓存。"}},
	}}
	svc, rec := newTestService(t, store, WithExplainer(explainer))

	w, err := svc.AddWord(ctx, " Cache ", "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "cache", w.Word)
	assert.Equal(t, models.LevelNew, w.MemoryState.Level)
	assert.Equal(t, 0, w.MemoryState.ReviewCount)
	assert.Equal(t, fixedNow.Add(24*time.Hour), w.MemoryState.NextReviewDate)
	assert.Equal(t, "/ˈkæʃ/", w.Phonetic)

	stored, err := store.Get(ctx, "cache")
	require.NoError(t, err)
	assert.Equal(t, explainer.explanation.Definitions, stored.Definitions)
	assert.Equal(t, "https://example.com", stored.Source)

	require.Len(t, rec.events, 1)
	assert.Equal(t, published{reason: events.ReasonAdded, words: []string{"cache"}}, rec.events[0])

	_, err = svc.AddWord(ctx, "CACHE", "")
	assert.True(t, errors.Is(err, ErrWordExists))
	assert.Equal(t, 1, explainer.calls)

	_, err = svc.AddWord(ctx, "42!", "")
	assert.True(t, errors.Is(err, ErrInvalidWord))
}

func TestAddWordExplainerFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	llmErr := errors.New("API error: invalid api key")
	svc, rec := newTestService(t, store, WithExplainer(&fakeExplainer{err: llmErr}))

	_, err := svc.AddWord(ctx, "latency", "")
	assert.Equal(t, llmErr, err)
	assert.Empty(t, rec.events)

	exists, err := store.Exists(ctx, "latency")
	require.NoError(t, err)
	assert.False(t, exists)

	// the pending marker is cleared after a failure
	svc.explainer = nil
	_, err = svc.AddWord(ctx, "latency", "")
	assert.NoError(t, err)
}

func TestAddWordPending(t *testing.T) {
	svc, _ := newTestService(t, newTestStore(t))
	require.True(t, svc.markPending("async"))

	_, err := svc.AddWord(context.Background(), "async", "")
	assert.True(t, errors.Is(err, ErrWordPending))
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, rec := newTestService(t, store)
	putWord(t, store, "mutex", models.WordMemoryState{Level: models.LevelFamiliar, NextReviewDate: fixedNow.Add(time.Hour)})

	w, err := svc.MarkRemembered(ctx, "Mutex")
	require.NoError(t, err)
	assert.Equal(t, models.LevelLearning, w.MemoryState.Level)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), w.MemoryState.NextReviewDate)
	assert.Equal(t, fixedNow, w.UpdatedDate)

	w, err = svc.MarkNotRemembered(ctx, "mutex")
	require.NoError(t, err)
	assert.Equal(t, models.LevelLearning, w.MemoryState.Level)
	assert.Equal(t, 2, w.MemoryState.ReviewCount)
	assert.Equal(t, 1, w.MemoryState.CorrectCount)
	assert.Equal(t, fixedNow.Add(3*24*time.Hour), w.MemoryState.NextReviewDate)

	require.Len(t, rec.events, 2)
	assert.Equal(t, events.ReasonRemembered, rec.events[0].reason)
	assert.Equal(t, events.ReasonNotRemembered, rec.events[1].reason)

	_, err = svc.MarkRemembered(ctx, "ghost")
	assert.True(t, errors.Is(err, database.ErrWordNotFound))
	assert.Len(t, rec.events, 2)
}

func TestRecordPracticeOutcome(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, rec := newTestService(t, store)
	putWord(t, store, "overdue", models.WordMemoryState{Level: models.LevelNew, NextReviewDate: fixedNow.Add(-time.Minute)})
	putWord(t, store, "early", models.WordMemoryState{Level: models.LevelNew, NextReviewDate: fixedNow.Add(time.Hour)})

	w, err := svc.RecordPracticeOutcome(ctx, "overdue", true)
	require.NoError(t, err)
	assert.Equal(t, models.LevelFamiliar, w.MemoryState.Level)
	assert.Equal(t, fixedNow.Add(3*24*time.Hour), w.MemoryState.NextReviewDate)

	w, err = svc.RecordPracticeOutcome(ctx, "early", true)
	require.NoError(t, err)
	assert.Equal(t, models.LevelNew, w.MemoryState.Level)
	assert.Equal(t, fixedNow.Add(24*time.Hour), w.MemoryState.NextReviewDate)

	w, err = svc.RecordPracticeOutcome(ctx, "early", false)
	require.NoError(t, err)
	assert.Equal(t, models.LevelNew, w.MemoryState.Level)
	assert.Equal(t, fixedNow.Add(12*time.Hour), w.MemoryState.NextReviewDate)
	assert.Equal(t, 2, w.MemoryState.ReviewCount)

	assert.Len(t, rec.events, 3)
}

func TestMarkSeen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, rec := newTestService(t, store)
	putWord(t, store, "queue", models.WordMemoryState{Level: models.LevelLearning, NextReviewDate: fixedNow.Add(time.Hour)})

	seen, err := svc.MarkSeen(ctx, "queue", "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"queue"}, seen)

	w, err := store.Get(ctx, "queue")
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(w.MemoryState.LastSeenDate))
	assert.Equal(t, models.LevelLearning, w.MemoryState.Level)
	assert.Empty(t, rec.events)
}

func TestSelectForPracticeAndReviewQueue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, _ := newTestService(t, store, WithPracticeLimit(2))

	putWord(t, store, "archived", models.WordMemoryState{Level: models.LevelArchived, NextReviewDate: fixedNow.Add(-time.Hour), ReviewCount: 8})
	putWord(t, store, "due", models.WordMemoryState{Level: models.LevelLearning, NextReviewDate: fixedNow.Add(-time.Hour), ReviewCount: 2})
	putWord(t, store, "soon", models.WordMemoryState{Level: models.LevelLearning, NextReviewDate: fixedNow.Add(time.Hour), ReviewCount: 2})
	putWord(t, store, "later", models.WordMemoryState{Level: models.LevelLearning, NextReviewDate: fixedNow.Add(72 * time.Hour), ReviewCount: 2})

	selected, err := svc.SelectForPractice(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "due", selected[0].Word)
	assert.Equal(t, "soon", selected[1].Word)

	queue, err := svc.ReviewQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "archived", queue[0].Word)
	assert.Equal(t, "due", queue[1].Word)
}

func TestDeleteWord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc, rec := newTestService(t, store)
	putWord(t, store, "temp", models.WordMemoryState{NextReviewDate: fixedNow})

	require.NoError(t, svc.DeleteWord(ctx, "temp"))
	_, err := svc.Get(ctx, "temp")
	assert.True(t, errors.Is(err, database.ErrWordNotFound))
	require.Len(t, rec.events, 1)
	assert.Equal(t, events.ReasonDeleted, rec.events[0].reason)
}
