package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/wordmemo/internal/config"
	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completion wraps content the way the chat completions API does
func completion(t *testing.T, content any) []byte {
	t.Helper()
	inner, err := json.Marshal(content)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": string(inner)}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.LLMConfig{
		APIEndpoint: srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-3.5-turbo-0125",
		Temperature: 0.3,
		Timeout:     timeout,
	}, logger.NewNop())
	require.NoError(t, err)
	return c
}

var cacheWord = models.Word{
	Word:        "cache",
	Definitions: []models.Definition{{Pos: "n.", Meaning: "缓存"}},
	Examples:    []models.Example{{En: "Clear the cache before deploying.", Zh: "部署前清除缓存。"}},
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.LLMConfig{APIEndpoint: "http://localhost", Model: "m"}, nil)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestGenerateExplanation(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(completion(t, map[string]any{
			"word":     "Ephemeral",
			"phonetic": "/ɪˈfem.ər.əl/",
			"definitions": []map[string]string{
				{"pos": "adj.", "meaning": "短暂的"},
			},
			"examples": []map[string]string{
				{"en": "Containers are ephemeral.", "zh": "容器是短暂的。"},
			},
			"etymology": "",
		}))
	}, time.Second)

	e, err := c.GenerateExplanation(context.Background(), "ephemeral")
	require.NoError(t, err)

	assert.Equal(t, "ephemeral", e.Word)
	assert.Equal(t, "/ɪˈfem.ər.əl/", e.Phonetic)
	assert.Equal(t, []models.Definition{{Pos: "adj.", Meaning: "短暂的"}}, e.Definitions)
	assert.Len(t, e.Examples, 1)

	assert.Equal(t, "gpt-3.5-turbo-0125", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Contains(t, got.Messages[1].Content, `"ephemeral"`)
}

func TestGenerateExplanationMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completion(t, map[string]any{"word": "x", "phonetic": "/x/"}))
	}, time.Second)

	_, err := c.GenerateExplanation(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestAPIErrorMessageIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}, time.Second)

	_, err := c.GenerateQuestion(context.Background(), cacheWord, models.QuestionChoice)
	require.Error(t, err)
	assert.Equal(t, "API error: Incorrect API key provided", err.Error())
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := c.GenerateQuestion(context.Background(), cacheWord, models.QuestionChoice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "request timed out after 50ms", err.Error())
}

func TestGenerateChoiceQuestion(t *testing.T) {
	options := []string{"缓存", "队列", "索引", "日志"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completion(t, map[string]any{
			"question":      "What does 'cache' mean?",
			"options":       options,
			"correctAnswer": "缓存",
			"explanation":   "cache 表示缓存",
		}))
	}, time.Second)

	q, err := c.GenerateQuestion(context.Background(), cacheWord, models.QuestionChoice)
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "cache", q.Word)
	assert.Equal(t, models.QuestionChoice, q.Type)
	assert.Equal(t, "缓存", q.CorrectAnswer)
	assert.ElementsMatch(t, options, q.Options)
}

func TestChoiceAnswerMustBeAnOption(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completion(t, map[string]any{
			"question":      "What does 'cache' mean?",
			"options":       []string{"队列", "索引", "日志", "线程"},
			"correctAnswer": "缓存",
		}))
	}, time.Second)

	_, err := c.GenerateQuestion(context.Background(), cacheWord, models.QuestionChoice)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
	assert.Contains(t, err.Error(), "not among the options")
}

func TestGenerateFillQuestion(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(completion(t, map[string]any{
			"question":    "Clear the ___ before deploying.",
			"blankAnswer": " Cache ",
			"context":     "Clear the cache before deploying.",
			"explanation": "n. 缓存",
		}))
	}, time.Second)

	q, err := c.GenerateQuestion(context.Background(), cacheWord, models.QuestionFill)
	require.NoError(t, err)

	assert.Equal(t, models.QuestionFill, q.Type)
	assert.Equal(t, "cache", q.CorrectAnswer)
	assert.Empty(t, q.Options)
	assert.Contains(t, got.Messages[1].Content, "Clear the cache before deploying.")
}

func TestDisabledClient(t *testing.T) {
	var d Disabled
	_, err := d.GenerateExplanation(context.Background(), "cache")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = d.GenerateQuestion(context.Background(), models.Word{Word: "cache"}, models.QuestionChoice)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
