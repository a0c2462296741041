package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/example/wordmemo/pkg/models"
	"github.com/google/uuid"
)

type choiceResponse struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type fillResponse struct {
	Question    string `json:"question"`
	BlankAnswer string `json:"blankAnswer"`
	Context     string `json:"context"`
	Explanation string `json:"explanation"`
}

const choiceSystemPrompt = "You generate multiple-choice vocabulary questions."

const choicePrompt = `Write one multiple-choice question for the word "%[1]s".

Word information:
- Definitions: %[2]s
- Examples:
%[3]s

Rules:
1. The stem asks what the word means.
2. Exactly 4 options: 1 correct meaning and 3 plausible distractors from the same field.
3. Return strict JSON.

{
  "question": "What does '%[1]s' mean?",
  "options": ["correct meaning", "distractor 1", "distractor 2", "distractor 3"],
  "correctAnswer": "correct meaning",
  "explanation": "why the answer is correct"
}`

const fillSystemPrompt = "You generate fill-in-the-blank vocabulary questions."

const fillPrompt = `Write one fill-in-the-blank question for the word "%[1]s".

Word information:
- Definitions: %[2]s
%[3]s
Rules:
1. Use ___ for the blank.
2. The blank is filled by the word itself.
3. Return strict JSON.

{
  "question": "The ___ is essential for learning.",
  "blankAnswer": "%[1]s",
  "context": "the full sentence",
  "explanation": "part of speech and meaning"
}`

// GenerateQuestion produces one practice question of the given type
func (c *Client) GenerateQuestion(ctx context.Context, w models.Word, t models.QuestionType) (models.PracticeQuestion, error) {
	switch t {
	case models.QuestionFill:
		return c.generateFill(ctx, w)
	default:
		return c.generateChoice(ctx, w)
	}
}

func (c *Client) generateChoice(ctx context.Context, w models.Word) (models.PracticeQuestion, error) {
	examples := make([]string, 0, len(w.Examples))
	for _, e := range w.Examples {
		examples = append(examples, fmt.Sprintf("%s (%s)", e.En, e.Zh))
	}

	var r choiceResponse
	prompt := fmt.Sprintf(choicePrompt, w.Word, definitionsText(w), strings.Join(examples, "\n"))
	if err := c.complete(ctx, choiceSystemPrompt, prompt, questionTemperature, &r); err != nil {
		return models.PracticeQuestion{}, err
	}
	if r.Question == "" || r.CorrectAnswer == "" || len(r.Options) < 2 {
		return models.PracticeQuestion{}, fmt.Errorf("%w: incomplete choice question", ErrInvalidResponse)
	}
	if !containsOption(r.Options, r.CorrectAnswer) {
		return models.PracticeQuestion{}, fmt.Errorf("%w: correct answer %q is not among the options", ErrInvalidResponse, r.CorrectAnswer)
	}

	options := append([]string(nil), r.Options...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return models.PracticeQuestion{
		ID:            uuid.NewString(),
		Word:          w.Word,
		Type:          models.QuestionChoice,
		Question:      r.Question,
		Options:       options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
	}, nil
}

func (c *Client) generateFill(ctx context.Context, w models.Word) (models.PracticeQuestion, error) {
	var example string
	for _, e := range w.Examples {
		if strings.Contains(strings.ToLower(e.En), strings.ToLower(w.Word)) {
			example = fmt.Sprintf("- Example to blank out: %s (%s)\n", e.En, e.Zh)
			break
		}
	}

	var r fillResponse
	prompt := fmt.Sprintf(fillPrompt, w.Word, definitionsText(w), example)
	if err := c.complete(ctx, fillSystemPrompt, prompt, questionTemperature, &r); err != nil {
		return models.PracticeQuestion{}, err
	}
	if r.Question == "" || r.BlankAnswer == "" {
		return models.PracticeQuestion{}, fmt.Errorf("%w: incomplete fill question", ErrInvalidResponse)
	}

	return models.PracticeQuestion{
		ID:            uuid.NewString(),
		Word:          w.Word,
		Type:          models.QuestionFill,
		Question:      r.Question,
		CorrectAnswer: strings.ToLower(strings.TrimSpace(r.BlankAnswer)),
		Explanation:   r.Explanation,
	}, nil
}

func containsOption(options []string, answer string) bool {
	answer = strings.TrimSpace(answer)
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), answer) {
			return true
		}
	}
	return false
}

func definitionsText(w models.Word) string {
	parts := make([]string, 0, len(w.Definitions))
	for _, d := range w.Definitions {
		parts = append(parts, strings.TrimSpace(d.Pos+" "+d.Meaning))
	}
	return strings.Join(parts, "; ")
}
