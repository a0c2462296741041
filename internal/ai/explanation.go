package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/wordmemo/pkg/models"
)

const explanationSystemPrompt = "You are a vocabulary assistant for developers reading technical documentation. Produce structured explanations of English words."

const explanationPrompt = `Explain the word "%s" and return a JSON object:

{
  "word": "the word in lower case",
  "phonetic": "British IPA, for example /ɪˈfem.ər.əl/",
  "definitions": [{"pos": "n./v./adj./adv.", "meaning": "short Chinese meaning"}],
  "examples": [{"en": "English sentence, technical context preferred", "zh": "Chinese translation"}],
  "etymology": "roots and affixes, or an empty string"
}

Rules:
1. At most 3 definitions covering the common parts of speech.
2. 2-3 examples, preferably about programming.
3. Keep meanings short.`

// GenerateExplanation asks the model for phonetic, definitions, examples and
// etymology of a word.
func (c *Client) GenerateExplanation(ctx context.Context, word string) (models.Explanation, error) {
	var e models.Explanation
	if err := c.complete(ctx, explanationSystemPrompt, fmt.Sprintf(explanationPrompt, word), c.temperature, &e); err != nil {
		return models.Explanation{}, err
	}

	if e.Phonetic == "" || len(e.Definitions) == 0 || len(e.Examples) == 0 {
		return models.Explanation{}, fmt.Errorf("%w: missing required fields", ErrInvalidResponse)
	}
	if len(e.Definitions) > 3 {
		e.Definitions = e.Definitions[:3]
	}
	e.Word = strings.ToLower(word)
	return e, nil
}

// Disabled stands in for a client when no API key is configured. Every call
// fails with ErrMissingAPIKey.
type Disabled struct{}

func (Disabled) GenerateExplanation(context.Context, string) (models.Explanation, error) {
	return models.Explanation{}, ErrMissingAPIKey
}

func (Disabled) GenerateQuestion(context.Context, models.Word, models.QuestionType) (models.PracticeQuestion, error) {
	return models.PracticeQuestion{}, ErrMissingAPIKey
}
