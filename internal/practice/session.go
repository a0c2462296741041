package practice

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/wordmemo/pkg/models"
)

// State is the lifecycle state of a practice session
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AnswerResult is shown to the learner after a submission
type AnswerResult struct {
	Word           string
	IsCorrect      bool
	SelectedAnswer string
	CorrectAnswer  string
	Explanation    string
}

// Session walks through a fixed list of questions one at a time
type Session struct {
	ID           string
	Questions    []models.PracticeQuestion
	CurrentIndex int
	CorrectCount int
	StartedAt    time.Time

	state  State
	result *AnswerResult
}

// NewSession creates a session that has not started yet
func NewSession(id string, questions []models.PracticeQuestion, now time.Time) *Session {
	return &Session{
		ID:        id,
		Questions: questions,
		StartedAt: now,
	}
}

// State returns the lifecycle state
func (s *Session) State() State {
	return s.state
}

// Begin moves a session with at least one question into progress
func (s *Session) Begin() error {
	if s.state != StateNotStarted {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.state)
	}
	if len(s.Questions) == 0 {
		return ErrNoWordsAvailable
	}
	s.state = StateInProgress
	s.CurrentIndex = 0
	return nil
}

// Current returns the question being asked
func (s *Session) Current() (models.PracticeQuestion, error) {
	if s.state != StateInProgress {
		return models.PracticeQuestion{}, fmt.Errorf("%w: no current question in %s", ErrInvalidTransition, s.state)
	}
	return s.Questions[s.CurrentIndex], nil
}

// Answered reports whether the current question already has a result
func (s *Session) Answered() bool {
	return s.result != nil
}

// Result returns the result for the current question, if any
func (s *Session) Result() (AnswerResult, bool) {
	if s.result == nil {
		return AnswerResult{}, false
	}
	return *s.result, true
}

// Submit checks an answer. A question accepts only one submission.
func (s *Session) Submit(answer string) (AnswerResult, error) {
	q, err := s.Current()
	if err != nil {
		return AnswerResult{}, err
	}
	if s.result != nil {
		return AnswerResult{}, fmt.Errorf("%w: question %d already answered", ErrInvalidTransition, s.CurrentIndex+1)
	}

	result := AnswerResult{
		Word:           q.Word,
		IsCorrect:      CheckAnswer(answer, q.CorrectAnswer),
		SelectedAnswer: answer,
		CorrectAnswer:  q.CorrectAnswer,
		Explanation:    q.Explanation,
	}
	if result.IsCorrect {
		s.CorrectCount++
	}
	s.result = &result
	return result, nil
}

// Next advances to the following question, completing the session after the last one
func (s *Session) Next() (State, error) {
	if s.state != StateInProgress {
		return s.state, fmt.Errorf("%w: next from %s", ErrInvalidTransition, s.state)
	}
	s.result = nil
	if s.CurrentIndex >= len(s.Questions)-1 {
		s.CurrentIndex = len(s.Questions)
		s.state = StateCompleted
		return s.state, nil
	}
	s.CurrentIndex++
	return s.state, nil
}

// Replace swaps the current unanswered question
func (s *Session) Replace(q models.PracticeQuestion) error {
	if _, err := s.Current(); err != nil {
		return err
	}
	if s.result != nil {
		return fmt.Errorf("%w: question %d already answered", ErrInvalidTransition, s.CurrentIndex+1)
	}
	s.Questions[s.CurrentIndex] = q
	return nil
}

// Abort ends the session from any state
func (s *Session) Abort() {
	s.state = StateAborted
	s.result = nil
}

// CheckAnswer compares ignoring case and surrounding whitespace
func CheckAnswer(selected, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(correct))
}
