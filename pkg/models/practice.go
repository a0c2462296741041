package models

import "time"

// QuestionType is the kind of practice question
type QuestionType string

const (
	QuestionChoice QuestionType = "choice"
	QuestionFill   QuestionType = "fill"
)

// PracticeQuestion is a generated question about one word. Immutable once generated.
type PracticeQuestion struct {
	ID            string       `json:"id"`
	Word          string       `json:"word"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"` // choice only
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

// PracticeRecord is one answered question, kept for statistics
type PracticeRecord struct {
	ID         int64        `json:"id" db:"id"`
	SessionID  string       `json:"session_id" db:"session_id"`
	Word       string       `json:"word" db:"word"`
	Type       QuestionType `json:"type" db:"question_type"`
	IsCorrect  bool         `json:"is_correct" db:"is_correct"`
	AnsweredAt int64        `json:"answered_at" db:"answered_at"` // unix millis
}

// PracticeStats summarizes practice records
type PracticeStats struct {
	Sessions       int `json:"sessions" db:"sessions"`
	Answered       int `json:"answered" db:"answered"`
	Correct        int `json:"correct" db:"correct"`
	WordsPracticed int `json:"words_practiced" db:"words_practiced"`
}

// AnsweredTime converts AnsweredAt to a time.Time
func (r PracticeRecord) AnsweredTime() time.Time {
	return time.UnixMilli(r.AnsweredAt)
}
