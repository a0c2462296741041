package models

import (
	"fmt"
	"time"
)

// MemoryLevel is the mastery stage of a word. Levels are totally ordered
// from LevelNew to LevelArchived.
type MemoryLevel int

const (
	LevelNew MemoryLevel = iota
	LevelFamiliar
	LevelLearning
	LevelMastered
	LevelArchived
)

// LevelCount is the number of defined memory levels.
const LevelCount = int(LevelArchived) + 1

var levelNames = [LevelCount]string{
	LevelNew:      "new",
	LevelFamiliar: "familiar",
	LevelLearning: "learning",
	LevelMastered: "mastered",
	LevelArchived: "archived",
}

// Valid reports whether l is one of the defined levels.
func (l MemoryLevel) Valid() bool {
	return l >= LevelNew && l <= LevelArchived
}

// Clamp forces l into the defined range.
func (l MemoryLevel) Clamp() MemoryLevel {
	if l < LevelNew {
		return LevelNew
	}
	if l > LevelArchived {
		return LevelArchived
	}
	return l
}

func (l MemoryLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseMemoryLevel converts a stored integer into a MemoryLevel.
func ParseMemoryLevel(n int) (MemoryLevel, error) {
	l := MemoryLevel(n)
	if !l.Valid() {
		return LevelNew, fmt.Errorf("invalid memory level %d", n)
	}
	return l, nil
}

// WordMemoryState tracks how well a single word is remembered.
type WordMemoryState struct {
	Level          MemoryLevel `json:"level"`
	ReviewCount    int         `json:"review_count"`  // practice answers + explicit feedback
	CorrectCount   int         `json:"correct_count"` // positive outcomes
	LastReviewDate time.Time   `json:"last_review_date"`
	NextReviewDate time.Time   `json:"next_review_date"`
	LastSeenDate   time.Time   `json:"last_seen_date"` // maintained by page scanning
}
