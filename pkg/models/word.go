package models

import "time"

// Definition is one part-of-speech meaning of a word
type Definition struct {
	Pos     string `json:"pos" yaml:"pos"`
	Meaning string `json:"meaning" yaml:"meaning"`
}

// Example is a usage sentence with its translation
type Example struct {
	En string `json:"en" yaml:"en"`
	Zh string `json:"zh" yaml:"zh"`
}

// Word represents a captured vocabulary entry. It owns exactly one memory state.
type Word struct {
	Word        string          `json:"word"` // lowercase key
	Phonetic    string          `json:"phonetic"`
	Definitions []Definition    `json:"definitions"`
	Examples    []Example       `json:"examples"`
	Etymology   string          `json:"etymology"`
	Remarks     string          `json:"remarks"`
	MemoryState WordMemoryState `json:"memory_state"`
	AddedDate   time.Time       `json:"added_date"`
	UpdatedDate time.Time       `json:"updated_date"`
	Source      string          `json:"source,omitempty"` // page URL the word was captured from
}
