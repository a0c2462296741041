package models

import "time"

// LLMSettings configures the language-model collaborator
type LLMSettings struct {
	APIEndpoint string        `json:"api_endpoint"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// DisplaySettings are presentation flags used by front-ends
type DisplaySettings struct {
	EnableHighlight       bool `json:"enable_highlight"`
	IgnoreCodeBlocks      bool `json:"ignore_code_blocks"`
	ShowReviewReminder    bool `json:"show_review_reminder"`
	AutoPlayPronunciation bool `json:"auto_play_pronunciation"`
}

// Settings is the persisted user settings record
type Settings struct {
	LLM     LLMSettings     `json:"llm"`
	Display DisplaySettings `json:"display"`
}

// DefaultSettings returns the settings used when nothing is stored yet
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			APIEndpoint: "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-3.5-turbo-0125",
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Display: DisplaySettings{
			EnableHighlight:    true,
			IgnoreCodeBlocks:   true,
			ShowReviewReminder: true,
		},
	}
}
