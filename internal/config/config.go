// Package config loads application settings from .env, an optional config
// file and WORDMEMO_* environment variables.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Practice  PracticeConfig  `mapstructure:"practice" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite3 postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// LLMConfig configures the OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIEndpoint string        `mapstructure:"api_endpoint" validate:"required,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
}

type PracticeConfig struct {
	MaxWords     int    `mapstructure:"max_words" validate:"gte=1,lte=5"`
	QuestionType string `mapstructure:"question_type" validate:"oneof=choice fill"`
	CacheSize    int    `mapstructure:"cache_size" validate:"gte=1"`
}

type SchedulerConfig struct {
	DecayInterval    time.Duration `mapstructure:"decay_interval" validate:"required,gt=0"`
	DecayPolicy      string        `mapstructure:"decay_policy" validate:"oneof=absolute elapsed_ratio"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval" validate:"required,gt=0"`
}

// RedisConfig is optional; an empty Addr disables the Redis publisher.
type RedisConfig struct {
	Addr    string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Channel string `mapstructure:"channel"`
}

// TelegramConfig is optional; an empty Token disables the bot.
type TelegramConfig struct {
	Token    string `mapstructure:"token"`
	OwnerIDs string `mapstructure:"owner_ids"` // comma separated chat IDs
}

type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"oneof=dev prod"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Owners parses the configured owner chat IDs
func (t TelegramConfig) Owners() ([]int64, error) {
	var ids []int64
	for _, raw := range strings.Split(t.OwnerIDs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid owner id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
