package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. WORDMEMO_LLM_API_KEY
const EnvPrefix = "WORDMEMO"

var defaults = map[string]interface{}{
	"database.driver":             "sqlite3",
	"database.dsn":                "data/wordmemo.db",
	"llm.api_endpoint":            "https://api.openai.com/v1/chat/completions",
	"llm.api_key":                 "",
	"llm.model":                   "gpt-3.5-turbo-0125",
	"llm.temperature":             0.3,
	"llm.timeout":                 30 * time.Second,
	"practice.max_words":          5,
	"practice.question_type":      "choice",
	"practice.cache_size":         10,
	"scheduler.decay_interval":    30 * time.Minute,
	"scheduler.decay_policy":      "absolute",
	"scheduler.reminder_interval": time.Hour,
	"redis.addr":                  "",
	"redis.channel":               "wordmemo:vocabulary",
	"telegram.token":              "",
	"telegram.owner_ids":          "",
	"log.mode":                    "dev",
	"log.level":                   "info",
}

// Load reads configuration. Environment variables take precedence over the
// config file, which takes precedence over defaults. configFile may be empty.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
