package bot

// Config represents the configuration for the bot
type Config struct {
	Token string
	// Owners may use the bot. Empty means anyone.
	Owners []int64
	// Long polling timeout in seconds
	UpdateTimeout int
	// Maximum number of due words listed by /due
	MaxDueShown int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		UpdateTimeout: 60,
		MaxDueShown:   10,
	}
}
