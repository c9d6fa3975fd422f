package token

import "time"

// Config holds settings for session tokens.
type Config struct {
	// Secret signs and verifies tokens. Required.
	Secret string `mapstructure:"secret" default:""`
	// TTLMinutes is how long an issued token stays valid.
	TTLMinutes int `mapstructure:"ttl_minutes" default:"1440"`
}

// TTL returns the configured token lifetime.
func (c Config) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}
