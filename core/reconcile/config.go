package reconcile

import "time"

// Config holds the retry and notice settings of the reconciler.
type Config struct {
	// IdentifierMaxAttempts bounds polling for the provider-assigned id.
	IdentifierMaxAttempts int `mapstructure:"identifier_max_attempts" default:"5"`
	// IdentifierBaseDelay is the wait before the second poll.
	IdentifierBaseDelay time.Duration `mapstructure:"identifier_base_delay" default:"500ms"`
	// IdentifierBackoffFactor multiplies the wait after every poll.
	IdentifierBackoffFactor float64 `mapstructure:"identifier_backoff_factor" default:"2"`
	// WriteMaxAttempts bounds retries of the tag update.
	WriteMaxAttempts int `mapstructure:"write_max_attempts" default:"3"`
	// WriteBaseDelay is the wait before the second tag update attempt.
	WriteBaseDelay time.Duration `mapstructure:"write_base_delay" default:"1s"`
	// WriteBackoffFactor multiplies the wait after every tag update attempt.
	WriteBackoffFactor float64 `mapstructure:"write_backoff_factor" default:"2"`
	// NoticeDuration is how long confirmation notices stay visible.
	NoticeDuration time.Duration `mapstructure:"notice_duration" default:"5s"`
}

// IdentifierPolicy returns the retry policy for identifier polling.
func (c Config) IdentifierPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   c.IdentifierMaxAttempts,
		BaseDelay:     c.IdentifierBaseDelay,
		BackoffFactor: c.IdentifierBackoffFactor,
	}
}

// WritePolicy returns the retry policy for tag updates.
func (c Config) WritePolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   c.WriteMaxAttempts,
		BaseDelay:     c.WriteBaseDelay,
		BackoffFactor: c.WriteBackoffFactor,
	}
}
