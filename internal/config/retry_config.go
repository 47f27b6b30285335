package config

import (
	"time"
)

// RetryConfig describes how callers of the pipeline retry retryable provider
// failures.
type RetryConfig struct {
	// MaxRetries is the maximum number of additional attempts after the first call.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Multiplier      float64
}

// GetRetryConfig returns the caller retry policy for the current environment.
func (c Config) GetRetryConfig() RetryConfig {
	maxElapsed, initial, maxInterval, mult := c.GetAIBackoffConfig()
	retries := c.AIRetryMaxRetries
	if retries < 0 {
		retries = 0
	}
	return RetryConfig{
		MaxRetries:      retries,
		InitialInterval: initial,
		MaxInterval:     maxInterval,
		MaxElapsedTime:  maxElapsed,
		Multiplier:      mult,
	}
}
