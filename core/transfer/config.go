package transfer

import "time"

// Config holds configuration for transfers.
type Config struct {
	// ChunkSize is the buffer size used when streaming downloads.
	ChunkSize int `mapstructure:"chunk_size" default:"1024"`
	// RetryMaxElapsedSeconds bounds caller-side retries of unavailable-storage
	// errors. Zero disables retrying.
	RetryMaxElapsedSeconds int `mapstructure:"retry_max_elapsed_seconds" default:"0"`
	// RetryInitialMillis is the first backoff interval.
	RetryInitialMillis int `mapstructure:"retry_initial_millis" default:"200"`
}

// RetryMaxElapsed returns the retry budget as a duration.
func (c Config) RetryMaxElapsed() time.Duration {
	return time.Duration(c.RetryMaxElapsedSeconds) * time.Second
}

// RetryInitial returns the initial backoff interval, defaulting to 200ms.
func (c Config) RetryInitial() time.Duration {
	if c.RetryInitialMillis <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.RetryInitialMillis) * time.Millisecond
}
