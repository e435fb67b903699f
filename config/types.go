// Package config loads client defaults from layered sources: built-in
// defaults, an optional YAML file and environment variables, in
// increasing priority.
package config

import "time"

// Config carries the client defaults applied to newly created requests.
type Config struct {
	Client ClientConfig `koanf:"client"`
	Retry  RetryConfig  `koanf:"retry"`
	Log    LogConfig    `koanf:"log"`
}

// ClientConfig holds per-request transfer defaults.
type ClientConfig struct {
	UserAgent       string        `koanf:"useragent"`
	CookiePath      string        `koanf:"cookiepath"`
	FollowRedirects bool          `koanf:"followredirects"`
	Timeout         TimeoutConfig `koanf:"timeout"`
}

// TimeoutConfig bounds transfer phases.
type TimeoutConfig struct {
	// Request bounds the whole transfer.
	Request time.Duration `koanf:"request" validate:"min=0"`
	// Connect bounds connection establishment.
	Connect time.Duration `koanf:"connect" validate:"min=0"`
}

// RetryConfig tunes the backoff schedule between attempts.
type RetryConfig struct {
	// BaseDelay is the delay before the first retry; each further retry
	// doubles it.
	BaseDelay time.Duration `koanf:"basedelay" validate:"gt=0"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}
