package roomwire

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config controls how the SDK connects and how the session behaves.
type Config struct {
	// URL is the websocket endpoint of the chat server.
	URL string `envconfig:"URL"`

	// DialTimeout bounds a single connection attempt. A timed-out attempt
	// is abandoned and retried per the backoff schedule.
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"`

	// ReconnectInterval is the initial delay between reconnect attempts.
	// The delay doubles per failed attempt up to MaxReconnectDelay.
	ReconnectInterval time.Duration `envconfig:"RECONNECT_INTERVAL"`
	MaxReconnectDelay time.Duration `envconfig:"MAX_RECONNECT_DELAY"`

	// MaxReconnectTries bounds consecutive failed attempts. Exhaustion is a
	// terminal disconnected state until Connect is called again. Zero means
	// retry forever.
	MaxReconnectTries int `envconfig:"MAX_RECONNECT_TRIES"`

	// TypingIdleTimeout is the quiet period after which a typing burst ends.
	TypingIdleTimeout time.Duration `envconfig:"TYPING_IDLE_TIMEOUT"`

	// TypingSafetyTimeout force-stops a typing burst measured from its
	// start, independent of the idle timer.
	TypingSafetyTimeout time.Duration `envconfig:"TYPING_SAFETY_TIMEOUT"`

	// DedupeLimit is the number of message ids remembered for duplicate
	// suppression.
	DedupeLimit int `envconfig:"DEDUPE_LIMIT"`
}

// DefaultConfig returns sensible defaults. Set a timeout to 0 to disable it.
func DefaultConfig() Config {
	return Config{
		URL:                 "ws://localhost:3000/ws",
		DialTimeout:         10 * time.Second,
		ReadTimeout:         0, // servers handle idle detection with ping/pong
		WriteTimeout:        10 * time.Second,
		ReconnectInterval:   time.Second,
		MaxReconnectDelay:   30 * time.Second,
		MaxReconnectTries:   10,
		TypingIdleTimeout:   time.Second,
		TypingSafetyTimeout: 3 * time.Second,
		DedupeLimit:         200,
	}
}

// ConfigFromEnv builds a Config from ROOMWIRE_* environment variables on top
// of the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("roomwire", &cfg); err != nil {
		return Config{}, WrapError(ErrorInvalidConfig, "failed to read environment", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	return nil
}
