package roomwire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()
	req.NotEmpty(cfg.URL)
	req.Equal(200, cfg.DedupeLimit)
	req.Equal(time.Second, cfg.TypingIdleTimeout)
	req.Equal(3*time.Second, cfg.TypingSafetyTimeout)
	req.NoError(cfg.validate())
}

func TestConfigFromEnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("ROOMWIRE_URL", "ws://chat.example:9000/ws")
	t.Setenv("ROOMWIRE_MAX_RECONNECT_TRIES", "3")
	t.Setenv("ROOMWIRE_TYPING_IDLE_TIMEOUT", "250ms")

	cfg, err := ConfigFromEnv()
	req.NoError(err)
	req.Equal("ws://chat.example:9000/ws", cfg.URL)
	req.Equal(3, cfg.MaxReconnectTries)
	req.Equal(250*time.Millisecond, cfg.TypingIdleTimeout)
	// Untouched knobs keep their defaults.
	req.Equal(200, cfg.DedupeLimit)
}

func TestValidateRejectsEmptyURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = ""
	require.ErrorIs(t, cfg.validate(), NewError(ErrorInvalidConfig, ""))
}
