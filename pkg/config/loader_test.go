package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpass/guildpass/pkg/config"
)

type serverConfig struct {
	Addr    string        `env:"TEST_SERVER_ADDR" envDefault:":9090"`
	Timeout time.Duration `env:"TEST_SERVER_TIMEOUT" envDefault:"15s"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN_MISSING,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 15*time.Second, cfg.Timeout)
	})

	t.Run("cached on second call", func(t *testing.T) {
		var first serverConfig
		require.NoError(t, config.Load(&first))

		// Changing the environment after the first load must not affect
		// the cached copy.
		t.Setenv("TEST_SERVER_ADDR", ":7070")

		var second serverConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first.Addr, second.Addr)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}
