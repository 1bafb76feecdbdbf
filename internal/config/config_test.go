package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cubewalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0/60, cfg.TickSeconds(), 1e-12)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
simulation:
  tick_rate_hz: 120
tuning:
  jump_height: 2.5
  camera:
    tilt_speed_deg: 45
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, 120, cfg.Simulation.TickRateHz)
	assert.InDelta(t, 2.5, cfg.Tuning.JumpHeight, 1e-12)
	assert.InDelta(t, 0.5, cfg.Tuning.MovementDuration, 1e-12)
	assert.InDelta(t, 45, cfg.Tuning.Camera.TiltSpeedDeg, 1e-12)
	assert.InDelta(t, 30, cfg.Tuning.Camera.TiltUpDeg, 1e-12)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "simulation:\n  tick_rate_hz: 120\n")
	t.Setenv("CUBEWALK_TICK_RATE_HZ", "30")
	t.Setenv("CUBEWALK_LOG_LEVEL", "warn")
	t.Setenv("CUBEWALK_OBSERVER_ADDR", "127.0.0.1:9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Simulation.TickRateHz)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9999", cfg.Observer.Addr)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "simulation:\n  tick_hz: 120\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"tick rate":      func(c *Config) { c.Simulation.TickRateHz = 0 },
		"max duration":   func(c *Config) { c.Simulation.MaxDuration = 0 },
		"trigger radius": func(c *Config) { c.Simulation.TriggerRadius = 1 },
		"resting radius": func(c *Config) { c.Simulation.TriggerRadius = c.Tuning.AvatarSize / 2 },
		"observer every": func(c *Config) { c.Observer.Every = -1 },
		"log level":      func(c *Config) { c.Log.Level = "loud" },
		"tuning":         func(c *Config) { c.Tuning.JumpDuration = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestTriggerRadiusBelowHalfAvatar(t *testing.T) {
	cfg := Default()
	cfg.Simulation.TriggerRadius = 0.19
	require.NoError(t, cfg.Validate())

	cfg.Simulation.TriggerRadius = 0.25
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestWriteRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))

	var cfg Config
	require.NoError(t, decode(&buf, &cfg))
	assert.Equal(t, Default(), cfg)
}
