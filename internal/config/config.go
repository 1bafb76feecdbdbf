// Package config loads the cubewalk configuration: YAML file first, then
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/cubewalk/internal/core/locomotion"
	"github.com/zeusync/cubewalk/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Simulation drives the fixed-step runner.
type Simulation struct {
	TickRateHz int `yaml:"tick_rate_hz" env:"CUBEWALK_TICK_RATE_HZ"`

	// MaxDuration caps scripts that do not set their own duration, seconds.
	MaxDuration float64 `yaml:"max_duration"`

	// TriggerRadius is the radius of the avatar's trigger sphere. It is kept
	// below half the avatar size so resting on a face is not a contact.
	TriggerRadius float64 `yaml:"trigger_radius"`
}

// Observer configures the websocket snapshot feed.
type Observer struct {
	Addr string `yaml:"addr" env:"CUBEWALK_OBSERVER_ADDR"`

	// Every broadcasts one snapshot per this many ticks.
	Every int `yaml:"every"`
}

type Config struct {
	Log        log.Config        `yaml:"log"`
	Simulation Simulation        `yaml:"simulation"`
	Observer   Observer          `yaml:"observer"`
	Tuning     locomotion.Tuning `yaml:"tuning"`
}

func Default() Config {
	return Config{
		Log: log.Config{Level: "info", Encoding: "console"},
		Simulation: Simulation{
			TickRateHz:    60,
			MaxDuration:   60,
			TriggerRadius: 0.18,
		},
		Observer: Observer{
			Addr:  "127.0.0.1:8765",
			Every: 1,
		},
		Tuning: locomotion.DefaultTuning(),
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %w", ErrInvalidConfig, err)
	}
	if c.Simulation.TickRateHz <= 0 || c.Simulation.TickRateHz > 1000 {
		return fmt.Errorf("%w: tick_rate_hz must be in (0,1000], got %d", ErrInvalidConfig, c.Simulation.TickRateHz)
	}
	if c.Simulation.MaxDuration <= 0 {
		return fmt.Errorf("%w: max_duration must be positive", ErrInvalidConfig)
	}
	if c.Simulation.TriggerRadius <= 0 || c.Simulation.TriggerRadius >= c.Tuning.AvatarSize/2 {
		return fmt.Errorf("%w: trigger_radius must be in (0,avatar_size/2)", ErrInvalidConfig)
	}
	if c.Observer.Every < 0 {
		return fmt.Errorf("%w: observer.every must not be negative", ErrInvalidConfig)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TickSeconds is the fixed step of the runner.
func (c Config) TickSeconds() float64 {
	return 1 / float64(c.Simulation.TickRateHz)
}

// Write encodes c as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
