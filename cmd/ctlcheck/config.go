package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rfielding/kripke-smv/kripke"
)

// Config holds the settings that can come from a file or the environment
// (KRIPKE_MAX_STATES, KRIPKE_WORKERS, KRIPKE_COLOR). Flags override both.
type Config struct {
	MaxStates int    `mapstructure:"max_states"`
	Workers   int    `mapstructure:"workers"`
	Color     string `mapstructure:"color"`
}

func loadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("max_states", kripke.DefaultMaxStates)
	v.SetDefault("workers", 1)
	v.SetDefault("color", "auto")
	v.SetEnvPrefix("KRIPKE")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	c.Color = strings.ToLower(c.Color)
	switch c.Color {
	case "auto", "always", "never":
	default:
		return Config{}, fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	if c.MaxStates <= 0 {
		return Config{}, fmt.Errorf("max_states must be positive, got %d", c.MaxStates)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c, nil
}

func (c Config) options() kripke.Options {
	return kripke.Options{MaxStates: c.MaxStates, Workers: c.Workers}
}
