package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rfielding/kripke-smv/kripke"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxStates != kripke.DefaultMaxStates {
		t.Errorf("Expected max states %d, got %d", kripke.DefaultMaxStates, c.MaxStates)
	}
	if c.Workers != 1 {
		t.Errorf("Expected 1 worker, got %d", c.Workers)
	}
	if c.Color != "auto" {
		t.Errorf("Expected color auto, got %q", c.Color)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("KRIPKE_MAX_STATES", "500")
	t.Setenv("KRIPKE_WORKERS", "4")
	t.Setenv("KRIPKE_COLOR", "Never")
	c, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	want := kripke.Options{MaxStates: 500, Workers: 4}
	if got := c.options(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if c.Color != "never" {
		t.Errorf("Expected color never, got %q", c.Color)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctlcheck.yaml")
	if err := os.WriteFile(path, []byte("max_states: 1000\nworkers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxStates != 1000 || c.Workers != 2 {
		t.Errorf("Expected 1000 states and 2 workers, got %+v", c)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Run("color", func(t *testing.T) {
		t.Setenv("KRIPKE_COLOR", "sometimes")
		if _, err := loadConfig(""); err == nil {
			t.Error("Expected an error for an unknown color mode")
		}
	})
	t.Run("max states", func(t *testing.T) {
		t.Setenv("KRIPKE_MAX_STATES", "0")
		if _, err := loadConfig(""); err == nil {
			t.Error("Expected an error for a zero state limit")
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("Expected an error for a missing config file")
		}
	})
}
