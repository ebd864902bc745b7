// Package config handles pixardis.toml machine configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents a pixardis.toml configuration file.
type Config struct {
	Display Display `toml:"display"`
	Machine Machine `toml:"machine"`
}

// Display configures the framebuffer dimensions.
type Display struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Machine configures execution.
type Machine struct {
	// CyclesPerStep is the number of instructions consumed per step
	// batch; delays burn whole batches without advancing.
	CyclesPerStep int `toml:"cycles-per-step"`

	// MaxSteps bounds execution; 0 means unlimited.
	MaxSteps int `toml:"max-steps"`

	// Seed fixes the random number generator; 0 seeds from the clock.
	Seed int64 `toml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Display: Display{Width: 64, Height: 48},
		Machine: Machine{CyclesPerStep: 1024},
	}
}

// Load parses a configuration file, filling in defaults for absent
// settings.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return c, nil
}

func (c Config) validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display dimensions must be positive, got %dx%d",
			c.Display.Width, c.Display.Height)
	}
	if c.Machine.CyclesPerStep <= 0 {
		return fmt.Errorf("cycles-per-step must be positive, got %d", c.Machine.CyclesPerStep)
	}
	if c.Machine.MaxSteps < 0 {
		return fmt.Errorf("max-steps cannot be negative, got %d", c.Machine.MaxSteps)
	}

	return nil
}
