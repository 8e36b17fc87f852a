// Package config provides the run configuration of the machine and builds
// the components it describes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sarchlab/akita/v4/sim"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/bfemu/core"
	"github.com/sarchlab/bfemu/program"
)

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "BFEMU_CONFIG"

// Config describes one run.
type Config struct {
	// ParseMode is "permissive" (comments allowed) or "strict".
	ParseMode string `yaml:"parse_mode" toml:"parse_mode"`
	// Optimize fuses Move/Add runs before linking.
	Optimize bool `yaml:"optimize" toml:"optimize"`
	// OutputEncoding is "utf8" or "raw".
	OutputEncoding string `yaml:"output_encoding" toml:"output_encoding"`
	// Simulate runs the core on the akita engine, one instruction per cycle.
	Simulate bool `yaml:"simulate" toml:"simulate"`
	// FreqGHz is the simulated clock.
	FreqGHz float64 `yaml:"freq_ghz" toml:"freq_ghz"`
	// TraceLog is a file receiving JSON trace records. Empty disables tracing.
	TraceLog string `yaml:"trace_log" toml:"trace_log"`
	// Monitor starts the akita web monitor. Implies Simulate.
	Monitor bool `yaml:"monitor" toml:"monitor"`
	// DumpCells prints this many cells from the start of the tape after the
	// run.
	DumpCells int `yaml:"dump_cells" toml:"dump_cells"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ParseMode:      program.Permissive.String(),
		Optimize:       true,
		OutputEncoding: core.UTF8.String(),
		FreqGHz:        1,
	}
}

// Load reads a config file, TOML when the name ends in .toml and YAML
// otherwise. Keys missing from the file keep their default values; unknown
// keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseTOML decodes TOML config data on top of Default.
func ParseTOML(data []byte) (Config, error) {
	cfg := Default()

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// FromEnv loads the file named by BFEMU_CONFIG, or returns Default when the
// variable is unset.
func FromEnv() (Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := program.ParseModeFromString(c.ParseMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := core.EncodingFromString(c.OutputEncoding); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.FreqGHz <= 0 {
		return fmt.Errorf("config: freq_ghz must be positive, got %v", c.FreqGHz)
	}
	if c.DumpCells < 0 || c.DumpCells > core.TapeSize {
		return fmt.Errorf("config: dump_cells must be in [0, %d], got %d",
			core.TapeSize, c.DumpCells)
	}
	return nil
}

// Mode returns the parse mode. The config must be valid.
func (c Config) Mode() program.ParseMode {
	mode, _ := program.ParseModeFromString(c.ParseMode)
	return mode
}

// Encoding returns the output encoding. The config must be valid.
func (c Config) Encoding() core.Encoding {
	enc, _ := core.EncodingFromString(c.OutputEncoding)
	return enc
}

// Freq returns the simulated clock frequency.
func (c Config) Freq() sim.Freq {
	return sim.Freq(c.FreqGHz) * sim.GHz
}

// Simulated reports whether the run goes through the akita engine.
func (c Config) Simulated() bool {
	return c.Simulate || c.Monitor
}

// CoreBuilder returns a core builder preset from the config.
func (c Config) CoreBuilder() core.Builder {
	return core.NewBuilder().
		WithOptimization(c.Optimize).
		WithEncoding(c.Encoding())
}
