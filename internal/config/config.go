// Package config loads tracecheck settings from a YAML file.
//
// Example file:
//
//	format_version: v1.0.0
//	normalize: true
//	strictness: strict
//	lock_order: true
//	pipeline: false
//	output:
//	  format: json
//	  color: false
//	log:
//	  level: debug
//	  format: text
//
// Missing keys keep their defaults. Unknown keys are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/tracecheck/internal/logging"
	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/race/report"
)

// FormatVersion is the trace format version this build reads.
const FormatVersion = "v1.0.0"

// ErrUnsupportedFormat is returned when format_version names a major version
// other than v1.
var ErrUnsupportedFormat = errors.New("unsupported trace format version")

// Config holds all settings. Flags given on the command line override it.
type Config struct {
	FormatVersion string `yaml:"format_version"`
	Normalize     bool   `yaml:"normalize"`
	Strictness    string `yaml:"strictness"`
	LockOrder     bool   `yaml:"lock_order"`
	Pipeline      bool   `yaml:"pipeline"`
	Output        Output `yaml:"output"`
	Log           Log    `yaml:"log"`
}

// Output configures the verdict report.
type Output struct {
	Format string `yaml:"format"`

	// Color is nil when unset; the CLI then colours only terminals.
	Color *bool `yaml:"color"`
}

// Log configures diagnostics.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FormatVersion: FormatVersion,
		Strictness:    analyzer.Warn.String(),
		Output:        Output{Format: report.FormatText.String()},
		Log:           Log{Level: string(logging.LevelWarn), Format: "text"},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if !semver.IsValid(c.FormatVersion) {
		return fmt.Errorf("format_version %q is not a semantic version", c.FormatVersion)
	}
	if semver.Major(c.FormatVersion) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w %s (this build reads %s)", ErrUnsupportedFormat, c.FormatVersion, semver.Major(FormatVersion))
	}
	if _, err := c.StrictnessLevel(); err != nil {
		return err
	}
	if _, err := c.ReportFormat(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// StrictnessLevel returns the parsed strictness.
func (c Config) StrictnessLevel() (analyzer.Strictness, error) {
	return analyzer.ParseStrictness(c.Strictness)
}

// ReportFormat returns the parsed output format.
func (c Config) ReportFormat() (report.Format, error) {
	return report.ParseFormat(c.Output.Format)
}

// LogConfig converts the log section to a logging.Config.
func (c Config) LogConfig(w io.Writer) logging.Config {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LevelWarn
	}
	return logging.Config{Level: level, Format: c.Log.Format, Output: w}
}
