package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolkov/tracecheck/internal/logging"
	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/race/report"
)

// TestDefault tests that the defaults are valid.
func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if s, _ := cfg.StrictnessLevel(); s != analyzer.Warn {
		t.Errorf("default strictness = %v, want warn", s)
	}
	if f, _ := cfg.ReportFormat(); f != report.FormatText {
		t.Errorf("default format = %v, want text", f)
	}
	if cfg.Output.Color != nil {
		t.Errorf("default colour = %v, want unset", *cfg.Output.Color)
	}
}

// TestParse tests decoding over the defaults.
func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
format_version: v1.2.0
normalize: true
strictness: strict
lock_order: true
output:
  format: json
  color: false
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Normalize || !cfg.LockOrder || cfg.Pipeline {
		t.Errorf("flags = %+v", cfg)
	}
	if s, _ := cfg.StrictnessLevel(); s != analyzer.Strict {
		t.Errorf("strictness = %v, want strict", s)
	}
	if f, _ := cfg.ReportFormat(); f != report.FormatJSON {
		t.Errorf("format = %v, want json", f)
	}
	if cfg.Output.Color == nil || *cfg.Output.Color {
		t.Errorf("colour = %v, want false", cfg.Output.Color)
	}
	lc := cfg.LogConfig(nil)
	if lc.Level != logging.LevelDebug || lc.Format != "json" {
		t.Errorf("LogConfig() = %+v", lc)
	}
}

// TestParse_Partial tests that missing keys keep their defaults.
func TestParse_Partial(t *testing.T) {
	for _, input := range []string{"", "pipeline: true\n"} {
		cfg, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if cfg.FormatVersion != FormatVersion || cfg.Strictness != "warn" || cfg.Output.Format != "text" {
			t.Errorf("Parse(%q) = %+v", input, cfg)
		}
	}
}

// TestParse_Errors tests validation failures.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"unknown key", "colour: true\n", "colour"},
		{"bad yaml", "strictness: [\n", ""},
		{"not semver", "format_version: \"1.0\"\n", "not a semantic version"},
		{"bad strictness", "strictness: paranoid\n", "unknown strictness"},
		{"bad output format", "output:\n  format: xml\n", "unknown output format"},
		{"bad log level", "log:\n  level: loud\n", "unknown log level"},
		{"bad log format", "log:\n  format: logfmt\n", "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded", tt.input)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// TestParse_UnsupportedFormat tests the major version check.
func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("format_version: v2.0.0\n"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

// TestLoad tests reading from disk.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracecheck.yaml")
	if err := os.WriteFile(path, []byte("strictness: lenient\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s, err := cfg.StrictnessLevel(); err != nil || s != analyzer.Lenient {
		t.Errorf("StrictnessLevel() = %v, %v, want lenient", s, err)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}
	if !strings.HasPrefix(err.Error(), "config: ") {
		t.Errorf("error %q lacks config prefix", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("format_version: v3.1.0\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(bad) error = %v, want ErrUnsupportedFormat", err)
	}
}
