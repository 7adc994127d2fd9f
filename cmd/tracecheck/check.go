// check.go implements the 'tracecheck check' command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kolkov/tracecheck/internal/config"
	"github.com/kolkov/tracecheck/internal/logging"
	"github.com/kolkov/tracecheck/internal/race/report"
	"github.com/kolkov/tracecheck/internal/trace/parser"
	"github.com/kolkov/tracecheck/internal/trace/token"
	"github.com/kolkov/tracecheck/race"
)

// checkFlags holds the parsed command line of 'tracecheck check'.
type checkFlags struct {
	configFile string
	normalize  bool
	strictness string
	lockOrder  bool
	pipeline   bool
	format     string
	noColor    bool
	hideNotes  bool
	logLevel   string
	logFormat  string
	profile    string
	profileDir string

	// set records which flags appeared on the command line.
	set  map[string]bool
	path string
}

func parseCheckArgs(args []string, stderr io.Writer) (*checkFlags, error) {
	f := &checkFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configFile, "config", "", "YAML config `file`")
	fs.BoolVar(&f.normalize, "normalize", false, "accept variant spellings of the trace format")
	fs.StringVar(&f.strictness, "strict", "warn", "unjoined threads and unreleased locks: lenient, warn or strict")
	fs.BoolVar(&f.lockOrder, "lock-order", false, "report lock-order inversions")
	fs.BoolVar(&f.pipeline, "pipeline", false, "run lexer, normalizer and parser concurrently")
	fs.StringVar(&f.format, "format", "text", "output format: text or json")
	fs.BoolVar(&f.noColor, "no-color", false, "disable coloured output")
	fs.BoolVar(&f.hideNotes, "no-notes", false, "omit notes from text output")
	fs.StringVar(&f.logLevel, "log-level", "warn", "diagnostic level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "text", "diagnostic format: text or json")
	fs.StringVar(&f.profile, "profile", "", "write a profile: cpu, mem or trace")
	fs.StringVar(&f.profileDir, "profile-dir", ".", "profile output `directory`")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tracecheck check [flags] <trace|->")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one trace, got %d", fs.NArg())
	}
	f.path = fs.Arg(0)
	return f, nil
}

// settings loads the config file and applies the flags given on the command
// line over it.
func (f *checkFlags) settings() (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return config.Config{}, err
		}
	}

	if f.set["normalize"] {
		cfg.Normalize = f.normalize
	}
	if f.set["strict"] {
		cfg.Strictness = f.strictness
	}
	if f.set["lock-order"] {
		cfg.LockOrder = f.lockOrder
	}
	if f.set["pipeline"] {
		cfg.Pipeline = f.pipeline
	}
	if f.set["format"] {
		cfg.Output.Format = f.format
	}
	if f.noColor {
		off := false
		cfg.Output.Color = &off
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if f.set["log-format"] {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// checkCommand implements the 'tracecheck check' command.
//
// Flow:
//  1. Parse flags and merge them over the config file
//  2. Set up logging and optional profiling
//  3. Load, parse and analyze the trace
//  4. Print the verdict
//
// Example:
//
//	tracecheck check -normalize -strict=strict trace.std
func checkCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, err := parseCheckArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitClean
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	cfg, err := f.settings()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	logging.Reset()
	if err := logging.Init(cfg.LogConfig(stderr)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	log := logging.WithTrace(f.path)

	if f.profile != "" {
		stop, err := startProfile(f.profile, f.profileDir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		defer stop()
	}

	strictness, err := cfg.StrictnessLevel()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	format, err := cfg.ReportFormat()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	opts := race.Options{
		Normalize:  cfg.Normalize,
		Pipeline:   cfg.Pipeline,
		Strictness: strictness,
		LockOrder:  cfg.LockOrder,
		Logger:     logging.WithComponent("race").With("trace", f.path),
	}

	start := time.Now()
	ctx := context.Background()
	var v *race.Verdict
	if f.path == "-" {
		v, err = race.Check(ctx, stdin, opts)
	} else {
		v, err = race.CheckFile(ctx, f.path, opts)
	}
	if err != nil {
		return reportError(stderr, f.path, err)
	}
	log.Info("analysis finished",
		"events", v.Stats.Events,
		"violations", len(v.Violations),
		"notes", len(v.Notes),
		"elapsed", time.Since(start))

	ropts := report.Options{
		Format:    format,
		Color:     useColor(cfg.Output.Color, stdout),
		HideNotes: f.hideNotes,
	}
	if err := report.Write(stdout, v, ropts); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return exitFailure
	}

	if !v.Clean() {
		return exitViolations
	}
	return exitClean
}

// reportError prints a front-end or I/O error and maps it to an exit code.
func reportError(stderr io.Writer, path string, err error) int {
	var (
		lexErr *token.LexicalError
		synErr *parser.SyntaxError
	)
	switch {
	case errors.As(err, &lexErr), errors.As(err, &synErr):
		fmt.Fprintf(stderr, "%s:%v\n", path, err)
		return exitMalformed
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

// useColor decides whether to colour the report: an explicit setting wins,
// otherwise only a terminal on stdout is coloured.
func useColor(setting *bool, w io.Writer) bool {
	if setting != nil {
		return *setting
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
