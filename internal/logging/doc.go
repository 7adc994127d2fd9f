// Package logging provides the process-wide structured logger of tracecheck.
//
// The logger is built on log/slog. Call Init once at startup; packages that
// log before Init (or without it) get a text logger on stderr at INFO level.
//
// Diagnostics never go to stdout, which carries the verdict report.
//
// Example:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    return err
//	}
//	log := logging.WithTrace("trace.std")
//	log.Info("analysis finished", "violations", 2)
package logging
