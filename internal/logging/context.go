package logging

import "log/slog"

// WithComponent creates a logger tagged with a pipeline component, such as
// "frontend" or "analyzer".
//
// Example:
//
//	log := logging.WithComponent("analyzer")
//	log.Debug("trace analyzed", "events", n)
func WithComponent(name string) *slog.Logger {
	return GetLogger().With("component", name)
}

// WithTrace creates a logger carrying the trace path.
func WithTrace(path string) *slog.Logger {
	return GetLogger().With("trace", path)
}
