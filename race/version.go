package race

import "github.com/kolkov/tracecheck/internal/config"

// Version information for tracecheck.
const (
	// Version is the current version of the checker.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the checker.
type Info struct {
	// Version is the checker version string.
	Version string

	// FormatVersion is the trace format version this build reads.
	FormatVersion string

	// Algorithm is the analysis used.
	Algorithm string
}

// GetInfo returns information about the checker.
//
// Example:
//
//	info := race.GetInfo()
//	fmt.Printf("tracecheck %s (%s)\n", info.Version, info.Algorithm)
func GetInfo() Info {
	return Info{
		Version:       Version,
		FormatVersion: config.FormatVersion,
		Algorithm:     "vector-clock happens-before with lock-set refinement",
	}
}
