package main

import (
	"fmt"

	"github.com/pkg/profile"
)

// startProfile starts the named profile and returns the function that
// writes it out.
func startProfile(kind, dir string) (func(), error) {
	var mode func(*profile.Profile)
	switch kind {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil, fmt.Errorf("unknown profile %q (want cpu, mem or trace)", kind)
	}
	p := profile.Start(mode, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	return p.Stop, nil
}
