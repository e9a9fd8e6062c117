//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// profilers maps each mode name to the profile it enables.
var profilers = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes returns the sorted profiling modes available with the pprof build
// tag.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(profilers))
})

// start begins one profile. Unknown modes start nothing.
func start(mode, path string, quiet bool) interface{ Stop() } {
	enable, ok := profilers[mode]
	if !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){enable, profile.NoShutdownHook}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
