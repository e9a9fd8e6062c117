// Package profile provides optional runtime profiling for the bindable
// command.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//	./bindable --pprof-mode cpu render page.html -f values.yaml
//
// Without the tag, [Modes] is empty and [Config.Start] returns a no-op
// stopper, so callers never need build tags of their own.
//
// Supported modes are allocs, block, clock, cpu, goroutine, heap, mem, mutex,
// thread, and trace. Profiles are written to the directory given by
// [WithPath], by default $XDG_CACHE_HOME/bindable/pprof.
//
// Binding large documents is dominated by parsing and the per-site update
// fan-out; the cpu and mutex modes are usually the interesting ones:
//
//	go tool pprof -http=: ~/.cache/bindable/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
