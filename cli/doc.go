// Package cli contains the command line interface for bindable.
//
// # Commands
//
//	bindable render page.html -f values.yaml --set 'title="Home"'
//	bindable watch page.html -f values.yaml
//	bindable repl page.html -f values.yaml
//	bindable parse '@join(", ", a, b)'
//	bindable split 'Hello {{name}}!'
//
// render is the default command, so a bare template path renders it.
//
// # Configuration
//
// Flags may also be set in YAML (config.yaml) or JSON (config.json) files
// in the user configuration directory, for example ~/.config/bindable.
// Each top-level key names a flag; underscores may stand in for hyphens.
// [cmd.Init] writes the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o bindable .
//
// The profiling flags are then:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/bindable/pprof)
package cli
