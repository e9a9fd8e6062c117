// Package log provides a concurrency-safe structured logger built on
// [log/slog].
//
// A [Logger] is a small value type. Its zero value discards everything,
// which lets library packages accept a Logger through options without
// forcing a configuration on callers:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithPretty(false))
//
//	logger.TraceContext(ctx, "eval step", slog.String("name", "user"))
//
// In addition to the slog levels, [LevelTrace] sits below debug and is used
// for per-step evaluation traces.
//
// The package also keeps a default logger, reconfigured with [Config] and
// used by the package-level functions such as [Info] and [ErrorContext].
//
// Pretty output (the default) colorizes keys, values, and levels using
// lipgloss styles. Disable it with [WithPretty] when writing to files or
// when output must be machine-readable.
package log
