package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/bindable/log"
)

// parseCache memoizes Parse results keyed by the xxh3 hash of the source.
var parseCache sync.Map

// entry holds one memoized parse. The source is kept to rule out hash
// collisions.
type entry struct {
	once sync.Once
	src  string
	expr *Expression
	err  error
}

// parseCached parses src at most once per process.
func parseCached(ctx context.Context, src string, logger log.Logger) (*Expression, error) {
	key := xxh3.HashString(src)

	value, hit := parseCache.LoadOrStore(key, &entry{src: src})

	e, ok := value.(*entry)
	if !ok || e.src != src {
		return Parse(src)
	}

	logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit),
	)

	e.once.Do(func() { e.expr, e.err = Parse(src) })

	return e.expr, e.err
}

// ClearCache drops every memoized parse.
func ClearCache() {
	parseCache.Clear()
}

// ParseReader reads all of r and parses it as an expression.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Expression, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	o := makeOptions(opts...)

	return parseCached(ctx, string(data), o.logger)
}

// SplitReader reads all of r and splits it as a template.
func SplitReader(ctx context.Context, r io.Reader, opts ...Option) (Template, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return Split(ctx, string(data), opts...), nil
}

// readAll drains r through an asynchronous read-ahead buffer.
func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return data, nil
}
