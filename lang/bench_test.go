package lang

import (
	"context"
	"testing"

	"github.com/ardnew/bindable/log"
)

const benchSource = `@join(", ", user.name, @add(price, tax), [a, b, {k: c.d}], /\w+/g)`

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		if _, err := Parse(benchSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseCached(b *testing.B) {
	ctx := context.Background()

	for b.Loop() {
		if _, err := parseCached(ctx, benchSource, log.Logger{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	ctx := context.Background()

	e, err := Parse(benchSource)
	if err != nil {
		b.Fatal(err)
	}

	s := NewStore()
	s.SetValues(ctx, map[string]any{
		"user":  map[string]any{"name": "Ada"},
		"price": 10.0,
		"tax":   0.8,
		"a":     1,
		"b":     "two",
		"c":     map[string]any{"d": true},
	})

	for b.Loop() {
		e.Evaluate(ctx, s)
	}
}

func BenchmarkSplit(b *testing.B) {
	ctx := context.Background()
	text := "Dear {{user.name}}, your total is {{@add(price, tax)}}. \\{{not this}}"

	for b.Loop() {
		Split(ctx, text)
	}
}
