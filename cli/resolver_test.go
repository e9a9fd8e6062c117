package cli

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func mockFlag(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestResolve(t *testing.T) {
	const doc = `
log_level: debug
log-format: json
lib: false
retries: 3
ratio: 0.5
set:
  - title="Home"
  - 7
`

	resolver, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log_level", "debug"},
		{"log-format", "json"},
		{"lib", false},
		{"retries", "3"},
		{"ratio", "0.5"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := resolver.Resolve(nil, nil, mockFlag(tt.flag))
			if err != nil {
				t.Fatalf("Resolve(%s) failed: %v", tt.flag, err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%s) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}

	got, err := resolver.Resolve(nil, nil, mockFlag("set"))
	if err != nil {
		t.Fatalf("Resolve(set) failed: %v", err)
	}

	list, ok := got.([]any)
	if !ok || !slices.Equal(list, []any{`title="Home"`, "7"}) {
		t.Errorf("Resolve(set) = %#v", got)
	}
}

func TestResolve_Empty(t *testing.T) {
	resolver, err := resolve(strings.NewReader(""))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if err := resolver.Validate(nil); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	if got, _ := resolver.Resolve(nil, nil, mockFlag("log-level")); got != nil {
		t.Errorf("Resolve on empty config = %#v, want nil", got)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"malformed", "log-level: [debug\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolve(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("resolve(%q) succeeded", tt.doc)
			}
		})
	}

	if _, err := resolve(&errorReader{err: bytes.ErrTooLarge}); err == nil {
		t.Error("expected read error")
	}
}

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		format logFormat
		pretty bool
		caller bool
	}{
		{"none", []string{"render", "x.html"}, "", "", true, false},
		{"assigned", []string{"--log-level=debug", "--log-format=json"}, "debug", "json", true, false},
		{"separate", []string{"render", "--log-level", "warn"}, "warn", "", true, false},
		{"booleans", []string{"--no-log-pretty", "--log-caller"}, "", "", false, true},
		{"assigned booleans", []string{"--log-pretty=false", "--no-log-caller=false"}, "", "", false, true},
		{"bad boolean", []string{"--log-pretty=maybe"}, "", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Format != tt.format ||
				f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}

// errorReader is a reader that always returns an error.
type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (int, error) {
	return 0, e.err
}
