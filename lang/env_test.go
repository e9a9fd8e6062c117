package lang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestProcessEnv(t *testing.T) {
	got := processEnv([]string{"A=1", "B=x=y", "C=", "junk"})

	want := map[string]string{"A": "1", "B": "x=y", "C": ""}
	if len(got) != len(want) {
		t.Fatalf("processEnv() = %v, want %v", got, want)
	}

	for k, v := range want {
		if got[k] != v {
			t.Errorf("processEnv()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestGetTarget(t *testing.T) {
	tests := []struct {
		os, arch string
		want     string
	}{
		{"linux", "amd64", "x86_64"},
		{"linux", "386", "i386"},
		{"linux", "arm64", "aarch64"},
		{"darwin", "arm64", "arm64"},
		{"linux", "mipsle", "mipsel"},
		{"linux", "riscv64", "riscv64"},
	}

	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			t.Setenv("GOHOSTOS", tt.os)
			t.Setenv("GOHOSTARCH", tt.arch)

			got := getTarget()
			if got.OS != tt.os || got.Arch != tt.want {
				t.Errorf("getTarget() = %+v, want {%s %s}", got, tt.os, tt.want)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	keys := EnvKeys()
	if !slices.IsSorted(keys) || !slices.Contains(keys, "platform") {
		t.Fatalf("EnvKeys() = %v", keys)
	}

	// Callers get their own copy.
	e := Env()
	e["platform"] = "changed"

	if _, ok := Env()["platform"].(target); !ok {
		t.Error("Env returned the shared table")
	}
}

func TestEnv_Evaluate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		src  string
		want any
	}{
		{"path cat", "#path.cat('a', 'b')", filepath.Join("a", "b")},
		{"path rel", "#path.rel('/x/y', '/x/y/z')", "z"},
		{"file exists", "#file.exists(dir)", true},
		{"file is dir", "#file.isDir(dir)", true},
		{"file is regular", "#file.isRegular(dir)", false},
		{"missing file", "#file.exists(@add(dir, '/none'))", false},
		{"env", "#env.BINDABLE_TEST", "on"},
	}

	t.Setenv("BINDABLE_TEST", "on")

	store := NewStore()
	store.Set(context.Background(), "dir", dir)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The table snapshots the environment once per process.
			ext := Env()
			ext["env"] = processEnv(os.Environ())

			got := mustParse(t, tt.src).Evaluate(context.Background(), store, WithExternal(ext))
			if !Equal(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestMungPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)
	dir := t.TempDir()

	got := mungPrefix("/b"+sep+"/c", "/a")
	if !strings.HasPrefix(got, "/a"+sep) || !strings.Contains(got, "/c") {
		t.Errorf("mungPrefix() = %q", got)
	}

	got, err := mungPrefixIf("/b", "isDir", dir, filepath.Join(dir, "none"))
	if err != nil {
		t.Fatalf("mungPrefixIf: %v", err)
	}

	if !strings.HasPrefix(got, dir) || strings.Contains(got, "none") {
		t.Errorf("mungPrefixIf() = %q", got)
	}

	if _, err := mungPrefixIf("/b", "bogus", dir); !errors.Is(err, ErrOperand) {
		t.Errorf("mungPrefixIf(bogus) error = %v, want ErrOperand", err)
	}
}
