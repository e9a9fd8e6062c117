package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUserDir(t *testing.T) {
	base := t.TempDir()

	got := userDir(func() (string, error) { return base, nil }, ".config")
	if want := filepath.Join(base, appName()); got != want {
		t.Errorf("userDir() = %q, want %q", got, want)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got = userDir(func() (string, error) { return "", errors.New("unset") }, ".cache")
	if want := filepath.Join(home, ".cache", appName()); got != want {
		t.Errorf("userDir() fallback = %q, want %q", got, want)
	}
}

func TestAppName(t *testing.T) {
	if name := appName(); name == "" || name[0] == '.' {
		t.Errorf("appName() = %q", name)
	}

	for _, name := range []string{"__debug_bin", "__debug_bin3512"} {
		if !debugBinary.MatchString(name) {
			t.Errorf("%q not recognized as a debug binary", name)
		}
	}
}
