package lang

// This file defines the default external table, the namespace #-scoped
// steps read from when a caller opts into it with WithExternal(Env()).
// The table is built once per process and cloned on every access so
// callers may extend the returned map without affecting the shared copy.

import (
	"bufio"
	"log/slog"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// Env returns a copy of the default external table:
//
//	#target.OS, #target.Arch      host in GNU naming (x86_64, aarch64, ...)
//	#platform.OS, #platform.Arch  host in Go naming (amd64, arm64, ...)
//	#hostname, #user, #shell
//	#cwd()
//	#env.NAME                     process environment
//	#file.exists(p), #file.isDir(p), #file.isRegular(p), #file.isSymlink(p)
//	#path.abs(p), #path.cat(p...), #path.rel(from, to)
//	#mung.prefix(list, p...), #mung.prefixif(list, test, p...)
func Env() map[string]any {
	return maps.Clone(env())
}

// EnvKeys returns the sorted top-level names of [Env].
func EnvKeys() []string {
	return slices.Sorted(maps.Keys(env()))
}

var env = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"user":     getUser(),
		"shell":    getShell(),
		"env":      processEnv(os.Environ()),

		"cwd": getCwd,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs": pathAbs,
			"cat": pathCat,
			"rel": pathRel,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

// target names an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	return target{
		OS:   firstEnv(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: firstEnv(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}

	return fallback
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name := getUser()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// processEnv converts "KEY=VALUE" entries to a map.
func processEnv(entries []string) map[string]string {
	result := make(map[string]string, len(entries))

	for _, entry := range entries {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends items to a PATH-like list, dropping duplicates.
func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// fileTests names the predicates mungPrefixIf accepts, since expressions
// cannot pass Go functions.
var fileTests = map[string]func(string) bool{
	"exists":    fileExists,
	"isDir":     fileIsDir,
	"isRegular": fileIsRegular,
	"isSymlink": fileIsSymlink,
}

// mungPrefixIf is mungPrefix keeping only the items that pass the file test
// named by test.
func mungPrefixIf(list, test string, prefix ...string) (string, error) {
	pred, ok := fileTests[test]
	if !ok {
		return "", ErrOperand.Wrap(ErrNotCallable).With(
			slog.String("test", test),
		)
	}

	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(pred),
	).String(), nil
}
