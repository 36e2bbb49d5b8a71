// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change event on %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"["}, nil, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestWatcher_ReportsRustFiles(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, []string{"*.generated.rs"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	notes := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(notes, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	generated := filepath.Join(tmpDir, "schema.generated.rs")
	if err := os.WriteFile(generated, []byte("fn x() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(tmpDir, "lib.rs")
	if err := os.WriteFile(lib, []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		for _, p := range paths {
			if p == notes || p == generated {
				t.Fatalf("excluded file %s reported", p)
			}
		}
		if len(paths) == 0 || paths[len(paths)-1] != lib {
			waitFor(t, changed, lib, 2*time.Second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lib.rs")
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	subdir := filepath.Join(tmpDir, "src", "nested")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "mod.rs")
	if err := os.WriteFile(nested, []byte("pub fn f() {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, changed, nested, 2*time.Second)
}

func TestWatcher_Exclusions(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"fixtures"}, []string{"build.rs"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path string
		want bool
	}{
		{path: "src/main.py", want: true},
		{path: "src/lib.rs", want: false},
		{path: "build.rs", want: true},
		{path: "src/LIB.RS", want: false},
	}
	for _, tc := range cases {
		if got := w.shouldExcludeFile(tc.path); got != tc.want {
			t.Fatalf("shouldExcludeFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	if !w.shouldExcludeDir("/repo/target") || !w.shouldExcludeDir("/repo/fixtures") {
		t.Fatal("expected target and fixtures to be excluded")
	}
	if w.shouldExcludeDir("/repo/src") {
		t.Fatal("src must not be excluded")
	}
}
