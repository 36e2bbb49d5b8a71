package app

import (
	"path/filepath"
	"testing"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/errors"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, dir, "src/main.rs", "fn main() {}")
	writeRust(t, dir, "src/lib.rs", "")
	writeRust(t, dir, "src/gen/out.rs", "")
	writeRust(t, dir, "vendor/dep/lib.rs", "")
	writeRust(t, dir, "target/debug/build.rs", "")
	writeRust(t, dir, ".hidden/x.rs", "")
	writeRust(t, dir, "benches/bench.rs", "")
	writeRust(t, dir, "README.md", "")
	writeRust(t, dir, ".gitignore", "src/gen/\n*.bak.rs\n")
	writeRust(t, dir, "src/old.bak.rs", "")

	files, err := Discover(dir, []string{"vendor/**", "benches/*.rs"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "src", "lib.rs"),
		filepath.Join(dir, "src", "main.rs"),
	}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}

func TestDiscover_SingleFileAndErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeRust(t, dir, "one.rs", "")
	files, err := Discover(file, nil)
	if err != nil || len(files) != 1 || files[0] != file {
		t.Fatalf("expected single file, got %v (%v)", files, err)
	}

	txt := writeRust(t, dir, "notes.txt", "")
	if _, err := Discover(txt, nil); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if _, err := Discover(filepath.Join(dir, "missing"), nil); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := Discover(dir, []string{"["}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestDiscoverAll_Dedupes(t *testing.T) {
	dir := t.TempDir()
	file := writeRust(t, dir, "lib.rs", "")
	files, err := DiscoverAll([]string{dir, file}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected one file after dedupe, got %v", files)
	}
}

func TestSourceFilter_MatchesDiscover(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, dir, ".gitignore", "src/gen/\n*.bak.rs\n")
	lone := writeRust(t, t.TempDir(), "lone.rs", "")

	f, err := NewSourceFilter([]string{dir, lone}, []string{"vendor/**", "benches/*.rs", "*_pb.rs"})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	cases := []struct {
		rel  string
		want bool
	}{
		{"src/main.rs", true},
		{"src/nested/mod.rs", true},
		{"src/gen/out.rs", false},
		{"src/old.bak.rs", false},
		{"vendor/dep/lib.rs", false},
		{"benches/bench.rs", false},
		{"target/debug/build.rs", false},
		{".hidden/x.rs", false},
		{"src/.x.rs", false},
		{"README.md", false},
	}
	for _, tc := range cases {
		if got := f.Allow(filepath.Join(dir, filepath.FromSlash(tc.rel))); got != tc.want {
			t.Fatalf("Allow(%s) = %v, want %v", tc.rel, got, tc.want)
		}
	}
	if !f.Allow(lone) {
		t.Fatal("explicit file root must be allowed")
	}
	if f.Allow(filepath.Join(filepath.Dir(lone), "sibling.rs")) {
		t.Fatal("sibling of a file root must not be allowed")
	}
	if f.Allow(filepath.Join(t.TempDir(), "elsewhere.rs")) {
		t.Fatal("paths outside every root must not be allowed")
	}
	if _, err := NewSourceFilter([]string{dir}, []string{"["}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestBaseNamePatterns(t *testing.T) {
	got := baseNamePatterns([]string{"target/**", "*_pb.rs", "./gen.rs", "vendor/*.rs"})
	if len(got) != 2 || got[0] != "*_pb.rs" || got[1] != "gen.rs" {
		t.Fatalf("unexpected base-name patterns: %v", got)
	}
}
