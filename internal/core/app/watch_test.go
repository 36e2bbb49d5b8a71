package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
)

func TestWatch_SkipsExcludedFiles(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, dir, ".gitignore", "generated/\n")
	writeRust(t, dir, "src/.keep.rs", "")
	writeRust(t, dir, "vendor/.keep.rs", "")
	writeRust(t, dir, "generated/.keep.rs", "")

	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Review.Exclude = []string{"vendor/**"}
		cfg.Watch.Debounce = 20 * time.Millisecond
	}, Dependencies{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	batches := make(chan []ports.FileResult, 16)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, []string{dir}, ports.ReviewOptions{}, func(results []ports.FileResult) {
			batches <- results
		})
	}()

	want := filepath.Join(dir, "src", "lib.rs")
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case results := <-batches:
			for _, r := range results {
				if strings.Contains(r.Path, "vendor") || strings.Contains(r.Path, "generated") {
					t.Fatalf("excluded file reviewed: %s", r.Path)
				}
				if r.Path == want {
					cancel()
					if err := <-done; err != nil {
						t.Fatalf("watch: %v", err)
					}
					return
				}
			}
		case <-tick.C:
			writeRust(t, dir, "vendor/dep.rs", "fn dep() {}\n")
			writeRust(t, dir, "generated/out.rs", "fn out() {}\n")
			writeRust(t, dir, "src/lib.rs", "fn lib() {}\n")
		case <-ctx.Done():
			t.Fatal("timed out waiting for src/lib.rs")
		}
	}
}
