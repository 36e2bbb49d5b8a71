package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/errors"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
)

var skipDirs = map[string]struct{}{
	"target":       {},
	".git":         {},
	"node_modules": {},
}

// Discover returns the .rs files under root, sorted. Files ignored by
// root/.gitignore or matching an exclude glob (relative to root, forward
// slashes) are skipped, as are hidden entries and target/ directories.
// A root that is itself a .rs file is returned as is.
func Discover(root string, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "review path not found"), errors.CtxPath, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		if !util.IsRustSource(root) {
			return nil, errors.AddContext(errors.New(errors.CodeValidationError, "not a Rust source file"), errors.CtxPath, root)
		}
		return []string{root}, nil
	}

	globs := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(util.NormalizePatternPath(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	gi := loadGitignore(root)

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if matchesAny(globs, rel+"/") || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !util.IsRustSource(name) {
			return nil
		}
		if matchesAny(globs, rel) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func matchesAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// DiscoverAll runs Discover over several roots and removes duplicates.
func DiscoverAll(roots []string, excludes []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		files, err := Discover(root, excludes)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			clean := filepath.Clean(f)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			out = append(out, clean)
		}
	}
	return out, nil
}

// SourceFilter applies the Discover rules to single paths, for files reported
// by the watcher under the same roots.
type SourceFilter struct {
	roots []filterRoot
	globs []glob.Glob
}

type filterRoot struct {
	path   string
	isFile bool
	gi     *ignore.GitIgnore
}

func NewSourceFilter(roots []string, excludes []string) (*SourceFilter, error) {
	f := &SourceFilter{}
	for _, pattern := range excludes {
		g, err := glob.Compile(util.NormalizePatternPath(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.globs = append(f.globs, g)
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		r := filterRoot{path: abs, isFile: !info.IsDir()}
		if !r.isFile {
			r.gi = loadGitignore(abs)
		}
		f.roots = append(f.roots, r)
	}
	return f, nil
}

// Allow reports whether Discover would have returned path.
func (f *SourceFilter) Allow(path string) bool {
	if !util.IsRustSource(path) {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range f.roots {
		if root.isFile {
			if abs == root.path {
				return true
			}
			continue
		}
		rel, err := filepath.Rel(root.path, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if f.allowRel(root, filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}

func (f *SourceFilter) allowRel(root filterRoot, rel string) bool {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ".") {
			return false
		}
		if i == len(segments)-1 {
			break
		}
		if _, skip := skipDirs[seg]; skip {
			return false
		}
		dir := strings.Join(segments[:i+1], "/") + "/"
		if matchesAny(f.globs, dir) || (root.gi != nil && root.gi.MatchesPath(dir)) {
			return false
		}
	}
	return !matchesAny(f.globs, rel) && (root.gi == nil || !root.gi.MatchesPath(rel))
}

// baseNamePatterns returns the exclude patterns without a path separator;
// the watcher matches those against file base names.
func baseNamePatterns(excludes []string) []string {
	var out []string
	for _, pattern := range excludes {
		if normalized := util.NormalizePatternPath(pattern); normalized != "" && !strings.Contains(normalized, "/") {
			out = append(out, normalized)
		}
	}
	return out
}
