// Package workspace gives the resolvers and the store writer access to the
// files of the open project: locating files by name, reading them, and
// writing them back.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("slangref.workspace")

// Files is read access to the project.
type Files interface {
	// Find returns files whose base name matches one of the patterns
	// (filepath.Match syntax), in walk order.
	Find(patterns ...string) ([]string, error)
	ReadFile(path string) ([]byte, error)
}

// WritableFiles adds writing to Files.
type WritableFiles interface {
	Files
	// WriteFile replaces path with data, creating parent directories.
	WriteFile(path string, data []byte) error
}

// skipDirs contains directory names never searched.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".dart_tool":   true,
	".idea":        true,
	".fvm":         true,
	".pub-cache":   true,
	"node_modules": true,
	"build":        true,
	"Pods":         true,
}

// SkipDir reports whether a directory name is excluded from searches.
func SkipDir(name string) bool {
	return skipDirs[name]
}

// Workspace is the local-disk implementation of WritableFiles over one or
// more root folders.
type Workspace struct {
	mu    sync.RWMutex
	roots []string
}

// New returns a workspace over roots.
func New(roots ...string) *Workspace {
	w := &Workspace{}
	w.SetRoots(roots...)
	return w
}

// SetRoots replaces the root folders.
func (w *Workspace) SetRoots(roots ...string) {
	var clean []string
	for _, r := range roots {
		if r != "" {
			clean = append(clean, filepath.Clean(r))
		}
	}
	w.mu.Lock()
	w.roots = clean
	w.mu.Unlock()
}

// Roots returns the root folders.
func (w *Workspace) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.roots...)
}

// Find walks every root and returns files whose base name matches one of
// patterns.
func (w *Workspace) Find(patterns ...string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, root := range w.Roots() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if matchAny(d.Name(), patterns) && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}
	log.Debugf("found %d file(s) matching %v", len(files), patterns)
	return files, nil
}

func matchAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// ReadFile reads path from disk.
func (w *Workspace) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new content.
func (w *Workspace) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Nearest-by-path
// ---------------------------------------------------------------------------

// Nearest picks the candidate sharing the longest leading path with
// docPath. The first candidate wins ties.
func Nearest(docPath string, candidates []string) (string, bool) {
	best, bestLen := "", -1
	for _, c := range candidates {
		if n := CommonPrefixLen(docPath, c); n > bestLen {
			best, bestLen = c, n
		}
	}
	return best, bestLen >= 0
}

// CommonPrefixLen measures the shared leading path segments of a and b in
// characters, counting one separator per segment.
func CommonPrefixLen(a, b string) int {
	as, bs := splitPath(a), splitPath(b)
	n := 0
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		n += len(as[i]) + 1
	}
	return n
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}
