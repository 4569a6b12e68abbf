// Package extract finds Dart sources in a project and lists the string
// literals in them that are candidates for translation.
//
// It is the batch form of the code-action pipeline: every line of every
// source file goes through the literal scanner and the translatability
// filter. Generated sources (*.g.dart, *.freezed.dart) are skipped.
package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/workspace"
)

// SourceExtension is the extension of scanned files.
const SourceExtension = ".dart"

// generatedSuffixes mark build_runner outputs.
var generatedSuffixes = []string{".g.dart", ".freezed.dart", ".gr.dart", ".mocks.dart"}

// Finding is one translatable literal.
type Finding struct {
	File string `json:"file"`
	// Line is 1-based.
	Line      int              `json:"line"`
	Detection detect.Detection `json:"detection"`
}

// Result holds the outcome of a scan.
type Result struct {
	// SourceFiles is the list of source files scanned.
	SourceFiles []string
	Findings    []Finding
}

// IsGenerated reports whether path is a generated Dart source.
func IsGenerated(path string) bool {
	base := filepath.Base(path)
	for _, s := range generatedSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

// FindSources recursively finds Dart sources in dirs, skipping tool and
// build directories and generated files.
func FindSources(dirs []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() {
				if path != dir && workspace.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != SourceExtension || IsGenerated(path) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ScanFile returns the translatable literals in one file.
func ScanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ScanText(path, string(data)), nil
}

// ScanText returns the translatable literals in text, attributed to path.
func ScanText(path, text string) []Finding {
	var findings []Finding
	for _, d := range detect.FindAll(text) {
		findings = append(findings, Finding{File: path, Line: d.Line + 1, Detection: d})
	}
	return findings
}

// Scan finds sources in dirs and scans them all. Unreadable files are
// skipped.
func Scan(dirs []string) (*Result, error) {
	files, err := FindSources(dirs)
	if err != nil {
		return nil, err
	}
	res := &Result{SourceFiles: files}
	for _, f := range files {
		found, err := ScanFile(f)
		if err != nil {
			continue
		}
		res.Findings = append(res.Findings, found...)
	}
	return res, nil
}

// ByFile groups findings by file.
func ByFile(findings []Finding) map[string][]Finding {
	result := make(map[string][]Finding)
	for _, f := range findings {
		result[f.File] = append(result[f.File], f)
	}
	return result
}

// Describe returns a human-readable summary such as
// "3 in lib/a.dart, 1 in lib/b.dart", relative to base when possible.
func Describe(findings []Finding, base string) string {
	byFile := ByFile(findings)
	var files []string
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var parts []string
	for _, f := range files {
		name := f
		if rel, err := filepath.Rel(base, f); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
		parts = append(parts, fmt.Sprintf("%d in %s", len(byFile[f]), filepath.ToSlash(name)))
	}
	return strings.Join(parts, ", ")
}
