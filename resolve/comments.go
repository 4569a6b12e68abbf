// Package resolve maps translation accessor names to their base-locale text.
//
// Two strategies exist. The comment strategy reads the doc comments slang
// writes above each getter in the generated strings.g.dart file. The config
// strategy follows slang.yaml to the base-locale source file and looks the
// name up in its flattened keys. Both cache what they read until ClearCache.
package resolve

import (
	"regexp"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/slang-tools/slangref/workspace"
)

var log = commonlog.GetLogger("slangref.resolve")

var (
	commentLineRe  = regexp.MustCompile("^///\\s*(\\w+):\\s*['\"`](.+?)['\"`]\\s*$")
	looseCommentRe = regexp.MustCompile("^///\\s*(\\w+):\\s*['\"`](.+?)['\"`]?\\s*$")
	getterRe       = regexp.MustCompile(`String\s+get\s+(\w+)\s*=>`)
)

// getterWindow is the number of lines following a loose comment that may
// hold its getter.
const getterWindow = 4

// preferredLocale wins over earlier values for the same getter.
const preferredLocale = "en"

// CommentResolver resolves names from generated accessor files.
type CommentResolver struct {
	files workspace.Files

	mu    sync.Mutex
	cache map[string]map[string]string
}

// NewCommentResolver returns a resolver reading through files.
func NewCommentResolver(files workspace.Files) *CommentResolver {
	return &CommentResolver{files: files, cache: make(map[string]map[string]string)}
}

// Resolve returns the text documented for getter name in the generated file
// nearest to docPath.
func (r *CommentResolver) Resolve(name, docPath string) (string, bool) {
	generated, err := r.files.Find(workspace.GeneratedFileName)
	if err != nil {
		log.Debugf("locating %s: %s", workspace.GeneratedFileName, err)
		return "", false
	}
	path, ok := workspace.Nearest(docPath, generated)
	if !ok {
		log.Debugf("no %s found for %s", workspace.GeneratedFileName, docPath)
		return "", false
	}

	values, err := r.load(path)
	if err != nil {
		log.Debugf("reading %s: %s", path, err)
		return "", false
	}
	v, ok := values[name]
	return v, ok
}

func (r *CommentResolver) load(path string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if values, ok := r.cache[path]; ok {
		return values, nil
	}
	data, err := r.files.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values := ParseComments(string(data))
	r.cache[path] = values
	log.Debugf("parsed %d getter comment(s) from %s", len(values), path)
	return values, nil
}

// ParseComments extracts getter name → text from generated source. A comment
// of the form `/// en: 'Text'` documents the getter on the next line; looser
// comments may have their getter on any of the next four lines. The "en" value is
// preferred, otherwise the first value seen is kept.
func ParseComments(text string) map[string]string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	values := make(map[string]string)
	set := func(locale, name, value string) {
		if _, exists := values[name]; !exists || locale == preferredLocale {
			values[name] = value
		}
	}

	for i, line := range lines {
		if m := commentLineRe.FindStringSubmatch(line); m != nil && i+1 < len(lines) {
			if g := getterRe.FindStringSubmatch(lines[i+1]); g != nil {
				set(m[1], g[1], m[2])
			}
		}

		if !strings.HasPrefix(line, "///") || !strings.Contains(line, ":") {
			continue
		}
		m := looseCommentRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		end := i + 1 + getterWindow
		if end > len(lines) {
			end = len(lines)
		}
		for j := i + 1; j < end; j++ {
			if !strings.Contains(lines[j], "String get") {
				continue
			}
			if g := getterRe.FindStringSubmatch(lines[j]); g != nil {
				set(m[1], g[1], m[2])
				break
			}
		}
	}
	return values
}

// ClearCache drops every parsed generated file.
func (r *CommentResolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]map[string]string)
}

// CommentStats describes the comment cache.
type CommentStats struct {
	Files   int
	Entries int
}

// Stats reports the cache size.
func (r *CommentResolver) Stats() CommentStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := CommentStats{Files: len(r.cache)}
	for _, values := range r.cache {
		s.Entries += len(values)
	}
	return s
}
