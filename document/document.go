// Package document keeps the text of editor buffers opened by the language
// client and maps between LSP positions and byte offsets.
//
// LSP positions count UTF-16 code units; the detectors work on byte offsets
// into a single line.
package document

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"
)

// Document is one open buffer.
type Document struct {
	URI     string
	Path    string
	Version int32
	Text    string
}

// Lines splits the text on "\n", dropping a trailing "\r" from each line.
func (d *Document) Lines() []string {
	lines := strings.Split(d.Text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Line returns line n (0-based).
func (d *Document) Line(n int) (string, bool) {
	lines := d.Lines()
	if n < 0 || n >= len(lines) {
		return "", false
	}
	return lines[n], true
}

// Store holds open documents keyed by URI.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open records a newly opened document.
func (s *Store) Open(uri string, version int32, text string) *Document {
	d := &Document{URI: uri, Path: URIToPath(uri), Version: version, Text: text}
	s.mu.Lock()
	s.docs[uri] = d
	s.mu.Unlock()
	return d
}

// Get returns a snapshot of the document at uri.
func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

// Close forgets the document at uri.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Change is one content change. A nil Range replaces the whole text.
type Change struct {
	Range *Range
	Text  string
}

// Range is an LSP range in UTF-16 positions.
type Range struct {
	Start Position
	End   Position
}

// Position is an LSP position: 0-based line and UTF-16 character.
type Position struct {
	Line      int
	Character int
}

// ApplyChanges applies changes in order to the document at uri.
func (s *Store) ApplyChanges(uri string, version int32, changes []Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	if !ok {
		return fmt.Errorf("document %s is not open", uri)
	}
	text := d.Text
	for _, c := range changes {
		if c.Range == nil {
			text = c.Text
			continue
		}
		start, err := Offset(text, c.Range.Start)
		if err != nil {
			return err
		}
		end, err := Offset(text, c.Range.End)
		if err != nil {
			return err
		}
		if end < start {
			start, end = end, start
		}
		text = text[:start] + c.Text + text[end:]
	}
	d.Text = text
	d.Version = version
	return nil
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Offset converts a position into a byte offset into text. Characters past
// the end of a line clamp to the line end.
func Offset(text string, pos Position) (int, error) {
	if pos.Line < 0 || pos.Character < 0 {
		return 0, fmt.Errorf("invalid position %d:%d", pos.Line, pos.Character)
	}
	lineStart := 0
	for i := 0; i < pos.Line; i++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return len(text), nil
		}
		lineStart += nl + 1
	}
	line := text[lineStart:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return lineStart + ByteOffset(line, pos.Character), nil
}

// ByteOffset converts a UTF-16 character offset within line to a byte
// offset, clamped to the line length.
func ByteOffset(line string, char int) int {
	units := 0
	for i, r := range line {
		if units >= char {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// CharOffset converts a byte offset within line to a UTF-16 character
// offset.
func CharOffset(line string, byteOff int) int {
	if byteOff > len(line) {
		byteOff = len(line)
	}
	units := 0
	for i := 0; i < byteOff; {
		r, size := utf8.DecodeRuneInString(line[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return units
}

// ---------------------------------------------------------------------------
// URIs
// ---------------------------------------------------------------------------

// URIToPath converts a file:// URI to a local path. Other URIs are returned
// unchanged.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	p := u.Path
	if runtime.GOOS == "windows" {
		// file:///C:/x parses to /C:/x.
		p = strings.TrimPrefix(p, "/")
	}
	return filepath.FromSlash(p)
}

// PathToURI converts a local path to a file:// URI.
func PathToURI(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
