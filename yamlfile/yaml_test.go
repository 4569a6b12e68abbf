// Package yamlfile tests.
package yamlfile

import (
	"reflect"
	"testing"
)

func TestParse_Flat(t *testing.T) {
	data := []byte(`greeting: Hello
farewell: Goodbye
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(f.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(f.entries))
	}
	assertEntry(t, f, "greeting", "Hello")
	assertEntry(t, f, "farewell", "Goodbye")
}

func TestParse_Nested(t *testing.T) {
	data := []byte(`nav:
  home: Home
  about: About
footer:
  copyright: Copyright
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"nav.home", "nav.about", "footer.copyright"}
	if got := f.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %q, want %q", got, want)
	}
	assertEntry(t, f, "nav.about", "About")
}

func TestParse_SingleTopLevelGroupIsNotALocale(t *testing.T) {
	data := []byte(`auth:
  login: Sign in
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assertEntry(t, f, "auth.login", "Sign in")
}

func TestParse_NonStringLeaves(t *testing.T) {
	data := []byte(`count: 3
enabled: true
nothing: null
colors:
  - red
  - green
base: &base
  ok: OK
copy: *base
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assertEntry(t, f, "count", "3")
	assertEntry(t, f, "enabled", "true")
	assertEntry(t, f, "nothing", "null")
	assertEntry(t, f, "colors", `["red","green"]`)
	assertEntry(t, f, "copy.ok", "OK")
}

func TestParse_EmptyAndInvalid(t *testing.T) {
	f, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse(empty) error: %v", err)
	}
	if len(f.Entries()) != 0 {
		t.Fatalf("Parse(empty) entries = %v", f.Entries())
	}

	if _, err := Parse([]byte("- a\n- b\n")); err == nil {
		t.Fatal("Parse(sequence root) succeeded, want error")
	}
	if _, err := Parse([]byte("a: [unclosed\n")); err == nil {
		t.Fatal("Parse(malformed) succeeded, want error")
	}
}

func assertEntry(t *testing.T, f *File, path, want string) {
	t.Helper()
	got, ok := f.Get(path)
	if !ok {
		t.Fatalf("entry %q not found", path)
	}
	if got != want {
		t.Fatalf("entry %q = %q, want %q", path, got, want)
	}
}

func TestSetAndMarshal(t *testing.T) {
	f, err := Parse([]byte("nav:\n  home: Home\ntitle: Hi\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if err := f.Set([]string{"nav", "about"}, "About"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := f.Set([]string{"title", "short"}, "T"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	assertEntry(t, f, "nav.about", "About")
	if _, ok := f.Get("title"); ok {
		t.Fatal("replaced scalar title still listed")
	}

	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "nav:\n  home: Home\n  about: About\ntitle:\n  short: T\n"
	if string(data) != want {
		t.Fatalf("Marshal() =\n%s\nwant:\n%s", data, want)
	}
}

func TestSetOnEmptyDocument(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if err := f.Set([]string{"greeting"}, "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "greeting: \"true\"\n" {
		t.Fatalf("Marshal() = %q", data)
	}
	if err := f.Set(nil, "x"); err == nil {
		t.Fatal("Set(nil) succeeded, want error")
	}
}
