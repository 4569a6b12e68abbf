package provider

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/resolve"
	"github.com/slang-tools/slangref/settings"
	"github.com/slang-tools/slangref/store"
	"github.com/slang-tools/slangref/workspace"
)

type message struct {
	kind MessageKind
	text string
}

type fakeHost struct {
	edits    []Edit
	messages []message
	applyOK  bool
	applyErr error

	promptValue string
	promptOK    bool
	prompted    []string

	confirm   bool
	confirmed []string
}

func (h *fakeHost) ApplyEdit(e Edit) (bool, error) {
	h.edits = append(h.edits, e)
	return h.applyOK, h.applyErr
}

func (h *fakeHost) ShowMessage(kind MessageKind, text string) {
	h.messages = append(h.messages, message{kind, text})
}

func (h *fakeHost) Prompt(msg, def string, validate func(string) string) (string, bool, error) {
	h.prompted = append(h.prompted, def)
	if h.promptValue == "" {
		return def, h.promptOK, nil
	}
	return h.promptValue, h.promptOK, nil
}

func (h *fakeHost) Confirm(msg, yes, no string) (bool, error) {
	h.confirmed = append(h.confirmed, msg)
	return h.confirm, nil
}

func (h *fakeHost) last() message {
	if len(h.messages) == 0 {
		return message{}
	}
	return h.messages[len(h.messages)-1]
}

type project struct {
	root     string
	doc      string
	source   string
	configs  *resolve.ConfigResolver
	comments *resolve.CommentResolver
	writer   *store.Writer
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "slang.yaml"), "base_locale: en\ninput_directory: lib/i18n\ninput_file_pattern: .i18n.json\n")
	source := filepath.Join(root, "lib", "i18n", "en.i18n.json")
	writeFile(t, source, `{"greeting": "Hello", "auth": {"login": {"title": "Sign In"}}}`)

	ws := workspace.New(root)
	configs := resolve.NewConfigResolver(ws)
	return &project{
		root:     root,
		doc:      filepath.Join(root, "lib", "features", "auth", "login_page.dart"),
		source:   source,
		configs:  configs,
		comments: resolve.NewCommentResolver(ws),
		writer:   store.NewWriter(ws, configs),
	}
}

func (p *project) conversion(s settings.Settings) *ConversionProvider {
	return NewConversionProvider(p.writer, p.configs, settings.NewHolder(s), p.configs, p.comments)
}

func TestHover(t *testing.T) {
	p := newProject(t)
	h := NewHoverProvider(p.comments, p.configs, settings.NewHolder(settings.Default()))

	line := "    Text(t.auth.login.title),"
	hover, ok := h.Hover(p.doc, line, line, 0, strings.Index(line, "title")+1)
	if !ok {
		t.Fatal("Hover() ok = false")
	}
	if hover.Value != "Sign In" {
		t.Fatalf("Value = %q, want Sign In", hover.Value)
	}
	if want := "```text\nSign In\n```"; hover.Markdown != want {
		t.Fatalf("Markdown = %q, want %q", hover.Markdown, want)
	}

	if _, ok := h.Hover(p.doc, "foo.bar", "foo.bar", 0, 5); ok {
		t.Fatal("Hover(foo.bar) ok = true")
	}
	if _, ok := h.Hover(p.doc, "t.missing", "t.missing", 0, 4); ok {
		t.Fatal("Hover(t.missing) ok = true")
	}
}

func TestHoverPrefersGeneratedComments(t *testing.T) {
	p := newProject(t)
	writeFile(t, filepath.Join(p.root, "lib", "i18n", "strings.g.dart"), "/// en: 'Hello from comments'\nString get greeting => '';\n")

	h := NewHoverProvider(p.comments, p.configs, settings.NewHolder(settings.Default()))
	hover, ok := h.Hover(p.doc, "t.greeting", "t.greeting", 0, 3)
	if !ok || hover.Value != "Hello from comments" {
		t.Fatalf("Hover() = %+v, %v", hover, ok)
	}
}

func TestHoverDetailed(t *testing.T) {
	t.Setenv("LANGUAGE", "en")
	p := newProject(t)
	h := NewHoverProvider(p.comments, p.configs, settings.NewHolder(settings.Settings{ShowDetailedInfo: true}))

	hover, ok := h.Hover(p.doc, "t.greeting", "t.greeting", 0, 3)
	if !ok {
		t.Fatal("Hover() ok = false")
	}
	for _, want := range []string{"**Variable:** `greeting`", "**Type:** Slang Translation", "**Locale:** English (en)"} {
		if !strings.Contains(hover.Markdown, want) {
			t.Fatalf("Markdown = %q, missing %q", hover.Markdown, want)
		}
	}
}

func TestCodeActions(t *testing.T) {
	p := newProject(t)
	c := p.conversion(settings.Default())

	line := `  Text("Please enter your name"),`
	actions := c.CodeActions("file:///doc", p.doc, line, 3, strings.Index(line, "enter"))
	if len(actions) != 4 {
		t.Fatalf("got %d actions, want 4: %+v", len(actions), actions)
	}

	wantTitles := []string{
		"Convert to translation: t.pleaseEnterYour",
		"Convert to nested translation: t.features.auth.pleaseEnter",
		"Convert to translation: t.pleaseEnter",
		"Convert to translation with custom key...",
	}
	for i, want := range wantTitles {
		if actions[i].Title != want {
			t.Fatalf("actions[%d].Title = %q, want %q", i, actions[i].Title, want)
		}
	}
	if !actions[0].Preferred || actions[1].Preferred {
		t.Fatal("only the first action should be preferred")
	}
	if actions[0].Command != CommandConvert || actions[3].Command != CommandConvertCustomKey {
		t.Fatalf("commands = %q, %q", actions[0].Command, actions[3].Command)
	}
	det, ok := actions[0].Arguments[1].(detect.Detection)
	if !ok || det.Value != "Please enter your name" || det.Line != 3 {
		t.Fatalf("detection argument = %+v", actions[0].Arguments[1])
	}
	if len(actions[3].Arguments) != 2 {
		t.Fatalf("custom action arguments = %v", actions[3].Arguments)
	}
}

func TestCodeActionsUniqueAgainstExistingKeys(t *testing.T) {
	p := newProject(t)
	c := p.conversion(settings.Default())

	line := `Text('Greeting')`
	actions := c.CodeActions("file:///doc", p.doc, line, 0, 7)
	if len(actions) == 0 || actions[0].Arguments[2] != "greeting1" {
		t.Fatalf("actions = %+v, want first key greeting1", actions)
	}
}

func TestCodeActionsDisabledOrMissing(t *testing.T) {
	p := newProject(t)
	line := `Text('Hello world')`

	if got := p.conversion(settings.Settings{}).CodeActions("u", p.doc, line, 0, 8); got != nil {
		t.Fatalf("disabled CodeActions = %+v", got)
	}
	if got := p.conversion(settings.Default()).CodeActions("u", p.doc, `final x = 42;`, 0, 11); got != nil {
		t.Fatalf("CodeActions without literal = %+v", got)
	}
}

func TestConvert(t *testing.T) {
	p := newProject(t)
	c := p.conversion(settings.Default())
	host := &fakeHost{applyOK: true}

	line := `Text('Welcome back')`
	det, _ := detect.DetectStringLiteral(line, 7, 8)

	// Prime the table cache; the write must invalidate it.
	if _, ok := p.configs.Resolve("welcomeBack", p.doc); ok {
		t.Fatal("welcomeBack resolved before conversion")
	}

	if !c.Convert(host, "file:///doc", p.doc, det, "welcomeBack", det.Value) {
		t.Fatalf("Convert() = false, messages %+v", host.messages)
	}
	if len(host.edits) != 1 {
		t.Fatalf("edits = %+v", host.edits)
	}
	want := Edit{URI: "file:///doc", Line: 7, Start: 5, End: 19, NewText: "t.welcomeBack"}
	if host.edits[0] != want {
		t.Fatalf("edit = %+v, want %+v", host.edits[0], want)
	}
	if m := host.last(); m.kind != MessageInfo || m.text != "Translation key 'welcomeBack' added successfully!" {
		t.Fatalf("message = %+v", m)
	}
	if v, ok := p.configs.Resolve("welcomeBack", p.doc); !ok || v != "Welcome back" {
		t.Fatalf("Resolve after conversion = %q, %v", v, ok)
	}
}

func TestConvertConflictDoesNotEdit(t *testing.T) {
	p := newProject(t)
	c := p.conversion(settings.Default())
	host := &fakeHost{applyOK: true}

	det, _ := detect.DetectStringLiteral(`Text('Hi')`, 0, 6)
	if c.Convert(host, "u", p.doc, det, "greeting", "Hi") {
		t.Fatal("Convert() succeeded on existing key")
	}
	if len(host.edits) != 0 {
		t.Fatalf("edits = %+v, want none", host.edits)
	}
	if m := host.last(); m.kind != MessageError || m.text != "Translation key 'greeting' already exists." {
		t.Fatalf("message = %+v", m)
	}
}

func TestConvertEditRejected(t *testing.T) {
	p := newProject(t)
	c := p.conversion(settings.Default())

	det, _ := detect.DetectStringLiteral(`Text('Hi there')`, 0, 6)
	host := &fakeHost{applyOK: false}
	if c.Convert(host, "u", p.doc, det, "hiThere", det.Value) {
		t.Fatal("Convert() = true with rejected edit")
	}
	if m := host.last(); m.text != "Failed to update the code" {
		t.Fatalf("message = %+v", m)
	}

	host = &fakeHost{applyErr: errors.New("connection closed")}
	if c.Convert(host, "u", p.doc, det, "hiThere2", det.Value) {
		t.Fatal("Convert() = true with edit error")
	}
	if m := host.last(); m.text != "Failed to apply conversion: connection closed" {
		t.Fatalf("message = %+v", m)
	}
}

func TestConvertWithCustomKey(t *testing.T) {
	det, _ := detect.DetectStringLiteral(`Text('Save changes')`, 0, 6)

	t.Run("prompt default", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, promptOK: true}
		if !p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "") {
			t.Fatalf("ConvertWithCustomKey() = false, messages %+v", host.messages)
		}
		if len(host.prompted) != 1 || host.prompted[0] != "saveChanges" {
			t.Fatalf("prompt default = %q", host.prompted)
		}
		if host.edits[0].NewText != "t.saveChanges" {
			t.Fatalf("edit = %+v", host.edits[0])
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, promptOK: false}
		if p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "") {
			t.Fatal("ConvertWithCustomKey() = true after cancel")
		}
		if len(host.messages) != 0 || len(host.edits) != 0 {
			t.Fatalf("cancel produced output: %+v %+v", host.messages, host.edits)
		}
	})

	t.Run("invalid key argument", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true}
		if p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "9lives") {
			t.Fatal("ConvertWithCustomKey() = true for invalid key")
		}
		if m := host.last(); m.kind != MessageError || !strings.HasPrefix(m.text, "Invalid translation key: ") {
			t.Fatalf("message = %+v", m)
		}
	})

	t.Run("overwrite confirmed", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, confirm: true}
		if !p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "greeting") {
			t.Fatalf("ConvertWithCustomKey() = false, messages %+v", host.messages)
		}
		if len(host.confirmed) != 1 || host.confirmed[0] != "Translation key 'greeting' already exists. Overwrite?" {
			t.Fatalf("confirm = %q", host.confirmed)
		}
		if v, _ := p.configs.Resolve("greeting", p.doc); v != "Save changes" {
			t.Fatalf("greeting = %q after overwrite", v)
		}
	})

	t.Run("nested key over existing leaf", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, confirm: true}
		if !p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "greeting.world") {
			t.Fatalf("ConvertWithCustomKey() = false, messages %+v", host.messages)
		}
		if len(host.confirmed) != 1 || host.confirmed[0] != "Translation key 'greeting' already exists. Overwrite?" {
			t.Fatalf("confirm = %q", host.confirmed)
		}
		if host.edits[0].NewText != "t.greeting.world" {
			t.Fatalf("edit = %+v", host.edits[0])
		}
		if v, ok := p.configs.Resolve("greeting.world", p.doc); !ok || v != "Save changes" {
			t.Fatalf("greeting.world = %q, %v after overwrite", v, ok)
		}
	})

	t.Run("group conflict is not offered for overwrite", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, confirm: true}
		if p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "auth") {
			t.Fatal("ConvertWithCustomKey() = true over a group")
		}
		if len(host.confirmed) != 0 {
			t.Fatalf("confirm = %q, want none", host.confirmed)
		}
		if m := host.last(); m.kind != MessageError || m.text != "Translation key 'auth' is already used as a group of keys." {
			t.Fatalf("message = %+v", m)
		}
	})

	t.Run("overwrite declined", func(t *testing.T) {
		p := newProject(t)
		host := &fakeHost{applyOK: true, confirm: false}
		if p.conversion(settings.Default()).ConvertWithCustomKey(host, "u", p.doc, det, "greeting") {
			t.Fatal("ConvertWithCustomKey() = true after declining")
		}
		if len(host.edits) != 0 {
			t.Fatalf("edits = %+v", host.edits)
		}
		data, _ := os.ReadFile(p.source)
		if !strings.Contains(string(data), `"Hello"`) {
			t.Fatalf("store changed: %s", data)
		}
	})
}

func TestConvertWithoutConfig(t *testing.T) {
	root := t.TempDir()
	ws := workspace.New(root)
	configs := resolve.NewConfigResolver(ws)
	c := NewConversionProvider(store.NewWriter(ws, configs), configs, settings.NewHolder(settings.Default()), configs)
	host := &fakeHost{applyOK: true}

	det, _ := detect.DetectStringLiteral(`Text('Hello there')`, 0, 6)
	if c.Convert(host, "u", filepath.Join(root, "lib", "main.dart"), det, "helloThere", det.Value) {
		t.Fatal("Convert() = true without configuration")
	}
	want := "Could not find translation file. Make sure slang.yml is configured properly."
	if m := host.last(); m.text != want {
		t.Fatalf("message = %q, want %q", m.text, want)
	}
}
