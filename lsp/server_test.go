package lsp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/document"
	"github.com/slang-tools/slangref/provider"
	"github.com/slang-tools/slangref/settings"
)

type call struct {
	method string
	params any
}

// fakeClient records traffic and answers requests with canned responses.
type fakeClient struct {
	notified  []call
	called    []call
	responses map[string]any
}

func (c *fakeClient) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			c.notified = append(c.notified, call{method, params})
		},
		Call: func(method string, params any, result any) {
			c.called = append(c.called, call{method, params})
			if resp, ok := c.responses[method]; ok {
				data, _ := json.Marshal(resp)
				_ = json.Unmarshal(data, result)
			}
		},
	}
}

func (c *fakeClient) messages() []string {
	var out []string
	for _, n := range c.notified {
		if p, ok := n.params.(protocol.ShowMessageParams); ok {
			out = append(out, p.Message)
		}
	}
	return out
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

const source = `import 'package:flutter/material.dart';

Widget build(BuildContext context) {
  return Column(children: [
    Text(t.home.title),
    Text('Welcome to the app'),
  ]);
}
`

func setup(t *testing.T) (*Server, string, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "slang.yaml"), "base_locale: en\ninput_directory: lib/i18n\ninput_file_pattern: .i18n.json\n")
	writeFile(t, filepath.Join(root, "lib", "i18n", "en.i18n.json"), `{"home": {"title": "Home"}}`)
	docPath := filepath.Join(root, "lib", "main.dart")
	writeFile(t, docPath, source)

	s := New("slangref", "test", settings.Default())
	rootURI := document.PathToURI(root)
	_, err := s.initialize(nil, &protocol.InitializeParams{
		RootURI:               &rootURI,
		InitializationOptions: map[string]any{"slangReferences": map[string]any{"showDetailedInfo": false}},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	uri := document.PathToURI(docPath)
	if err := s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "dart", Version: 1, Text: source},
	}); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	return s, root, uri
}

func TestInitializeCapabilities(t *testing.T) {
	s := New("slangref", "1.0", settings.Default())
	folder := document.PathToURI(t.TempDir())
	res, err := s.initialize(nil, &protocol.InitializeParams{
		WorkspaceFolders:      []protocol.WorkspaceFolder{{URI: folder, Name: "app"}},
		InitializationOptions: map[string]any{"slangReferences": map[string]any{"enableStringConversion": false}},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	result, ok := res.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("initialize result type %T", res)
	}
	if result.ServerInfo == nil || result.ServerInfo.Name != "slangref" || *result.ServerInfo.Version != "1.0" {
		t.Fatalf("ServerInfo = %+v", result.ServerInfo)
	}
	if result.Capabilities.ExecuteCommandProvider == nil || len(result.Capabilities.ExecuteCommandProvider.Commands) != 3 {
		t.Fatalf("ExecuteCommandProvider = %+v", result.Capabilities.ExecuteCommandProvider)
	}
	if roots := s.files.Roots(); len(roots) != 1 || roots[0] != document.URIToPath(folder) {
		t.Fatalf("Roots() = %q", roots)
	}
	if s.settings.Get().ConversionEnabled {
		t.Fatal("initializationOptions did not disable conversion")
	}
}

func TestHover(t *testing.T) {
	s, _, uri := setup(t)

	pos := protocol.Position{Line: 4, Character: uint32(strings.Index("    Text(t.home.title),", "title") + 2)}
	h, err := s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
	if err != nil {
		t.Fatalf("hover: %v", err)
	}
	if h == nil {
		t.Fatal("hover = nil")
	}
	content, ok := h.Contents.(protocol.MarkupContent)
	if !ok || content.Value != "```text\nHome\n```" {
		t.Fatalf("hover contents = %+v", h.Contents)
	}
	if h.Range.Start.Character != 9 || h.Range.End.Character != 21 {
		t.Fatalf("hover range = %+v", h.Range)
	}

	h, _ = s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 2},
		},
	})
	if h != nil {
		t.Fatalf("hover on import = %+v", h)
	}
}

func TestCodeActionAndConvert(t *testing.T) {
	s, root, uri := setup(t)

	res, err := s.codeAction(nil, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range: protocol.Range{
			Start: protocol.Position{Line: 5, Character: 12},
			End:   protocol.Position{Line: 5, Character: 12},
		},
	})
	if err != nil {
		t.Fatalf("codeAction: %v", err)
	}
	actions, ok := res.([]protocol.CodeAction)
	if !ok || len(actions) < 2 {
		t.Fatalf("codeAction = %#v", res)
	}
	first := actions[0]
	if first.Title != "Convert to translation: t.welcomeToTheApp" || first.IsPreferred == nil || !*first.IsPreferred {
		t.Fatalf("first action = %+v", first)
	}
	if *first.Kind != protocol.CodeActionKindRefactorRewrite {
		t.Fatalf("kind = %q", *first.Kind)
	}

	// Arguments travel through JSON to the client and back.
	data, err := json.Marshal(first.Command.Arguments)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var args []any
	if err := json.Unmarshal(data, &args); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	client := &fakeClient{responses: map[string]any{
		"workspace/applyEdit": protocol.ApplyWorkspaceEditResponse{Applied: true},
	}}
	if _, err := s.executeCommand(client.context(), &protocol.ExecuteCommandParams{
		Command:   provider.CommandConvert,
		Arguments: args,
	}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}

	if len(client.called) != 1 {
		t.Fatalf("client calls = %+v", client.called)
	}
	edit := client.called[0].params.(protocol.ApplyWorkspaceEditParams)
	edits := edit.Edit.Changes[uri]
	if len(edits) != 1 || edits[0].NewText != "t.welcomeToTheApp" {
		t.Fatalf("edits = %+v", edits)
	}
	if r := edits[0].Range; r.Start.Line != 5 || r.Start.Character != 9 || r.End.Character != 29 {
		t.Fatalf("edit range = %+v", r)
	}
	if msgs := client.messages(); len(msgs) != 1 || msgs[0] != "Translation key 'welcomeToTheApp' added successfully!" {
		t.Fatalf("messages = %q", msgs)
	}

	data, _ = os.ReadFile(filepath.Join(root, "lib", "i18n", "en.i18n.json"))
	if !strings.Contains(string(data), `"welcomeToTheApp": "Welcome to the app"`) {
		t.Fatalf("store = %s", data)
	}
}

func TestCustomKeyCommand(t *testing.T) {
	s, _, uri := setup(t)
	det, ok := detect.DetectStringLiteral("    Text('Welcome to the app'),", 5, 12)
	if !ok {
		t.Fatal("no detection")
	}

	// Dismissed prompt cancels silently.
	client := &fakeClient{responses: map[string]any{}}
	if _, err := s.executeCommand(client.context(), &protocol.ExecuteCommandParams{
		Command:   provider.CommandConvertCustomKey,
		Arguments: []any{uri, det},
	}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	if len(client.called) != 1 || client.called[0].method != "window/showMessageRequest" {
		t.Fatalf("calls = %+v", client.called)
	}
	if len(client.notified) != 0 {
		t.Fatalf("notifications after cancel = %+v", client.notified)
	}

	// A key argument skips the prompt.
	client = &fakeClient{responses: map[string]any{
		"workspace/applyEdit": protocol.ApplyWorkspaceEditResponse{Applied: true},
	}}
	if _, err := s.executeCommand(client.context(), &protocol.ExecuteCommandParams{
		Command:   provider.CommandConvertCustomKey,
		Arguments: []any{uri, det, "home.welcome"},
	}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	if len(client.called) != 1 || client.called[0].method != "workspace/applyEdit" {
		t.Fatalf("calls = %+v", client.called)
	}
}

func TestClearCacheCommand(t *testing.T) {
	s, _, _ := setup(t)
	client := &fakeClient{}
	if _, err := s.executeCommand(client.context(), &protocol.ExecuteCommandParams{Command: provider.CommandClearCache}); err != nil {
		t.Fatalf("executeCommand: %v", err)
	}
	if msgs := client.messages(); len(msgs) != 1 || msgs[0] != "Translation caches cleared" {
		t.Fatalf("messages = %q", msgs)
	}
}

func TestDidChange(t *testing.T) {
	s, _, uri := setup(t)
	err := s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 5, Character: 10},
					End:   protocol.Position{Line: 5, Character: 17},
				},
				Text: "Goodbye",
			},
		},
	})
	if err != nil {
		t.Fatalf("didChange: %v", err)
	}
	d, _ := s.docs.Get(uri)
	if line, _ := d.Line(5); line != "    Text('Goodbye to the app')," {
		t.Fatalf("line 5 = %q", line)
	}
}

func TestDecodeArgs(t *testing.T) {
	det := map[string]any{"value": "Hi there", "line": 2.0, "start": 5.0, "end": 15.0, "context": "constructor-argument"}

	a, err := decodeConvertArgs([]any{"file:///a.dart", det, "hiThere", "Hi there"})
	if err != nil {
		t.Fatalf("decodeConvertArgs: %v", err)
	}
	if a.Detection.Line != 2 || a.Detection.Context != detect.ContextConstructorArgument || a.Key != "hiThere" {
		t.Fatalf("decoded = %+v", a)
	}

	tests := []struct {
		name string
		args []any
	}{
		{"too few", []any{"file:///a.dart", det}},
		{"empty key", []any{"file:///a.dart", det, "", "x"}},
		{"bad detection", []any{"file:///a.dart", "nope", "k", "v"}},
		{"empty span", []any{"file:///a.dart", map[string]any{"start": 3.0, "end": 3.0}, "k", "v"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeConvertArgs(tc.args); err == nil {
				t.Fatal("decodeConvertArgs succeeded, want error")
			}
		})
	}

	c, err := decodeCustomKeyArgs([]any{"file:///a.dart", det, nil})
	if err != nil {
		t.Fatalf("decodeCustomKeyArgs: %v", err)
	}
	if c.Key != "" || c.Value != "Hi there" {
		t.Fatalf("decoded = %+v", c)
	}
}
