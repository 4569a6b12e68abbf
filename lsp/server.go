// Package lsp serves slangref over the Language Server Protocol.
//
// The server keeps the text of open Dart documents, answers hovers over
// translation accessors, offers conversion code actions on string literals
// and executes the conversion commands the client sends back.
package lsp

import (
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/slang-tools/slangref/document"
	"github.com/slang-tools/slangref/provider"
	"github.com/slang-tools/slangref/resolve"
	"github.com/slang-tools/slangref/settings"
	"github.com/slang-tools/slangref/store"
	"github.com/slang-tools/slangref/workspace"
)

var log = commonlog.GetLogger("slangref.lsp")

// Server is a slangref language server.
type Server struct {
	name    string
	version string

	handler  protocol.Handler
	docs     *document.Store
	files    *workspace.Workspace
	settings *settings.Holder

	comments   *resolve.CommentResolver
	configs    *resolve.ConfigResolver
	hover      *provider.HoverProvider
	conversion *provider.ConversionProvider
}

// New returns a server starting from initial settings. Workspace roots are
// taken from the client at initialization.
func New(name, version string, initial settings.Settings) *Server {
	files := workspace.New()
	comments := resolve.NewCommentResolver(files)
	configs := resolve.NewConfigResolver(files)
	holder := settings.NewHolder(initial)

	s := &Server{
		name:       name,
		version:    version,
		docs:       document.NewStore(),
		files:      files,
		settings:   holder,
		comments:   comments,
		configs:    configs,
		hover:      provider.NewHoverProvider(comments, configs, holder),
		conversion: provider.NewConversionProvider(store.NewWriter(files, configs), configs, holder, comments, configs),
	}

	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.didOpen,
		TextDocumentDidChange:           s.didChange,
		TextDocumentDidClose:            s.didClose,
		TextDocumentHover:               s.textDocumentHover,
		TextDocumentCodeAction:          s.codeAction,
		WorkspaceExecuteCommand:         s.executeCommand,
		WorkspaceDidChangeConfiguration: s.didChangeConfiguration,
	}
	return s
}

// RunStdio serves on stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	log.Infof("starting %s %s", s.name, s.version)
	return server.NewServer(&s.handler, s.name, false).RunStdio()
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.files.SetRoots(workspaceRoots(params)...)
	log.Infof("workspace roots: %v", s.files.Roots())

	if err := s.settings.Merge(params.InitializationOptions); err != nil {
		log.Warningf("initialization options: %s", err)
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
	}
	capabilities.HoverProvider = true
	capabilities.CodeActionProvider = protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindRefactorRewrite},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: provider.Commands,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func workspaceRoots(params *protocol.InitializeParams) []string {
	var roots []string
	for _, f := range params.WorkspaceFolders {
		roots = append(roots, document.URIToPath(f.URI))
	}
	if len(roots) == 0 && params.RootURI != nil {
		roots = append(roots, document.URIToPath(*params.RootURI))
	}
	if len(roots) == 0 && params.RootPath != nil {
		roots = append(roots, *params.RootPath)
	}
	return roots
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	if err := s.settings.Merge(params.Settings); err != nil {
		log.Warningf("configuration: %s", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	td := params.TextDocument
	s.docs.Open(td.URI, td.Version, td.Text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	var changes []document.Change
	for _, c := range params.ContentChanges {
		switch c := c.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, document.Change{Range: convertRange(c.Range), Text: c.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, document.Change{Text: c.Text})
		}
	}
	return s.docs.ApplyChanges(params.TextDocument.URI, params.TextDocument.Version, changes)
}

func convertRange(r *protocol.Range) *document.Range {
	if r == nil {
		return nil
	}
	return &document.Range{
		Start: document.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   document.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.Close(params.TextDocument.URI)
	return nil
}

// lineAt returns the document, the text of line, and the byte offset of
// the UTF-16 character position on it.
func (s *Server) lineAt(uri string, pos protocol.Position) (*document.Document, string, int, bool) {
	d, ok := s.docs.Get(uri)
	if !ok {
		return nil, "", 0, false
	}
	line, ok := d.Line(int(pos.Line))
	if !ok {
		return nil, "", 0, false
	}
	return d, line, document.ByteOffset(line, int(pos.Character)), true
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	d, line, offset, ok := s.lineAt(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	h, ok := s.hover.Hover(d.Path, d.Text, line, int(params.Position.Line), offset)
	if !ok {
		return nil, nil
	}

	lineNo := params.Position.Line
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: h.Markdown,
		},
		Range: &protocol.Range{
			Start: protocol.Position{Line: lineNo, Character: protocol.UInteger(document.CharOffset(line, h.Accessor.Start))},
			End:   protocol.Position{Line: lineNo, Character: protocol.UInteger(document.CharOffset(line, h.Accessor.End))},
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Code actions and commands
// ---------------------------------------------------------------------------

func (s *Server) codeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	d, line, offset, ok := s.lineAt(params.TextDocument.URI, params.Range.Start)
	if !ok {
		return nil, nil
	}

	kind := protocol.CodeActionKindRefactorRewrite
	var out []protocol.CodeAction
	for _, a := range s.conversion.CodeActions(d.URI, d.Path, line, int(params.Range.Start.Line), offset) {
		preferred := a.Preferred
		out = append(out, protocol.CodeAction{
			Title:       a.Title,
			Kind:        &kind,
			IsPreferred: &preferred,
			Command: &protocol.Command{
				Title:     a.Title,
				Command:   a.Command,
				Arguments: a.Arguments,
			},
		})
	}
	return out, nil
}

func (s *Server) executeCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	host := &clientHost{ctx: ctx, docs: s.docs}

	switch params.Command {
	case provider.CommandConvert:
		args, err := decodeConvertArgs(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.conversion.Convert(host, args.URI, document.URIToPath(args.URI), args.Detection, args.Key, args.Value)

	case provider.CommandConvertCustomKey:
		args, err := decodeCustomKeyArgs(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.conversion.ConvertWithCustomKey(host, args.URI, document.URIToPath(args.URI), args.Detection, args.Key)

	case provider.CommandClearCache:
		s.conversion.ClearCaches()
		host.ShowMessage(provider.MessageInfo, clearedMessage())

	default:
		log.Warningf("unknown command %q", params.Command)
	}
	return nil, nil
}
