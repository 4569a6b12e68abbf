package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/slang-tools/slangref/document"
	"github.com/slang-tools/slangref/i18n"
	"github.com/slang-tools/slangref/provider"
)

// clientHost is provider.Host over an LSP connection.
type clientHost struct {
	ctx  *glsp.Context
	docs *document.Store
}

func (h *clientHost) ApplyEdit(e provider.Edit) (bool, error) {
	start, end := e.Start, e.End
	if d, ok := h.docs.Get(e.URI); ok {
		if line, ok := d.Line(e.Line); ok {
			start = document.CharOffset(line, e.Start)
			end = document.CharOffset(line, e.End)
		}
	}

	lineNo := protocol.UInteger(e.Line)
	params := protocol.ApplyWorkspaceEditParams{
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				e.URI: {{
					Range: protocol.Range{
						Start: protocol.Position{Line: lineNo, Character: protocol.UInteger(start)},
						End:   protocol.Position{Line: lineNo, Character: protocol.UInteger(end)},
					},
					NewText: e.NewText,
				}},
			},
		},
	}

	var resp protocol.ApplyWorkspaceEditResponse
	h.ctx.Call("workspace/applyEdit", params, &resp)
	if !resp.Applied && resp.FailureReason != nil {
		return false, fmt.Errorf("%s", *resp.FailureReason)
	}
	return resp.Applied, nil
}

func (h *clientHost) ShowMessage(kind provider.MessageKind, message string) {
	h.ctx.Notify("window/showMessage", protocol.ShowMessageParams{
		Type:    messageType(kind),
		Message: message,
	})
}

// Prompt offers defaultValue as a one-click choice. LSP has no free-text
// input request, so other keys must come as a command argument.
func (h *clientHost) Prompt(message, defaultValue string, validate func(string) string) (string, bool, error) {
	if msg := validate(defaultValue); msg != "" {
		return "", false, fmt.Errorf("%s", msg)
	}
	choice, ok := h.request(protocol.MessageTypeInfo,
		fmt.Sprintf(i18n.T("Use translation key '%s'?"), defaultValue),
		defaultValue, i18n.T("Cancel"))
	if !ok || choice != defaultValue {
		return "", false, nil
	}
	return defaultValue, true, nil
}

func (h *clientHost) Confirm(message, yes, no string) (bool, error) {
	choice, ok := h.request(protocol.MessageTypeWarning, message, yes, no)
	return ok && choice == yes, nil
}

// request sends window/showMessageRequest and returns the chosen title.
// ok is false when the user dismissed the message.
func (h *clientHost) request(kind protocol.MessageType, message string, titles ...string) (string, bool) {
	actions := make([]protocol.MessageActionItem, len(titles))
	for i, t := range titles {
		actions[i] = protocol.MessageActionItem{Title: t}
	}

	var item *protocol.MessageActionItem
	h.ctx.Call("window/showMessageRequest", protocol.ShowMessageRequestParams{
		Type:    kind,
		Message: message,
		Actions: actions,
	}, &item)
	if item == nil {
		return "", false
	}
	return item.Title, true
}

func messageType(kind provider.MessageKind) protocol.MessageType {
	switch kind {
	case provider.MessageError:
		return protocol.MessageTypeError
	case provider.MessageWarning:
		return protocol.MessageTypeWarning
	}
	return protocol.MessageTypeInfo
}

func clearedMessage() string {
	return i18n.T("Translation caches cleared")
}
