package completion

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/stubs"
	"github.com/AJenbo/phpantom-lsp/internal/workspace"
)

// FunctionNames builds completion items for global functions: the parsed
// table first (with parameter snippets), then stub names not yet loaded.
func FunctionNames(ws *workspace.Workspace, partial string) []protocol.CompletionItem {
	lower := strings.ToLower(partial)
	kind := protocol.CompletionItemKindFunction
	var items []protocol.CompletionItem
	seen := make(map[string]struct{})

	for _, fn := range ws.Functions() {
		if !matchesPartial(fn.Name, lower) && !matchesPartial(fn.FQN, lower) {
			continue
		}
		key := strings.ToLower(fn.FQN)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		detail := memberDetail(&fn.Member)
		insert, hasTabStops := methodSnippet(&fn.Member)
		format := protocol.InsertTextFormatSnippet
		if !hasTabStops {
			format = protocol.InsertTextFormatPlainText
		}
		sortText := "0_" + fn.Name
		items = append(items, protocol.CompletionItem{
			Label:            fn.Name,
			Kind:             &kind,
			Detail:           &detail,
			InsertText:       &insert,
			InsertTextFormat: &format,
			SortText:         &sortText,
		})
	}

	for _, name := range stubs.FunctionNames() {
		if !matchesPartial(name, lower) {
			continue
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		sortText := "1_" + name
		items = append(items, protocol.CompletionItem{
			Label:    name,
			Kind:     &kind,
			SortText: &sortText,
		})
	}

	sort.Slice(items, func(i, j int) bool { return *items[i].SortText < *items[j].SortText })
	if len(items) > maxClassItems {
		items = items[:maxClassItems]
	}
	return items
}

// ConstantNames builds completion items for global constants from the
// define() table and the stub constant names.
func ConstantNames(ws *workspace.Workspace, partial string) []protocol.CompletionItem {
	lower := strings.ToLower(partial)
	kind := protocol.CompletionItemKindConstant
	var items []protocol.CompletionItem
	seen := make(map[string]struct{})

	for _, c := range ws.Constants() {
		if !matchesPartial(c.Name, lower) {
			continue
		}
		key := strings.ToLower(c.FQN)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		detail := c.FQN
		if c.Value != "" {
			detail += " = " + c.Value
		}
		sortText := "0_" + c.Name
		items = append(items, protocol.CompletionItem{
			Label:    c.Name,
			Kind:     &kind,
			Detail:   &detail,
			SortText: &sortText,
		})
	}

	for _, name := range stubs.ConstantNames() {
		if !matchesPartial(name, lower) {
			continue
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		sortText := "1_" + name
		items = append(items, protocol.CompletionItem{
			Label:    name,
			Kind:     &kind,
			SortText: &sortText,
		})
	}

	sort.Slice(items, func(i, j int) bool { return *items[i].SortText < *items[j].SortText })
	if len(items) > maxClassItems {
		items = items[:maxClassItems]
	}
	return items
}
