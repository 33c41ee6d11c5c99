// Package completion builds LSP completion items from resolved candidates.
package completion

import (
	"fmt"
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/typing"
)

// magicMethods are hidden from member completion unless explicitly typed.
var magicMethods = map[string]struct{}{
	"__construct": {}, "__destruct": {}, "__call": {}, "__callStatic": {},
	"__get": {}, "__set": {}, "__isset": {}, "__unset": {}, "__sleep": {},
	"__wakeup": {}, "__serialize": {}, "__unserialize": {}, "__toString": {},
	"__invoke": {}, "__set_state": {}, "__clone": {}, "__debugInfo": {},
}

// Members builds the member completion list for a resolved subject. The
// union completion policy applies: every candidate class contributes its
// members, labelled with the originating class in the detail field.
func Members(analysis typing.Analysis) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]struct{})
	partial := strings.ToLower(strings.TrimPrefix(analysis.Partial, "$"))

	for _, view := range analysis.Candidates {
		for _, m := range view.All() {
			if !memberVisible(m, analysis) {
				continue
			}
			if !matchesPartial(m.Name, partial) {
				continue
			}
			if _, ok := magicMethods[m.Name]; ok && !strings.HasPrefix(partial, "__") {
				continue
			}
			key := fmt.Sprintf("%d/%s/%s", m.Kind, m.Name, m.Owner)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, memberItem(m))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		si, sj := "", ""
		if items[i].SortText != nil {
			si = *items[i].SortText
		}
		if items[j].SortText != nil {
			sj = *items[j].SortText
		}
		if si != sj {
			return si < sj
		}
		return items[i].Label < items[j].Label
	})
	return items
}

func memberVisible(m *php.Member, analysis typing.Analysis) bool {
	switch {
	case analysis.InOwnBody:
		// $this-> and self::/static:: inside the class body see everything
	case analysis.IsParent:
		if m.Visibility == php.Private {
			return false
		}
	default:
		if m.Visibility != php.Public {
			return false
		}
	}

	if analysis.IsStatic {
		switch m.Kind {
		case php.MemberProperty:
			return m.Static
		}
		return true
	}

	switch m.Kind {
	case php.MemberConstant, php.MemberEnumCase:
		return false
	case php.MemberProperty:
		return !m.Static
	}
	return true
}

func matchesPartial(name, partial string) bool {
	if partial == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(name), partial)
}

func memberItem(m *php.Member) protocol.CompletionItem {
	kind := protocol.CompletionItemKindProperty
	switch m.Kind {
	case php.MemberMethod:
		kind = protocol.CompletionItemKindMethod
	case php.MemberConstant:
		kind = protocol.CompletionItemKindConstant
	case php.MemberEnumCase:
		kind = protocol.CompletionItemKindEnumMember
	}

	detail := memberDetail(m)
	item := protocol.CompletionItem{
		Label:  m.Name,
		Kind:   &kind,
		Detail: &detail,
	}
	if m.DocSummary != "" {
		item.Documentation = m.DocSummary
	}
	if m.Deprecated {
		item.Tags = []protocol.CompletionItemTag{protocol.CompletionItemTagDeprecated}
	}
	if m.Kind == php.MemberMethod {
		insert, hasTabStops := methodSnippet(m)
		item.InsertText = &insert
		format := protocol.InsertTextFormatSnippet
		if !hasTabStops {
			format = protocol.InsertTextFormatPlainText
		}
		item.InsertTextFormat = &format
	}
	sortText := fmt.Sprintf("%d_%s", memberSortGroup(m), m.Name)
	item.SortText = &sortText
	return item
}

func memberSortGroup(m *php.Member) int {
	switch m.Kind {
	case php.MemberProperty:
		return 0
	case php.MemberMethod:
		return 1
	case php.MemberEnumCase:
		return 2
	}
	return 3
}

func memberDetail(m *php.Member) string {
	var b strings.Builder
	if m.Kind == php.MemberMethod {
		b.WriteString(m.Name)
		b.WriteString("(")
		for i, p := range m.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			if t := p.EffectiveType(); t != nil {
				b.WriteString(t.String())
				b.WriteString(" ")
			}
			if p.Variadic {
				b.WriteString("...")
			}
			b.WriteString("$")
			b.WriteString(p.Name)
		}
		b.WriteString(")")
		if t := m.EffectiveType(); t != nil {
			b.WriteString(": ")
			b.WriteString(t.String())
		}
	} else {
		if t := m.EffectiveType(); t != nil {
			b.WriteString(t.String())
			b.WriteString(" ")
		}
		b.WriteString(m.Name)
	}
	if m.Owner != "" {
		b.WriteString(" - ")
		b.WriteString(m.Owner)
	}
	return b.String()
}

// methodSnippet renders the insert text with tab stops for required
// parameters; none for no-arg or all-variadic methods.
func methodSnippet(m *php.Member) (string, bool) {
	var required []php.Param
	for _, p := range m.Params {
		if p.HasDefault || p.Variadic {
			continue
		}
		required = append(required, p)
	}
	if len(required) == 0 {
		return m.Name + "()", false
	}
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteString("(")
	for i, p := range required {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "${%d:\\$%s}", i+1, p.Name)
	}
	b.WriteString(")")
	return b.String(), true
}

// ArrayKeys builds items for shape-key completion.
func ArrayKeys(analysis typing.Analysis) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindValue
	partial := strings.ToLower(analysis.Partial)
	for _, key := range analysis.ShapeKeys {
		if !matchesPartial(key.Name, partial) {
			continue
		}
		detail := key.Type
		if key.Optional {
			detail += " (optional)"
		}
		item := protocol.CompletionItem{
			Label:  key.Name,
			Kind:   &kind,
			Detail: &detail,
		}
		if key.Description != "" {
			item.Documentation = key.Description
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// NamedArguments builds "name:" items for the callee's parameter list.
func NamedArguments(analysis typing.Analysis) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindVariable
	for i, p := range analysis.CalleeParams {
		label := p.Name + ":"
		detail := ""
		if t := p.EffectiveType(); t != nil {
			detail = t.String()
		}
		sortText := fmt.Sprintf("%02d_%s", i, p.Name)
		item := protocol.CompletionItem{
			Label:    label,
			Kind:     &kind,
			Detail:   &detail,
			SortText: &sortText,
		}
		items = append(items, item)
	}
	return items
}

// docblockTags is the supported tag set offered after "@" in a docblock.
var docblockTags = []string{
	"param", "return", "var", "throws", "deprecated",
	"property", "property-read", "property-write", "method", "mixin",
	"template", "template-covariant", "template-contravariant",
	"extends", "implements", "use",
	"phpstan-type", "phpstan-import-type", "psalm-type",
	"phpstan-assert", "phpstan-assert-if-true", "phpstan-assert-if-false",
	"phpstan-param", "phpstan-return", "phpstan-var",
	"psalm-param", "psalm-return", "psalm-var", "psalm-assert",
}

// DocblockTags builds tag completion items for "@" in a docblock.
func DocblockTags(partial string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindKeyword
	lower := strings.ToLower(partial)
	for _, tag := range docblockTags {
		if lower != "" && !strings.HasPrefix(tag, lower) {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label: tag,
			Kind:  &kind,
		})
	}
	return items
}
