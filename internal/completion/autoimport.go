package completion

import (
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/php"
)

// autoImportEdit computes the text edit inserting "use FQN;" for a selected
// class. Returns (nil, false) when no import is needed (same namespace,
// global class used from the global namespace, or already imported) and
// (nil, true) when the short name is taken by a conflicting import, in
// which case the caller inserts the FQN inline instead.
func autoImportEdit(text, fqn, namespace string, uses map[string]string) (*protocol.TextEdit, bool) {
	short := php.ShortName(fqn)

	if strings.EqualFold(namespaceOf(fqn), namespace) {
		return nil, false
	}
	if existing, ok := uses[strings.ToLower(short)]; ok {
		if strings.EqualFold(existing, fqn) {
			return nil, false
		}
		return nil, true
	}
	if namespace == "" && !strings.Contains(fqn, "\\") {
		return nil, false
	}

	line := importInsertLine(text, fqn)
	edit := &protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: 0},
		},
		NewText: "use " + fqn + ";\n",
	}
	return edit, false
}

// importInsertLine picks the alphabetically correct line within the
// existing use block; when there is none, the line two below the namespace
// declaration (past the blank line that follows it), or else the line after
// the opening tag.
func importInsertLine(text, fqn string) protocol.UInteger {
	lines := strings.Split(text, "\n")

	type useLine struct {
		line int
		fqn  string
	}
	var usesFound []useLine
	namespaceLine := -1
	openTagLine := -1

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(trimmed, "<?php"):
			openTagLine = i
		case strings.HasPrefix(trimmed, "namespace ") && strings.HasSuffix(trimmed, ";"):
			namespaceLine = i
		case strings.HasPrefix(trimmed, "use ") && strings.HasSuffix(trimmed, ";") &&
			!strings.HasPrefix(trimmed, "use function") && !strings.HasPrefix(trimmed, "use const"):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "use "), ";")
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = name[:idx]
			}
			usesFound = append(usesFound, useLine{line: i, fqn: strings.TrimSpace(name)})
		}
	}

	if len(usesFound) > 0 {
		sort.SliceStable(usesFound, func(i, j int) bool { return usesFound[i].line < usesFound[j].line })
		for _, u := range usesFound {
			if strings.ToLower(fqn) < strings.ToLower(u.fqn) {
				return protocol.UInteger(u.line)
			}
		}
		return protocol.UInteger(usesFound[len(usesFound)-1].line + 1)
	}
	if namespaceLine >= 0 {
		return protocol.UInteger(namespaceLine + 2)
	}
	if openTagLine >= 0 {
		return protocol.UInteger(openTagLine + 1)
	}
	return 0
}
