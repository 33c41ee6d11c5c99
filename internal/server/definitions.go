package server

import (
	"context"
	"os"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/typing"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
)

func (s *Server) onDefinition(_ *glsp.Context, p *protocol.DefinitionParams) (any, error) {
	text, offset, ok := s.documentAt(p.TextDocument.URI, p.Position)
	if !ok {
		return nil, nil
	}
	ctx := context.Background()
	uri := string(p.TextDocument.URI)

	analysis := s.resolver.Analyze(ctx, uri, text, offset)

	switch analysis.Kind {
	case typing.KindMemberAccess:
		// the cursor may sit in the middle of the member name; use the
		// whole word, not just the typed prefix
		return s.memberDefinition(analysis, identifierAt(text, offset)), nil
	case typing.KindClassName:
		return s.nameDefinition(ctx, uri, text, offset), nil
	}
	return nil, nil
}

// memberDefinition locates the declaration of the member named at the
// cursor on any of the candidate classes.
func (s *Server) memberDefinition(analysis typing.Analysis, word string) any {
	if word != "" {
		analysis.Partial = word
	}
	if analysis.Partial == "" {
		return nil
	}
	var locations []protocol.Location
	for _, view := range analysis.Candidates {
		for _, space := range []php.MemberSpace{php.SpaceMethod, php.SpaceProperty, php.SpaceConstant} {
			m, ok := view.Member(analysis.Partial, space)
			if !ok {
				continue
			}
			if loc, ok := s.locationFor(m.URI, m.Offset); ok {
				locations = append(locations, loc)
			}
			break
		}
	}
	if len(locations) == 0 {
		return nil
	}
	return locations
}

// nameDefinition resolves a bare identifier at the cursor: a class, then a
// function, then a constant.
func (s *Server) nameDefinition(ctx context.Context, uri, text string, offset int) any {
	word := identifierAt(text, offset)
	if word == "" {
		return nil
	}
	names := s.workspace.NameContextFor(uri)

	if cls, ok := s.workspace.FindClass(ctx, names.Resolve(word)); ok {
		if loc, ok := s.locationFor(cls.URI, cls.Offset); ok {
			return []protocol.Location{loc}
		}
	}
	if fn, ok := s.workspace.FindFunction(ctx, names.ResolveFunction(word)); ok {
		if loc, ok := s.locationFor(fn.URI, fn.Offset); ok {
			return []protocol.Location{loc}
		}
	}
	if c, ok := s.workspace.FindConstant(ctx, names.ResolveConstant(word)); ok {
		if loc, ok := s.locationFor(c.URI, c.Offset); ok {
			return []protocol.Location{loc}
		}
	}
	return nil
}

// locationFor converts a record's URI and byte offset into an LSP location.
// Stub-backed symbols live under synthetic URIs and are not navigable.
func (s *Server) locationFor(uri string, offset uint32) (protocol.Location, bool) {
	if uri == "" || utils.IsStubURI(uri) {
		return protocol.Location{}, false
	}

	text, ok := s.state.GetDocument(protocol.DocumentUri(uri))
	if !ok {
		data, err := os.ReadFile(utils.UriToPath(uri))
		if err != nil {
			return protocol.Location{}, false
		}
		text = string(data)
	}

	pos := offsetToPosition(text, int(offset))
	return protocol.Location{
		URI:   protocol.DocumentUri(uri),
		Range: protocol.Range{Start: pos, End: pos},
	}, true
}

// identifierAt returns the (possibly qualified) identifier under the
// cursor.
func identifierAt(text string, offset int) string {
	start := offset
	for start > 0 && (isWordByte(text[start-1]) || text[start-1] == '\\') {
		start--
	}
	end := offset
	for end < len(text) && (isWordByte(text[end]) || text[end] == '\\') {
		end++
	}
	return strings.Trim(text[start:end], "\\")
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
