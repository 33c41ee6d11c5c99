package server

import (
	"context"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/typing"
)

func (s *Server) onImplementation(_ *glsp.Context, p *protocol.ImplementationParams) (any, error) {
	text, offset, ok := s.documentAt(p.TextDocument.URI, p.Position)
	if !ok {
		return nil, nil
	}
	ctx := context.Background()
	uri := string(p.TextDocument.URI)

	analysis := s.resolver.Analyze(ctx, uri, text, offset)

	target := ""
	method := ""
	switch analysis.Kind {
	case typing.KindMemberAccess:
		// cursor on a method call: implementors overriding that method
		if len(analysis.Candidates) > 0 {
			target = analysis.Candidates[0].Class.FQN
			method = identifierAt(text, offset)
		}
	case typing.KindClassName:
		word := identifierAt(text, offset)
		if word == "" {
			return nil, nil
		}
		names := s.workspace.NameContextFor(uri)
		target = names.Resolve(word)
	}
	if target == "" {
		return nil, nil
	}

	implementors := s.workspace.FindImplementors(ctx, target, method)
	var locations []protocol.Location
	for _, cls := range implementors {
		if strings.EqualFold(cls.FQN, target) {
			continue
		}
		if loc, ok := s.locationFor(cls.URI, cls.Offset); ok {
			locations = append(locations, loc)
		}
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}
