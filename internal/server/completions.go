package server

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/completion"
	"github.com/AJenbo/phpantom-lsp/internal/typing"
)

func (s *Server) onCompletion(_ *glsp.Context, p *protocol.CompletionParams) (any, error) {
	text, offset, ok := s.documentAt(p.TextDocument.URI, p.Position)
	if !ok {
		return nil, nil
	}
	ctx := context.Background()

	analysis := s.resolver.Analyze(ctx, string(p.TextDocument.URI), text, offset)

	switch analysis.Kind {
	case typing.KindMemberAccess:
		return completion.Members(analysis), nil
	case typing.KindDocblockTag:
		return completion.DocblockTags(analysis.Partial), nil
	case typing.KindArrayKey:
		return completion.ArrayKeys(analysis), nil
	case typing.KindNamedArgument:
		return completion.NamedArguments(analysis), nil
	case typing.KindClassName:
		return s.classNameCompletion(ctx, p, text, analysis), nil
	}
	return nil, nil
}

func (s *Server) classNameCompletion(ctx context.Context, p *protocol.CompletionParams, text string, analysis typing.Analysis) protocol.CompletionList {
	switch analysis.Context {
	case typing.CtxUseFunction:
		return protocol.CompletionList{Items: completion.FunctionNames(s.workspace, analysis.Partial)}
	case typing.CtxUseConst:
		return protocol.CompletionList{Items: completion.ConstantNames(s.workspace, analysis.Partial)}
	}

	items, incomplete := completion.ClassNames(ctx, s.workspace, completion.ClassNameRequest{
		URI:      string(p.TextDocument.URI),
		Text:     text,
		Position: p.Position,
		Partial:  analysis.Partial,
		Context:  analysis.Context,
	})

	if analysis.Context == typing.CtxAny && analysis.Partial != "" {
		// a bare identifier may also be a function or constant
		items = append(items, completion.FunctionNames(s.workspace, analysis.Partial)...)
		items = append(items, completion.ConstantNames(s.workspace, analysis.Partial)...)
	}

	return protocol.CompletionList{IsIncomplete: incomplete, Items: items}
}
