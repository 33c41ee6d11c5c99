package server

import (
	"testing"

	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func openDoc(t *testing.T, s *Server, uri, text string) {
	t.Helper()
	err := s.didOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  protocol.DocumentUri(uri),
			Text: text,
		},
	})
	require.NoError(t, err)
}

func TestInitializeCapabilities(t *testing.T) {
	s := NewServer()
	result, err := s.initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.Capabilities.CompletionProvider)
	require.Contains(t, init.Capabilities.CompletionProvider.TriggerCharacters, ">")
	require.Equal(t, true, init.Capabilities.DefinitionProvider)
	require.Equal(t, true, init.Capabilities.ImplementationProvider)
}

func TestCompletionEndToEnd(t *testing.T) {
	s := NewServer()
	code := `<?php
namespace App;

class User {
	public string $email;
	public function getEmail(): string { return $this->email; }
}

function f(): void {
	$u = new User();
	$u->
}
`
	openDoc(t, s, "file:///main.php", code)

	result, err := s.onCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///main.php"},
			Position:     protocol.Position{Line: 10, Character: 5},
		},
	})
	require.NoError(t, err)
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok)

	var names []string
	for _, item := range items {
		names = append(names, item.Label)
	}
	require.Contains(t, names, "email")
	require.Contains(t, names, "getEmail")
}

func TestDefinitionEndToEnd(t *testing.T) {
	s := NewServer()
	code := `<?php
namespace App;

class Target {
	public function hit(): void {}
}

function f(): void {
	$t = new Target();
	$t->hit();
}
`
	openDoc(t, s, "file:///def.php", code)

	result, err := s.onDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///def.php"},
			// cursor on "hit" in the call
			Position: protocol.Position{Line: 9, Character: 6},
		},
	})
	require.NoError(t, err)
	locations, ok := result.([]protocol.Location)
	require.True(t, ok)
	require.Len(t, locations, 1)
	require.Equal(t, protocol.DocumentUri("file:///def.php"), locations[0].URI)
	// the method declaration is on line 4
	require.Equal(t, protocol.UInteger(4), locations[0].Range.Start.Line)
}

func TestImplementationEndToEnd(t *testing.T) {
	s := NewServer()
	code := `<?php
namespace App;

interface Cacheable {}
class RedisCache implements Cacheable {}
class MemCache extends RedisCache {}
`
	openDoc(t, s, "file:///impl.php", code)

	result, err := s.onImplementation(nil, &protocol.ImplementationParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///impl.php"},
			// cursor on "Cacheable" in the interface declaration
			Position: protocol.Position{Line: 3, Character: 12},
		},
	})
	require.NoError(t, err)
	locations, ok := result.([]protocol.Location)
	require.True(t, ok)
	require.Len(t, locations, 2)
}

func TestDidChangeWholeDocument(t *testing.T) {
	s := NewServer()
	openDoc(t, s, "file:///chg.php", "<?php\nclass A {}\n")

	err := s.didChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///chg.php"},
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "<?php\nclass B {}\n"},
		},
	})
	require.NoError(t, err)

	text, ok := s.state.GetDocument("file:///chg.php")
	require.True(t, ok)
	require.Contains(t, text, "class B")
}
