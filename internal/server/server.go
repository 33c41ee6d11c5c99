// Package server wires the language server's request handlers into the LSP
// transport.
package server

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/AJenbo/phpantom-lsp/internal/composer"
	"github.com/AJenbo/phpantom-lsp/internal/state"
	"github.com/AJenbo/phpantom-lsp/internal/typing"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
	"github.com/AJenbo/phpantom-lsp/internal/workspace"
)

const lsName = "phpantom"

var version = "0.1.0"

// composerArtifacts matches the files whose changes require a Composer
// state reload.
var composerArtifacts = []glob.Glob{
	glob.MustCompile("**/composer.json"),
	glob.MustCompile("**/vendor/composer/autoload_*.php"),
}

// Server is the language server.
type Server struct {
	state     *state.State
	workspace *workspace.Workspace
	resolver  *typing.Resolver
	logger    commonlog.Logger
	root      string
	vendorDir string
	h         protocol.Handler
}

// NewServer creates a new server.
func NewServer() *Server {
	ws := workspace.New()
	s := &Server{
		state:     state.NewState(),
		workspace: ws,
		resolver:  typing.NewResolver(ws),
		logger:    commonlog.GetLoggerf("%s.server", lsName),
	}
	s.h = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.didOpen,
		TextDocumentDidChange:          s.didChange,
		TextDocumentDidClose:           s.didClose,
		TextDocumentCompletion:         s.onCompletion,
		TextDocumentDefinition:         s.onDefinition,
		TextDocumentImplementation:     s.onImplementation,
		WorkspaceDidChangeWatchedFiles: s.didChangeWatchedFiles,
	}
	return s
}

// Run runs the language server on stdio.
func (s *Server) Run() {
	server := glspserver.NewServer(&s.h, lsName, false)
	server.RunStdio()
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	caps := s.h.CreateServerCapabilities()

	openClose := true
	change := protocol.TextDocumentSyncKindFull
	caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}
	resolveProvider := false
	caps.CompletionProvider = &protocol.CompletionOptions{
		ResolveProvider:   &resolveProvider,
		TriggerCharacters: []string{">", ":", "$", "\\", "@", "'", "\""},
	}
	caps.DefinitionProvider = true
	caps.ImplementationProvider = true

	if params.RootURI != nil {
		s.root = utils.UriToPath(string(*params.RootURI))
	} else if len(params.WorkspaceFolders) > 0 {
		s.root = utils.UriToPath(params.WorkspaceFolders[0].URI)
	} else {
		s.root = "."
	}

	if params.InitializationOptions != nil {
		if m, ok := params.InitializationOptions.(map[string]any); ok {
			if vd, ok := m["vendor_dir"]; ok {
				if str, ok := vd.(string); ok && str != "" {
					s.vendorDir = str
				}
			}
		}
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	s.loadComposer()
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error { return nil }

func (s *Server) setTrace(_ *glsp.Context, p *protocol.SetTraceParams) error {
	protocol.SetTraceValue(p.Value)
	return nil
}

// loadComposer (re-)reads the Composer layout and seeds the files-autoload
// list so global helper functions resolve without a prior open.
func (s *Server) loadComposer() {
	layout, err := composer.Load(s.root, s.vendorDir)
	if err != nil {
		s.logger.Infof("composer degraded: %v", err)
	}
	s.workspace.SetLayout(layout)
	for _, path := range layout.Files {
		s.workspace.LoadFile(path)
	}
}

func (s *Server) didOpen(_ *glsp.Context, p *protocol.DidOpenTextDocumentParams) error {
	s.state.SetDocument(p.TextDocument.URI, p.TextDocument.Text)
	s.workspace.SetDocument(string(p.TextDocument.URI), p.TextDocument.Text)
	return nil
}

func (s *Server) didChange(_ *glsp.Context, p *protocol.DidChangeTextDocumentParams) error {
	text, ok := s.state.GetDocument(p.TextDocument.URI)
	if !ok {
		return nil
	}

	for _, c := range p.ContentChanges {
		switch ch := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = ch.Text
		case protocol.TextDocumentContentChangeEvent:
			start := ch.Range.Start.IndexIn(text)
			end := ch.Range.End.IndexIn(text)
			if start >= 0 && end >= start && end <= len(text) {
				text = text[:start] + ch.Text + text[end:]
			}
		}
	}
	s.state.SetDocument(p.TextDocument.URI, text)
	s.workspace.SetDocument(string(p.TextDocument.URI), text)
	return nil
}

func (s *Server) didClose(_ *glsp.Context, p *protocol.DidCloseTextDocumentParams) error {
	s.state.DeleteDocument(p.TextDocument.URI)
	s.workspace.RemoveDocument(string(p.TextDocument.URI))
	return nil
}

func (s *Server) didChangeWatchedFiles(_ *glsp.Context, p *protocol.DidChangeWatchedFilesParams) error {
	reload := false
	for _, change := range p.Changes {
		path := filepath.ToSlash(utils.UriToPath(string(change.URI)))
		for _, pattern := range composerArtifacts {
			if pattern.Match(path) {
				reload = true
			}
		}
	}
	if reload {
		s.logger.Info("composer artifacts changed, reloading layout")
		s.loadComposer()
	}
	return nil
}

// documentAt returns the open document's text and the cursor byte offset.
func (s *Server) documentAt(uri protocol.DocumentUri, position protocol.Position) (string, int, bool) {
	text, ok := s.state.GetDocument(uri)
	if !ok {
		return "", 0, false
	}
	offset := position.IndexIn(text)
	if offset < 0 || offset > len(text) {
		return "", 0, false
	}
	return text, offset, true
}

// offsetToPosition converts a byte offset into an LSP position.
func offsetToPosition(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(offset - lineStart),
	}
}
