// Package workspace owns the session state: the ast map of parsed records,
// the class/function/constant indexes, symbol lookup, inheritance merging
// and the implementation scan. All loading is lazy and request-driven; there
// is no indexing phase.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/AJenbo/phpantom-lsp/internal/composer"
	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
)

// Workspace is the process-wide symbol state. Mutations are serialised per
// document URI through the single mutex; readers take snapshots of the
// record pointers, which are never mutated after commit.
type Workspace struct {
	mu     sync.RWMutex
	logger commonlog.Logger

	// astMap holds every parsed file's records, keyed by URI. Stub-sourced
	// parses use synthetic stub-class:// and stub-fn:// URIs.
	astMap map[string]*php.FileRecords
	// classIndex maps lowercased FQN to the owning URI.
	classIndex map[string]string
	// functions and constants are keyed by lowercased FQN. User definitions
	// always win over stub entries.
	functions map[string]*php.Function
	constants map[string]*php.Constant

	layout *composer.Layout
}

func New() *Workspace {
	return &Workspace{
		logger:     commonlog.GetLoggerf("phpantom.workspace"),
		astMap:     make(map[string]*php.FileRecords),
		classIndex: make(map[string]string),
		functions:  make(map[string]*php.Function),
		constants:  make(map[string]*php.Constant),
	}
}

// SetLayout installs the Composer state. Called on initialized and again on
// watched-file changes; the swap invalidates vendor entries so stale paths
// are re-derived.
func (ws *Workspace) SetLayout(layout *composer.Layout) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	old := ws.layout
	ws.layout = layout
	if old == nil || old.VendorDir == "" {
		return
	}
	vendorPrefix := old.VendorDir + string(filepath.Separator)
	for uri := range ws.astMap {
		path := utils.UriToPath(uri)
		if strings.HasPrefix(path, vendorPrefix) {
			ws.dropRecordsLocked(uri)
		}
	}
}

// Layout returns the current Composer state, which may be nil before
// initialization or when loading degraded.
func (ws *Workspace) Layout() *composer.Layout {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.layout
}

// SetDocument parses the document text and commits its records, replacing
// whatever the URI held before. Extraction failures keep the previous
// records: a catastrophically unparsable buffer should not wipe state.
func (ws *Workspace) SetDocument(uri string, text string) {
	records, err := php.Extract(uri, []byte(text))
	if err != nil {
		ws.logger.Debugf("extract %s: %v", uri, err)
		return
	}
	ws.Commit(records)
}

// LoadFile parses a file from disk into the workspace, used to seed the
// Composer files-autoload list eagerly.
func (ws *Workspace) LoadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		ws.logger.Debugf("load %s: %v", path, err)
		return
	}
	records, err := php.Extract(utils.PathToURI(path), data)
	if err != nil {
		ws.logger.Debugf("extract %s: %v", path, err)
		return
	}
	ws.Commit(records)
}

// RemoveDocument drops the records for a closed document.
func (ws *Workspace) RemoveDocument(uri string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.dropRecordsLocked(uri)
}

// Commit atomically installs a file's records into the ast map and all
// indexes. Earlier records for the same URI are replaced; function and
// constant tables follow a create-if-absent discipline across URIs so user
// definitions are never shadowed by stub parses.
func (ws *Workspace) Commit(records *php.FileRecords) {
	if records == nil {
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.dropRecordsLocked(records.URI)
	ws.astMap[records.URI] = records

	stub := utils.IsStubURI(records.URI)
	for _, cls := range records.Classes {
		key := strings.ToLower(cls.FQN)
		if existing, ok := ws.classIndex[key]; ok && stub && !utils.IsStubURI(existing) {
			continue
		}
		ws.classIndex[key] = records.URI
	}
	for _, fn := range records.Functions {
		key := strings.ToLower(fn.FQN)
		if existing, ok := ws.functions[key]; ok && stub && !utils.IsStubURI(existing.URI) {
			continue
		}
		ws.functions[key] = fn
	}
	for _, c := range records.Constants {
		key := strings.ToLower(c.FQN)
		if existing, ok := ws.constants[key]; ok && stub && !utils.IsStubURI(existing.URI) {
			continue
		}
		ws.constants[key] = c
	}
}

func (ws *Workspace) dropRecordsLocked(uri string) {
	records, ok := ws.astMap[uri]
	if !ok {
		return
	}
	delete(ws.astMap, uri)
	for _, cls := range records.Classes {
		key := strings.ToLower(cls.FQN)
		if ws.classIndex[key] == uri {
			delete(ws.classIndex, key)
		}
	}
	for key, fn := range ws.functions {
		if fn.URI == uri {
			delete(ws.functions, key)
		}
	}
	for key, c := range ws.constants {
		if c.URI == uri {
			delete(ws.constants, key)
		}
	}
}

// Records returns the parsed records for a URI, when present.
func (ws *Workspace) Records(uri string) (*php.FileRecords, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	records, ok := ws.astMap[uri]
	return records, ok
}

// NameContextFor returns the naming state for a URI, for resolving
// references typed at the cursor.
func (ws *Workspace) NameContextFor(uri string) *php.NameContext {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	records, ok := ws.astMap[uri]
	if !ok {
		return &php.NameContext{}
	}
	return &php.NameContext{
		Namespace:    records.Namespace,
		Uses:         records.Uses,
		FunctionUses: records.FunctionUses,
		ConstantUses: records.ConstantUses,
	}
}

// AllRecords snapshots the ast map values.
func (ws *Workspace) AllRecords() []*php.FileRecords {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]*php.FileRecords, 0, len(ws.astMap))
	for _, records := range ws.astMap {
		out = append(out, records)
	}
	return out
}

// ClassIndex snapshots the FQN → URI table.
func (ws *Workspace) ClassIndex() map[string]string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make(map[string]string, len(ws.classIndex))
	for k, v := range ws.classIndex {
		out[k] = v
	}
	return out
}

// Functions snapshots the global function table.
func (ws *Workspace) Functions() []*php.Function {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]*php.Function, 0, len(ws.functions))
	for _, fn := range ws.functions {
		out = append(out, fn)
	}
	return out
}

// Constants snapshots the global constant table.
func (ws *Workspace) Constants() []*php.Constant {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]*php.Constant, 0, len(ws.constants))
	for _, c := range ws.constants {
		out = append(out, c)
	}
	return out
}
