package workspace

import (
	"context"
	"os"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/stubs"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
)

// FindClass resolves an FQN to its record through four phases: the FQN
// index, a short-name scan of already-parsed records, PSR-4 path derivation,
// and the baked stub table. Successful disk and stub parses are committed
// before the result returns; a cancelled request aborts between phases
// without committing anything.
func (ws *Workspace) FindClass(ctx context.Context, name string) (*php.ClassLike, bool) {
	name = php.NormalizeFQN(name)
	if name == "" {
		return nil, false
	}
	key := strings.ToLower(name)

	// phase 1: FQN index
	if cls, ok := ws.classByIndex(key); ok {
		return cls, true
	}
	if ctx.Err() != nil {
		return nil, false
	}

	// phase 2: short-name scan of parsed records
	short := strings.ToLower(php.ShortName(name))
	if !strings.Contains(name, "\\") {
		ws.mu.RLock()
		for _, records := range ws.astMap {
			for _, cls := range records.Classes {
				if strings.ToLower(cls.Name) == short {
					ws.mu.RUnlock()
					return cls, true
				}
			}
		}
		ws.mu.RUnlock()
	}
	if ctx.Err() != nil {
		return nil, false
	}

	// phase 3: PSR-4 path derivation
	layout := ws.Layout()
	if layout != nil {
		for _, path := range layout.Resolve(name) {
			if ctx.Err() != nil {
				return nil, false
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			records, err := php.Extract(utils.PathToURI(path), data)
			if err != nil {
				continue
			}
			ws.Commit(records)
			if cls, ok := ws.classByIndex(key); ok {
				return cls, true
			}
		}
	}
	if ctx.Err() != nil {
		return nil, false
	}

	// phase 4: baked stubs, by short name
	shortExact := php.ShortName(name)
	if src, ok := stubs.ClassSource(shortExact); ok {
		uri := utils.StubClassURI(shortExact)
		if _, parsed := ws.Records(uri); !parsed {
			records, err := php.Extract(uri, []byte(src))
			if err == nil {
				ws.Commit(records)
			}
		}
		if cls, ok := ws.classByIndex(strings.ToLower(shortExact)); ok {
			return cls, true
		}
	}

	return nil, false
}

func (ws *Workspace) classByIndex(lowerFQN string) (*php.ClassLike, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	uri, ok := ws.classIndex[lowerFQN]
	if !ok {
		return nil, false
	}
	records, ok := ws.astMap[uri]
	if !ok {
		return nil, false
	}
	for _, cls := range records.Classes {
		if strings.ToLower(cls.FQN) == lowerFQN {
			return cls, true
		}
	}
	return nil, false
}

// FindFunction resolves an ordered candidate list (use-map resolved,
// namespace-qualified, bare) against the global function table and then the
// stub function files. A stub hit parses every function of its file, with
// create-if-absent insertion so user definitions always win.
func (ws *Workspace) FindFunction(ctx context.Context, candidates []string) (*php.Function, bool) {
	// phase 1: existing table
	ws.mu.RLock()
	for _, candidate := range candidates {
		if fn, ok := ws.functions[strings.ToLower(candidate)]; ok {
			ws.mu.RUnlock()
			return fn, true
		}
	}
	ws.mu.RUnlock()
	if ctx.Err() != nil {
		return nil, false
	}

	// phase 2: stub function files; only bare names live there
	for _, candidate := range candidates {
		if strings.Contains(candidate, "\\") {
			continue
		}
		fileKey, src, ok := stubs.FunctionFile(candidate)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return nil, false
		}
		uri := utils.StubFunctionURI(fileKey)
		if _, parsed := ws.Records(uri); !parsed {
			records, err := php.Extract(uri, []byte(src))
			if err != nil {
				continue
			}
			ws.Commit(records)
		}
		ws.mu.RLock()
		fn, ok := ws.functions[strings.ToLower(candidate)]
		ws.mu.RUnlock()
		if ok {
			return fn, true
		}
	}

	return nil, false
}

// FindConstant mirrors FindFunction over the define() table and the stub
// constant files.
func (ws *Workspace) FindConstant(ctx context.Context, candidates []string) (*php.Constant, bool) {
	ws.mu.RLock()
	for _, candidate := range candidates {
		if c, ok := ws.constants[strings.ToLower(candidate)]; ok {
			ws.mu.RUnlock()
			return c, true
		}
	}
	ws.mu.RUnlock()
	if ctx.Err() != nil {
		return nil, false
	}

	for _, candidate := range candidates {
		if strings.Contains(candidate, "\\") {
			continue
		}
		fileKey, src, ok := stubs.ConstantFile(candidate)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return nil, false
		}
		uri := utils.StubFunctionURI("const-" + fileKey)
		if _, parsed := ws.Records(uri); !parsed {
			records, err := php.Extract(uri, []byte(src))
			if err != nil {
				continue
			}
			ws.Commit(records)
		}
		ws.mu.RLock()
		c, ok := ws.constants[strings.ToLower(candidate)]
		ws.mu.RUnlock()
		if ok {
			return c, true
		}
	}

	return nil, false
}
