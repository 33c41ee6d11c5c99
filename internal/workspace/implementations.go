package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/stubs"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
)

// maxWalkDepth bounds the PSR-4 directory walk.
const maxWalkDepth = 16

// maxChainDepth bounds parent-chain and interface-extends walks when
// checking whether a class implements the target.
const maxChainDepth = 32

// FindImplementors returns every concrete class that implements or extends
// the target, directly or transitively. When method is non-empty, only
// classes that directly declare (override) it are returned. Results are
// deduplicated by FQN — two same-short-name classes in different namespaces
// never collide — and sorted for stable output.
func (ws *Workspace) FindImplementors(ctx context.Context, targetFQN, method string) []*php.ClassLike {
	targetFQN = php.NormalizeFQN(targetFQN)
	if targetFQN == "" {
		return nil
	}
	short := php.ShortName(targetFQN)

	found := make(map[string]*php.ClassLike)
	handled := make(map[string]struct{}) // URIs already inspected

	collect := func(records *php.FileRecords) {
		handled[records.URI] = struct{}{}
		for _, cls := range records.Classes {
			if !cls.Concrete() {
				continue
			}
			key := strings.ToLower(cls.FQN)
			if _, ok := found[key]; ok {
				continue
			}
			if !ws.implementsOrExtends(ctx, cls, targetFQN) {
				continue
			}
			if method != "" {
				if _, declares := cls.Member(method, php.SpaceMethod); !declares {
					continue
				}
			}
			found[key] = cls
		}
	}

	// phase 1: everything already parsed
	for _, records := range ws.AllRecords() {
		if ctx.Err() != nil {
			return nil
		}
		collect(records)
	}

	// phase 2: class-index entries whose records were dropped; reload
	for fqn, uri := range ws.ClassIndex() {
		if ctx.Err() != nil {
			return nil
		}
		if _, ok := handled[uri]; ok {
			continue
		}
		if cls, ok := ws.FindClass(ctx, fqn); ok {
			if records, ok := ws.Records(cls.URI); ok {
				collect(records)
			}
		}
	}

	layout := ws.Layout()

	// phase 3: classmap files, substring pre-filtered
	if layout != nil {
		paths := make(map[string]struct{})
		for _, path := range layout.Classmap {
			paths[path] = struct{}{}
		}
		for path := range paths {
			if ctx.Err() != nil {
				return nil
			}
			uri := utils.PathToURI(path)
			if _, ok := handled[uri]; ok {
				continue
			}
			if _, ok := ws.Records(uri); ok {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if !strings.Contains(string(data), short) {
				handled[uri] = struct{}{}
				continue
			}
			records, err := php.Extract(uri, data)
			if err != nil {
				continue
			}
			ws.Commit(records)
			collect(records)
		}
	}

	// phase 4: stub sources, same pre-filter
	for _, name := range stubs.ClassNames() {
		if ctx.Err() != nil {
			return nil
		}
		src, _ := stubs.ClassSource(name)
		if !strings.Contains(src, short) {
			continue
		}
		if cls, ok := ws.FindClass(ctx, name); ok {
			if records, ok := ws.Records(cls.URI); ok {
				collect(records)
			}
		}
	}

	// phase 5: PSR-4 walk of user roots only
	if layout != nil {
		for _, root := range layout.UserRoots() {
			if ctx.Err() != nil {
				return nil
			}
			ws.walkRoot(ctx, root, short, handled, collect)
		}
	}

	out := make([]*php.ClassLike, 0, len(found))
	for _, cls := range found {
		out = append(out, cls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN < out[j].FQN })
	return out
}

func (ws *Workspace) walkRoot(ctx context.Context, root, short string, handled map[string]struct{}, collect func(*php.FileRecords)) {
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if d.IsDir() {
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if depth > maxWalkDepth {
				return filepath.SkipDir
			}
			base := filepath.Base(path)
			if path != root && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".php") {
			return nil
		}
		uri := utils.PathToURI(path)
		if _, ok := handled[uri]; ok {
			return nil
		}
		if _, ok := ws.Records(uri); ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if !strings.Contains(string(data), short) {
			handled[uri] = struct{}{}
			return nil
		}
		records, err := php.Extract(uri, data)
		if err != nil {
			return nil
		}
		ws.Commit(records)
		collect(records)
		return nil
	})
}

// Extends reports whether the class transitively implements or extends the
// target. Used by type narrowing to keep subclasses when intersecting.
func (ws *Workspace) Extends(ctx context.Context, cls *php.ClassLike, targetFQN string) bool {
	return ws.implementsOrExtends(ctx, cls, php.NormalizeFQN(targetFQN))
}

// implementsOrExtends reports whether the target is in the class's parent
// chain or interface closure, walking interface extends transitively.
func (ws *Workspace) implementsOrExtends(ctx context.Context, cls *php.ClassLike, targetFQN string) bool {
	target := strings.ToLower(targetFQN)
	if strings.ToLower(cls.FQN) == target {
		return false
	}
	visited := make(map[string]struct{})
	return ws.matchesTarget(ctx, cls, target, visited, 0)
}

func (ws *Workspace) matchesTarget(ctx context.Context, cls *php.ClassLike, target string, visited map[string]struct{}, depth int) bool {
	if cls == nil || depth > maxChainDepth || ctx.Err() != nil {
		return false
	}
	key := strings.ToLower(cls.FQN)
	if _, seen := visited[key]; seen {
		return false
	}
	visited[key] = struct{}{}

	for _, iface := range cls.Interfaces {
		if strings.ToLower(iface) == target {
			return true
		}
	}
	if cls.Parent != "" && strings.ToLower(cls.Parent) == target {
		return true
	}

	// transitive: interfaces extending the target, then the parent chain
	for _, iface := range cls.Interfaces {
		if ifaceCls, ok := ws.FindClass(ctx, iface); ok {
			if ws.matchesTarget(ctx, ifaceCls, target, visited, depth+1) {
				return true
			}
		}
	}
	if cls.Parent != "" {
		if parent, ok := ws.FindClass(ctx, cls.Parent); ok {
			if ws.matchesTarget(ctx, parent, target, visited, depth+1) {
				return true
			}
		}
	}
	return false
}
