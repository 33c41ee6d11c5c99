package completion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/AJenbo/phpantom-lsp/internal/composer"
	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/stubs"
	"github.com/AJenbo/phpantom-lsp/internal/typing"
	"github.com/AJenbo/phpantom-lsp/internal/workspace"
)

// maxClassItems caps class-name completions; a truncated list is flagged
// incomplete so the editor re-requests as the user types.
const maxClassItems = 100

// ClassNameRequest carries a class-name completion position.
type ClassNameRequest struct {
	URI      string
	Text     string
	Position protocol.Position
	Partial  string
	Context  typing.CompletionContext
}

type classCandidate struct {
	fqn      string
	short    string
	priority int // source priority prefix: lower sorts first
	kind     php.ClassKind
	known    bool // kind/modifiers known exactly (loaded record or stub scan)
	abstract bool
	final    bool
	demoted  bool // naming-convention demotion for unloaded classmap entries
}

// ClassNames builds the class-name completion list. Sources in priority
// order: use-imported names, same-namespace classes, the parsed class index,
// the Composer classmap, then stubs. The second result reports truncation.
func ClassNames(ctx context.Context, ws *workspace.Workspace, req ClassNameRequest) ([]protocol.CompletionItem, bool) {
	partial := strings.ToLower(req.Partial)
	records, _ := ws.Records(req.URI)

	namespace := ""
	var uses map[string]string
	if records != nil {
		namespace = records.Namespace
		uses = records.Uses
	}

	classIndex := ws.ClassIndex()
	layout := ws.Layout()

	candidates := make(map[string]*classCandidate) // by lowercased FQN
	add := func(c classCandidate) {
		key := strings.ToLower(c.fqn)
		if existing, ok := candidates[key]; ok {
			if c.priority < existing.priority {
				existing.priority = c.priority
			}
			if c.known && !existing.known {
				existing.known = true
				existing.kind = c.kind
				existing.abstract = c.abstract
				existing.final = c.final
			}
			return
		}
		c.short = php.ShortName(c.fqn)
		candidates[key] = &c
	}

	if ctx.Err() != nil {
		return nil, false
	}

	// source 1: use-imported names
	for _, fqn := range uses {
		if !classAliasLikely(fqn, classIndex, layout) {
			continue
		}
		c := classCandidate{fqn: fqn, priority: 0}
		if cls, ok := lookupLoaded(ws, classIndex, fqn); ok {
			c.known = true
			c.kind = cls.Kind
			c.abstract = cls.Abstract
			c.final = cls.Final
		}
		add(c)
	}

	// sources 2 and 3: parsed records, same-namespace first
	for fqnLower := range classIndex {
		cls, ok := lookupLoaded(ws, classIndex, fqnLower)
		if !ok || cls.Anonymous {
			continue
		}
		priority := 2
		if namespace != "" && strings.EqualFold(namespaceOf(cls.FQN), namespace) {
			priority = 1
		}
		add(classCandidate{
			fqn:      cls.FQN,
			priority: priority,
			known:    true,
			kind:     cls.Kind,
			abstract: cls.Abstract,
			final:    cls.Final,
		})
	}

	// source 4: composer classmap
	if layout != nil {
		for fqn := range layout.Classmap {
			c := classCandidate{fqn: fqn, priority: 3}
			c.demoted = demoteByName(php.ShortName(fqn), req.Context)
			add(c)
		}
	}

	// source 5: stubs, with a cheap declaration scan for the kind filter
	for _, name := range stubs.ClassNames() {
		src, _ := stubs.ClassSource(name)
		kind, abstract, final := scanStubDeclaration(src, name)
		add(classCandidate{
			fqn:      name,
			priority: 4,
			known:    true,
			kind:     kind,
			abstract: abstract,
			final:    final,
		})
	}

	var list []*classCandidate
	for _, c := range candidates {
		if !classPartialMatch(c, partial) {
			continue
		}
		if !contextAdmits(c, req.Context) {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		pi, pj := list[i].priority, list[j].priority
		if list[i].demoted {
			pi += 10
		}
		if list[j].demoted {
			pj += 10
		}
		if pi != pj {
			return pi < pj
		}
		return list[i].short < list[j].short
	})

	incomplete := false
	if len(list) > maxClassItems {
		list = list[:maxClassItems]
		incomplete = true
	}

	items := make([]protocol.CompletionItem, 0, len(list))
	for _, c := range list {
		items = append(items, classItem(c, req, namespace, uses))
	}
	return items, incomplete
}

func lookupLoaded(ws *workspace.Workspace, classIndex map[string]string, fqn string) (*php.ClassLike, bool) {
	uri, ok := classIndex[strings.ToLower(fqn)]
	if !ok {
		return nil, false
	}
	records, ok := ws.Records(uri)
	if !ok {
		return nil, false
	}
	for _, cls := range records.Classes {
		if strings.EqualFold(cls.FQN, fqn) {
			return cls, true
		}
	}
	return nil, false
}

func namespaceOf(fqn string) string {
	if idx := strings.LastIndexByte(fqn, '\\'); idx >= 0 {
		return fqn[:idx]
	}
	return ""
}

// classAliasLikely filters use-map entries with no evidence of naming a
// class: the FQN is absent from every source but appears as a namespace
// prefix of other FQNs. Ambiguous entries are admitted.
func classAliasLikely(fqn string, classIndex map[string]string, layout *composer.Layout) bool {
	lower := strings.ToLower(fqn)
	if _, ok := classIndex[lower]; ok {
		return true
	}
	if _, ok := stubs.ClassSource(php.ShortName(fqn)); ok {
		return true
	}
	prefix := lower + "\\"
	isPrefix := false
	for key := range classIndex {
		if strings.HasPrefix(key, prefix) {
			isPrefix = true
			break
		}
	}
	if layout != nil {
		for key := range layout.Classmap {
			kl := strings.ToLower(key)
			if kl == lower {
				return true
			}
			if strings.HasPrefix(kl, prefix) {
				isPrefix = true
			}
		}
	}
	return !isPrefix
}

func classPartialMatch(c *classCandidate, partial string) bool {
	if partial == "" {
		return true
	}
	if strings.Contains(partial, "\\") {
		return strings.HasPrefix(strings.ToLower(c.fqn), strings.TrimPrefix(partial, "\\"))
	}
	return strings.HasPrefix(strings.ToLower(c.short), partial)
}

// contextAdmits applies the completion context's kind filter. Exact for
// known records and stub-scanned candidates; permissive for unloaded
// classmap entries, which are demoted instead of excluded.
func contextAdmits(c *classCandidate, cctx typing.CompletionContext) bool {
	if !c.known {
		return true
	}
	switch cctx {
	case typing.CtxNew:
		return c.kind == php.KindClass && !c.abstract
	case typing.CtxExtendsClass:
		return c.kind == php.KindClass && !c.final
	case typing.CtxExtendsInterface, typing.CtxImplements:
		return c.kind == php.KindInterface
	case typing.CtxTraitUse:
		return c.kind == php.KindTrait
	case typing.CtxInstanceof:
		return c.kind != php.KindTrait
	case typing.CtxCatchType:
		return c.kind == php.KindClass || c.kind == php.KindInterface
	case typing.CtxAttributeClass:
		return c.kind == php.KindClass
	}
	return true
}

// demoteByName gives naming-convention losers a worse sort prefix in
// positions where they are likely wrong, without excluding them.
func demoteByName(short string, cctx typing.CompletionContext) bool {
	switch cctx {
	case typing.CtxNew, typing.CtxAttributeClass:
		return strings.HasSuffix(short, "Interface") || strings.HasSuffix(short, "Trait") || strings.HasPrefix(short, "Abstract")
	case typing.CtxExtendsInterface, typing.CtxImplements:
		return !strings.HasSuffix(short, "Interface")
	case typing.CtxTraitUse:
		return !strings.HasSuffix(short, "Trait")
	}
	return false
}

// scanStubDeclaration decides a stub's kind from its source text without
// parsing it.
func scanStubDeclaration(src, short string) (php.ClassKind, bool, bool) {
	switch {
	case strings.Contains(src, "interface "+short):
		return php.KindInterface, false, false
	case strings.Contains(src, "trait "+short):
		return php.KindTrait, false, false
	case strings.Contains(src, "enum "+short):
		return php.KindEnum, false, false
	}
	abstract := strings.Contains(src, "abstract class "+short)
	final := strings.Contains(src, "final class "+short)
	return php.KindClass, abstract, final
}

func classItem(c *classCandidate, req ClassNameRequest, namespace string, uses map[string]string) protocol.CompletionItem {
	kind := protocol.CompletionItemKindClass
	switch c.kind {
	case php.KindInterface:
		kind = protocol.CompletionItemKindInterface
	case php.KindEnum:
		kind = protocol.CompletionItemKindEnum
	case php.KindTrait:
		kind = protocol.CompletionItemKindModule
	}

	detail := c.fqn
	priority := c.priority
	if c.demoted {
		priority += 10
	}
	sortText := fmt.Sprintf("%02d_%s", priority, c.short)
	item := protocol.CompletionItem{
		Label:    c.short,
		Kind:     &kind,
		Detail:   &detail,
		SortText: &sortText,
	}

	if req.Context == typing.CtxUseImport {
		// already writing the use line: insert the full FQN, no edits
		insert := c.fqn
		item.InsertText = &insert
		return item
	}

	edit, conflict := autoImportEdit(req.Text, c.fqn, namespace, uses)
	if conflict {
		insert := "\\" + c.fqn
		item.InsertText = &insert
		return item
	}
	if edit != nil {
		item.AdditionalTextEdits = []protocol.TextEdit{*edit}
	}
	return item
}
