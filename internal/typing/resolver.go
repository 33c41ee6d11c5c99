// Package typing turns a cursor position into the thing being completed or
// navigated: the candidate classes of a member access, a partial identifier
// with its completion context, a shape's keys, or a callee's parameters.
package typing

import (
	"context"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
	"github.com/AJenbo/phpantom-lsp/internal/workspace"
)

// Kind discriminates what the cursor is on.
type Kind int

const (
	// KindNone means no subject could be determined (inside a plain string,
	// no identifier, ...).
	KindNone Kind = iota
	// KindMemberAccess is completion/navigation after ->, ?-> or ::.
	KindMemberAccess
	// KindClassName is a bare identifier with a completion context.
	KindClassName
	// KindDocblockTag is "@" completion inside a docblock.
	KindDocblockTag
	// KindArrayKey is completion inside [' over a shape-typed subject.
	KindArrayKey
	// KindNamedArgument is completion inside call parentheses.
	KindNamedArgument
)

// CompletionContext tags a bare-identifier completion position.
type CompletionContext int

const (
	CtxAny CompletionContext = iota
	CtxNew
	CtxExtendsClass
	CtxExtendsInterface
	CtxImplements
	CtxTraitUse
	CtxInstanceof
	CtxUseImport
	CtxUseFunction
	CtxUseConst
	CtxNamespaceDeclaration
	CtxCatchType
	CtxParameterTypeHint
	CtxReturnTypeHint
	CtxPropertyTypeHint
	CtxAttributeClass
)

// ShapeKey is one completable key of an array/object shape.
type ShapeKey struct {
	Name        string
	Type        string
	Description string
	Optional    bool
}

// Analysis is the resolver's answer for one cursor position.
type Analysis struct {
	Kind Kind

	// KindMemberAccess
	Candidates []*workspace.MergedView
	IsStatic   bool // access via ::
	InOwnBody  bool // $this / self / static inside the class body
	IsParent   bool // parent::
	Partial    string

	// KindClassName
	Context CompletionContext

	// KindArrayKey
	ShapeKeys []ShapeKey

	// KindNamedArgument
	CalleeParams []php.Param
}

// Resolver drives symbol lookup and inheritance merging from cursor context.
type Resolver struct {
	WS     *workspace.Workspace
	logger commonlog.Logger
}

func NewResolver(ws *workspace.Workspace) *Resolver {
	return &Resolver{WS: ws, logger: commonlog.GetLoggerf("phpantom.typing")}
}

// maxExprDepth bounds recursive expression resolution.
const maxExprDepth = 12

// scope is the per-request resolution state.
type scope struct {
	uri    string
	text   string
	names  *php.NameContext
	class  *php.ClassLike // enclosing class-like, when inside one
	method *php.Member    // enclosing method, when inside one
	offset int            // cursor byte offset
}

// exprType is a resolved expression type: the type tree plus the
// class-string value set that flows through ::class literals.
type exprType struct {
	t            *phpdoc.Type
	classStrings []string
}

func (e exprType) empty() bool { return e.t == nil && len(e.classStrings) == 0 }

func unionExpr(parts ...exprType) exprType {
	var types []*phpdoc.Type
	var cs []string
	for _, p := range parts {
		if p.t != nil {
			types = append(types, p.t)
		}
		cs = append(cs, p.classStrings...)
	}
	return exprType{t: phpdoc.NewUnion(types...), classStrings: cs}
}

// Analyze classifies the cursor position and resolves its subject.
func (r *Resolver) Analyze(ctx context.Context, uri, text string, offset int) Analysis {
	if offset < 0 || offset > len(text) {
		return Analysis{}
	}

	if tag, ok := docblockTagAt(text, offset); ok {
		return Analysis{Kind: KindDocblockTag, Partial: tag}
	}

	sc := r.newScope(uri, text, offset)

	if key, subjectExpr, ok := arrayKeyAt(text, offset); ok {
		if analysis, done := r.analyzeArrayKey(ctx, sc, subjectExpr, key); done {
			return analysis
		}
	}

	if insideString(text, offset) {
		return Analysis{}
	}

	if subject, op, partial, ok := subjectBefore(text, offset); ok {
		return r.analyzeMemberAccess(ctx, sc, subject, op, partial)
	}

	if callee, ok := callForNamedArgument(text, offset); ok {
		if analysis, done := r.analyzeNamedArgument(ctx, sc, callee); done {
			return analysis
		}
	}

	partial, identStart := partialIdentifierAt(text, offset)
	cctx := classNameContext(text, identStart)
	return Analysis{Kind: KindClassName, Partial: partial, Context: cctx}
}

func (r *Resolver) newScope(uri, text string, offset int) *scope {
	sc := &scope{
		uri:    uri,
		text:   text,
		names:  r.WS.NameContextFor(uri),
		offset: offset,
	}
	if records, ok := r.WS.Records(uri); ok {
		sc.class = enclosingClass(records, uint32(offset))
		if sc.class != nil {
			sc.method = enclosingMethod(sc.class, uint32(offset))
		} else {
			for _, fn := range records.Functions {
				if fn.Offset <= uint32(offset) && uint32(offset) < fn.End {
					sc.method = &fn.Member
					break
				}
			}
		}
	}
	return sc
}

func (r *Resolver) analyzeMemberAccess(ctx context.Context, sc *scope, subject, op, partial string) Analysis {
	analysis := Analysis{
		Kind:     KindMemberAccess,
		IsStatic: op == "::",
		Partial:  partial,
	}

	trimmed := strings.TrimSpace(subject)
	switch trimmed {
	case "$this", "self", "static":
		analysis.InOwnBody = sc.class != nil
	case "parent":
		analysis.IsParent = true
	}

	et := r.resolveExpr(ctx, sc, subject, 0)
	analysis.Candidates = r.viewsForExpr(ctx, sc, et)
	if len(analysis.Candidates) == 0 && analysis.IsStatic && isPlainName(trimmed) {
		// Foo:: / self:: / parent:: on a bare class reference
		analysis.Candidates = r.viewsForClassName(ctx, sc, trimmed)
	}
	return analysis
}

func isPlainName(s string) bool {
	if s == "" || s[0] == '$' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) && s[i] != '\\' {
			return false
		}
	}
	return true
}

func (r *Resolver) analyzeArrayKey(ctx context.Context, sc *scope, subjectExpr, partial string) (Analysis, bool) {
	if strings.TrimSpace(subjectExpr) == "$_SERVER" {
		keys := make([]ShapeKey, 0)
		for name, desc := range serverKeys() {
			keys = append(keys, ShapeKey{Name: name, Type: "string", Description: desc})
		}
		return Analysis{Kind: KindArrayKey, ShapeKeys: keys, Partial: partial}, true
	}
	et := r.resolveExpr(ctx, sc, subjectExpr, 0)
	shape := findShape(et.t)
	if shape == nil {
		return Analysis{}, false
	}
	var keys []ShapeKey
	for _, entry := range shape.Shape {
		if entry.Key == "" {
			continue
		}
		keys = append(keys, ShapeKey{
			Name:     entry.Key,
			Type:     entry.Value.String(),
			Optional: entry.Optional,
		})
	}
	if len(keys) == 0 {
		return Analysis{}, false
	}
	return Analysis{Kind: KindArrayKey, ShapeKeys: keys, Partial: partial}, true
}

func (r *Resolver) analyzeNamedArgument(ctx context.Context, sc *scope, callee string) (Analysis, bool) {
	params := r.calleeParams(ctx, sc, callee)
	if len(params) == 0 {
		return Analysis{}, false
	}
	return Analysis{Kind: KindNamedArgument, CalleeParams: params}, true
}

func (r *Resolver) calleeParams(ctx context.Context, sc *scope, callee string) []php.Param {
	callee = strings.TrimSpace(callee)
	if callee == "" {
		return nil
	}
	if idx := strings.LastIndex(callee, "->"); idx >= 0 {
		method := strings.TrimSpace(callee[idx+2:])
		base := r.resolveExpr(ctx, sc, callee[:idx], 0)
		for _, view := range r.viewsForExpr(ctx, sc, base) {
			if m, ok := view.Member(method, php.SpaceMethod); ok {
				return m.Params
			}
		}
		return nil
	}
	if idx := strings.LastIndex(callee, "::"); idx >= 0 {
		method := strings.TrimSpace(callee[idx+2:])
		for _, view := range r.viewsForClassName(ctx, sc, callee[:idx]) {
			if m, ok := view.Member(method, php.SpaceMethod); ok {
				return m.Params
			}
		}
		return nil
	}
	if strings.HasPrefix(callee, "new ") {
		for _, view := range r.viewsForClassName(ctx, sc, strings.TrimSpace(callee[4:])) {
			if m, ok := view.Member("__construct", php.SpaceMethod); ok {
				return m.Params
			}
		}
		return nil
	}
	if fn, ok := r.WS.FindFunction(ctx, sc.names.ResolveFunction(callee)); ok {
		return fn.Params
	}
	return nil
}

// viewsForExpr materializes an expression type into merged class views. The
// class-string value set contributes its classes for :: access.
func (r *Resolver) viewsForExpr(ctx context.Context, sc *scope, et exprType) []*workspace.MergedView {
	var views []*workspace.MergedView
	seen := make(map[string]struct{})
	add := func(view *workspace.MergedView) {
		if view == nil {
			return
		}
		key := strings.ToLower(view.Class.FQN)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		views = append(views, view)
	}

	for _, name := range r.typeClassNames(ctx, sc, et.t) {
		if cls, ok := r.WS.FindClass(ctx, name); ok {
			add(r.WS.Merge(ctx, cls))
		}
	}
	for _, name := range et.classStrings {
		if cls, ok := r.WS.FindClass(ctx, name); ok {
			add(r.WS.Merge(ctx, cls))
		}
	}
	return views
}

func (r *Resolver) viewsForClassName(ctx context.Context, sc *scope, name string) []*workspace.MergedView {
	resolved := r.resolveRelativeName(sc, strings.TrimSpace(name))
	if resolved == "" {
		return nil
	}
	cls, ok := r.WS.FindClass(ctx, resolved)
	if !ok {
		return nil
	}
	return []*workspace.MergedView{r.WS.Merge(ctx, cls)}
}

// typeClassNames flattens a type tree to the class FQNs it references,
// resolving self/static/parent against the enclosing class.
func (r *Resolver) typeClassNames(ctx context.Context, sc *scope, t *phpdoc.Type) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, name := range t.ClassNames() {
		if !phpdoc.IsRelative(name) {
			// names in a resolved type are already FQNs
			out = append(out, php.NormalizeFQN(name))
			continue
		}
		if resolved := r.resolveRelativeName(sc, name); resolved != "" {
			out = append(out, resolved)
		}
	}
	if t.Kind == phpdoc.KindThis && sc.class != nil {
		out = append(out, sc.class.FQN)
	}
	return out
}

// resolveRelativeName resolves the self/static/parent sentinels against the
// enclosing class; anything else is assumed already an FQN or resolvable
// through the file's use-map.
func (r *Resolver) resolveRelativeName(sc *scope, name string) string {
	switch strings.ToLower(name) {
	case "self", "static", "$this":
		if sc.class != nil {
			return sc.class.FQN
		}
		return ""
	case "parent":
		if sc.class != nil {
			return sc.class.Parent
		}
		return ""
	}
	if sc.names != nil {
		return sc.names.Resolve(name)
	}
	return php.NormalizeFQN(name)
}

func enclosingClass(records *php.FileRecords, offset uint32) *php.ClassLike {
	var best *php.ClassLike
	for _, cls := range records.Classes {
		if cls.Offset <= offset && offset < cls.End {
			if best == nil || cls.Offset > best.Offset {
				best = cls
			}
		}
	}
	return best
}

func enclosingMethod(cls *php.ClassLike, offset uint32) *php.Member {
	for _, m := range cls.Members {
		if m.Kind != php.MemberMethod {
			continue
		}
		if m.Offset <= offset && offset < m.End {
			return m
		}
	}
	return nil
}

func findShape(t *phpdoc.Type) *phpdoc.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case phpdoc.KindArrayShape, phpdoc.KindObjectShape:
		return t
	case phpdoc.KindUnion, phpdoc.KindNullable:
		for _, p := range t.Parts {
			if s := findShape(p); s != nil {
				return s
			}
		}
	}
	return nil
}
