package typing

import (
	"context"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

type chainStep struct {
	op   string // "->" or "::"
	name string
	call bool
	args []string
}

// resolveExpr resolves an expression's type. It recurses through chains,
// variables, calls and the match/ternary/coalesce forms, bounded by depth.
func (r *Resolver) resolveExpr(ctx context.Context, sc *scope, expr string, depth int) exprType {
	if depth > maxExprDepth || ctx.Err() != nil {
		return exprType{}
	}
	expr = strings.TrimSpace(expr)
	expr = strings.TrimSuffix(expr, ";")
	if expr == "" {
		return exprType{}
	}

	// fully parenthesized expression
	if expr[0] == '(' && matchForward(expr, 0) == len(expr)-1 {
		return r.resolveExpr(ctx, sc, expr[1:len(expr)-1], depth+1)
	}

	if strings.HasPrefix(expr, "clone ") {
		return r.resolveExpr(ctx, sc, expr[len("clone "):], depth+1)
	}

	if strings.HasPrefix(expr, "match") {
		if et, ok := r.resolveMatch(ctx, sc, expr, depth); ok {
			return et
		}
	}

	// null coalesce and ternary: union of the arms
	if left, right, ok := splitTopLevelOnce(expr, "??"); ok {
		return unionExpr(
			r.resolveExpr(ctx, sc, left, depth+1),
			r.resolveExpr(ctx, sc, right, depth+1),
		)
	}
	if cond, then, els, ok := splitTernary(expr); ok {
		_ = cond
		return unionExpr(
			r.resolveExpr(ctx, sc, then, depth+1),
			r.resolveExpr(ctx, sc, els, depth+1),
		)
	}

	if strings.HasPrefix(expr, "[") {
		return r.resolveArrayLiteral(ctx, sc, expr, depth)
	}

	if lit := scalarLiteralType(expr); lit != nil {
		return exprType{t: lit}
	}

	base, steps, ok := parseChain(expr)
	if !ok {
		return exprType{}
	}

	cur, baseIsClassRef := r.resolveBase(ctx, sc, base, steps, depth)
	for _, step := range steps {
		if cur.empty() && !baseIsClassRef {
			return exprType{}
		}
		if step.op == "[]" {
			cur = exprType{t: elementValueTypeForKey(cur.t, step.name)}
			baseIsClassRef = false
			continue
		}
		cur = r.memberType(ctx, sc, cur, step, depth)
		baseIsClassRef = false
	}
	return cur
}

// resolveBase resolves the head of a chain. The second result marks a bare
// class reference (Foo::...), which has no value type of its own.
func (r *Resolver) resolveBase(ctx context.Context, sc *scope, base string, steps []chainStep, depth int) (exprType, bool) {
	base = strings.TrimSpace(base)
	switch {
	case base == "":
		return exprType{}, false
	case base == "$this":
		if sc.class != nil {
			return exprType{t: phpdoc.NewName(sc.class.FQN)}, false
		}
		return exprType{}, false
	case strings.HasPrefix(base, "$"):
		if idx := strings.IndexByte(base, '('); idx >= 0 {
			// invoking a variable: a first-class callable's return type
			vt := r.variableType(ctx, sc, strings.TrimPrefix(base[:idx], "$"), depth+1)
			if vt.t != nil && vt.t.Kind == phpdoc.KindCallable {
				return exprType{t: vt.t.Return}, false
			}
			return exprType{}, false
		}
		return r.variableType(ctx, sc, strings.TrimPrefix(base, "$"), depth+1), false
	case strings.HasPrefix(base, "new "):
		name := strings.TrimSpace(base[4:])
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		if resolved := r.resolveRelativeName(sc, name); resolved != "" {
			return exprType{t: phpdoc.NewName(resolved)}, false
		}
		return exprType{}, false
	case strings.HasPrefix(base, "("):
		end := matchForward(base, 0)
		if end < 0 {
			return exprType{}, false
		}
		return r.resolveExpr(ctx, sc, base[1:end], depth+1), false
	}

	// a call: function invocation or first-class callable
	if idx := strings.IndexByte(base, '('); idx >= 0 {
		name := strings.TrimSpace(base[:idx])
		end := matchForward(base, idx)
		if end < 0 {
			end = len(base) - 1
		}
		args := splitArgs(base[idx+1 : end])
		if len(args) == 1 && strings.TrimSpace(args[0]) == "..." {
			if fn, ok := r.WS.FindFunction(ctx, sc.names.ResolveFunction(name)); ok {
				ret := fn.EffectiveType()
				return exprType{t: &phpdoc.Type{Kind: phpdoc.KindCallable, Name: "Closure", Return: ret}}, false
			}
			return exprType{}, false
		}
		if fn, ok := r.WS.FindFunction(ctx, sc.names.ResolveFunction(name)); ok {
			return r.callReturnType(ctx, sc, &fn.Member, nil, args, depth), false
		}
		return exprType{}, false
	}

	// bare name: a class reference for :: access
	if len(steps) > 0 && steps[0].op == "::" {
		if resolved := r.resolveRelativeName(sc, base); resolved != "" {
			return exprType{t: phpdoc.NewName(resolved)}, true
		}
	}
	// a constant of the current file's namespace, usable as a subject only
	// when it carries a class-like value; give up otherwise
	return exprType{}, false
}

// memberType resolves one chain step against the current subject type.
func (r *Resolver) memberType(ctx context.Context, sc *scope, cur exprType, step chainStep, depth int) exprType {
	if step.op == "::" && step.name == "class" {
		// Foo::class and $x::class produce class-string values
		var names []string
		names = append(names, r.typeClassNames(ctx, sc, cur.t)...)
		names = append(names, cur.classStrings...)
		if len(names) == 0 {
			return exprType{}
		}
		return exprType{
			t:            &phpdoc.Type{Kind: phpdoc.KindGeneric, Name: "class-string", Args: []*phpdoc.Type{phpdoc.NewName(names[0])}},
			classStrings: names,
		}
	}

	views := r.viewsForExpr(ctx, sc, cur)
	var results []exprType
	for _, view := range views {
		name := step.name
		space := php.SpaceProperty
		if step.call {
			space = php.SpaceMethod
		} else if step.op == "::" {
			if strings.HasPrefix(name, "$") {
				name = strings.TrimPrefix(name, "$")
				space = php.SpaceProperty
			} else {
				space = php.SpaceConstant
			}
		}

		m, ok := view.Member(name, space)
		if !ok && space == php.SpaceConstant {
			// Foo::bar without parens may still be a method reference
			m, ok = view.Member(name, php.SpaceMethod)
		}
		if !ok {
			continue
		}

		if !step.call && step.op == "->" && m.Kind != php.MemberProperty {
			continue
		}

		if m.Kind == php.MemberMethod {
			results = append(results, r.callReturnType(ctx, sc, m, view.Class, step.args, depth))
			continue
		}
		results = append(results, exprType{t: m.EffectiveType()})
	}
	return unionExpr(results...)
}

// callReturnType computes a callable's return type at a call site: template
// parameters are bound from the arguments, conditional returns are
// evaluated, and static/self/$this are substituted with the caller's
// concrete class so fluent chains survive subclassing.
func (r *Resolver) callReturnType(ctx context.Context, sc *scope, m *php.Member, caller *php.ClassLike, args []string, depth int) exprType {
	ret := m.EffectiveType()
	if ret == nil {
		return exprType{}
	}

	bindings := r.bindCallTemplates(ctx, sc, m, args, depth)

	if cond := m.ReturnConditional(); cond != nil {
		ret = r.evalConditional(ctx, sc, m, cond, args, bindings, depth)
	} else if len(bindings) > 0 {
		ret = ret.Substitute(bindings)
	}
	if ret == nil {
		return exprType{}
	}

	if caller != nil {
		ret = substituteStatic(ret, caller.FQN)
	} else if sc.class != nil {
		ret = substituteStatic(ret, sc.class.FQN)
	}
	return exprType{t: ret}
}

// bindCallTemplates maps the member's template parameters to concrete types
// using the call arguments: class-string<T> parameters bind T from X::class
// arguments; plain T parameters bind from the argument's resolved type.
func (r *Resolver) bindCallTemplates(ctx context.Context, sc *scope, m *php.Member, args []string, depth int) map[string]*phpdoc.Type {
	if len(m.Templates) == 0 || len(args) == 0 {
		return nil
	}
	templates := make(map[string]struct{}, len(m.Templates))
	for _, tp := range m.Templates {
		templates[tp.Name] = struct{}{}
	}

	bindings := make(map[string]*phpdoc.Type)
	for i, p := range m.Params {
		if i >= len(args) {
			break
		}
		pt := p.EffectiveType()
		if pt == nil {
			continue
		}
		argExpr := strings.TrimSpace(args[i])

		// class-string<T> bound by a ::class literal or class-string value
		if pt.Kind == phpdoc.KindGeneric && strings.EqualFold(pt.Name, "class-string") && len(pt.Args) == 1 {
			tplName := pt.Args[0].Name
			if _, isTemplate := templates[tplName]; !isTemplate {
				continue
			}
			argT := r.resolveExpr(ctx, sc, argExpr, depth+1)
			if len(argT.classStrings) > 0 {
				bindings[tplName] = phpdoc.NewName(argT.classStrings[0])
			}
			continue
		}

		// plain T parameter bound by the argument's type
		if pt.Kind == phpdoc.KindName {
			if _, isTemplate := templates[pt.Name]; isTemplate {
				if _, bound := bindings[pt.Name]; bound {
					continue
				}
				argT := r.resolveExpr(ctx, sc, argExpr, depth+1)
				if argT.t != nil {
					bindings[pt.Name] = argT.t
				}
			}
		}
	}
	return bindings
}

// evalConditional evaluates a conditional return type against the call
// arguments. Unresolvable predicates fall back to the union of both arms.
func (r *Resolver) evalConditional(ctx context.Context, sc *scope, m *php.Member, cond *phpdoc.Conditional, args []string, bindings map[string]*phpdoc.Type, depth int) *phpdoc.Type {
	argExpr, hasArg := r.argumentForParam(m, cond.Param, args)

	verdict := -1 // 1 match, 0 no-match, -1 unknown
	pred := cond.Predicate

	switch {
	case pred.Kind == phpdoc.KindGeneric && strings.EqualFold(pred.Name, "class-string"):
		if hasArg {
			argT := r.resolveExpr(ctx, sc, argExpr, depth+1)
			if len(argT.classStrings) > 0 {
				verdict = 1
				if len(pred.Args) == 1 {
					if bindings == nil {
						bindings = make(map[string]*phpdoc.Type)
					}
					bindings[pred.Args[0].Name] = phpdoc.NewName(argT.classStrings[0])
				}
			} else if argT.t != nil {
				verdict = 0
			}
		} else {
			verdict = 0
		}
	case pred.Kind == phpdoc.KindName && strings.EqualFold(pred.Name, "null"):
		if !hasArg {
			verdict = 1
		} else if strings.EqualFold(strings.TrimSpace(argExpr), "null") {
			verdict = 1
		} else {
			verdict = 0
		}
	case pred.Kind == phpdoc.KindName && (strings.EqualFold(pred.Name, "true") || strings.EqualFold(pred.Name, "false")):
		if hasArg && strings.EqualFold(strings.TrimSpace(argExpr), pred.Name) {
			verdict = 1
		} else if hasArg {
			verdict = 0
		}
	case pred.Kind == phpdoc.KindName:
		if hasArg {
			argT := r.resolveExpr(ctx, sc, argExpr, depth+1)
			for _, n := range r.typeClassNames(ctx, sc, argT.t) {
				if strings.EqualFold(n, pred.Name) {
					verdict = 1
					break
				}
			}
			if verdict == -1 && argT.t != nil {
				verdict = 0
			}
		}
	}

	if cond.Negated && verdict >= 0 {
		verdict = 1 - verdict
	}

	pick := func(t *phpdoc.Type) *phpdoc.Type {
		if t == nil {
			return nil
		}
		if t.Kind == phpdoc.KindConditional {
			return r.evalConditional(ctx, sc, m, t.Cond, args, bindings, depth+1)
		}
		return t.Substitute(bindings)
	}

	switch verdict {
	case 1:
		return pick(cond.Then)
	case 0:
		return pick(cond.Else)
	default:
		return phpdoc.NewUnion(pick(cond.Then), pick(cond.Else))
	}
}

func (r *Resolver) argumentForParam(m *php.Member, param string, args []string) (string, bool) {
	param = strings.TrimPrefix(param, "$")
	for i, p := range m.Params {
		if p.Name != param {
			continue
		}
		// named arguments first
		for _, a := range args {
			if name, value, ok := namedArgument(a); ok && name == param {
				return value, true
			}
		}
		if i < len(args) {
			if _, _, named := namedArgument(args[i]); !named {
				return strings.TrimSpace(args[i]), true
			}
		}
		return "", false
	}
	return "", false
}

// namedArgument recognises "name: value" while not confusing "::" scope
// operators for the separator.
func namedArgument(arg string) (string, string, bool) {
	arg = strings.TrimSpace(arg)
	i := 0
	for i < len(arg) && isIdentByte(arg[i]) {
		i++
	}
	if i == 0 || i >= len(arg) || arg[i] != ':' {
		return "", "", false
	}
	if i+1 < len(arg) && arg[i+1] == ':' {
		return "", "", false
	}
	return arg[:i], strings.TrimSpace(arg[i+1:]), true
}

// resolveMatch resolves "match (...) { arm => expr, ... }" to the union of
// the arm result types. Scalar arms resolve to scalars and drop out at
// class materialization.
func (r *Resolver) resolveMatch(ctx context.Context, sc *scope, expr string, depth int) (exprType, bool) {
	open := strings.IndexByte(expr, '{')
	if open < 0 || !strings.HasSuffix(strings.TrimSpace(expr), "}") {
		return exprType{}, false
	}
	body := strings.TrimSpace(expr)
	body = body[open+1 : len(body)-1]

	var parts []exprType
	for _, arm := range splitArgs(body) {
		arrow := strings.Index(arm, "=>")
		if arrow < 0 {
			continue
		}
		parts = append(parts, r.resolveExpr(ctx, sc, arm[arrow+2:], depth+1))
	}
	if len(parts) == 0 {
		return exprType{}, false
	}
	return unionExpr(parts...), true
}

// resolveArrayLiteral infers a shape from a literal; spread entries
// contribute their element types as a plain array.
func (r *Resolver) resolveArrayLiteral(ctx context.Context, sc *scope, expr string, depth int) exprType {
	end := matchForwardBracket(expr, 0)
	if end < 0 {
		return exprType{t: phpdoc.NewName("array")}
	}
	inner := expr[1:end]

	shape := &phpdoc.Type{Kind: phpdoc.KindArrayShape}
	var spreadParts []*phpdoc.Type
	for _, element := range splitArgs(inner) {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		if strings.HasPrefix(element, "...") {
			spread := r.resolveExpr(ctx, sc, strings.TrimPrefix(element, "..."), depth+1)
			if elem := elementValueType(spread.t); elem != nil {
				spreadParts = append(spreadParts, elem)
			}
			continue
		}
		arrow := strings.Index(element, "=>")
		if arrow < 0 {
			if vt := r.resolveExpr(ctx, sc, element, depth+1); vt.t != nil {
				shape.Shape = append(shape.Shape, phpdoc.ShapeEntry{Value: vt.t})
			}
			continue
		}
		key := strings.TrimSpace(element[:arrow])
		value := element[arrow+2:]
		entry := phpdoc.ShapeEntry{}
		if unquoted := trimKeyQuotes(key); unquoted != "" {
			entry.Key = unquoted
		}
		if vt := r.resolveExpr(ctx, sc, value, depth+1); vt.t != nil {
			entry.Value = vt.t
		}
		if entry.Key == "" && entry.Value == nil {
			continue
		}
		shape.Shape = append(shape.Shape, entry)
	}

	if len(spreadParts) > 0 {
		elem := phpdoc.NewUnion(spreadParts...)
		return exprType{t: &phpdoc.Type{Kind: phpdoc.KindGeneric, Name: "array", Args: []*phpdoc.Type{elem}}}
	}
	if len(shape.Shape) == 0 {
		return exprType{t: phpdoc.NewName("array")}
	}
	return exprType{t: shape}
}

// substituteStatic replaces the static/self/$this sentinels in a return
// type with the caller's concrete class.
func substituteStatic(t *phpdoc.Type, callerFQN string) *phpdoc.Type {
	if t == nil || callerFQN == "" {
		return t
	}
	out := t.Clone()
	out.Walk(func(n *phpdoc.Type) {
		switch n.Kind {
		case phpdoc.KindName, phpdoc.KindGeneric:
			if phpdoc.IsRelative(n.Name) && !strings.EqualFold(n.Name, "parent") {
				n.Name = callerFQN
			}
		case phpdoc.KindThis:
			n.Kind = phpdoc.KindName
			n.Name = callerFQN
		}
	})
	return out
}

func scalarLiteralType(expr string) *phpdoc.Type {
	if expr == "" {
		return nil
	}
	switch expr[0] {
	case '\'', '"':
		return phpdoc.NewName("string")
	}
	lower := strings.ToLower(expr)
	switch lower {
	case "true", "false":
		return phpdoc.NewName("bool")
	case "null":
		return phpdoc.NewName("null")
	}
	numeric := true
	isFloat := false
	for i := 0; i < len(expr); i++ {
		b := expr[i]
		if b == '.' {
			isFloat = true
			continue
		}
		if b == '-' && i == 0 {
			continue
		}
		if b < '0' || b > '9' {
			numeric = false
			break
		}
	}
	if numeric {
		if isFloat {
			return phpdoc.NewName("float")
		}
		return phpdoc.NewName("int")
	}
	return nil
}

// parseChain splits "base->a()->b::c" into the base expression and steps.
func parseChain(expr string) (string, []chainStep, bool) {
	i := 0
	n := len(expr)

	// base
	switch {
	case strings.HasPrefix(expr, "new "):
		i = 4
		for i < n && (isIdentByte(expr[i]) || expr[i] == '\\' || expr[i] == ' ') {
			if expr[i] == ' ' && i+1 < n && expr[i+1] == '(' {
				break
			}
			i++
		}
		if i < n && expr[i] == '(' {
			end := matchForward(expr, i)
			if end < 0 {
				return expr, nil, true
			}
			i = end + 1
		}
	case strings.HasPrefix(expr, "("):
		end := matchForward(expr, 0)
		if end < 0 {
			return expr, nil, true
		}
		i = end + 1
	case strings.HasPrefix(expr, "["):
		end := matchForwardBracket(expr, 0)
		if end < 0 {
			return expr, nil, true
		}
		i = end + 1
	default:
		if i < n && expr[i] == '$' {
			i++
		}
		for i < n && (isIdentByte(expr[i]) || expr[i] == '\\') {
			i++
		}
		if i < n && expr[i] == '(' {
			end := matchForward(expr, i)
			if end < 0 {
				return expr, nil, true
			}
			i = end + 1
		}
	}
	base := expr[:i]

	var steps []chainStep
	for i < n {
		var op string
		switch {
		case strings.HasPrefix(expr[i:], "?->"):
			op = "->"
			i += 3
		case strings.HasPrefix(expr[i:], "->"):
			op = "->"
			i += 2
		case strings.HasPrefix(expr[i:], "::"):
			op = "::"
			i += 2
		case expr[i] == '[':
			// array access: keep as an opaque step the caller unwraps
			end := matchForwardBracket(expr, i)
			if end < 0 {
				return base, steps, true
			}
			steps = append(steps, chainStep{op: "[]", name: strings.TrimSpace(expr[i+1 : end])})
			i = end + 1
			continue
		case expr[i] == ' ' || expr[i] == '\t' || expr[i] == '\n' || expr[i] == '\r':
			i++
			continue
		default:
			return base, steps, false
		}
		for i < n && (expr[i] == ' ' || expr[i] == '\t' || expr[i] == '\n' || expr[i] == '\r') {
			i++
		}
		start := i
		if i < n && expr[i] == '$' {
			i++
		}
		for i < n && isIdentByte(expr[i]) {
			i++
		}
		step := chainStep{op: op, name: expr[start:i]}
		if step.name == "" {
			return base, steps, false
		}
		if i < n && expr[i] == '(' {
			end := matchForward(expr, i)
			if end < 0 {
				step.call = true
				steps = append(steps, step)
				return base, steps, true
			}
			step.call = true
			step.args = splitArgs(expr[i+1 : end])
			i = end + 1
		}
		steps = append(steps, step)
	}
	return base, steps, true
}

func matchForward(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchForwardBracket(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits on top-level commas, respecting nesting and strings.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}

// splitTopLevelOnce splits on the first top-level occurrence of sep.
func splitTopLevelOnce(s, sep string) (string, string, bool) {
	depth := 0
	var quote byte
	for i := 0; i+len(sep) <= len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			// "??" must not match inside "?->" or a ternary "?"
			if sep == "??" {
				if i+len(sep) < len(s) && s[i+len(sep)] == '>' {
					continue
				}
			}
			return s[:i], s[i+len(sep):], true
		}
	}
	return "", "", false
}

// splitTernary splits "cond ? then : else" at the top level, ignoring ?->
// and ?? forms.
func splitTernary(s string) (cond, then, els string, ok bool) {
	depth := 0
	var quote byte
	q := -1
	for i := 0; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == '\\' {
				i++
				continue
			}
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '?':
			if depth == 0 && i+1 < len(s) && s[i+1] != '?' && s[i+1] != '-' && (i == 0 || s[i-1] != '?') {
				q = i
			}
		case ':':
			if depth == 0 && q >= 0 && (i+1 >= len(s) || s[i+1] != ':') && (i == 0 || s[i-1] != ':') {
				return s[:q], s[q+1 : i], s[i+1:], true
			}
		}
	}
	return "", "", "", false
}

func trimKeyQuotes(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 2 && (key[0] == '\'' || key[0] == '"') && key[len(key)-1] == key[0] {
		return key[1 : len(key)-1]
	}
	return ""
}
