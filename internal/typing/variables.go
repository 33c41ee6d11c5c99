package typing

import (
	"context"
	"regexp"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// variableType infers the type of $name at the cursor: the last assignment
// (or foreach/catch binding, @var override, parameter hint) that dominates
// the cursor, resolved recursively, with control-flow narrowing applied on
// top.
func (r *Resolver) variableType(ctx context.Context, sc *scope, name string, depth int) exprType {
	if depth > maxExprDepth || ctx.Err() != nil {
		return exprType{}
	}

	region, regionStart := scanRegion(sc)
	et, found := r.lastBindingBefore(ctx, sc, region, regionStart, name, depth)

	if !found {
		if pt := r.parameterType(sc, name); pt != nil {
			et = exprType{t: pt}
			found = true
		}
	}
	if !found {
		return exprType{}
	}

	return r.applyNarrowing(ctx, sc, region, regionStart, name, et, depth)
}

// scanRegion returns the text to scan for bindings: the enclosing method
// body when inside one, else the file up to the cursor.
func scanRegion(sc *scope) (string, int) {
	start := 0
	end := sc.offset
	if sc.method != nil {
		start = int(sc.method.Offset)
		if int(sc.method.End) < end {
			// the cursor can sit past the (still unclosed) body while typing
			end = sc.offset
		}
	}
	if start > len(sc.text) {
		start = len(sc.text)
	}
	if end > len(sc.text) {
		end = len(sc.text)
	}
	if start > end {
		start = 0
	}
	return sc.text[start:end], start
}

var docVarRe = regexp.MustCompile(`/\*\*\s*@var\s+(\S[^*]*?)\s+\$([A-Za-z_][A-Za-z0-9_]*)\s*\*/`)

// lastBindingBefore finds the last binding of $name in the region and
// resolves it. Bindings are assignments, foreach values, catch clauses and
// standalone @var docblocks; unset() clears the variable until the next
// binding.
func (r *Resolver) lastBindingBefore(ctx context.Context, sc *scope, region string, regionStart int, name string, depth int) (exprType, bool) {
	type binding struct {
		pos  int
		kind string // assign, foreach-value, foreach-key, catch, docvar, unset, append
		expr string
		typ  *phpdoc.Type
	}
	var bindings []binding

	dollar := "$" + name

	// assignments: $x = expr; also list() destructuring is skipped, compound
	// operators (.=, +=) keep the prior type and are skipped too
	for idx := 0; ; {
		found := strings.Index(region[idx:], dollar)
		if found < 0 {
			break
		}
		pos := idx + found
		idx = pos + len(dollar)
		// must be a standalone variable token
		if pos > 0 && (isIdentByte(region[pos-1]) || region[pos-1] == '$') {
			continue
		}
		after := pos + len(dollar)
		if after < len(region) && isIdentByte(region[after]) {
			continue
		}
		rest := region[after:]
		trimmed := strings.TrimLeft(rest, " \t")
		lead := len(rest) - len(trimmed)
		switch {
		case strings.HasPrefix(trimmed, "="):
			if strings.HasPrefix(trimmed, "==") || strings.HasPrefix(trimmed, "=>") {
				continue
			}
			stmtEnd := statementEnd(region, after+lead+1)
			bindings = append(bindings, binding{pos: pos, kind: "assign", expr: region[after+lead+1 : stmtEnd]})
		case strings.HasPrefix(trimmed, "["):
			// $x[...] = expr extends the shape; approximate by keeping the
			// prior binding, so nothing to record
		}
	}

	// foreach (iter as $x) / foreach (iter as $k => $x); the head is
	// extracted with balanced parens since the iterable is often a call
	for search := 0; ; {
		found := strings.Index(region[search:], "foreach")
		if found < 0 {
			break
		}
		kw := search + found
		search = kw + len("foreach")
		open := strings.IndexByte(region[kw:], '(')
		if open < 0 {
			break
		}
		open += kw
		closing := matchForward(region, open)
		if closing < 0 {
			continue
		}
		iter, keyVar, valueVar, ok := parseForeachHead(region[open+1 : closing])
		if !ok {
			continue
		}
		if valueVar == name {
			bindings = append(bindings, binding{pos: kw, kind: "foreach-value", expr: iter})
		} else if keyVar == name {
			bindings = append(bindings, binding{pos: kw, kind: "foreach-key", expr: iter})
		}
	}

	// catch (T1|T2 $x)
	for _, m := range catchRe.FindAllStringSubmatchIndex(region, -1) {
		inner := region[m[2]:m[3]]
		fields := strings.Fields(inner)
		if len(fields) < 2 || fields[len(fields)-1] != dollar {
			continue
		}
		typesExpr := strings.Join(fields[:len(fields)-1], " ")
		var parts []*phpdoc.Type
		for _, alt := range strings.Split(typesExpr, "|") {
			if resolved := r.resolveRelativeName(sc, strings.TrimSpace(alt)); resolved != "" {
				parts = append(parts, phpdoc.NewName(resolved))
			}
		}
		if t := phpdoc.NewUnion(parts...); t != nil {
			bindings = append(bindings, binding{pos: m[0], kind: "catch", typ: t})
		}
	}

	// /** @var T $x */ docblocks
	for _, m := range docVarRe.FindAllStringSubmatchIndex(region, -1) {
		if region[m[4]:m[5]] != name {
			continue
		}
		t := phpdoc.ParseType(strings.TrimSpace(region[m[2]:m[3]]))
		if t == nil {
			continue
		}
		t.MapNames(func(n string) string { return r.resolveRelativeName(sc, n) })
		bindings = append(bindings, binding{pos: m[0], kind: "docvar", typ: t})
	}

	// unset($x): clears the variable when at the region's base brace depth;
	// a conditional unset inside a nested block conservatively keeps it
	for _, m := range unsetRe.FindAllStringSubmatchIndex(region, -1) {
		args := region[m[2]:m[3]]
		hit := false
		for _, a := range strings.Split(args, ",") {
			if strings.TrimSpace(a) == dollar {
				hit = true
			}
		}
		if !hit {
			continue
		}
		if braceDepth(region[:m[0]]) == braceDepth(region) {
			bindings = append(bindings, binding{pos: m[0], kind: "unset"})
		}
	}

	if len(bindings) == 0 {
		return exprType{}, false
	}

	// pick the latest binding before the cursor; a pending docvar overrides
	// the assignment that follows it
	best := -1
	for i, b := range bindings {
		if best < 0 || b.pos >= bindings[best].pos {
			// docvar at the same statement should win over the assignment it
			// annotates, which starts after it
			best = i
		}
	}
	chosen := bindings[best]

	// a @var immediately above the chosen assignment overrides it
	if chosen.kind == "assign" {
		for _, b := range bindings {
			if b.kind != "docvar" || b.typ == nil {
				continue
			}
			between := region[b.pos:chosen.pos]
			if b.pos < chosen.pos && strings.Count(between, ";") == 0 {
				return exprType{t: b.typ}, true
			}
		}
	}

	switch chosen.kind {
	case "unset":
		return exprType{}, false
	case "docvar", "catch":
		return exprType{t: chosen.typ}, true
	case "assign":
		inner := *sc
		inner.offset = regionStart + chosen.pos
		return r.resolveExpr(ctx, &inner, chosen.expr, depth+1), true
	case "foreach-value":
		inner := *sc
		inner.offset = regionStart + chosen.pos
		_, v := r.foreachElementTypes(ctx, &inner, chosen.expr, depth+1)
		return exprType{t: v}, v != nil
	case "foreach-key":
		inner := *sc
		inner.offset = regionStart + chosen.pos
		k, _ := r.foreachElementTypes(ctx, &inner, chosen.expr, depth+1)
		return exprType{t: k}, k != nil
	}
	return exprType{}, false
}

var (
	catchRe = regexp.MustCompile(`catch\s*\(([^)]*)\)`)
	unsetRe = regexp.MustCompile(`unset\s*\(([^)]*)\)`)
)

// parseForeachHead splits "iter as $k => $v" / "iter as $v".
func parseForeachHead(inner string) (iter, keyVar, valueVar string, ok bool) {
	asIdx := strings.LastIndex(inner, " as ")
	if asIdx < 0 {
		return "", "", "", false
	}
	iter = strings.TrimSpace(inner[:asIdx])
	tail := strings.TrimSpace(inner[asIdx+4:])
	if arrow := strings.Index(tail, "=>"); arrow >= 0 {
		keyVar = strings.TrimPrefix(strings.TrimSpace(tail[:arrow]), "$")
		valueVar = strings.TrimPrefix(strings.TrimSpace(tail[arrow+2:]), "$")
	} else {
		valueVar = strings.TrimPrefix(tail, "$")
	}
	valueVar = strings.TrimPrefix(valueVar, "&")
	return iter, keyVar, valueVar, iter != "" && valueVar != ""
}

// parameterType resolves a parameter of the enclosing method: the @param
// docblock type wins over the native hint.
func (r *Resolver) parameterType(sc *scope, name string) *phpdoc.Type {
	if sc.method == nil {
		return nil
	}
	for _, p := range sc.method.Params {
		if p.Name == name {
			return p.EffectiveType()
		}
	}
	return nil
}

// statementEnd finds the terminating semicolon of the statement starting at
// from, respecting nesting and strings.
func statementEnd(text string, from int) int {
	depth := 0
	var quote byte
	for i := from; i < len(text); i++ {
		b := text[i]
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
		case ';':
			if depth <= 0 {
				return i
			}
		}
	}
	return len(text)
}

func braceDepth(text string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		b := text[i]
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
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}
