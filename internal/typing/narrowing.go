package typing

import (
	"context"
	"regexp"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// narrowFact is one type check derived from a condition: $name matches (or
// does not match) classFQN.
type narrowFact struct {
	class   string
	negated bool
}

// applyNarrowing restricts a variable's type set on the control-flow path
// to the cursor: instanceof/is_a/get_class checks on enclosing if/else
// branches, assert() statements, early guards and @phpstan-assert'ed calls.
func (r *Resolver) applyNarrowing(ctx context.Context, sc *scope, region string, regionStart int, name string, et exprType, depth int) exprType {
	cursor := sc.offset - regionStart
	if cursor < 0 || cursor > len(region) {
		return et
	}

	var facts []narrowFact

	// enclosing if/elseif blocks and their else branches
	facts = append(facts, r.branchFacts(ctx, sc, region, cursor, name)...)

	// unconditional asserts before the cursor
	for _, m := range assertRe.FindAllStringSubmatchIndex(region[:cursor], -1) {
		if fact, ok := r.conditionFact(ctx, sc, region[m[2]:m[3]], name); ok && !fact.negated {
			facts = append(facts, fact)
		}
	}

	// early guards: if (cond) return/throw narrows the fall-through to the
	// complement
	facts = append(facts, r.guardFacts(ctx, sc, region, cursor, name)...)

	for _, fact := range facts {
		et = r.narrowByFact(ctx, et, fact)
	}
	return et
}

var (
	assertRe = regexp.MustCompile(`assert\s*\(([^;]*)\)\s*;`)
	ifRe     = regexp.MustCompile(`\bif\s*\(`)
)

// branchFacts walks every if block that contains the cursor and derives the
// narrowing for its branch.
func (r *Resolver) branchFacts(ctx context.Context, sc *scope, region string, cursor int, name string) []narrowFact {
	var facts []narrowFact
	for _, m := range ifRe.FindAllStringIndex(region, -1) {
		open := m[1] - 1
		condEnd := matchForward(region, open)
		if condEnd < 0 || condEnd >= cursor {
			continue
		}
		cond := region[open+1 : condEnd]

		thenStart, thenEnd, elseStart, elseEnd := branchRanges(region, condEnd+1)
		fact, ok := r.conditionFact(ctx, sc, cond, name)
		if !ok {
			continue
		}
		// the region ends at the cursor, so a block the cursor sits in is
		// unclosed and its end equals the cursor
		switch {
		case cursor >= thenStart && cursor <= thenEnd:
			facts = append(facts, fact)
		case elseStart >= 0 && cursor >= elseStart && cursor <= elseEnd:
			facts = append(facts, narrowFact{class: fact.class, negated: !fact.negated})
		}
	}
	return facts
}

// guardFacts finds "if (cond) return/throw" statements before the cursor at
// the cursor's block level and applies the complement of the condition.
func (r *Resolver) guardFacts(ctx context.Context, sc *scope, region string, cursor int, name string) []narrowFact {
	var facts []narrowFact
	cursorDepth := braceDepth(region[:cursor])
	for _, m := range ifRe.FindAllStringIndex(region[:cursor], -1) {
		open := m[1] - 1
		condEnd := matchForward(region, open)
		if condEnd < 0 || condEnd >= cursor {
			continue
		}
		if braceDepth(region[:m[0]]) != cursorDepth {
			continue
		}
		thenStart, thenEnd, _, _ := branchRanges(region, condEnd+1)
		if thenEnd > cursor {
			continue
		}
		body := region[thenStart:thenEnd]
		trimmedBody := strings.TrimSpace(body)
		if !strings.HasPrefix(trimmedBody, "return") && !strings.HasPrefix(trimmedBody, "throw") &&
			!strings.HasPrefix(trimmedBody, "continue") && !strings.HasPrefix(trimmedBody, "break") {
			continue
		}
		cond := region[open+1 : condEnd]
		if fact, ok := r.conditionFact(ctx, sc, cond, name); ok {
			facts = append(facts, narrowFact{class: fact.class, negated: !fact.negated})
		}
	}
	return facts
}

// branchRanges finds the then-block and optional else-block after an if
// condition. Brace-less bodies span to the next semicolon.
func branchRanges(region string, after int) (thenStart, thenEnd, elseStart, elseEnd int) {
	i := after
	for i < len(region) && (region[i] == ' ' || region[i] == '\t' || region[i] == '\n' || region[i] == '\r') {
		i++
	}
	elseStart, elseEnd = -1, -1
	if i < len(region) && region[i] == '{' {
		end := matchBrace(region, i)
		if end < 0 {
			return i + 1, len(region), -1, -1
		}
		thenStart, thenEnd = i+1, end
		j := end + 1
		for j < len(region) && (region[j] == ' ' || region[j] == '\t' || region[j] == '\n' || region[j] == '\r') {
			j++
		}
		if strings.HasPrefix(region[j:], "else") {
			j += 4
			for j < len(region) && (region[j] == ' ' || region[j] == '\t' || region[j] == '\n' || region[j] == '\r') {
				j++
			}
			if j < len(region) && region[j] == '{' {
				eEnd := matchBrace(region, j)
				if eEnd < 0 {
					// the region ends at the cursor, inside the else block
					eEnd = len(region)
				}
				elseStart, elseEnd = j+1, eEnd
			}
		}
		return thenStart, thenEnd, elseStart, elseEnd
	}
	// single-statement body
	end := statementEnd(region, i)
	return i, end + 1, -1, -1
}

func matchBrace(s string, open int) int {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// conditionFact recognises the narrowing patterns of a condition mentioning
// $name: instanceof, is_a, get_class comparisons, $x::class comparisons and
// calls to @phpstan-assert-if-true/false annotated callables.
func (r *Resolver) conditionFact(ctx context.Context, sc *scope, cond, name string) (narrowFact, bool) {
	cond = strings.TrimSpace(cond)
	dollar := "$" + name
	negated := false
	for strings.HasPrefix(cond, "!") && !strings.HasPrefix(cond, "!=") {
		negated = !negated
		cond = strings.TrimSpace(strings.TrimPrefix(cond, "!"))
	}
	if strings.HasPrefix(cond, "(") && matchForward(cond, 0) == len(cond)-1 {
		inner, ok := r.conditionFact(ctx, sc, cond[1:len(cond)-1], name)
		if ok && negated {
			inner.negated = !inner.negated
		}
		return inner, ok
	}

	// $x instanceof T
	if m := instanceofRe.FindStringSubmatch(cond); m != nil && m[1] == dollar {
		if resolved := r.resolveRelativeName(sc, m[2]); resolved != "" {
			return narrowFact{class: resolved, negated: negated}, true
		}
	}

	// is_a($x, T::class)
	if m := isARe.FindStringSubmatch(cond); m != nil && strings.TrimSpace(m[1]) == dollar {
		if resolved := r.resolveRelativeName(sc, m[2]); resolved != "" {
			return narrowFact{class: resolved, negated: negated}, true
		}
	}

	// get_class($x) === T::class / $x::class === T::class, either operand
	// order; !== negates
	if fact, ok := r.classComparisonFact(sc, cond, dollar); ok {
		if negated {
			fact.negated = !fact.negated
		}
		return fact, true
	}

	// a call annotated with @phpstan-assert-if-true/-false
	if fact, ok := r.assertAnnotationFact(ctx, sc, cond, dollar); ok {
		if negated {
			fact.negated = !fact.negated
		}
		return fact, true
	}

	return narrowFact{}, false
}

var (
	instanceofRe = regexp.MustCompile(`^(\$[A-Za-z_][A-Za-z0-9_]*)\s+instanceof\s+([\\A-Za-z_][\\A-Za-z0-9_]*)$`)
	isARe        = regexp.MustCompile(`^is_a\s*\(\s*(\$[A-Za-z_][A-Za-z0-9_]*)\s*,\s*([\\A-Za-z_][\\A-Za-z0-9_]*)::class\s*[,)]`)
	compareRe    = regexp.MustCompile(`^(.*?)\s*([!=]==)\s*(.*)$`)
)

func (r *Resolver) classComparisonFact(sc *scope, cond, dollar string) (narrowFact, bool) {
	m := compareRe.FindStringSubmatch(cond)
	if m == nil {
		return narrowFact{}, false
	}
	left, op, right := strings.TrimSpace(m[1]), m[2], strings.TrimSpace(m[3])
	negated := op == "!=="

	matches := func(subject string) bool {
		return subject == "get_class("+dollar+")" ||
			subject == "get_class( "+dollar+" )" ||
			subject == dollar+"::class"
	}
	classOf := func(other string) (string, bool) {
		if strings.HasSuffix(other, "::class") {
			name := strings.TrimSuffix(other, "::class")
			if resolved := r.resolveRelativeName(sc, name); resolved != "" {
				return resolved, true
			}
		}
		return "", false
	}

	if matches(strings.ReplaceAll(left, " ", "")) || matches(left) {
		if cls, ok := classOf(right); ok {
			return narrowFact{class: cls, negated: negated}, true
		}
	}
	if matches(strings.ReplaceAll(right, " ", "")) || matches(right) {
		if cls, ok := classOf(left); ok {
			return narrowFact{class: cls, negated: negated}, true
		}
	}
	return narrowFact{}, false
}

// assertAnnotationFact handles conditions like $this->isAdmin($x) where the
// callee declares @phpstan-assert-if-true Admin $x.
func (r *Resolver) assertAnnotationFact(ctx context.Context, sc *scope, cond, dollar string) (narrowFact, bool) {
	open := strings.IndexByte(cond, '(')
	if open < 0 || matchForward(cond, open) != len(cond)-1 {
		return narrowFact{}, false
	}
	args := splitArgs(cond[open+1 : len(cond)-1])
	argIdx := -1
	for i, a := range args {
		if strings.TrimSpace(a) == dollar {
			argIdx = i
		}
	}
	if argIdx < 0 {
		return narrowFact{}, false
	}

	callee := cond[:open]
	var member *php.Member
	if idx := strings.LastIndex(callee, "->"); idx >= 0 {
		method := strings.TrimSpace(callee[idx+2:])
		base := r.resolveExpr(ctx, sc, callee[:idx], 0)
		for _, view := range r.viewsForExpr(ctx, sc, base) {
			if m, ok := view.Member(method, php.SpaceMethod); ok {
				member = m
				break
			}
		}
	} else if fn, ok := r.WS.FindFunction(ctx, sc.names.ResolveFunction(strings.TrimSpace(callee))); ok {
		member = &fn.Member
	}
	if member == nil || argIdx >= len(member.Params) {
		return narrowFact{}, false
	}
	paramName := member.Params[argIdx].Name

	doc := r.memberAssertTags(member)
	for _, tag := range doc {
		if tag.Var != paramName || tag.Type == nil {
			continue
		}
		classes := tag.Type.ClassNames()
		if len(classes) == 0 {
			continue
		}
		resolved := r.resolveRelativeName(sc, classes[0])
		if resolved == "" {
			continue
		}
		switch tag.Name {
		case "assert", "assert-if-true":
			return narrowFact{class: resolved}, true
		case "assert-if-false":
			return narrowFact{class: resolved, negated: true}, true
		}
	}
	return narrowFact{}, false
}

func (r *Resolver) memberAssertTags(m *php.Member) []phpdoc.Tag {
	return m.AssertTags
}

// narrowByFact intersects (or subtracts) the narrowed class from the type
// union.
func (r *Resolver) narrowByFact(ctx context.Context, et exprType, fact narrowFact) exprType {
	if et.t == nil || fact.class == "" {
		if !fact.negated {
			return exprType{t: phpdoc.NewName(fact.class)}
		}
		return et
	}

	parts := []*phpdoc.Type{et.t}
	if et.t.Kind == phpdoc.KindUnion {
		parts = et.t.Parts
	}

	var kept []*phpdoc.Type
	for _, p := range parts {
		isMatch := r.typeMatchesClass(ctx, p, fact.class)
		if fact.negated != isMatch {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		if fact.negated {
			return exprType{}
		}
		// the check introduces a type the union did not carry
		return exprType{t: phpdoc.NewName(fact.class)}
	}
	return exprType{t: phpdoc.NewUnion(kept...), classStrings: et.classStrings}
}

// typeMatchesClass reports whether a union part is the narrowed class or a
// subclass of it.
func (r *Resolver) typeMatchesClass(ctx context.Context, t *phpdoc.Type, classFQN string) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case phpdoc.KindName, phpdoc.KindGeneric:
		if strings.EqualFold(t.Name, classFQN) {
			return true
		}
		if phpdoc.IsScalar(t.Name) {
			return false
		}
		if cls, ok := r.WS.FindClass(ctx, t.Name); ok {
			return r.WS.Extends(ctx, cls, classFQN)
		}
	case phpdoc.KindNullable:
		for _, p := range t.Parts {
			if r.typeMatchesClass(ctx, p, classFQN) {
				return true
			}
		}
	}
	return false
}
