package typing

import (
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/stubs"
)

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

// partialIdentifierAt returns the identifier fragment ending at the cursor
// and the offset where it starts. Backslashes are included so "App\Ser"
// completes as a qualified prefix.
func partialIdentifierAt(text string, offset int) (string, int) {
	start := offset
	for start > 0 && (isIdentByte(text[start-1]) || text[start-1] == '\\') {
		start--
	}
	return text[start:offset], start
}

// docblockTagAt reports whether the cursor is inside an unclosed /** comment
// and, when the current token starts with @, returns the partial tag name.
func docblockTagAt(text string, offset int) (string, bool) {
	before := text[:offset]
	open := strings.LastIndex(before, "/**")
	if open < 0 {
		return "", false
	}
	if closing := strings.LastIndex(before, "*/"); closing > open {
		return "", false
	}
	// inside a docblock; find the token being typed
	start := offset
	for start > 0 && (isIdentByte(text[start-1]) || text[start-1] == '-') {
		start--
	}
	if start > 0 && text[start-1] == '@' {
		return text[start:offset], true
	}
	return "", false
}

// insideString reports whether the cursor sits inside a single- or
// double-quoted string on the current line. String interpolation subjects
// are unsupported; the caller returns no subject for them.
func insideString(text string, offset int) bool {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := text[lineStart:offset]
	var quote byte
	for i := 0; i < len(line); i++ {
		b := line[i]
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
		if b == '\'' || b == '"' {
			quote = b
		}
	}
	return quote != 0
}

// arrayKeyAt detects `expr['partial` and returns the partial key and the
// subject expression before the bracket.
func arrayKeyAt(text string, offset int) (partial, subject string, ok bool) {
	i := offset
	for i > 0 && (isIdentByte(text[i-1]) || text[i-1] == '-') {
		i--
	}
	if i == 0 {
		return "", "", false
	}
	partial = text[i:offset]
	if text[i-1] != '\'' && text[i-1] != '"' {
		return "", "", false
	}
	i--
	if i == 0 || text[i-1] != '[' {
		return "", "", false
	}
	i--
	subject = scanLeftExpr(text, i)
	if strings.TrimSpace(subject) == "" {
		return "", "", false
	}
	return partial, subject, true
}

// callForNamedArgument finds the innermost unbalanced "(" before the cursor
// and returns the call expression it belongs to.
func callForNamedArgument(text string, offset int) (string, bool) {
	depth := 0
	i := offset
	for i > 0 {
		b := text[i-1]
		switch b {
		case ')', ']', '}':
			depth++
		case '(':
			if depth == 0 {
				callee := scanLeftExpr(text, i-1)
				callee = strings.TrimSpace(callee)
				if callee == "" {
					return "", false
				}
				// control-flow keywords are not calls
				switch strings.ToLower(callee) {
				case "if", "while", "for", "foreach", "switch", "match", "catch", "fn", "function", "isset", "unset", "empty":
					return "", false
				}
				// a function/method declaration's parameter list
				head := strings.TrimRight(text[:i-1], " \t")
				head = strings.TrimSuffix(head, callee)
				head = strings.TrimRight(head, " \t&")
				if strings.HasSuffix(head, "function") {
					return "", false
				}
				return callee, true
			}
			depth--
		case '[', '{':
			if depth == 0 {
				return "", false
			}
			depth--
		case ';':
			return "", false
		}
		i--
	}
	return "", false
}

// classNameContext classifies a bare-identifier completion position by the
// tokens before it.
func classNameContext(text string, identStart int) CompletionContext {
	before := strings.TrimRight(text[:identStart], " \t")

	// attribute position: #[ or #[Foo, immediately before
	if strings.HasSuffix(before, "#[") || strings.HasSuffix(strings.TrimRight(before, ","), "#[") {
		return CtxAttributeClass
	}

	// "use function" / "use const" carry a keyword between "use" and the
	// identifier, so check the line shape before the single-word switch
	line := strings.ToLower(strings.TrimSpace(lastLine(before)))
	if strings.HasPrefix(line, "use function") {
		return CtxUseFunction
	}
	if strings.HasPrefix(line, "use const") {
		return CtxUseConst
	}

	word := lastWord(before)
	switch strings.ToLower(word) {
	case "new":
		return CtxNew
	case "instanceof":
		return CtxInstanceof
	case "extends":
		if header, kind := declarationHeaderBefore(before); header {
			if kind == "interface" {
				return CtxExtendsInterface
			}
			return CtxExtendsClass
		}
		return CtxExtendsClass
	case "implements":
		return CtxImplements
	case "namespace":
		return CtxNamespaceDeclaration
	case "use":
		return useContext(text, identStart, before)
	case "function":
		break
	case "catch":
		break
	}

	trimmed := strings.TrimRight(before, " \t\n")
	if strings.HasSuffix(trimmed, "catch") {
		return CtxCatchType
	}
	if strings.HasSuffix(trimmed, "(") && strings.HasSuffix(strings.TrimRight(strings.TrimSuffix(trimmed, "("), " \t"), "catch") {
		return CtxCatchType
	}

	if strings.HasSuffix(trimmed, ":") {
		// return type after a parameter list, e.g. "): "
		head := strings.TrimRight(strings.TrimSuffix(trimmed, ":"), " \t")
		if strings.HasSuffix(head, ")") {
			return CtxReturnTypeHint
		}
	}

	if insideParameterList(text, identStart) {
		return CtxParameterTypeHint
	}

	if isPropertyPosition(before) {
		return CtxPropertyTypeHint
	}

	if w := strings.ToLower(word); w == "use" {
		return CtxUseImport
	}

	return CtxAny
}

func useContext(text string, identStart int, before string) CompletionContext {
	// "use function X" / "use const X" at file level; "use Trait" inside a
	// class body.
	tail := strings.ToLower(strings.TrimSpace(lastLine(before)))
	if strings.HasPrefix(tail, "use function") {
		return CtxUseFunction
	}
	if strings.HasPrefix(tail, "use const") {
		return CtxUseConst
	}
	if insideClassBody(text, identStart) {
		return CtxTraitUse
	}
	return CtxUseImport
}

func lastWord(s string) string {
	s = strings.TrimRight(s, " \t\n")
	end := len(s)
	start := end
	for start > 0 && isIdentByte(s[start-1]) {
		start--
	}
	return s[start:end]
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// declarationHeaderBefore reports whether the current statement is a
// class/interface header and which keyword opened it.
func declarationHeaderBefore(before string) (bool, string) {
	line := lastLine(before)
	for _, kw := range []string{"interface", "class", "enum", "trait"} {
		if strings.Contains(line, kw+" ") {
			return true, kw
		}
	}
	return false, ""
}

// insideClassBody reports whether the offset is within a class-like body by
// looking for an unclosed "{" after a declaration keyword.
func insideClassBody(text string, offset int) bool {
	depth := 0
	sawClass := false
	head := text[:offset]
	for _, kw := range []string{"class ", "trait ", "enum ", "interface "} {
		if strings.Contains(head, kw) {
			sawClass = true
			break
		}
	}
	if !sawClass {
		return false
	}
	for i := 0; i < len(head); i++ {
		switch head[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth > 0
}

// insideParameterList reports whether the offset is inside the parentheses
// of a function/method declaration.
func insideParameterList(text string, offset int) bool {
	depth := 0
	i := offset
	for i > 0 {
		b := text[i-1]
		switch b {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				head := strings.TrimRight(text[:i-1], " \t")
				w := lastWord(head)
				if w != "" && !isKeyword(w) {
					// could be a method name; check for "function" before it
					head2 := strings.TrimRight(head[:len(head)-len(w)], " \t&")
					return strings.HasSuffix(head2, "function")
				}
				return strings.HasSuffix(head, "fn") || strings.HasSuffix(head, "function")
			}
			depth--
		case ';', '{', '}':
			return false
		}
		i--
	}
	return false
}

func isKeyword(w string) bool {
	switch strings.ToLower(w) {
	case "if", "while", "for", "foreach", "switch", "match", "catch", "return", "echo", "new", "function", "fn":
		return true
	}
	return false
}

// isPropertyPosition reports whether the cursor follows a visibility or
// static/readonly modifier, i.e. a property type hint position.
func isPropertyPosition(before string) bool {
	line := strings.TrimSpace(lastLine(before))
	for _, prefix := range []string{"public", "protected", "private", "readonly", "static"} {
		if line == prefix || strings.HasPrefix(line, prefix+" ") {
			return true
		}
	}
	return false
}

func serverKeys() map[string]string {
	return stubs.ServerKeys
}
