package typing

import "strings"

// subjectBefore finds the member-access operator immediately left of the
// cursor (allowing for a partially typed member name) and extracts the
// subject expression before it; "?->" is reported as "->". Multi-line
// chains are collapsed: the leftward walk skips whitespace after crossing a
// chain operator, so a "->" on a continuation line resolves the same as a
// single-line chain.
func subjectBefore(text string, offset int) (subject, op, partial string, ok bool) {
	i := offset
	for i > 0 && isIdentByte(text[i-1]) {
		i--
	}
	partial = text[i:offset]
	// static property access: Foo::$name
	if i > 0 && text[i-1] == '$' && i >= 3 && text[i-3:i-1] == "::" {
		partial = "$" + partial
		i--
	}

	switch {
	case i >= 3 && text[i-3:i] == "?->":
		op = "->"
		i -= 3
	case i >= 2 && text[i-2:i] == "->":
		op = "->"
		i -= 2
	case i >= 2 && text[i-2:i] == "::":
		op = "::"
		i -= 2
	default:
		return "", "", "", false
	}

	i = skipSpaceLeft(text, i)
	subject = scanLeftExpr(text, i)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", "", "", false
	}
	return subject, op, partial, true
}

// scanLeftExpr walks left from end collecting one postfix expression:
// identifiers, variables, balanced () / [] groups and chain operators.
// Whitespace is crossed only around chain operators, which is what makes
// continuation lines starting with -> work.
func scanLeftExpr(text string, end int) string {
	j := end
	for j > 0 {
		b := text[j-1]
		switch {
		case isIdentByte(b) || b == '$' || b == '\\':
			j--
		case b == ')' || b == ']':
			m := matchBackward(text, j-1)
			if m < 0 {
				return text[j:end]
			}
			j = m
		case b == '>' && j >= 2 && text[j-2] == '-':
			if j >= 3 && text[j-3] == '?' {
				j -= 3
			} else {
				j -= 2
			}
			j = skipSpaceLeft(text, j)
		case b == ':' && j >= 2 && text[j-2] == ':':
			j -= 2
			j = skipSpaceLeft(text, j)
		default:
			goto done
		}
	}
done:
	start := j
	// include a leading "new " / "clone " keyword
	head := strings.TrimRight(text[:start], " \t")
	for _, kw := range []string{"new", "clone"} {
		if strings.HasSuffix(head, kw) {
			boundary := len(head) - len(kw)
			if boundary == 0 || !isIdentByte(head[boundary-1]) {
				return text[boundary:end]
			}
		}
	}
	return text[start:end]
}

// matchBackward finds the opening bracket matching the closer at pos,
// skipping string literals. Returns -1 on imbalance.
func matchBackward(text string, pos int) int {
	closer := text[pos]
	opener := byte('(')
	if closer == ']' {
		opener = '['
	}
	depth := 0
	for i := pos; i >= 0; i-- {
		b := text[i]
		switch b {
		case '\'', '"':
			// skip backward over the string literal
			for i > 0 {
				i--
				if text[i] == b && (i == 0 || text[i-1] != '\\') {
					break
				}
			}
		case closer:
			depth++
		case opener:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpaceLeft(text string, j int) int {
	for j > 0 {
		switch text[j-1] {
		case ' ', '\t', '\n', '\r':
			j--
		default:
			return j
		}
	}
	return j
}
