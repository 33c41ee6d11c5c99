// Package phpdoc parses PHPDoc comments: tag extraction plus the PHPStan
// flavoured type-string grammar.
package phpdoc

import (
	"strings"
)

// Tag is one parsed docblock tag. Name is normalized: the phpstan-/psalm-
// prefixes are stripped, so @phpstan-return and @psalm-return both surface
// as "return".
type Tag struct {
	Name   string
	Type   *Type   // parsed type expression, when the tag carries one
	Var    string  // variable, template or alias name, without the $ prefix
	Text   string  // trailing free-form description
	Method *Method // @method signature
	From   string  // @import-type originating class
	As     string  // @import-type rename
}

// Method is the parsed signature of an @method tag.
type Method struct {
	Name   string
	Static bool
	Return *Type
	Params []MethodParam
}

// MethodParam is one parameter of an @method signature.
type MethodParam struct {
	Name       string
	Type       *Type
	HasDefault bool
	Variadic   bool
}

// DocBlock is a fully parsed docblock.
type DocBlock struct {
	Summary    string
	Tags       []Tag
	Deprecated bool
}

// Find returns the first tag with the given normalized name.
func (d *DocBlock) Find(name string) (Tag, bool) {
	if d == nil {
		return Tag{}, false
	}
	for _, t := range d.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// FindAll returns every tag with the given normalized name.
func (d *DocBlock) FindAll(name string) []Tag {
	if d == nil {
		return nil
	}
	var out []Tag
	for _, t := range d.Tags {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// ParamType returns the @param type for the given variable name.
func (d *DocBlock) ParamType(name string) (*Type, bool) {
	if d == nil {
		return nil, false
	}
	for _, t := range d.Tags {
		if t.Name == "param" && t.Var == name && t.Type != nil {
			return t.Type, true
		}
	}
	return nil, false
}

// Parse splits a raw /** ... */ comment into a summary and tags. Continuation
// lines (lines that do not start with @) are joined onto the preceding tag
// before the value is parsed, so generics spanning lines parse whole.
func Parse(text string) *DocBlock {
	if text == "" {
		return nil
	}
	doc := &DocBlock{}

	lines := cleanLines(text)

	var summary []string
	var pending string
	flush := func() {
		if pending == "" {
			return
		}
		tag := parseTag(pending)
		pending = ""
		if tag.Name == "" {
			return
		}
		if tag.Name == "deprecated" {
			doc.Deprecated = true
		}
		doc.Tags = append(doc.Tags, tag)
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "@") {
			flush()
			pending = line
			continue
		}
		if pending != "" {
			pending += " " + line
			continue
		}
		summary = append(summary, line)
	}
	flush()

	doc.Summary = strings.TrimSpace(strings.Join(summary, " "))
	return doc
}

func cleanLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "*") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// normalizeTagName strips the leading @ and the phpstan-/psalm- vendor
// prefixes from every tag, so prefixed-only tags such as @phpstan-type
// surface as "type" and @phpstan-import-type as "import-type".
func normalizeTagName(raw string) string {
	name := strings.TrimPrefix(raw, "@")
	lower := strings.ToLower(name)
	for _, prefix := range []string{"phpstan-", "psalm-"} {
		if strings.HasPrefix(lower, prefix) {
			return lower[len(prefix):]
		}
	}
	return lower
}

func parseTag(line string) Tag {
	fields := strings.SplitN(line, " ", 2)
	name := normalizeTagName(strings.TrimSpace(fields[0]))
	value := ""
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	tag := Tag{Name: name}

	switch name {
	case "param", "property", "property-read", "property-write",
		"assert", "assert-if-true", "assert-if-false":
		typ, rest := ParseTypePrefix(value)
		tag.Type = typ
		tag.Var, tag.Text = splitVar(rest)
	case "var":
		typ, rest := ParseTypePrefix(value)
		tag.Type = typ
		tag.Var, tag.Text = splitVar(rest)
	case "return", "throws", "mixin", "extends", "implements", "use":
		typ, rest := ParseTypePrefix(value)
		tag.Type = typ
		tag.Text = rest
	case "template", "template-covariant", "template-contravariant":
		tag.Var, tag.Type, tag.Text = parseTemplateValue(value)
	case "method":
		tag.Method = parseMethodValue(value)
	case "type":
		tag.Var, tag.Type = parseTypeAliasValue(value)
	case "import-type":
		tag.Var, tag.From, tag.As = parseImportTypeValue(value)
	default:
		tag.Text = value
	}
	return tag
}

func splitVar(rest string) (string, string) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "$") {
		return "", rest
	}
	end := 1
	for end < len(rest) && (isIdentByte(rest[end]) || isDigit(rest[end])) {
		end++
	}
	return rest[1:end], strings.TrimSpace(rest[end:])
}

// parseTemplateValue handles "T", "T of Bound" and "T as Bound".
func parseTemplateValue(value string) (string, *Type, string) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", nil, ""
	}
	name := fields[0]
	if len(fields) >= 3 && (strings.EqualFold(fields[1], "of") || strings.EqualFold(fields[1], "as")) {
		bound := ParseType(strings.Join(fields[2:], " "))
		return name, bound, ""
	}
	return name, nil, strings.Join(fields[1:], " ")
}

// parseMethodValue handles "static ReturnType name(Type $a, Type $b = null)".
func parseMethodValue(value string) *Method {
	m := &Method{}
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "static ") {
		m.Static = true
		value = strings.TrimSpace(strings.TrimPrefix(value, "static "))
	}

	paren := strings.Index(value, "(")
	head := value
	params := ""
	if paren >= 0 {
		head = strings.TrimSpace(value[:paren])
		params = value[paren+1:]
		if end := strings.LastIndex(params, ")"); end >= 0 {
			params = params[:end]
		}
	}

	// The method name is the last identifier of the head; anything before it
	// is the return type.
	if idx := strings.LastIndexAny(head, " \t"); idx >= 0 {
		m.Return = ParseType(strings.TrimSpace(head[:idx]))
		m.Name = strings.TrimSpace(head[idx+1:])
	} else {
		m.Name = head
	}
	if m.Name == "" {
		return nil
	}

	for _, raw := range splitTopLevel(params, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p := MethodParam{}
		if eq := strings.Index(raw, "="); eq >= 0 {
			p.HasDefault = true
			raw = strings.TrimSpace(raw[:eq])
		}
		typ, rest := ParseTypePrefix(raw)
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "...") {
			p.Variadic = true
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "..."))
		}
		if strings.HasPrefix(rest, "&") {
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "&"))
		}
		name, _ := splitVar(rest)
		if name == "" && typ != nil && typ.Kind == KindThis {
			continue
		}
		p.Name = name
		p.Type = typ
		m.Params = append(m.Params, p)
	}
	return m
}

// parseTypeAliasValue handles "Alias = Type" and "Alias Type".
func parseTypeAliasValue(value string) (string, *Type) {
	value = strings.TrimSpace(value)
	idx := strings.IndexAny(value, " =")
	if idx < 0 {
		return value, nil
	}
	alias := strings.TrimSpace(value[:idx])
	rest := strings.TrimSpace(strings.TrimLeft(value[idx:], " ="))
	return alias, ParseType(rest)
}

// parseImportTypeValue handles "Alias from ClassName as Renamed".
func parseImportTypeValue(value string) (alias, from, renamed string) {
	fields := strings.Fields(value)
	for i := 0; i < len(fields); i++ {
		switch {
		case i == 0:
			alias = fields[i]
		case strings.EqualFold(fields[i], "from") && i+1 < len(fields):
			from = fields[i+1]
			i++
		case strings.EqualFold(fields[i], "as") && i+1 < len(fields):
			renamed = fields[i+1]
			i++
		}
	}
	return alias, from, renamed
}

// splitTopLevel splits on sep, ignoring separators nested inside <>, {}, ()
// or quotes.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			if b == quote {
				quote = 0
			}
			continue
		}
		switch b {
		case '\'', '"':
			quote = b
		case '<', '{', '(', '[':
			depth++
		case '>', '}', ')', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
