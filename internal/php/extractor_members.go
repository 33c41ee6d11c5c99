package php

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

func (ex *extractor) extractMethod(node sitter.Node, cls *ClassLike, docText string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode.IsNull() {
		return
	}
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}

	m := &Member{
		Name:       name,
		Kind:       MemberMethod,
		Visibility: Public,
		URI:        ex.uri,
		Offset:     uint32(node.StartByte()),
		End:        uint32(node.EndByte()),
	}
	ex.applyModifiers(node, m)
	m.Native = ex.typeFromNode(node.ChildByFieldName("return_type"))

	doc := phpdoc.Parse(docText)
	ex.applyMemberDoc(doc, m, cls)

	if params := node.ChildByFieldName("parameters"); !params.IsNull() {
		ex.extractParameters(params, m, cls, doc)
	}

	cls.AddMember(m)
}

func (ex *extractor) applyModifiers(node sitter.Node, m *Member) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "visibility_modifier":
			switch strings.ToLower(strings.TrimSpace(ex.text(child))) {
			case "private":
				m.Visibility = Private
			case "protected":
				m.Visibility = Protected
			case "public":
				m.Visibility = Public
			}
		case "static_modifier":
			m.Static = true
		case "abstract_modifier":
			m.Abstract = true
		case "readonly_modifier":
			m.Readonly = true
		}
	}
}

// applyMemberDoc folds a member docblock into the record: the effective
// type, method templates, throws and deprecation.
func (ex *extractor) applyMemberDoc(doc *phpdoc.DocBlock, m *Member, cls *ClassLike) {
	if doc == nil {
		return
	}
	m.DocSummary = doc.Summary
	m.Deprecated = doc.Deprecated

	for _, tag := range doc.Tags {
		switch tag.Name {
		case "template", "template-covariant", "template-contravariant":
			if tag.Var == "" {
				continue
			}
			m.Templates = append(m.Templates, TemplateParam{
				Name:  tag.Var,
				Bound: ex.resolveDocType(tag.Type, cls),
			})
		case "assert", "assert-if-true", "assert-if-false":
			if tag.Type != nil && tag.Var != "" {
				tag.Type = ex.resolveDocType(tag.Type, cls)
				m.AssertTags = append(m.AssertTags, tag)
			}
		}
	}

	switch m.Kind {
	case MemberMethod:
		if ret, ok := doc.Find("return"); ok && ret.Type != nil {
			m.Doc = ex.resolveMemberDocType(ret.Type, m, cls)
		}
	default:
		if v, ok := doc.Find("var"); ok && v.Type != nil {
			m.Doc = ex.resolveMemberDocType(v.Type, m, cls)
		}
	}

	for _, tag := range doc.FindAll("throws") {
		if tag.Type == nil {
			continue
		}
		for _, name := range tag.Type.ClassNames() {
			m.Throws = append(m.Throws, ex.names.Resolve(name))
		}
	}
}

// resolveMemberDocType resolves names while keeping the member's own
// template parameters untouched along with the class's.
func (ex *extractor) resolveMemberDocType(t *phpdoc.Type, m *Member, cls *ClassLike) *phpdoc.Type {
	if t == nil {
		return nil
	}
	local := make(map[string]struct{}, len(m.Templates))
	for _, tp := range m.Templates {
		local[tp.Name] = struct{}{}
	}
	if cls != nil {
		for _, tp := range cls.Templates {
			local[tp.Name] = struct{}{}
		}
		for alias := range cls.TypeAliases {
			local[alias] = struct{}{}
		}
	}
	t.MapNames(func(name string) string {
		if _, ok := local[name]; ok {
			return name
		}
		return ex.names.Resolve(name)
	})
	return t
}

func (ex *extractor) extractParameters(params sitter.Node, m *Member, cls *ClassLike, doc *phpdoc.DocBlock) {
	for i := uint32(0); i < params.NamedChildCount(); i++ {
		node := params.NamedChild(i)
		switch node.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		p := Param{Variadic: node.Type() == "variadic_parameter"}
		nameNode := node.ChildByFieldName("name")
		p.Name = variableName(ex.text(nameNode))
		if p.Name == "" {
			continue
		}

		typeNode := node.ChildByFieldName("type")
		p.Type = ex.typeFromNode(typeNode)
		if !typeNode.IsNull() && typeNode.Type() == "optional_type" {
			p.Nullable = true
		}
		if !node.ChildByFieldName("default_value").IsNull() {
			p.HasDefault = true
		}
		for j := uint32(0); j < node.NamedChildCount(); j++ {
			sub := node.NamedChild(j)
			switch sub.Type() {
			case "reference_modifier":
				p.ByRef = true
			case "variadic_unpacking":
				p.Variadic = true
			}
		}
		if strings.Contains(ex.text(node), "...$"+p.Name) {
			p.Variadic = true
		}

		if doc != nil {
			if dt, ok := doc.ParamType(p.Name); ok {
				p.DocType = ex.resolveMemberDocType(dt.Clone(), m, cls)
			}
		}

		if node.Type() == "property_promotion_parameter" {
			p.Promoted = true
			p.PromotedVisibility = Public
			for j := uint32(0); j < node.NamedChildCount(); j++ {
				sub := node.NamedChild(j)
				switch sub.Type() {
				case "visibility_modifier":
					switch strings.ToLower(strings.TrimSpace(ex.text(sub))) {
					case "private":
						p.PromotedVisibility = Private
					case "protected":
						p.PromotedVisibility = Protected
					}
				case "readonly_modifier":
					p.PromotedReadonly = true
				}
			}
			cls.AddMember(&Member{
				Name:       p.Name,
				Kind:       MemberProperty,
				Visibility: p.PromotedVisibility,
				Readonly:   p.PromotedReadonly,
				Native:     p.Type,
				Doc:        p.DocType,
				URI:        ex.uri,
				Offset:     uint32(node.StartByte()),
			})
		}

		m.Params = append(m.Params, p)
	}
}

func (ex *extractor) extractProperty(node sitter.Node, cls *ClassLike, docText string) {
	base := Member{
		Kind:       MemberProperty,
		Visibility: Public,
		URI:        ex.uri,
	}
	ex.applyModifiers(node, &base)
	base.Native = ex.typeFromNode(node.ChildByFieldName("type"))

	doc := phpdoc.Parse(docText)

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "property_element" {
			continue
		}
		name := ""
		for j := uint32(0); j < child.NamedChildCount(); j++ {
			sub := child.NamedChild(j)
			if sub.Type() == "variable_name" {
				name = variableName(ex.text(sub))
				break
			}
		}
		if name == "" {
			name = variableName(ex.text(child))
		}
		if name == "" {
			continue
		}
		m := base.Clone()
		m.Name = name
		m.Offset = uint32(child.StartByte())
		m.End = uint32(child.EndByte())
		ex.applyMemberDoc(doc, m, cls)
		cls.AddMember(m)
	}
}

func (ex *extractor) extractClassConstants(node sitter.Node, cls *ClassLike, docText string) {
	base := Member{
		Kind:       MemberConstant,
		Visibility: Public,
		Static:     true,
		URI:        ex.uri,
	}
	ex.applyModifiers(node, &base)
	base.Native = ex.typeFromNode(node.ChildByFieldName("type"))
	doc := phpdoc.Parse(docText)

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "const_element" {
			continue
		}
		name := ""
		for j := uint32(0); j < child.NamedChildCount(); j++ {
			sub := child.NamedChild(j)
			if sub.Type() == "name" {
				name = strings.TrimSpace(ex.text(sub))
				break
			}
		}
		if name == "" {
			continue
		}
		m := base.Clone()
		m.Name = name
		m.Offset = uint32(child.StartByte())
		m.End = uint32(child.EndByte())
		ex.applyMemberDoc(doc, m, cls)
		cls.AddMember(m)
	}
}

func (ex *extractor) extractEnumCase(node sitter.Node, cls *ClassLike, docText string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode.IsNull() {
		return
	}
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}
	m := &Member{
		Name:       name,
		Kind:       MemberEnumCase,
		Visibility: Public,
		Static:     true,
		Native:     phpdoc.NewName(cls.FQN),
		URI:        ex.uri,
		Offset:     uint32(node.StartByte()),
		End:        uint32(node.EndByte()),
	}
	if doc := phpdoc.Parse(docText); doc != nil {
		m.DocSummary = doc.Summary
		m.Deprecated = doc.Deprecated
	}
	cls.AddMember(m)
}

func (ex *extractor) extractFunction(node sitter.Node, docText string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode.IsNull() {
		return
	}
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}
	fqn := name
	if ns := ex.names.Namespace; ns != "" {
		fqn = ns + "\\" + name
	}

	fn := &Function{FQN: NormalizeFQN(fqn)}
	fn.Name = name
	fn.Kind = MemberMethod
	fn.Visibility = Public
	fn.URI = ex.uri
	fn.Offset = uint32(node.StartByte())
	fn.End = uint32(node.EndByte())
	fn.Native = ex.typeFromNode(node.ChildByFieldName("return_type"))

	doc := phpdoc.Parse(docText)
	ex.applyMemberDoc(doc, &fn.Member, nil)
	if params := node.ChildByFieldName("parameters"); !params.IsNull() {
		ex.extractParameters(params, &fn.Member, nil, doc)
	}

	ex.records.Functions = append(ex.records.Functions, fn)
}

func (ex *extractor) extractFileConstants(node sitter.Node) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "const_element" {
			continue
		}
		name := ""
		value := ""
		for j := uint32(0); j < child.NamedChildCount(); j++ {
			sub := child.NamedChild(j)
			if sub.Type() == "name" && name == "" {
				name = strings.TrimSpace(ex.text(sub))
			} else {
				value = literalText(ex.text(sub))
			}
		}
		if name == "" {
			continue
		}
		fqn := name
		if ns := ex.names.Namespace; ns != "" {
			fqn = ns + "\\" + name
		}
		ex.records.Constants = append(ex.records.Constants, &Constant{
			FQN:    NormalizeFQN(fqn),
			Name:   name,
			Value:  value,
			URI:    ex.uri,
			Offset: uint32(child.StartByte()),
		})
	}
}

// extractDefineCall handles top-level define("NAME", value) statements.
func (ex *extractor) extractDefineCall(stmt sitter.Node) {
	expr := stmt.NamedChild(0)
	if expr.IsNull() || expr.Type() != "function_call_expression" {
		return
	}
	fn := expr.ChildByFieldName("function")
	if fn.IsNull() || strings.ToLower(strings.TrimSpace(ex.text(fn))) != "define" {
		return
	}
	args := expr.ChildByFieldName("arguments")
	if args.IsNull() || args.NamedChildCount() == 0 {
		return
	}

	var values []string
	for i := uint32(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		values = append(values, strings.TrimSpace(ex.text(arg)))
	}
	if len(values) == 0 {
		return
	}
	name := trimQuotes(values[0])
	if name == "" {
		return
	}
	value := ""
	if len(values) > 1 {
		value = literalText(values[1])
	}
	ex.records.Constants = append(ex.records.Constants, &Constant{
		FQN:    name, // define() always declares in the global namespace
		Name:   name,
		Value:  value,
		URI:    ex.uri,
		Offset: uint32(expr.StartByte()),
	})
}

// typeFromNode converts a native type hint node into the shared type tree.
func (ex *extractor) typeFromNode(node sitter.Node) *phpdoc.Type {
	if node.IsNull() {
		return nil
	}
	switch node.Type() {
	case "union_type", "type_list":
		var parts []*phpdoc.Type
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if t := ex.typeFromNode(node.NamedChild(i)); t != nil {
				parts = append(parts, t)
			}
		}
		return phpdoc.NewUnion(parts...)
	case "intersection_type":
		var parts []*phpdoc.Type
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if t := ex.typeFromNode(node.NamedChild(i)); t != nil {
				parts = append(parts, t)
			}
		}
		if len(parts) == 1 {
			return parts[0]
		}
		if len(parts) == 0 {
			return nil
		}
		return &phpdoc.Type{Kind: phpdoc.KindIntersection, Parts: parts}
	case "optional_type", "nullable_type":
		var inner *phpdoc.Type
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if t := ex.typeFromNode(node.NamedChild(i)); t != nil {
				inner = t
				break
			}
		}
		if inner == nil {
			return nil
		}
		return &phpdoc.Type{Kind: phpdoc.KindNullable, Parts: []*phpdoc.Type{inner}}
	case "named_type":
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if t := ex.typeFromNode(node.NamedChild(i)); t != nil {
				return t
			}
		}
		return nil
	case "primitive_type":
		raw := strings.ToLower(strings.TrimSpace(ex.text(node)))
		if raw == "" {
			return nil
		}
		return phpdoc.NewName(raw)
	case "name", "qualified_name", "relative_name":
		raw := strings.TrimSpace(ex.text(node))
		if raw == "" {
			return nil
		}
		if phpdoc.IsRelative(raw) || phpdoc.IsScalar(raw) {
			return phpdoc.NewName(raw)
		}
		return phpdoc.NewName(ex.names.Resolve(raw))
	default:
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if t := ex.typeFromNode(node.NamedChild(i)); t != nil {
				return t
			}
		}
		// keyword types (static, self, parent) surface as bare nodes
		raw := strings.TrimSpace(ex.text(node))
		if raw != "" && len(raw) < 64 && isBareTypeWord(raw) {
			if phpdoc.IsRelative(raw) || phpdoc.IsScalar(raw) {
				return phpdoc.NewName(strings.ToLower(raw))
			}
			return phpdoc.NewName(ex.names.Resolve(raw))
		}
	}
	return nil
}

func isBareTypeWord(raw string) bool {
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == '_' || b == '\\' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' {
			continue
		}
		return false
	}
	return true
}

func variableName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "&")
	raw = strings.TrimPrefix(raw, "...")
	return strings.TrimPrefix(raw, "$")
}

func trimQuotes(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	return ""
}

// literalText keeps the value expression only when it is literal enough for
// a key/value hint.
func literalText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	switch raw[0] {
	case '\'', '"', '[', '-', '+':
		return raw
	}
	if raw[0] >= '0' && raw[0] <= '9' {
		return raw
	}
	switch strings.ToLower(raw) {
	case "true", "false", "null":
		return raw
	}
	return ""
}
