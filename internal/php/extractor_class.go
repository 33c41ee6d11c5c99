package php

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

func (ex *extractor) extractClassLike(node sitter.Node, docText string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode.IsNull() {
		return
	}
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}

	kind := KindClass
	switch node.Type() {
	case "interface_declaration":
		kind = KindInterface
	case "trait_declaration":
		kind = KindTrait
	case "enum_declaration":
		kind = KindEnum
	}

	fqn := name
	if ns := ex.names.Namespace; ns != "" {
		fqn = ns + "\\" + name
	}

	cls := &ClassLike{
		FQN:     NormalizeFQN(fqn),
		Name:    name,
		Kind:    kind,
		URI:     ex.uri,
		Offset:  uint32(node.StartByte()),
		End:     uint32(node.EndByte()),
		Members: make(map[MemberKey]*Member),
	}

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "abstract_modifier":
			cls.Abstract = true
		case "final_modifier":
			cls.Final = true
		case "readonly_modifier":
			cls.Readonly = true
		}
	}

	ex.applyHeritage(node, cls)

	if kind == KindEnum {
		ex.applyEnumBacking(node, cls)
	}

	if doc := phpdoc.Parse(docText); doc != nil {
		ex.applyClassDoc(doc, cls)
	}

	if body := bodyNode(node); !body.IsNull() {
		ex.extractClassBody(body, cls)
	}

	ex.records.Classes = append(ex.records.Classes, cls)
}

// applyHeritage fills parent and interface lists from base_clause /
// class_interface_clause. Interfaces use base_clause for their extends
// chain; classes use it for the single parent.
func (ex *extractor) applyHeritage(node sitter.Node, cls *ClassLike) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "base_clause":
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				base := child.NamedChild(j)
				switch base.Type() {
				case "name", "qualified_name", "relative_name":
					resolved := ex.names.Resolve(ex.text(base))
					if resolved == "" {
						continue
					}
					if cls.Kind == KindInterface {
						cls.Interfaces = append(cls.Interfaces, resolved)
					} else if cls.Parent == "" {
						cls.Parent = resolved
					}
				}
			}
		case "class_interface_clause":
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				iface := child.NamedChild(j)
				switch iface.Type() {
				case "name", "qualified_name", "relative_name":
					if resolved := ex.names.Resolve(ex.text(iface)); resolved != "" {
						cls.Interfaces = append(cls.Interfaces, resolved)
					}
				}
			}
		}
	}
}

// applyEnumBacking records the backing primitive and injects the implicit
// UnitEnum/BackedEnum trait-use so the merger pulls the stub members in.
func (ex *extractor) applyEnumBacking(node sitter.Node, cls *ClassLike) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() == "primitive_type" {
			cls.BackingType = strings.TrimSpace(ex.text(child))
			break
		}
	}
	implicit := "UnitEnum"
	if cls.BackingType != "" {
		implicit = "BackedEnum"
	}
	// The implicit name is already fully qualified; it bypasses use-map
	// resolution the way a leading \ reference would.
	cls.Traits = append(cls.Traits, TraitUse{Name: implicit})
}

// applyClassDoc folds the class docblock into the record: templates,
// extends/implements arguments, virtual members, mixins and type aliases.
func (ex *extractor) applyClassDoc(doc *phpdoc.DocBlock, cls *ClassLike) {
	cls.DocSummary = doc.Summary
	cls.Deprecated = doc.Deprecated

	for _, tag := range doc.Tags {
		switch tag.Name {
		case "template", "template-covariant", "template-contravariant":
			if tag.Var == "" {
				continue
			}
			variance := Invariant
			if tag.Name == "template-covariant" {
				variance = Covariant
			} else if tag.Name == "template-contravariant" {
				variance = Contravariant
			}
			cls.Templates = append(cls.Templates, TemplateParam{
				Name:     tag.Var,
				Bound:    ex.resolveDocType(tag.Type, cls),
				Variance: variance,
			})
		case "extends":
			if tag.Type != nil && tag.Type.Kind == phpdoc.KindGeneric {
				args := make([]*phpdoc.Type, 0, len(tag.Type.Args))
				for _, a := range tag.Type.Args {
					args = append(args, ex.resolveDocType(a, cls))
				}
				cls.ParentArgs = args
			}
		case "implements":
			if tag.Type != nil && tag.Type.Kind == phpdoc.KindGeneric {
				iface := ex.names.Resolve(tag.Type.Name)
				args := make([]*phpdoc.Type, 0, len(tag.Type.Args))
				for _, a := range tag.Type.Args {
					args = append(args, ex.resolveDocType(a, cls))
				}
				if cls.InterfaceArgs == nil {
					cls.InterfaceArgs = make(map[string][]*phpdoc.Type)
				}
				cls.InterfaceArgs[iface] = args
			}
		case "use":
			if tag.Type != nil && tag.Type.Kind == phpdoc.KindGeneric {
				traitFQN := ex.names.Resolve(tag.Type.Name)
				for i := range cls.Traits {
					if cls.Traits[i].Name == traitFQN {
						args := make([]*phpdoc.Type, 0, len(tag.Type.Args))
						for _, a := range tag.Type.Args {
							args = append(args, ex.resolveDocType(a, cls))
						}
						cls.Traits[i].Args = args
					}
				}
			}
		case "mixin":
			if tag.Type != nil {
				for _, name := range tag.Type.ClassNames() {
					cls.Mixins = append(cls.Mixins, ex.names.Resolve(name))
				}
			}
		case "property", "property-read", "property-write":
			if tag.Var == "" {
				continue
			}
			cls.Virtual = append(cls.Virtual, &Member{
				Name:       tag.Var,
				Kind:       MemberProperty,
				Visibility: Public,
				Doc:        ex.resolveDocType(tag.Type, cls),
				Readonly:   tag.Name == "property-read",
				URI:        ex.uri,
				Offset:     cls.Offset,
				Virtual:    true,
			})
		case "method":
			if tag.Method == nil {
				continue
			}
			m := &Member{
				Name:       tag.Method.Name,
				Kind:       MemberMethod,
				Visibility: Public,
				Static:     tag.Method.Static,
				Doc:        ex.resolveDocType(tag.Method.Return, cls),
				URI:        ex.uri,
				Offset:     cls.Offset,
				Virtual:    true,
			}
			for _, p := range tag.Method.Params {
				m.Params = append(m.Params, Param{
					Name:       p.Name,
					DocType:    ex.resolveDocType(p.Type, cls),
					HasDefault: p.HasDefault,
					Variadic:   p.Variadic,
				})
			}
			cls.Virtual = append(cls.Virtual, m)
		case "type":
			if tag.Var != "" {
				if cls.TypeAliases == nil {
					cls.TypeAliases = make(map[string]*phpdoc.Type)
				}
				cls.TypeAliases[tag.Var] = ex.resolveDocType(tag.Type, cls)
			}
		case "import-type":
			if tag.Var != "" && tag.From != "" {
				cls.Imports = append(cls.Imports, AliasImport{
					Alias: tag.Var,
					From:  ex.names.Resolve(tag.From),
					As:    tag.As,
				})
			}
		}
	}
}

// resolveDocType resolves class names inside a docblock type, leaving the
// class's own template parameters and type aliases alone.
func (ex *extractor) resolveDocType(t *phpdoc.Type, cls *ClassLike) *phpdoc.Type {
	if t == nil {
		return nil
	}
	local := make(map[string]struct{})
	if cls != nil {
		for _, tp := range cls.Templates {
			local[tp.Name] = struct{}{}
		}
		for alias := range cls.TypeAliases {
			local[alias] = struct{}{}
		}
		for _, imp := range cls.Imports {
			name := imp.As
			if name == "" {
				name = imp.Alias
			}
			local[name] = struct{}{}
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

func (ex *extractor) extractClassBody(body sitter.Node, cls *ClassLike) {
	var pendingDoc string
	for i := uint32(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "comment":
			raw := ex.text(child)
			if strings.HasPrefix(raw, "/**") {
				pendingDoc = raw
			}
			continue
		case "use_declaration":
			ex.extractTraitUse(child, cls)
		case "method_declaration":
			ex.extractMethod(child, cls, pendingDoc)
		case "property_declaration":
			ex.extractProperty(child, cls, pendingDoc)
		case "const_declaration":
			ex.extractClassConstants(child, cls, pendingDoc)
		case "enum_case":
			ex.extractEnumCase(child, cls, pendingDoc)
		}
		pendingDoc = ""
	}
}

// extractTraitUse handles "use A, B;" plus the adaptation block. Adaptation
// clauses are parsed from their source text, which stays stable across
// grammar revisions.
func (ex *extractor) extractTraitUse(node sitter.Node, cls *ClassLike) {
	var names []string
	var adaptations []Adaptation

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "name", "qualified_name", "relative_name":
			if resolved := ex.names.Resolve(ex.text(child)); resolved != "" {
				names = append(names, resolved)
			}
		case "use_list":
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				clause := child.NamedChild(j)
				switch clause.Type() {
				case "use_instead_of_clause":
					if a, ok := ex.parseInsteadOf(ex.text(clause)); ok {
						adaptations = append(adaptations, a)
					}
				case "use_as_clause":
					if a, ok := ex.parseUseAs(ex.text(clause)); ok {
						adaptations = append(adaptations, a)
					}
				}
			}
		}
	}

	for idx, name := range names {
		tu := TraitUse{Name: name}
		if idx == 0 {
			// adaptations apply to the whole use statement; attach once
			tu.Adaptations = adaptations
		}
		cls.Traits = append(cls.Traits, tu)
	}
}

// parseInsteadOf parses "A::m insteadof B, C".
func (ex *extractor) parseInsteadOf(text string) (Adaptation, bool) {
	parts := strings.SplitN(text, "insteadof", 2)
	if len(parts) != 2 {
		return Adaptation{}, false
	}
	source, method := splitScopedMethod(strings.TrimSpace(parts[0]))
	if method == "" {
		return Adaptation{}, false
	}
	a := Adaptation{Kind: AdaptExclude, Method: method}
	if source != "" {
		a.Source = ex.names.Resolve(source)
	}
	for _, raw := range strings.Split(parts[1], ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		a.Excluded = append(a.Excluded, ex.names.Resolve(raw))
	}
	return a, true
}

// parseUseAs parses "A::m as alias", "A::m as protected" and
// "A::m as protected alias".
func (ex *extractor) parseUseAs(text string) (Adaptation, bool) {
	parts := strings.SplitN(text, " as ", 2)
	if len(parts) != 2 {
		return Adaptation{}, false
	}
	source, method := splitScopedMethod(strings.TrimSpace(parts[0]))
	if method == "" {
		return Adaptation{}, false
	}
	a := Adaptation{Kind: AdaptAlias, Method: method, Visibility: VisibilityNone}
	if source != "" {
		a.Source = ex.names.Resolve(source)
	}
	for _, field := range strings.Fields(parts[1]) {
		switch strings.ToLower(field) {
		case "public":
			a.Visibility = Public
		case "protected":
			a.Visibility = Protected
		case "private":
			a.Visibility = Private
		default:
			a.Alias = strings.TrimSuffix(field, ";")
		}
	}
	if a.Alias == "" && a.Visibility == VisibilityNone {
		return Adaptation{}, false
	}
	return a, true
}

func splitScopedMethod(text string) (source, method string) {
	if idx := strings.Index(text, "::"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:])
	}
	return "", strings.TrimSpace(text)
}
