package php

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	phpforest "github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Extract parses PHP source and produces the records for that file. The
// syntax tree is discarded before returning; only the records survive. A
// file being edited is almost never syntactically valid, so extraction is
// best-effort: tree-sitter's error nodes are skipped and whatever parsed
// cleanly is kept.
func Extract(uri string, content []byte) (*FileRecords, error) {
	parser := sitter.NewParser()
	lang := sitter.NewLanguage(phpforest.GetLanguage())
	_ = parser.SetLanguage(lang)

	tree, err := parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("parse %s: empty tree", uri)
	}

	ex := &extractor{
		uri:     uri,
		content: content,
		records: &FileRecords{
			URI:          uri,
			Uses:         make(map[string]string),
			FunctionUses: make(map[string]string),
			ConstantUses: make(map[string]string),
		},
	}
	ex.collectUses(root)
	ex.names = &NameContext{
		Namespace:    ex.records.Namespace,
		Uses:         ex.records.Uses,
		FunctionUses: ex.records.FunctionUses,
		ConstantUses: ex.records.ConstantUses,
	}
	ex.walkProgram(root)
	ex.collectAnonymousClasses(root)
	return ex.records, nil
}

type extractor struct {
	uri     string
	content []byte
	records *FileRecords
	names   *NameContext
}

func (ex *extractor) text(node sitter.Node) string {
	if node.IsNull() {
		return ""
	}
	return node.Content(ex.content)
}

// collectUses gathers the namespace and every use statement, including
// aliased, grouped, function and const forms. The first namespace wins for
// the file-level record; per-node namespaces are handled by walkProgram.
func (ex *extractor) collectUses(root sitter.Node) {
	stack := []sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case "namespace_definition", "namespace_declaration":
			if nameNode := node.ChildByFieldName("name"); !nameNode.IsNull() {
				if ex.records.Namespace == "" {
					ex.records.Namespace = NormalizeFQN(ex.text(nameNode))
				}
			}
		case "namespace_use_declaration":
			ex.collectUseDeclaration(node)
			continue
		}

		for i := uint32(0); i < node.NamedChildCount(); i++ {
			stack = append(stack, node.NamedChild(i))
		}
	}
}

func (ex *extractor) collectUseDeclaration(node sitter.Node) {
	// "use function" / "use const" carry a type field, on the declaration or
	// on each clause depending on the grammar revision; plain class imports
	// have none. addUseClause checks the clause when this is empty.
	kind := ""
	if typeNode := node.ChildByFieldName("type"); !typeNode.IsNull() {
		kind = strings.TrimSpace(ex.text(typeNode))
	}

	prefix := ""
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_name":
			prefix = NormalizeFQN(ex.text(child))
		case "namespace_use_group":
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				sub := child.NamedChild(j)
				if sub.Type() == "namespace_use_clause" {
					ex.addUseClause(sub, prefix, kind)
				}
			}
		case "namespace_use_clause":
			ex.addUseClause(child, "", kind)
		}
	}
}

func (ex *extractor) addUseClause(clause sitter.Node, prefix, kind string) {
	if kind == "" {
		if typeNode := clause.ChildByFieldName("type"); !typeNode.IsNull() {
			kind = strings.TrimSpace(ex.text(typeNode))
		}
	}
	alias := ""
	if aliasNode := clause.ChildByFieldName("alias"); !aliasNode.IsNull() {
		alias = strings.TrimSpace(ex.text(aliasNode))
	}

	var nameNode sitter.Node
	for i := uint32(0); i < clause.NamedChildCount(); i++ {
		if clause.FieldNameForNamedChild(i) == "alias" {
			continue
		}
		child := clause.NamedChild(i)
		switch child.Type() {
		case "qualified_name", "relative_name", "name":
			nameNode = child
		}
		if !nameNode.IsNull() {
			break
		}
	}
	if nameNode.IsNull() {
		return
	}

	full := strings.TrimSpace(ex.text(nameNode))
	if prefix != "" {
		full = prefix + "\\" + strings.TrimLeft(full, "\\")
	}
	full = NormalizeFQN(full)
	if full == "" {
		return
	}
	if alias == "" {
		alias = ShortName(full)
	}

	key := strings.ToLower(alias)
	switch kind {
	case "function":
		ex.records.FunctionUses[key] = full
	case "const":
		ex.records.ConstantUses[key] = full
	default:
		ex.records.Uses[key] = full
	}
}

// walkProgram visits the top-level statements, descending into namespace
// bodies. A pending docblock comment is tracked per statement list so the
// comment immediately preceding a declaration attaches to it.
func (ex *extractor) walkProgram(node sitter.Node) {
	var pendingDoc string
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "comment":
			raw := ex.text(child)
			if strings.HasPrefix(raw, "/**") {
				pendingDoc = raw
			}
			continue
		case "namespace_definition", "namespace_declaration":
			// update the active namespace for statements that follow
			if nameNode := child.ChildByFieldName("name"); !nameNode.IsNull() {
				ex.names.Namespace = NormalizeFQN(ex.text(nameNode))
			}
			if body := child.ChildByFieldName("body"); !body.IsNull() {
				ex.walkProgram(body)
			}
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			ex.extractClassLike(child, pendingDoc)
		case "function_definition":
			ex.extractFunction(child, pendingDoc)
		case "const_declaration":
			ex.extractFileConstants(child)
		case "expression_statement":
			ex.extractDefineCall(child)
		}
		pendingDoc = ""
	}
}

// collectAnonymousClasses scans the whole tree for anonymous class bodies so
// $this-> completion works inside them. The synthetic FQN is a stable hash
// of the file URI and declaration offset.
func (ex *extractor) collectAnonymousClasses(root sitter.Node) {
	stack := []sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case "anonymous_class", "anonymous_class_declaration":
			ex.extractAnonymousClass(node)
		case "object_creation_expression":
			if hasNamedChildOfType(node, "declaration_list") {
				ex.extractAnonymousClass(node)
			}
		}

		for i := uint32(0); i < node.NamedChildCount(); i++ {
			stack = append(stack, node.NamedChild(i))
		}
	}
}

func (ex *extractor) extractAnonymousClass(node sitter.Node) {
	offset := uint32(node.StartByte())
	fqn := anonymousFQN(ex.uri, offset)

	cls := &ClassLike{
		FQN:       fqn,
		Name:      fqn,
		Kind:      KindClass,
		URI:       ex.uri,
		Offset:    offset,
		End:       uint32(node.EndByte()),
		Members:   make(map[MemberKey]*Member),
		Anonymous: true,
	}
	ex.applyHeritage(node, cls)
	if body := bodyNode(node); !body.IsNull() {
		ex.extractClassBody(body, cls)
	}
	ex.records.Classes = append(ex.records.Classes, cls)
}

func anonymousFQN(uri string, offset uint32) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uri))
	_, _ = h.Write([]byte{byte(offset), byte(offset >> 8), byte(offset >> 16), byte(offset >> 24)})
	return fmt.Sprintf("class@anonymous\\%08x", h.Sum32())
}

func hasNamedChildOfType(node sitter.Node, typeName string) bool {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Type() == typeName {
			return true
		}
	}
	return false
}

func bodyNode(node sitter.Node) sitter.Node {
	if body := node.ChildByFieldName("body"); !body.IsNull() {
		return body
	}
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() == "declaration_list" || child.Type() == "enum_declaration_list" {
			return child
		}
	}
	return sitter.Node{}
}
