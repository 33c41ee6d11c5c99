package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	phpforest "github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ArrayEntry is one element of a returned PHP array: an optional string key
// and the string values reachable from the element.
type ArrayEntry struct {
	Key    string
	Values []string
}

// ReadArrayFile evaluates a Composer-generated autoload artifact: a PHP file
// that assigns $vendorDir/$baseDir and returns a literal array of strings or
// string lists. Only the constant subset Composer emits is evaluated;
// anything else yields no value for that element.
func ReadArrayFile(path string) ([]ArrayEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return EvalArraySource(data, filepath.Dir(path))
}

// EvalArraySource evaluates the autoload-array source with __DIR__ bound to
// dir.
func EvalArraySource(content []byte, dir string) ([]ArrayEntry, error) {
	parser := sitter.NewParser()
	lang := sitter.NewLanguage(phpforest.GetLanguage())
	_ = parser.SetLanguage(lang)

	tree, err := parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse autoload array: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("parse autoload array: empty tree")
	}

	ev := &arrayEvaluator{
		content: content,
		dir:     dir,
		vars:    make(map[string]string),
	}

	var entries []ArrayEntry
	var walk func(node sitter.Node)
	walk = func(node sitter.Node) {
		switch node.Type() {
		case "expression_statement":
			expr := node.NamedChild(0)
			if !expr.IsNull() && expr.Type() == "assignment_expression" {
				ev.recordAssignment(expr)
			}
			return
		case "return_statement":
			for i := uint32(0); i < node.NamedChildCount(); i++ {
				child := node.NamedChild(i)
				if child.Type() == "array_creation_expression" {
					entries = append(entries, ev.evalArray(child)...)
				}
			}
			return
		}
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(root)

	return entries, nil
}

type arrayEvaluator struct {
	content []byte
	dir     string
	vars    map[string]string
}

func (ev *arrayEvaluator) text(node sitter.Node) string {
	if node.IsNull() {
		return ""
	}
	return node.Content(ev.content)
}

func (ev *arrayEvaluator) recordAssignment(expr sitter.Node) {
	left := expr.ChildByFieldName("left")
	right := expr.ChildByFieldName("right")
	if left.IsNull() || left.Type() != "variable_name" {
		return
	}
	name := strings.TrimPrefix(strings.TrimSpace(ev.text(left)), "$")
	if value, ok := ev.evalString(right); ok {
		ev.vars[name] = value
	}
}

func (ev *arrayEvaluator) evalArray(node sitter.Node) []ArrayEntry {
	var out []ArrayEntry
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		element := node.NamedChild(i)
		if element.Type() != "array_element_initializer" {
			continue
		}
		entry := ArrayEntry{}
		// with a key the element has two named children; without, one
		switch element.NamedChildCount() {
		case 1:
			entry.Values = ev.evalValues(element.NamedChild(0))
		default:
			if key, ok := ev.evalString(element.NamedChild(0)); ok {
				entry.Key = key
			}
			entry.Values = ev.evalValues(element.NamedChild(element.NamedChildCount() - 1))
		}
		if entry.Key == "" && len(entry.Values) == 0 {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (ev *arrayEvaluator) evalValues(node sitter.Node) []string {
	if node.IsNull() {
		return nil
	}
	if node.Type() == "array_creation_expression" {
		var out []string
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			element := node.NamedChild(i)
			if element.Type() != "array_element_initializer" {
				continue
			}
			if value, ok := ev.evalString(element.NamedChild(element.NamedChildCount() - 1)); ok {
				out = append(out, value)
			}
		}
		return out
	}
	if value, ok := ev.evalString(node); ok {
		return []string{value}
	}
	return nil
}

// evalString evaluates the constant-string subset Composer emits: quoted
// strings, "." concatenation, $vendorDir/$baseDir, __DIR__ and dirname().
func (ev *arrayEvaluator) evalString(node sitter.Node) (string, bool) {
	if node.IsNull() {
		return "", false
	}
	switch node.Type() {
	case "string", "encapsed_string":
		return unquotePHPString(ev.text(node)), true
	case "variable_name":
		name := strings.TrimPrefix(strings.TrimSpace(ev.text(node)), "$")
		value, ok := ev.vars[name]
		return value, ok
	case "name":
		if ev.text(node) == "__DIR__" {
			return ev.dir, true
		}
	case "binary_expression":
		left, okL := ev.evalString(node.ChildByFieldName("left"))
		right, okR := ev.evalString(node.ChildByFieldName("right"))
		if okL && okR {
			return left + right, true
		}
	case "function_call_expression":
		fn := strings.ToLower(strings.TrimSpace(ev.text(node.ChildByFieldName("function"))))
		if fn != "dirname" {
			return "", false
		}
		args := node.ChildByFieldName("arguments")
		if args.IsNull() || args.NamedChildCount() == 0 {
			return "", false
		}
		arg := args.NamedChild(0)
		// argument nodes wrap the expression
		if arg.Type() == "argument" && arg.NamedChildCount() > 0 {
			arg = arg.NamedChild(0)
		}
		if inner, ok := ev.evalString(arg); ok {
			return filepath.Dir(inner), true
		}
	case "parenthesized_expression", "argument":
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			if value, ok := ev.evalString(node.NamedChild(i)); ok {
				return value, true
			}
		}
	}
	return "", false
}

func unquotePHPString(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return raw
	}
	quote := raw[0]
	if (quote != '\'' && quote != '"') || raw[len(raw)-1] != quote {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			next := inner[i+1]
			if next == '\\' || next == quote {
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
