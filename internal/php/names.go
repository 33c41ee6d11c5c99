package php

import (
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// NameContext carries the per-file naming state every reference is resolved
// against.
type NameContext struct {
	Namespace    string
	Uses         map[string]string // lowercased alias → FQN
	FunctionUses map[string]string
	ConstantUses map[string]string
}

// Resolve rewrites a PHP class reference to an FQN:
//  1. a leading \ marks an already-qualified name; strip it and use as-is,
//  2. an exact use-map alias match replaces the first segment,
//  3. a prefix use (use Foo\Bar; Bar\Baz) replaces the first segment,
//  4. otherwise the current namespace is prepended,
//  5. without a namespace the bare name stands.
//
// self/static/parent/$this are sentinels resolved against a caller context
// later and pass through untouched.
func (n *NameContext) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if phpdoc.IsRelative(name) {
		return name
	}
	if strings.HasPrefix(name, "\\") {
		return NormalizeFQN(name)
	}

	first := name
	rest := ""
	if idx := strings.IndexByte(name, '\\'); idx >= 0 {
		first = name[:idx]
		rest = name[idx:]
	}

	if n != nil && n.Uses != nil {
		if full, ok := n.Uses[strings.ToLower(first)]; ok {
			return NormalizeFQN(full + rest)
		}
	}

	if n != nil && n.Namespace != "" {
		return NormalizeFQN(n.Namespace + "\\" + name)
	}
	return NormalizeFQN(name)
}

// ResolveFunction returns the ordered candidate FQNs for a function
// reference: use-function resolved, namespace-qualified, then the bare name.
// PHP falls back from the current namespace to the global one.
func (n *NameContext) ResolveFunction(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "\\") {
		return []string{NormalizeFQN(name)}
	}

	var candidates []string
	seen := make(map[string]struct{})
	add := func(c string) {
		c = NormalizeFQN(c)
		if c == "" {
			return
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, c)
	}

	if n != nil && n.FunctionUses != nil && !strings.Contains(name, "\\") {
		if full, ok := n.FunctionUses[strings.ToLower(name)]; ok {
			add(full)
		}
	}
	if n != nil && n.Namespace != "" {
		add(n.Namespace + "\\" + name)
	}
	add(name)
	return candidates
}

// ResolveConstant mirrors ResolveFunction for constants.
func (n *NameContext) ResolveConstant(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "\\") {
		return []string{NormalizeFQN(name)}
	}

	var candidates []string
	if n != nil && n.ConstantUses != nil && !strings.Contains(name, "\\") {
		if full, ok := n.ConstantUses[strings.ToLower(name)]; ok {
			candidates = append(candidates, NormalizeFQN(full))
		}
	}
	if n != nil && n.Namespace != "" {
		candidates = append(candidates, NormalizeFQN(n.Namespace+"\\"+name))
	}
	candidates = append(candidates, NormalizeFQN(name))
	return candidates
}

// ResolveType rewrites every class-like name inside a docblock type tree.
func (n *NameContext) ResolveType(t *phpdoc.Type) *phpdoc.Type {
	if t == nil {
		return nil
	}
	t.MapNames(n.Resolve)
	return t
}
