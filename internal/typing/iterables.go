package typing

import (
	"context"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// iterableContracts maps the generic iterator types to the indexes of their
// key and value type arguments.
var iterableContracts = map[string]struct{ key, value int }{
	"array":             {0, 1},
	"iterable":          {0, 1},
	"iterator":          {0, 1},
	"iteratoraggregate": {0, 1},
	"generator":         {0, 1},
	"traversable":       {0, 1},
	"splobjectstorage":  {0, 1},
	"weakmap":           {0, 1},
}

// elementTypes derives the foreach key and value types from an iterable's
// annotation: array<K,V>, list<V>, T[], the Iterator family, Generator,
// SplObjectStorage and WeakMap.
func elementTypes(t *phpdoc.Type) (key, value *phpdoc.Type) {
	if t == nil {
		return nil, nil
	}
	switch t.Kind {
	case phpdoc.KindArrayShape:
		var parts []*phpdoc.Type
		for _, e := range t.Shape {
			if e.Value != nil {
				parts = append(parts, e.Value)
			}
		}
		return phpdoc.NewName("array-key"), phpdoc.NewUnion(parts...)
	case phpdoc.KindUnion, phpdoc.KindNullable:
		var keys, values []*phpdoc.Type
		for _, p := range t.Parts {
			k, v := elementTypes(p)
			if k != nil {
				keys = append(keys, k)
			}
			if v != nil {
				values = append(values, v)
			}
		}
		return phpdoc.NewUnion(keys...), phpdoc.NewUnion(values...)
	case phpdoc.KindGeneric:
		short := strings.ToLower(shortClassName(t.Name))
		if short == "list" || short == "non-empty-list" {
			if len(t.Args) >= 1 {
				return phpdoc.NewName("int"), t.Args[0]
			}
			return phpdoc.NewName("int"), nil
		}
		contract, ok := iterableContracts[short]
		if !ok {
			return nil, nil
		}
		switch len(t.Args) {
		case 0:
			return nil, nil
		case 1:
			// array<V> / single-argument generic: the argument is the value
			return phpdoc.NewName("array-key"), t.Args[0]
		default:
			var k, v *phpdoc.Type
			if contract.key < len(t.Args) {
				k = t.Args[contract.key]
			}
			if contract.value < len(t.Args) {
				v = t.Args[contract.value]
			}
			return k, v
		}
	}
	return nil, nil
}

// elementValueType returns just the value side of elementTypes.
func elementValueType(t *phpdoc.Type) *phpdoc.Type {
	_, v := elementTypes(t)
	return v
}

// elementValueTypeForKey resolves an array access: a literal key against a
// shape picks the entry's type, anything else falls back to the element
// value type.
func elementValueTypeForKey(t *phpdoc.Type, keyExpr string) *phpdoc.Type {
	if t == nil {
		return nil
	}
	if shape := findShape(t); shape != nil {
		if key := trimKeyQuotes(keyExpr); key != "" {
			for _, e := range shape.Shape {
				if e.Key == key {
					return e.Value
				}
			}
		}
	}
	return elementValueType(t)
}

// foreachElementTypes resolves the element types of a foreach iterable.
// When the direct type has no generic arguments, the class's own @implements
// bindings of an iterator interface are consulted, one level deep; @extends
// bindings are not consulted.
func (r *Resolver) foreachElementTypes(ctx context.Context, sc *scope, iterExpr string, depth int) (key, value *phpdoc.Type) {
	et := r.resolveExpr(ctx, sc, iterExpr, depth)
	if et.t == nil {
		return nil, nil
	}
	if k, v := elementTypes(et.t); k != nil || v != nil {
		return k, v
	}

	// a class type without explicit args: consult its @implements bindings
	for _, name := range r.typeClassNames(ctx, sc, et.t) {
		cls, ok := r.WS.FindClass(ctx, name)
		if !ok {
			continue
		}
		for iface, args := range cls.InterfaceArgs {
			short := strings.ToLower(shortClassName(iface))
			if _, isIterable := iterableContracts[short]; !isIterable {
				continue
			}
			generic := &phpdoc.Type{Kind: phpdoc.KindGeneric, Name: iface, Args: args}
			if k, v := elementTypes(generic); k != nil || v != nil {
				return k, v
			}
		}
	}
	return nil, nil
}

func shortClassName(name string) string {
	if idx := strings.LastIndexByte(name, '\\'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
