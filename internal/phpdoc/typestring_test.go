package phpdoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTypeUnionAndIntersection(t *testing.T) {
	typ := ParseType("Foo|Bar&Baz|null")
	require.NotNil(t, typ)
	require.Equal(t, KindUnion, typ.Kind)
	require.Len(t, typ.Parts, 3)
	require.Equal(t, "Foo", typ.Parts[0].Name)
	require.Equal(t, KindIntersection, typ.Parts[1].Kind)
	require.Equal(t, "null", typ.Parts[2].Name)
}

func TestParseTypeDNF(t *testing.T) {
	typ := ParseType("(A&B)|C")
	require.NotNil(t, typ)
	require.Equal(t, KindUnion, typ.Kind)
	require.Len(t, typ.Parts, 2)
	require.Equal(t, KindIntersection, typ.Parts[0].Kind)
	require.Equal(t, "C", typ.Parts[1].Name)
}

func TestParseTypeGenerics(t *testing.T) {
	typ := ParseType("array<string, list<Foo\\Bar>>")
	require.NotNil(t, typ)
	require.Equal(t, KindGeneric, typ.Kind)
	require.Equal(t, "array", typ.Name)
	require.Len(t, typ.Args, 2)
	require.Equal(t, "string", typ.Args[0].Name)
	inner := typ.Args[1]
	require.Equal(t, KindGeneric, inner.Kind)
	require.Equal(t, "list", inner.Name)
	require.Equal(t, "Foo\\Bar", inner.Args[0].Name)
}

func TestParseTypeArraySuffix(t *testing.T) {
	typ := ParseType("Foo[]")
	require.NotNil(t, typ)
	require.Equal(t, KindGeneric, typ.Kind)
	require.Equal(t, "array", typ.Name)
	require.Len(t, typ.Args, 1)
	require.Equal(t, "Foo", typ.Args[0].Name)
}

func TestParseTypeNullable(t *testing.T) {
	typ := ParseType("?Foo")
	require.NotNil(t, typ)
	require.Equal(t, KindNullable, typ.Kind)
	require.Equal(t, "Foo", typ.Parts[0].Name)
}

func TestParseTypeArrayShape(t *testing.T) {
	typ := ParseType("array{id: int, name?: string, meta: array{deep: bool}, ...}")
	require.NotNil(t, typ)
	require.Equal(t, KindArrayShape, typ.Kind)
	require.Len(t, typ.Shape, 4)
	require.Equal(t, "id", typ.Shape[0].Key)
	require.Equal(t, "int", typ.Shape[0].Value.Name)
	require.True(t, typ.Shape[1].Optional)
	require.Equal(t, KindArrayShape, typ.Shape[2].Value.Kind)
	require.True(t, typ.Shape[3].Spread)
}

func TestParseTypeQuotedShapeKeys(t *testing.T) {
	typ := ParseType("array{'foo-bar': int}")
	require.NotNil(t, typ)
	require.Equal(t, KindArrayShape, typ.Kind)
	require.Equal(t, "foo-bar", typ.Shape[0].Key)
}

func TestParseTypeObjectShape(t *testing.T) {
	typ := ParseType("object{name: string, age: int}")
	require.NotNil(t, typ)
	require.Equal(t, KindObjectShape, typ.Kind)
	require.Len(t, typ.Shape, 2)
}

func TestParseTypeCallable(t *testing.T) {
	typ := ParseType("callable(int, string): bool")
	require.NotNil(t, typ)
	require.Equal(t, KindCallable, typ.Kind)
	require.Len(t, typ.Params, 2)
	require.Equal(t, "bool", typ.Return.Name)

	typ = ParseType("Closure(Foo): Bar")
	require.NotNil(t, typ)
	require.Equal(t, KindCallable, typ.Kind)
	require.Equal(t, "Closure", typ.Name)
}

func TestParseTypeClassString(t *testing.T) {
	typ := ParseType("class-string<T>")
	require.NotNil(t, typ)
	require.Equal(t, KindGeneric, typ.Kind)
	require.Equal(t, "class-string", typ.Name)
	require.Equal(t, "T", typ.Args[0].Name)
}

func TestParseTypeClassConst(t *testing.T) {
	typ := ParseType("Foo::class")
	require.NotNil(t, typ)
	require.Equal(t, KindClassConst, typ.Kind)
	require.Equal(t, "Foo", typ.Name)
	require.Equal(t, "class", typ.Const)
}

func TestParseTypeLiterals(t *testing.T) {
	typ := ParseType("'draft'|'published'")
	require.NotNil(t, typ)
	require.Equal(t, KindUnion, typ.Kind)
	require.Equal(t, KindLiteralString, typ.Parts[0].Kind)
	require.Equal(t, "draft", typ.Parts[0].Literal)

	typ = ParseType("0|1|-1")
	require.NotNil(t, typ)
	require.Len(t, typ.Parts, 3)
	require.Equal(t, "-1", typ.Parts[2].Literal)
}

func TestParseTypeConditionalReturn(t *testing.T) {
	typ := ParseType("($a is class-string<T> ? T : mixed)")
	require.NotNil(t, typ)
	require.Equal(t, KindConditional, typ.Kind)
	require.Equal(t, "$a", typ.Cond.Param)
	require.False(t, typ.Cond.Negated)
	require.Equal(t, "class-string", typ.Cond.Predicate.Name)
	require.Equal(t, "T", typ.Cond.Then.Name)
	require.Equal(t, "mixed", typ.Cond.Else.Name)
}

func TestParseTypeConditionalNested(t *testing.T) {
	typ := ParseType("($a is null ? Fallback : ($a is true ? Yes : No))")
	require.NotNil(t, typ)
	require.Equal(t, KindConditional, typ.Kind)
	require.Equal(t, KindConditional, typ.Cond.Else.Kind)
	require.Equal(t, "Yes", typ.Cond.Else.Cond.Then.Name)
}

func TestParseTypeTruncatedGenericRecovers(t *testing.T) {
	typ := ParseType("static<")
	require.NotNil(t, typ)
	require.Equal(t, KindGeneric, typ.Kind)
	require.Equal(t, "static", typ.Name)
	require.Empty(t, typ.Args)
}

func TestParseTypeThis(t *testing.T) {
	typ := ParseType("$this")
	require.NotNil(t, typ)
	require.Equal(t, KindThis, typ.Kind)
}

func TestSubstituteTemplates(t *testing.T) {
	typ := ParseType("array<K, V>")
	out := typ.Substitute(map[string]*Type{
		"K": NewName("string"),
		"V": NewName("App\\User"),
	})
	require.Equal(t, "string", out.Args[0].Name)
	require.Equal(t, "App\\User", out.Args[1].Name)
	// original untouched
	require.Equal(t, "K", typ.Args[0].Name)
}

func TestMapNamesSkipsScalarsAndSentinels(t *testing.T) {
	typ := ParseType("Foo|int|static|self")
	typ.MapNames(func(name string) string { return "App\\" + name })
	require.Equal(t, "App\\Foo", typ.Parts[0].Name)
	require.Equal(t, "int", typ.Parts[1].Name)
	require.Equal(t, "static", typ.Parts[2].Name)
	require.Equal(t, "self", typ.Parts[3].Name)
}
