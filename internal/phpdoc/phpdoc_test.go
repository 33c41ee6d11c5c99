package phpdoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDocBlockSummaryAndTags(t *testing.T) {
	doc := Parse(`/**
 * Creates a user from raw input.
 *
 * @param array<string, mixed> $input raw request payload
 * @return User
 * @throws \InvalidArgumentException
 */`)
	require.NotNil(t, doc)
	require.Equal(t, "Creates a user from raw input.", doc.Summary)

	param, ok := doc.Find("param")
	require.True(t, ok)
	require.Equal(t, "input", param.Var)
	require.Equal(t, KindGeneric, param.Type.Kind)
	require.Equal(t, "raw request payload", param.Text)

	ret, ok := doc.Find("return")
	require.True(t, ok)
	require.Equal(t, "User", ret.Type.Name)

	throws, ok := doc.Find("throws")
	require.True(t, ok)
	require.Equal(t, "\\InvalidArgumentException", throws.Type.Name)
}

func TestParseDocBlockMultiLineTag(t *testing.T) {
	doc := Parse(`/**
 * @return array<
 *     string,
 *     list<User>
 * >
 */`)
	ret, ok := doc.Find("return")
	require.True(t, ok)
	require.NotNil(t, ret.Type)
	require.Equal(t, KindGeneric, ret.Type.Kind)
	require.Len(t, ret.Type.Args, 2)
	require.Equal(t, "list", ret.Type.Args[1].Name)
}

func TestParseDocBlockVendorPrefixes(t *testing.T) {
	doc := Parse(`/**
 * @phpstan-return list<int>
 * @psalm-param string $name
 */`)
	ret, ok := doc.Find("return")
	require.True(t, ok)
	require.Equal(t, "list", ret.Type.Name)

	param, ok := doc.Find("param")
	require.True(t, ok)
	require.Equal(t, "name", param.Var)
}

func TestParseDocBlockTemplates(t *testing.T) {
	doc := Parse(`/**
 * @template T of \Countable
 * @template-covariant V
 */`)
	tpl, ok := doc.Find("template")
	require.True(t, ok)
	require.Equal(t, "T", tpl.Var)
	require.Equal(t, "\\Countable", tpl.Type.Name)

	cov, ok := doc.Find("template-covariant")
	require.True(t, ok)
	require.Equal(t, "V", cov.Var)
	require.Nil(t, cov.Type)
}

func TestParseDocBlockMethodTag(t *testing.T) {
	doc := Parse(`/**
 * @method static self create(array $attributes = [], bool $strict)
 */`)
	tag, ok := doc.Find("method")
	require.True(t, ok)
	require.NotNil(t, tag.Method)
	require.True(t, tag.Method.Static)
	require.Equal(t, "create", tag.Method.Name)
	require.Equal(t, "self", tag.Method.Return.Name)
	require.Len(t, tag.Method.Params, 2)
	require.Equal(t, "attributes", tag.Method.Params[0].Name)
	require.True(t, tag.Method.Params[0].HasDefault)
	require.False(t, tag.Method.Params[1].HasDefault)
}

func TestParseDocBlockTypeAliases(t *testing.T) {
	doc := Parse(`/**
 * @phpstan-type UserShape array{id: int, email: string}
 * @phpstan-import-type UserShape from \App\User as ImportedUser
 */`)
	alias, ok := doc.Find("type")
	require.True(t, ok)
	require.Equal(t, "UserShape", alias.Var)
	require.Equal(t, KindArrayShape, alias.Type.Kind)

	imported, ok := doc.Find("import-type")
	require.True(t, ok)
	require.Equal(t, "UserShape", imported.Var)
	require.Equal(t, "\\App\\User", imported.From)
	require.Equal(t, "ImportedUser", imported.As)
}

func TestParseDocBlockAsserts(t *testing.T) {
	doc := Parse(`/**
 * @phpstan-assert-if-true Admin $user
 * @psalm-assert string $name
 */`)
	ifTrue, ok := doc.Find("assert-if-true")
	require.True(t, ok)
	require.Equal(t, "user", ifTrue.Var)
	require.Equal(t, "Admin", ifTrue.Type.Name)

	plain, ok := doc.Find("assert")
	require.True(t, ok)
	require.Equal(t, "name", plain.Var)
}

func TestParseDocBlockDeprecated(t *testing.T) {
	doc := Parse(`/**
 * @deprecated use create() instead
 */`)
	require.True(t, doc.Deprecated)
}

func TestParseDocBlockUnterminatedTypeRecovers(t *testing.T) {
	doc := Parse(`/**
 * @return static<`)
	ret, ok := doc.Find("return")
	require.True(t, ok)
	require.NotNil(t, ret.Type)
	require.Equal(t, "static", ret.Type.Name)
}
