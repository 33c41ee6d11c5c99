package php

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

func TestResolveName(t *testing.T) {
	ctx := &NameContext{
		Namespace: "App\\Service",
		Uses: map[string]string{
			"user":  "App\\Entity\\User",
			"repos": "App\\Repository",
		},
	}

	cases := []struct {
		name     string
		expected string
	}{
		{"\\DateTime", "DateTime"},
		{"User", "App\\Entity\\User"},
		{"Repos\\UserRepository", "App\\Repository\\UserRepository"},
		{"Helper", "App\\Service\\Helper"},
		{"Sub\\Helper", "App\\Service\\Sub\\Helper"},
		{"self", "self"},
		{"static", "static"},
		{"parent", "parent"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, ctx.Resolve(tc.name), "resolving %q", tc.name)
	}
}

func TestResolveNameWithoutNamespace(t *testing.T) {
	ctx := &NameContext{}
	require.Equal(t, "Helper", ctx.Resolve("Helper"))
}

func TestResolveFunctionCandidates(t *testing.T) {
	ctx := &NameContext{
		Namespace: "App",
		FunctionUses: map[string]string{
			"wrap": "App\\Support\\array_wrap",
		},
	}
	require.Equal(t,
		[]string{"App\\Support\\array_wrap", "App\\wrap", "wrap"},
		ctx.ResolveFunction("wrap"))
	require.Equal(t,
		[]string{"App\\strlen", "strlen"},
		ctx.ResolveFunction("strlen"))
	require.Equal(t,
		[]string{"strlen"},
		ctx.ResolveFunction("\\strlen"))
}

func TestResolveTypeRewritesNestedNames(t *testing.T) {
	ctx := &NameContext{
		Namespace: "App",
		Uses:      map[string]string{"user": "App\\Entity\\User"},
	}
	typ := phpdoc.ParseType("array<int, User|Helper>")
	ctx.ResolveType(typ)
	union := typ.Args[1]
	require.Equal(t, "App\\Entity\\User", union.Parts[0].Name)
	require.Equal(t, "App\\Helper", union.Parts[1].Name)
}
