package typing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/workspace"
)

const cursorMarker = "/*^*/"

// analyze seeds a workspace with the document (cursor marked by /*^*/) and
// resolves the cursor position.
func analyze(t *testing.T, code string) Analysis {
	t.Helper()
	offset := strings.Index(code, cursorMarker)
	require.GreaterOrEqual(t, offset, 0, "missing cursor marker")
	text := strings.Replace(code, cursorMarker, "", 1)

	ws := workspace.New()
	ws.SetDocument("file:///main.php", text)
	r := NewResolver(ws)
	return r.Analyze(context.Background(), "file:///main.php", text, offset)
}

func candidateFQNs(a Analysis) []string {
	var out []string
	for _, view := range a.Candidates {
		out = append(out, view.Class.FQN)
	}
	return out
}

func TestAnalyzeThisMemberAccess(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class Service
{
	private string $name;

	public function run(): void
	{
		$this->`+cursorMarker+`
	}
}
`)
	require.Equal(t, KindMemberAccess, a.Kind)
	require.True(t, a.InOwnBody)
	require.Equal(t, []string{"App\\Service"}, candidateFQNs(a))
}

func TestAnalyzeNewAssignment(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User { public function getEmail(): string { return ""; } }

function f(): void {
	$u = new User();
	$u->`+cursorMarker+`
}
`)
	require.Equal(t, KindMemberAccess, a.Kind)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
	_, ok := a.Candidates[0].Member("getEmail", php.SpaceMethod)
	require.True(t, ok)
}

func TestAnalyzeMethodChainReturnType(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class Row { public function id(): int { return 1; } }
class Repo {
	public function first(): Row { return new Row(); }
}

function f(): void {
	$repo = new Repo();
	$repo->first()->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\Row"}, candidateFQNs(a))
}

func TestAnalyzeMultiLineChain(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class Row {}
class Repo { public function first(): Row { return new Row(); } }

function f(): void {
	$repo = new Repo();
	$repo
		->first()
		->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\Row"}, candidateFQNs(a))
}

func TestAnalyzeStaticReturnAcrossSubclass(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class B {
	/** @return static */
	public function s(): static { return $this; }
}
class S extends B {}

function f(): void {
	$x = new S();
	$x->s()->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\S"}, candidateFQNs(a))
}

func TestAnalyzeConditionalReturnWithClassString(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User { public function getEmail(): string { return ""; } }

class Container {
	/**
	 * @template T
	 * @param class-string<T> $a
	 * @return ($a is class-string<T> ? T : mixed)
	 */
	public function make(?string $a = null): mixed { return null; }
}

function f(): void {
	$c = new Container();
	$c->make(User::class)->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
	_, ok := a.Candidates[0].Member("getEmail", php.SpaceMethod)
	require.True(t, ok)
}

func TestAnalyzeUnionNarrowing(t *testing.T) {
	source := `<?php
namespace App;

class User { public function userOnly(): void {} }
class Admin { public function adminOnly(): void {} }

function f(): User|Admin { return new User(); }

function g(): void {
	$x = f();
	if ($x instanceof Admin) {
		$x->THEN
	} else {
		$x->ELSE
	}
	$x->AFTER
}
`
	then := analyze(t, strings.Replace(source, "THEN", cursorMarker, 1))
	require.Equal(t, []string{"App\\Admin"}, candidateFQNs(then))

	els := analyze(t, strings.Replace(source, "ELSE", cursorMarker, 1))
	require.Equal(t, []string{"App\\User"}, candidateFQNs(els))

	after := analyze(t, strings.Replace(source, "AFTER", cursorMarker, 1))
	require.ElementsMatch(t, []string{"App\\User", "App\\Admin"}, candidateFQNs(after))
}

func TestAnalyzeGuardClauseNarrowing(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}
class Admin {}

function f(): User|Admin { return new User(); }

function g(): void {
	$x = f();
	if (!$x instanceof Admin) {
		return;
	}
	$x->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\Admin"}, candidateFQNs(a))
}

func TestAnalyzeClassStringFlow(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User { public static function create(): void {} }

function f(): void {
	$cls = User::class;
	$cls::`+cursorMarker+`
}
`)
	require.Equal(t, KindMemberAccess, a.Kind)
	require.True(t, a.IsStatic)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
}

func TestAnalyzeForeachElementTyping(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User { public function getEmail(): string { return ""; } }

class Repo {
	/** @return list<User> */
	public function all(): array { return []; }
}

function f(): void {
	$repo = new Repo();
	foreach ($repo->all() as $user) {
		$user->`+cursorMarker+`
	}
}
`)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
}

func TestAnalyzeDocVarOverride(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}

function f(mixed $raw): void {
	/** @var User $x */
	$x = $raw;
	$x->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
}

func TestAnalyzeParameterType(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}

class C {
	public function handle(User $user): void {
		$user->`+cursorMarker+`
	}
}
`)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
}

func TestAnalyzeTernaryAndCoalesceUnion(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class A {}
class B {}

function f(bool $flag): void {
	$x = $flag ? new A() : new B();
	$x->`+cursorMarker+`
}
`)
	require.ElementsMatch(t, []string{"App\\A", "App\\B"}, candidateFQNs(a))
}

func TestAnalyzeMatchUnion(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class A {}
class B {}

function f(int $v): void {
	$x = match ($v) {
		1 => new A(),
		default => new B(),
	};
	$x->`+cursorMarker+`
}
`)
	require.ElementsMatch(t, []string{"App\\A", "App\\B"}, candidateFQNs(a))
}

func TestAnalyzeCloneKeepsType(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}

function f(): void {
	$a = new User();
	$b = clone $a;
	$b->`+cursorMarker+`
}
`)
	require.Equal(t, []string{"App\\User"}, candidateFQNs(a))
}

func TestAnalyzeUnsetRemovesVariable(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}

function f(): void {
	$x = new User();
	unset($x);
	$x->`+cursorMarker+`
}
`)
	require.Empty(t, candidateFQNs(a))
}

func TestAnalyzeStaticAccessOnClassName(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

enum Status: int {
	case Draft = 0;
}

function f(): void {
	Status::`+cursorMarker+`
}
`)
	require.Equal(t, KindMemberAccess, a.Kind)
	require.True(t, a.IsStatic)
	require.Equal(t, []string{"App\\Status"}, candidateFQNs(a))
}

func TestAnalyzeArrayShapeKeyCompletion(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class Repo {
	/** @return array{id: int, email: string} */
	public function row(): array { return []; }
}

function f(): void {
	$repo = new Repo();
	$row = $repo->row();
	$row['`+cursorMarker+`
}
`)
	require.Equal(t, KindArrayKey, a.Kind)
	var names []string
	for _, k := range a.ShapeKeys {
		names = append(names, k.Name)
	}
	require.ElementsMatch(t, []string{"id", "email"}, names)
}

func TestAnalyzeServerKeyCompletion(t *testing.T) {
	a := analyze(t, `<?php
$method = $_SERVER['`+cursorMarker+`
`)
	require.Equal(t, KindArrayKey, a.Kind)
	var names []string
	for _, k := range a.ShapeKeys {
		names = append(names, k.Name)
	}
	require.Contains(t, names, "REQUEST_METHOD")
}

func TestAnalyzeDocblockTag(t *testing.T) {
	a := analyze(t, `<?php
/**
 * @par`+cursorMarker+`
 */
function f(): void {}
`)
	require.Equal(t, KindDocblockTag, a.Kind)
	require.Equal(t, "par", a.Partial)
}

func TestAnalyzeClassNameContexts(t *testing.T) {
	cases := []struct {
		code     string
		expected CompletionContext
	}{
		{"<?php\n$x = new Us" + cursorMarker, CtxNew},
		{"<?php\nclass A extends Us" + cursorMarker, CtxExtendsClass},
		{"<?php\ninterface I extends Us" + cursorMarker, CtxExtendsInterface},
		{"<?php\nclass A implements Us" + cursorMarker, CtxImplements},
		{"<?php\nif ($x instanceof Us" + cursorMarker, CtxInstanceof},
		{"<?php\nuse Us" + cursorMarker, CtxUseImport},
		{"<?php\nuse function arr" + cursorMarker, CtxUseFunction},
		{"<?php\nuse const MAX" + cursorMarker, CtxUseConst},
		{"<?php\nnamespace Ap" + cursorMarker, CtxNamespaceDeclaration},
		{"<?php\ntry {} catch (Us" + cursorMarker, CtxCatchType},
		{"<?php\nclass A {\n use Lo" + cursorMarker + "\n}", CtxTraitUse},
		{"<?php\nfunction f(): Us" + cursorMarker, CtxReturnTypeHint},
		{"<?php\nfunction f(Us" + cursorMarker, CtxParameterTypeHint},
		{"<?php\n#[At" + cursorMarker, CtxAttributeClass},
	}
	for _, tc := range cases {
		a := analyze(t, tc.code)
		require.Equal(t, KindClassName, a.Kind, "code: %s", tc.code)
		require.Equal(t, tc.expected, a.Context, "code: %s", tc.code)
	}
}

func TestAnalyzeInsideStringNoSubject(t *testing.T) {
	a := analyze(t, `<?php
$x = "hello `+cursorMarker+`";
`)
	require.Equal(t, KindNone, a.Kind)
}

func TestAnalyzeNamedArgumentCompletion(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

function send(string $to, string $subject, bool $urgent = false): void {}

send(`+cursorMarker+`
`)
	require.Equal(t, KindNamedArgument, a.Kind)
	var names []string
	for _, p := range a.CalleeParams {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"to", "subject", "urgent"}, names)
}

func TestAnalyzeFirstClassCallable(t *testing.T) {
	a := analyze(t, `<?php
namespace App;

class User {}

function make(): User { return new User(); }

function f(): void {
	$fn = make(...);
	$u = $fn();
	$u->`+cursorMarker+`
}
`)
	// calling a first-class callable resolves to the referenced function's
	// return type
	require.Equal(t, KindMemberAccess, a.Kind)
}

func TestSubjectBefore(t *testing.T) {
	cases := []struct {
		text    string
		subject string
		op      string
		partial string
	}{
		{"$this->", "$this", "->", ""},
		{"$this->na", "$this", "->", "na"},
		{"$a->b()->", "$a->b()", "->", ""},
		{"Foo::", "Foo", "::", ""},
		{"$x?->m", "$x", "->", "m"},
		{"(new Foo())->", "(new Foo())", "->", ""},
	}
	for _, tc := range cases {
		subject, op, partial, ok := subjectBefore(tc.text, len(tc.text))
		require.True(t, ok, "text %q", tc.text)
		require.Equal(t, tc.subject, subject, "text %q", tc.text)
		require.Equal(t, tc.op, op, "text %q", tc.text)
		require.Equal(t, tc.partial, partial, "text %q", tc.text)
	}
}
