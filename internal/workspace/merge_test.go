package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/php"
)

func seed(t *testing.T, ws *Workspace, uri, code string) {
	t.Helper()
	records, err := php.Extract(uri, []byte(code))
	require.NoError(t, err)
	ws.Commit(records)
}

func mustFind(t *testing.T, ws *Workspace, fqn string) *php.ClassLike {
	t.Helper()
	cls, ok := ws.FindClass(context.Background(), fqn)
	require.True(t, ok, "class %s not found", fqn)
	return cls
}

func TestMergeTraitConflict(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///traits.php", `<?php
namespace App;

trait A { public function m(): void {} }
trait B { public function m(): void {} }

class C {
	use A, B {
		A::m insteadof B;
		B::m as mB;
	}
}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\C"))

	m, ok := view.Member("m", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\A", m.Owner)

	mB, ok := view.Member("mB", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\C", mB.Owner)

	methods := 0
	for _, member := range view.All() {
		if member.Kind == php.MemberMethod {
			methods++
		}
	}
	require.Equal(t, 2, methods)
}

func TestMergePrecedenceOwnBeatsTraitBeatsParent(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///prec.php", `<?php
namespace App;

class P { public function n(): void {} }
trait T { public function n(): void {} }

class C extends P {
	use T;
	public function n(): void {}
}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\C"))
	n, ok := view.Member("n", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\C", n.Owner)

	// and trait beats parent when the class does not define it
	seed(t, ws, "file:///prec2.php", `<?php
namespace App2;

class P { public function n(): void {} }
trait T { public function n(): void {} }

class D extends P {
	use T;
}
`)
	view = ws.Merge(context.Background(), mustFind(t, ws, "App2\\D"))
	n, ok = view.Member("n", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App2\\T", n.Owner)
}

func TestMergeParentPrivateNotInherited(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///priv.php", `<?php
namespace App;

class P {
	private function hidden(): void {}
	protected function shared(): void {}
}
trait T {
	private function copied(): void {}
}

class C extends P {
	use T;
}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\C"))

	_, ok := view.Member("hidden", php.SpaceMethod)
	require.False(t, ok, "parent private must not be inherited")

	_, ok = view.Member("shared", php.SpaceMethod)
	require.True(t, ok)

	// trait privates are copied through a use
	copied, ok := view.Member("copied", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, php.Private, copied.Visibility)
}

func TestMergeBackedEnumGetsStubMembers(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///enum.php", `<?php
namespace App;

enum S: int
{
	case X = 1;
}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\S"))

	for _, name := range []string{"cases", "from", "tryFrom"} {
		_, ok := view.Member(name, php.SpaceMethod)
		require.True(t, ok, "expected enum method %s", name)
	}
	for _, name := range []string{"name", "value"} {
		_, ok := view.Member(name, php.SpaceProperty)
		require.True(t, ok, "expected enum property %s", name)
	}
	x, ok := view.Member("X", php.SpaceConstant)
	require.True(t, ok)
	require.Equal(t, php.MemberEnumCase, x.Kind)
}

func TestMergeParentGenericSubstitution(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///gen.php", `<?php
namespace App;

/**
 * @template T
 */
class Collection {
	/** @return T */
	public function first(): mixed {}
}

/**
 * @extends Collection<User>
 */
class UserCollection extends Collection {}

class User {}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\UserCollection"))
	first, ok := view.Member("first", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\User", first.EffectiveType().Name)
}

func TestMergeMixinLowestPrecedence(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///mixin.php", `<?php
namespace App;

class Macroable {
	public function own(): void {}
	public function helper(): void {}
	protected function internal(): void {}
}

/**
 * @mixin Macroable
 */
class C {
	public function own(): int { return 1; }
}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\C"))

	own, ok := view.Member("own", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\C", own.Owner)

	helper, ok := view.Member("helper", php.SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "App\\Macroable", helper.Owner)

	// mixins contribute public members only
	_, ok = view.Member("internal", php.SpaceMethod)
	require.False(t, ok)
}

func TestMergeInheritanceCycleTerminates(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///cycle.php", `<?php
namespace App;

class A extends B { public function a(): void {} }
class B extends A { public function b(): void {} }
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\A"))
	_, ok := view.Member("a", php.SpaceMethod)
	require.True(t, ok)
	_, ok = view.Member("b", php.SpaceMethod)
	require.True(t, ok)
}

func TestMergeIsIdempotent(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///idem.php", `<?php
namespace App;

class P { public function p(): void {} }
class C extends P { public function c(): void {} }
`)
	cls := mustFind(t, ws, "App\\C")
	first := ws.Merge(context.Background(), cls)
	second := ws.Merge(context.Background(), cls)
	require.Equal(t, len(first.Members), len(second.Members))
	for k, m := range first.Members {
		other, ok := second.Members[k]
		require.True(t, ok)
		require.Equal(t, m.Owner, other.Owner)
	}
}

func TestMergeVirtualMembers(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///virtual.php", `<?php
namespace App;

/**
 * @property-read int $count
 * @method static self make()
 */
class C {}
`)
	view := ws.Merge(context.Background(), mustFind(t, ws, "App\\C"))

	count, ok := view.Member("count", php.SpaceProperty)
	require.True(t, ok)
	require.True(t, count.Virtual)

	make_, ok := view.Member("make", php.SpaceMethod)
	require.True(t, ok)
	require.True(t, make_.Static)
}
