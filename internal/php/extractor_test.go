package php

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

func mustExtract(t *testing.T, code string) *FileRecords {
	t.Helper()
	records, err := Extract("file:///test.php", []byte(code))
	require.NoError(t, err)
	return records
}

func findClass(t *testing.T, records *FileRecords, name string) *ClassLike {
	t.Helper()
	for _, cls := range records.Classes {
		if cls.Name == name || cls.FQN == name {
			return cls
		}
	}
	t.Fatalf("class %s not extracted", name)
	return nil
}

func TestExtractClassWithNamespaceAndUses(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App\Service;

use App\Repository\UserRepository;
use App\Entity\{User, Admin as AdminUser};
use function App\Support\array_wrap;
use const App\Support\MAX_ITEMS;

class UserService extends BaseService implements \Countable, ServiceInterface
{
}
`)
	require.Equal(t, "App\\Service", records.Namespace)
	require.Equal(t, "App\\Repository\\UserRepository", records.Uses["userrepository"])
	require.Equal(t, "App\\Entity\\User", records.Uses["user"])
	require.Equal(t, "App\\Entity\\Admin", records.Uses["adminuser"])
	require.Equal(t, "App\\Support\\array_wrap", records.FunctionUses["array_wrap"])
	require.Equal(t, "App\\Support\\MAX_ITEMS", records.ConstantUses["max_items"])

	cls := findClass(t, records, "UserService")
	require.Equal(t, "App\\Service\\UserService", cls.FQN)
	require.Equal(t, KindClass, cls.Kind)
	require.Equal(t, "App\\Service\\BaseService", cls.Parent)
	require.Equal(t, []string{"Countable", "App\\Service\\ServiceInterface"}, cls.Interfaces)
}

func TestExtractMembersAndModifiers(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

abstract class Repo
{
	public const LIMIT = 100;
	private string $table;
	protected static ?int $count = null;

	abstract protected function load(int $id): static;

	/**
	 * Finds a row.
	 *
	 * @param array<string, mixed> $criteria
	 * @return list<Row>
	 */
	public function findBy(array $criteria, int ...$limits): array
	{
		return [];
	}
}
`)
	cls := findClass(t, records, "Repo")
	require.True(t, cls.Abstract)

	limit, ok := cls.Member("LIMIT", SpaceConstant)
	require.True(t, ok)
	require.Equal(t, MemberConstant, limit.Kind)
	require.Equal(t, Public, limit.Visibility)

	table, ok := cls.Member("table", SpaceProperty)
	require.True(t, ok)
	require.Equal(t, Private, table.Visibility)
	require.Equal(t, "string", table.Native.Name)

	count, ok := cls.Member("count", SpaceProperty)
	require.True(t, ok)
	require.True(t, count.Static)
	require.Equal(t, phpdoc.KindNullable, count.Native.Kind)

	load, ok := cls.Member("load", SpaceMethod)
	require.True(t, ok)
	require.True(t, load.Abstract)
	require.Equal(t, Protected, load.Visibility)
	require.Equal(t, "static", load.Native.Name)

	findBy, ok := cls.Member("findBy", SpaceMethod)
	require.True(t, ok)
	require.Equal(t, "Finds a row.", findBy.DocSummary)
	require.Len(t, findBy.Params, 2)
	require.Equal(t, "criteria", findBy.Params[0].Name)
	require.Equal(t, phpdoc.KindGeneric, findBy.Params[0].DocType.Kind)
	require.True(t, findBy.Params[1].Variadic)
	require.Equal(t, "list", findBy.EffectiveType().Name)
}

func TestExtractPromotedProperties(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

class Point
{
	public function __construct(
		private readonly int $x,
		protected int $y,
		int $plain,
	) {}
}
`)
	cls := findClass(t, records, "Point")

	x, ok := cls.Member("x", SpaceProperty)
	require.True(t, ok)
	require.Equal(t, Private, x.Visibility)
	require.True(t, x.Readonly)
	require.Equal(t, "int", x.Native.Name)

	y, ok := cls.Member("y", SpaceProperty)
	require.True(t, ok)
	require.Equal(t, Protected, y.Visibility)

	_, ok = cls.Member("plain", SpaceProperty)
	require.False(t, ok)

	ctor, ok := cls.Member("__construct", SpaceMethod)
	require.True(t, ok)
	require.Len(t, ctor.Params, 3)
	require.True(t, ctor.Params[0].Promoted)
	require.False(t, ctor.Params[2].Promoted)
}

func TestExtractTraitUseWithAdaptations(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

class C
{
	use A, B {
		A::m insteadof B;
		B::m as mB;
		A::helper as protected;
	}
}
`)
	cls := findClass(t, records, "C")
	require.Len(t, cls.Traits, 2)
	require.Equal(t, "App\\A", cls.Traits[0].Name)
	require.Equal(t, "App\\B", cls.Traits[1].Name)

	adaptations := cls.Traits[0].Adaptations
	require.Len(t, adaptations, 3)

	require.Equal(t, AdaptExclude, adaptations[0].Kind)
	require.Equal(t, "m", adaptations[0].Method)
	require.Equal(t, "App\\A", adaptations[0].Source)
	require.Equal(t, []string{"App\\B"}, adaptations[0].Excluded)

	require.Equal(t, AdaptAlias, adaptations[1].Kind)
	require.Equal(t, "m", adaptations[1].Method)
	require.Equal(t, "App\\B", adaptations[1].Source)
	require.Equal(t, "mB", adaptations[1].Alias)

	require.Equal(t, AdaptAlias, adaptations[2].Kind)
	require.Equal(t, "helper", adaptations[2].Method)
	require.Equal(t, Protected, adaptations[2].Visibility)
	require.Empty(t, adaptations[2].Alias)
}

func TestExtractEnumInjectsImplicitInterface(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

enum Status: int
{
	case Draft = 0;
	case Published = 1;
}

enum Flag
{
	case On;
}
`)
	status := findClass(t, records, "Status")
	require.Equal(t, KindEnum, status.Kind)
	require.Equal(t, "int", status.BackingType)
	require.Len(t, status.Traits, 1)
	require.Equal(t, "BackedEnum", status.Traits[0].Name)

	draft, ok := status.Member("Draft", SpaceConstant)
	require.True(t, ok)
	require.Equal(t, MemberEnumCase, draft.Kind)

	flag := findClass(t, records, "Flag")
	require.Equal(t, "UnitEnum", flag.Traits[0].Name)
}

func TestExtractClassDocblock(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

use App\Support\Collection;

/**
 * @template T of object
 * @extends Base<T>
 * @mixin Collection
 * @property-read int $count
 * @method static self make(array $items = [])
 * @phpstan-type Row array{id: int}
 */
class Repo extends Base
{
}
`)
	cls := findClass(t, records, "Repo")
	require.Len(t, cls.Templates, 1)
	require.Equal(t, "T", cls.Templates[0].Name)
	require.Equal(t, "object", cls.Templates[0].Bound.Name)

	require.Len(t, cls.ParentArgs, 1)
	require.Equal(t, "T", cls.ParentArgs[0].Name)

	require.Equal(t, []string{"App\\Support\\Collection"}, cls.Mixins)

	require.Len(t, cls.Virtual, 2)
	require.Equal(t, "count", cls.Virtual[0].Name)
	require.True(t, cls.Virtual[0].Readonly)
	require.Equal(t, "make", cls.Virtual[1].Name)
	require.True(t, cls.Virtual[1].Static)

	require.Contains(t, cls.TypeAliases, "Row")
}

func TestExtractFunctionsAndConstants(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App\Support;

const MAX_ITEMS = 100;

define("LEGACY_FLAG", true);

/**
 * @return list<string>
 */
function array_wrap(mixed $value): array
{
	return [];
}
`)
	require.Len(t, records.Functions, 1)
	fn := records.Functions[0]
	require.Equal(t, "App\\Support\\array_wrap", fn.FQN)
	require.Equal(t, "array_wrap", fn.Name)
	require.Equal(t, "list", fn.EffectiveType().Name)

	require.Len(t, records.Constants, 2)
	require.Equal(t, "App\\Support\\MAX_ITEMS", records.Constants[0].FQN)
	require.Equal(t, "100", records.Constants[0].Value)
	// define() declares globally regardless of the file namespace
	require.Equal(t, "LEGACY_FLAG", records.Constants[1].FQN)
	require.Equal(t, "true", records.Constants[1].Value)
}

func TestExtractAnonymousClass(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

$handler = new class implements Handler {
	public function handle(): void {}
};
`)
	var anon *ClassLike
	for _, cls := range records.Classes {
		if cls.Anonymous {
			anon = cls
		}
	}
	require.NotNil(t, anon)
	require.Contains(t, anon.FQN, "class@anonymous")
	_, ok := anon.Member("handle", SpaceMethod)
	require.True(t, ok)

	// stable across re-parses
	again := mustExtract(t, `<?php
namespace App;

$handler = new class implements Handler {
	public function handle(): void {}
};
`)
	var anon2 *ClassLike
	for _, cls := range again.Classes {
		if cls.Anonymous {
			anon2 = cls
		}
	}
	require.NotNil(t, anon2)
	require.Equal(t, anon.FQN, anon2.FQN)
}

func TestExtractSurvivesTruncatedSource(t *testing.T) {
	records := mustExtract(t, `<?php
namespace App;

class Broken
{
	public function ok(): int { return 1; }

	public function mid(
`)
	cls := findClass(t, records, "Broken")
	_, ok := cls.Member("ok", SpaceMethod)
	require.True(t, ok)
}

func TestExtractIsIdempotent(t *testing.T) {
	code := `<?php
namespace App;

class A extends B implements C
{
	public const X = 1;
	public function m(int $a): string { return ""; }
}
`
	first := mustExtract(t, code)
	second := mustExtract(t, code)
	require.Equal(t, first.Classes[0].FQN, second.Classes[0].FQN)
	require.Equal(t, len(first.Classes[0].Members), len(second.Classes[0].Members))
	require.Equal(t, first.Uses, second.Uses)
}
