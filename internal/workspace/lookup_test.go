package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/composer"
	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/utils"
)

func TestFindClassFromParsedIndex(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///a.php", `<?php
namespace App;
class Thing {}
`)
	cls, ok := ws.FindClass(context.Background(), "App\\Thing")
	require.True(t, ok)
	require.Equal(t, "App\\Thing", cls.FQN)

	// short-name scan of already-parsed records
	cls, ok = ws.FindClass(context.Background(), "Thing")
	require.True(t, ok)
	require.Equal(t, "App\\Thing", cls.FQN)
}

func TestFindClassViaPsr4(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "Entity"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Entity", "User.php"), []byte(`<?php
namespace App\Entity;
class User { public function getEmail(): string { return ""; } }
`), 0o644))

	ws := New()
	ws.SetLayout(&composer.Layout{
		Root: root,
		Psr4: []composer.Psr4Prefix{{Prefix: "App\\", Dirs: []string{src}}},
	})

	cls, ok := ws.FindClass(context.Background(), "App\\Entity\\User")
	require.True(t, ok)
	require.Equal(t, "App\\Entity\\User", cls.FQN)
	require.Equal(t, utils.PathToURI(filepath.Join(src, "Entity", "User.php")), cls.URI)

	// a second lookup is a cache hit on the same record
	again, ok := ws.FindClass(context.Background(), "App\\Entity\\User")
	require.True(t, ok)
	require.Same(t, cls, again)
}

func TestFindClassFromStubs(t *testing.T) {
	ws := New()
	cls, ok := ws.FindClass(context.Background(), "Iterator")
	require.True(t, ok)
	require.Equal(t, "Iterator", cls.FQN)
	require.Equal(t, php.KindInterface, cls.Kind)
	require.Equal(t, utils.StubClassURI("Iterator"), cls.URI)

	_, ok = cls.Member("current", php.SpaceMethod)
	require.True(t, ok)
}

func TestFindClassMiss(t *testing.T) {
	ws := New()
	_, ok := ws.FindClass(context.Background(), "App\\Nope")
	require.False(t, ok)
}

func TestFindClassCancelled(t *testing.T) {
	ws := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := ws.FindClass(ctx, "Iterator")
	require.False(t, ok)
	// the aborted lookup must not have committed the stub parse
	_, parsed := ws.Records(utils.StubClassURI("Iterator"))
	require.False(t, parsed)
}

func TestFindFunctionUserBeatsStub(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///fns.php", `<?php
function strlen(string $s): int { return 0; }
`)
	fn, ok := ws.FindFunction(context.Background(), []string{"strlen"})
	require.True(t, ok)
	require.Equal(t, "file:///fns.php", fn.URI)

	// stub functions resolve when no user definition exists
	fn, ok = ws.FindFunction(context.Background(), []string{"array_map"})
	require.True(t, ok)
	require.Equal(t, "array_map", fn.FQN)

	// the whole stub file was parsed in one go
	fn, ok = ws.FindFunction(context.Background(), []string{"array_filter"})
	require.True(t, ok)
	require.NotNil(t, fn)
}

func TestFindFunctionCandidateOrder(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///ns.php", `<?php
namespace App;
function wrap(): string { return ""; }
`)
	fn, ok := ws.FindFunction(context.Background(), []string{"App\\wrap", "wrap"})
	require.True(t, ok)
	require.Equal(t, "App\\wrap", fn.FQN)
}

func TestFindConstant(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///consts.php", `<?php
define("APP_FLAG", true);
`)
	c, ok := ws.FindConstant(context.Background(), []string{"APP_FLAG"})
	require.True(t, ok)
	require.Equal(t, "APP_FLAG", c.FQN)

	c, ok = ws.FindConstant(context.Background(), []string{"PHP_EOL"})
	require.True(t, ok)
	require.Equal(t, "PHP_EOL", c.FQN)
}

func TestCommitReplacesDocumentRecords(t *testing.T) {
	ws := New()
	ws.SetDocument("file:///doc.php", `<?php
namespace App;
class First {}
`)
	_, ok := ws.FindClass(context.Background(), "App\\First")
	require.True(t, ok)

	ws.SetDocument("file:///doc.php", `<?php
namespace App;
class Second {}
`)
	_, ok = ws.FindClass(context.Background(), "App\\First")
	require.False(t, ok)
	_, ok = ws.FindClass(context.Background(), "App\\Second")
	require.True(t, ok)

	ws.RemoveDocument("file:///doc.php")
	_, ok = ws.FindClass(context.Background(), "App\\Second")
	require.False(t, ok)
}
