package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AJenbo/phpantom-lsp/internal/composer"
)

func TestFindImplementorsThroughPsr4Walk(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	write := func(name, code string) {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(code), 0o644))
	}
	write("Cacheable.php", `<?php
namespace App;
interface Cacheable {}
`)
	write("RedisCache.php", `<?php
namespace App;
class RedisCache implements Cacheable {}
`)
	write("MemCache.php", `<?php
namespace App;
class MemCache extends RedisCache {}
`)
	write("Unrelated.php", `<?php
namespace App;
class Unrelated {}
`)

	ws := New()
	ws.SetLayout(&composer.Layout{
		Root: root,
		Psr4: []composer.Psr4Prefix{{Prefix: "App\\", Dirs: []string{src}}},
	})

	impls := ws.FindImplementors(context.Background(), "App\\Cacheable", "")
	var names []string
	for _, cls := range impls {
		names = append(names, cls.FQN)
	}
	require.ElementsMatch(t, []string{"App\\RedisCache", "App\\MemCache"}, names)
}

func TestFindImplementorsExcludesAbstractAndInterfaces(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///impl.php", `<?php
namespace App;
interface Handler {}
interface SubHandler extends Handler {}
abstract class BaseHandler implements Handler {}
class RealHandler extends BaseHandler {}
class SubbedHandler implements SubHandler {}
`)
	impls := ws.FindImplementors(context.Background(), "App\\Handler", "")
	var names []string
	for _, cls := range impls {
		names = append(names, cls.FQN)
	}
	// transitive through the abstract parent and through interface extends
	require.ElementsMatch(t, []string{"App\\RealHandler", "App\\SubbedHandler"}, names)
}

func TestFindImplementorsMethodOverrideFilter(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///override.php", `<?php
namespace App;
interface Runner { public function run(): void; }
class A implements Runner { public function run(): void {} }
class B extends A {}
class C extends A { public function run(): void {} }
`)
	impls := ws.FindImplementors(context.Background(), "App\\Runner", "run")
	var names []string
	for _, cls := range impls {
		names = append(names, cls.FQN)
	}
	// B inherits run() but does not override it
	require.ElementsMatch(t, []string{"App\\A", "App\\C"}, names)
}

func TestFindImplementorsDedupsByFQN(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///ns1.php", `<?php
namespace One;
interface Target {}
class Impl implements Target {}
`)
	seed(t, ws, "file:///ns2.php", `<?php
namespace Two;
class Impl implements \One\Target {}
`)
	impls := ws.FindImplementors(context.Background(), "One\\Target", "")
	var names []string
	for _, cls := range impls {
		names = append(names, cls.FQN)
	}
	require.ElementsMatch(t, []string{"One\\Impl", "Two\\Impl"}, names)
}

func TestFindImplementorsCancelled(t *testing.T) {
	ws := New()
	seed(t, ws, "file:///c.php", `<?php
namespace App;
interface I {}
class A implements I {}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Nil(t, ws.FindImplementors(ctx, "App\\I", ""))
}
