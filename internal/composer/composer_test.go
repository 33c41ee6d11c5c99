package composer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalArraySourcePsr4(t *testing.T) {
	source := []byte(`<?php

$vendorDir = dirname(__DIR__);
$baseDir = dirname($vendorDir);

return array(
    'Monolog\\' => array($vendorDir . '/monolog/monolog/src/Monolog'),
    'App\\' => array($baseDir . '/src', $baseDir . '/lib'),
);
`)
	entries, err := EvalArraySource(source, "/project/vendor/composer")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "Monolog\\", entries[0].Key)
	require.Equal(t, []string{"/project/vendor/monolog/monolog/src/Monolog"}, entries[0].Values)

	require.Equal(t, "App\\", entries[1].Key)
	require.Equal(t, []string{"/project/src", "/project/lib"}, entries[1].Values)
}

func TestEvalArraySourceClassmapAndFiles(t *testing.T) {
	classmap := []byte(`<?php
$vendorDir = dirname(__DIR__);
$baseDir = dirname($vendorDir);

return array(
    'App\\Kernel' => $baseDir . '/src/Kernel.php',
);
`)
	entries, err := EvalArraySource(classmap, "/project/vendor/composer")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "App\\Kernel", entries[0].Key)
	require.Equal(t, []string{"/project/src/Kernel.php"}, entries[0].Values)

	files := []byte(`<?php
$vendorDir = dirname(__DIR__);

return array(
    'a4a119a56e50fbb293281d9a48007e0e' => $vendorDir . '/symfony/polyfill-php80/bootstrap.php',
);
`)
	entries, err = EvalArraySource(files, "/project/vendor/composer")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"/project/vendor/symfony/polyfill-php80/bootstrap.php"}, entries[0].Values)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFullLayout(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "composer.json"), `{
  "autoload": {
    "psr-4": {"App\\": "src/"},
    "files": ["src/helpers.php"]
  },
  "autoload-dev": {
    "psr-4": {"App\\Tests\\": ["tests/"]}
  }
}`)
	writeFile(t, filepath.Join(root, "vendor", "composer", "autoload_psr4.php"), `<?php
$vendorDir = dirname(__DIR__);
return array(
    'Monolog\\' => array($vendorDir . '/monolog/src'),
);
`)
	writeFile(t, filepath.Join(root, "vendor", "composer", "autoload_classmap.php"), `<?php
$vendorDir = dirname(__DIR__);
$baseDir = dirname($vendorDir);
return array(
    'App\\Kernel' => $baseDir . '/src/Kernel.php',
);
`)
	writeFile(t, filepath.Join(root, "vendor", "composer", "autoload_files.php"), `<?php
$baseDir = dirname(dirname(__DIR__));
return array(
    'k1' => $baseDir . '/src/helpers.php',
);
`)

	layout, err := Load(root, "")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, "src", "Kernel.php"), layout.Classmap["App\\Kernel"])
	require.Contains(t, layout.Files, filepath.Join(root, "src", "helpers.php"))

	var userPrefixes, vendorPrefixes []string
	for _, p := range layout.Psr4 {
		if p.Vendor {
			vendorPrefixes = append(vendorPrefixes, p.Prefix)
		} else {
			userPrefixes = append(userPrefixes, p.Prefix)
		}
	}
	require.Contains(t, userPrefixes, "App\\")
	require.Contains(t, userPrefixes, "App\\Tests\\")
	require.Contains(t, vendorPrefixes, "Monolog\\")

	require.ElementsMatch(t, []string{filepath.Join(root, "src"), filepath.Join(root, "tests")}, layout.UserRoots())
}

func TestResolvePicksMostSpecificPrefix(t *testing.T) {
	layout := &Layout{
		Psr4: []Psr4Prefix{
			{Prefix: "App\\Sub\\", Dirs: []string{"/p/sub"}},
			{Prefix: "App\\", Dirs: []string{"/p/src"}},
		},
	}
	paths := layout.Resolve("App\\Sub\\Thing")
	require.Equal(t, "/p/sub/Thing.php", paths[0])
	require.Equal(t, filepath.Join("/p/src", "Sub", "Thing.php"), paths[1])
}

func TestLoadDegradesWithoutArtifacts(t *testing.T) {
	layout, err := Load(t.TempDir(), "")
	require.Error(t, err)
	require.NotNil(t, layout)
	require.Empty(t, layout.Psr4)
}
