// Package composer reads a workspace's Composer layout: composer.json plus
// the generated vendor/composer/autoload_*.php artifacts.
package composer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
)

// Psr4Prefix is one namespace-prefix → directories mapping, tagged with its
// origin so the implementation scanner can walk user roots only.
type Psr4Prefix struct {
	Prefix string // with trailing backslash, e.g. "App\\"
	Dirs   []string
	Vendor bool
}

// Layout is the parsed Composer state for a workspace.
type Layout struct {
	Root      string
	VendorDir string
	Psr4      []Psr4Prefix
	Classmap  map[string]string // FQN → absolute path
	Files     []string          // files-autoload, absolute paths
}

type composerJSON struct {
	Autoload    autoloadSection `json:"autoload"`
	AutoloadDev autoloadSection `json:"autoload-dev"`
}

type autoloadSection struct {
	Psr4     map[string]json.RawMessage `json:"psr-4"`
	Classmap []string                   `json:"classmap"`
	Files    []string                   `json:"files"`
}

// Load reads the workspace's Composer layout. Missing artifacts are not
// fatal: resolution degrades to stubs plus open files and the caller
// surfaces one informational message.
func Load(root, vendorDir string) (*Layout, error) {
	logger := commonlog.GetLoggerf("phpantom.composer")

	if vendorDir == "" {
		vendorDir = "vendor"
	}
	if !filepath.IsAbs(vendorDir) {
		vendorDir = filepath.Join(root, vendorDir)
	}

	layout := &Layout{
		Root:      root,
		VendorDir: vendorDir,
		Classmap:  make(map[string]string),
	}

	var problems []string

	if err := layout.loadComposerJSON(filepath.Join(root, "composer.json")); err != nil {
		problems = append(problems, err.Error())
	}
	if err := layout.loadVendorPsr4(filepath.Join(vendorDir, "composer", "autoload_psr4.php")); err != nil {
		problems = append(problems, err.Error())
	}
	if err := layout.loadClassmap(filepath.Join(vendorDir, "composer", "autoload_classmap.php")); err != nil {
		problems = append(problems, err.Error())
	}
	if err := layout.loadFiles(filepath.Join(vendorDir, "composer", "autoload_files.php")); err != nil {
		problems = append(problems, err.Error())
	}

	// longest prefix first so Resolve picks the most specific mapping
	sort.SliceStable(layout.Psr4, func(i, j int) bool {
		return len(layout.Psr4[i].Prefix) > len(layout.Psr4[j].Prefix)
	})

	logger.Infof("composer layout: %d psr-4 prefixes, %d classmap entries, %d autoload files",
		len(layout.Psr4), len(layout.Classmap), len(layout.Files))

	if len(problems) > 0 {
		return layout, fmt.Errorf("composer layout incomplete: %s", strings.Join(problems, "; "))
	}
	return layout, nil
}

func (l *Layout) loadComposerJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("composer.json: %w", err)
	}
	var parsed composerJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("composer.json: %w", err)
	}
	l.addUserSection(parsed.Autoload)
	l.addUserSection(parsed.AutoloadDev)
	return nil
}

func (l *Layout) addUserSection(section autoloadSection) {
	for prefix, raw := range section.Psr4 {
		dirs := decodeDirList(raw)
		abs := make([]string, 0, len(dirs))
		for _, d := range dirs {
			if !filepath.IsAbs(d) {
				d = filepath.Join(l.Root, d)
			}
			abs = append(abs, filepath.Clean(d))
		}
		if len(abs) == 0 {
			continue
		}
		l.Psr4 = append(l.Psr4, Psr4Prefix{Prefix: normalizePrefix(prefix), Dirs: abs})
	}
	for _, f := range section.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(l.Root, f)
		}
		l.Files = append(l.Files, filepath.Clean(f))
	}
}

// decodeDirList accepts both "src/" and ["src/", "lib/"] forms.
func decodeDirList(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

func (l *Layout) loadVendorPsr4(path string) error {
	entries, err := ReadArrayFile(path)
	if err != nil {
		return fmt.Errorf("autoload_psr4.php: %w", err)
	}
	for _, e := range entries {
		if e.Key == "" || len(e.Values) == 0 {
			continue
		}
		l.Psr4 = append(l.Psr4, Psr4Prefix{
			Prefix: normalizePrefix(e.Key),
			Dirs:   e.Values,
			Vendor: true,
		})
	}
	return nil
}

func (l *Layout) loadClassmap(path string) error {
	entries, err := ReadArrayFile(path)
	if err != nil {
		return fmt.Errorf("autoload_classmap.php: %w", err)
	}
	for _, e := range entries {
		if e.Key == "" || len(e.Values) == 0 {
			continue
		}
		l.Classmap[strings.TrimPrefix(e.Key, "\\")] = e.Values[0]
	}
	return nil
}

func (l *Layout) loadFiles(path string) error {
	entries, err := ReadArrayFile(path)
	if err != nil {
		return fmt.Errorf("autoload_files.php: %w", err)
	}
	for _, e := range entries {
		if len(e.Values) == 1 {
			l.Files = append(l.Files, e.Values[0])
		}
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "\\")
	if prefix != "" && !strings.HasSuffix(prefix, "\\") {
		prefix += "\\"
	}
	return prefix
}

// Resolve derives candidate file paths for an FQN through the PSR-4 table.
// Prefixes are pre-sorted longest-first; the first candidate whose file
// exists wins, but existence is the caller's concern: all derivations are
// returned in order.
func (l *Layout) Resolve(fqn string) []string {
	if l == nil {
		return nil
	}
	fqn = strings.TrimPrefix(fqn, "\\")
	var out []string
	for _, entry := range l.Psr4 {
		if !strings.HasPrefix(fqn, entry.Prefix) {
			continue
		}
		rel := strings.ReplaceAll(strings.TrimPrefix(fqn, entry.Prefix), "\\", string(filepath.Separator)) + ".php"
		for _, dir := range entry.Dirs {
			out = append(out, filepath.Join(dir, rel))
		}
	}
	return out
}

// UserRoots returns the PSR-4 directories declared by the project itself
// (not vendor packages), for the implementation scanner's directory walk.
func (l *Layout) UserRoots() []string {
	if l == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range l.Psr4 {
		if entry.Vendor {
			continue
		}
		for _, dir := range entry.Dirs {
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			out = append(out, dir)
		}
	}
	return out
}
