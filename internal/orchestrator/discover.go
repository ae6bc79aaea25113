package orchestrator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs is the set of directory names never walked, in addition to
// hidden directories and Config.ExcludeDirs.
var skipDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"jspm_packages":    true,
}

// Discover returns the root-relative, slash-separated paths of every file
// under root that supports accepts, honoring the root .gitignore. Paths are
// unique and in lexical order, so no two workers ever receive the same unit.
func Discover(root string, cfg Config, supports func(path string) bool) ([]string, error) {
	gi, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excluded[strings.Trim(filepath.ToSlash(d), "/")] = true
	}

	seen := make(map[string]bool)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip entries we cannot read
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if skipDirs[name] || excluded[name] || excluded[rel] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || seen[rel] {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if !hasExtension(name, cfg.Extensions) || !supports(rel) {
			return nil
		}
		seen[rel] = true
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: discover %s: %w", root, err)
	}
	return files, nil
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read %s: %w", path, err)
	}
	return gi, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	name = strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
