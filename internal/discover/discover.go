// Package discover finds Java sources in a directory tree and lists the
// public top-level types they declare, so a declaration file of reflect
// requests can be bootstrapped from an existing code base.
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/jbind/internal/classinfo"
)

// Type is one public top-level type found in a source file.
type Type struct {
	Package string
	Name    string
	Kind    classinfo.ClassKind
	File    string // Relative to the discovery root
	Line    int
}

// QualifiedName returns the dotted name javap expects.
func (t Type) QualifiedName() classinfo.DotId {
	if t.Package == "" {
		return classinfo.DotId(t.Name)
	}
	return classinfo.DotId(t.Package + "." + t.Name)
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".gradle":      {},
	".idea":        {},
	"build":        {},
	"target":       {},
	"out":          {},
	"bin":          {},
	"node_modules": {},
}

// Files returns the .java files under root, relative to root and sorted.
// Hidden entries, well-known build directories and paths matched by the
// root .gitignore are skipped.
func Files(root string) ([]string, error) {
	gi := loadGitignore(root)

	var results []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if filepath.Ext(name) != ".java" {
			return nil
		}
		// module-info and package-info declare no types.
		if name == "module-info.java" || name == "package-info.java" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}
		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, err)
	}
	sort.Strings(results)
	return results, nil
}

// Classes scans every Java file under root and returns the public top-level
// types, ordered by qualified name. Files that fail to read are reported;
// syntax errors inside a file only hide the declarations tree-sitter could
// not recover.
func Classes(ctx context.Context, root string) ([]Type, error) {
	files, err := Files(root)
	if err != nil {
		return nil, err
	}

	sc := NewScanner()
	defer sc.Close()

	var out []Type
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("discover: read %s: %w", rel, err)
		}
		types, err := sc.Scan(ctx, rel, src)
		if err != nil {
			return nil, err
		}
		out = append(out, types...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
