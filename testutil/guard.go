// Package testutil provides test fixtures and the helpers that keep the
// package layering intact: pkg/ is the public core and may reach into
// internal/ only for logging, cmd/ is never imported.
package testutil

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Module is the import path prefix of this module.
const Module = "isacore"

// AssertNoDirectImports scans the non-test .go files of dir (subdirectories
// excluded) and fails if an import path satisfies forbidden.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	failIfViolations(t, reason, viols)
}

// AssertTreeImports applies AssertNoDirectImports to root and every package
// below it. Directories named testdata or starting with "_" or "." are skipped.
func AssertTreeImports(t testing.TB, root string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := treeImportViolations(root, forbidden)
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	failIfViolations(t, reason, viols)
}

// InfrastructureImportForbidden matches module packages under internal/
// other than internal/logging.
func InfrastructureImportForbidden(path string) bool {
	rest, ok := strings.CutPrefix(path, Module+"/internal/")
	if !ok {
		return false
	}
	return rest != "logging" && !strings.HasPrefix(rest, "logging/")
}

// CommandImportForbidden matches module packages under cmd/.
func CommandImportForbidden(path string) bool {
	return strings.HasPrefix(path, Module+"/cmd/")
}

// FixtureImportForbidden matches the fixture package itself; production
// code must not depend on it.
func FixtureImportForbidden(path string) bool {
	return path == Module+"/testutil" || strings.HasPrefix(path, Module+"/testutil/")
}

// AnyOf combines predicates.
func AnyOf(preds ...func(string) bool) func(string) bool {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

func treeImportViolations(root string, forbidden func(importPath string) bool) ([]string, error) {
	var viols []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != root && (name == "testdata" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		found, err := directImportViolations(p, forbidden)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		for _, v := range found {
			viols = append(viols, filepath.ToSlash(rel)+": "+v)
		}
		return nil
	})
	sort.Strings(viols)
	return viols, err
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		fileAst, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
