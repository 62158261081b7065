package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testForbiddenImport = "some/forbidden/package"

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestPredicates(t *testing.T) {
	cases := []struct {
		pred func(string) bool
		in   string
		want bool
	}{
		{InfrastructureImportForbidden, "isacore/internal/blob", true},
		{InfrastructureImportForbidden, "isacore/internal/catalog/sqlite", true},
		{InfrastructureImportForbidden, "isacore/internal/logging", false},
		{InfrastructureImportForbidden, "isacore/internal/loggingx", true},
		{InfrastructureImportForbidden, "isacore/pkg/isa", false},
		{InfrastructureImportForbidden, "example.com/internal/blob", false},
		{InfrastructureImportForbidden, "", false},
		{CommandImportForbidden, "isacore/cmd/isatool", true},
		{CommandImportForbidden, "isacore/cmdline", false},
		{FixtureImportForbidden, "isacore/testutil", true},
		{FixtureImportForbidden, "isacore/testutilx", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.pred(c.in), c.in)
	}
	combined := AnyOf(CommandImportForbidden, FixtureImportForbidden)
	assert.True(t, combined("isacore/testutil"))
	assert.False(t, combined("isacore/pkg/isa"))
	assert.False(t, AnyOf()("isacore/cmd/x"))
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "main.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }")
	writeGo(t, dir, "main_test.go", "package tmp\nimport \"testing\"\nimport \""+testForbiddenImport+"\"\nfunc TestX(t *testing.T) {}")
	writeGo(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport \""+testForbiddenImport+"\"")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("text"), 0o600))

	AssertNoDirectImports(t, dir, func(p string) bool { return p == testForbiddenImport }, "none")

	viols, err := directImportViolations(dir, func(p string) bool { return p == "fmt" })
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt (in main.go)"}, viols)
}

func TestImportStyles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "quotes.go", "package tmp\nimport \"fmt\"\nimport (\n\t\"os\"\n\talias \"context\"\n\t. \"io\"\n)\nfunc X() {}")
	viols, err := directImportViolations(dir, func(p string) bool { return p == "context" || p == "io" })
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"context (in quotes.go)", "io (in quotes.go)"}, viols)
}

func TestTreeImportViolations(t *testing.T) {
	root := t.TempDir()
	writeGo(t, root, "a.go", "package a")
	writeGo(t, filepath.Join(root, "b", "c"), "c.go", "package c\nimport \""+testForbiddenImport+"\"")
	writeGo(t, filepath.Join(root, "testdata"), "x.go", "package x\nimport \""+testForbiddenImport+"\"")
	writeGo(t, filepath.Join(root, "_skip"), "y.go", "package y\nimport \""+testForbiddenImport+"\"")

	viols, err := treeImportViolations(root, func(p string) bool { return p == testForbiddenImport })
	require.NoError(t, err)
	assert.Equal(t, []string{"b/c: " + testForbiddenImport + " (in c.go)"}, viols)

	_, err = treeImportViolations(filepath.Join(root, "missing"), func(string) bool { return false })
	require.Error(t, err)
}

func TestParseErrorsSurface(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "not go")
	_, err := directImportViolations(dir, func(string) bool { return false })
	require.Error(t, err)
}

func TestFailIfViolations(t *testing.T) {
	r := &recorder{}
	failIfViolations(r, "reason", nil)
	assert.Empty(t, r.msg)
	failIfViolations(r, "reason", []string{"x (in y.go)"})
	assert.Contains(t, r.msg, "forbidden imports detected (reason)")
	assert.Contains(t, r.msg, "x (in y.go)")
}
