package architecture_test

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// layers lists, per directory prefix under internal/, the internal packages
// it must not import. A forbidden package covers its subpackages too.
var layers = []struct {
	prefix    string
	forbidden []string
}{
	{"platform/", []string{"app", "http", "services", "data", "matrix", "realtime", "depgraph", "optimizer"}},
	{"domain/", []string{"app", "http", "services", "data", "depgraph", "optimizer"}},
	{"data/", []string{"app", "http", "services", "realtime"}},
	{"depgraph/", []string{"app", "http", "services", "realtime", "data"}},
	{"optimizer/", []string{"app", "http", "services", "realtime", "data", "depgraph"}},
	{"services/", []string{"app", "http"}},
	{"realtime/", []string{"app", "http", "services", "data"}},
}

type module struct {
	root string
	path string
}

var moduleLine = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

// currentModule walks up from the package directory to go.mod.
func currentModule(t *testing.T) module {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		raw, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			m := moduleLine.FindSubmatch(raw)
			if m == nil {
				t.Fatalf("no module line in %s/go.mod", dir)
			}
			return module{root: dir, path: string(bytes.TrimSpace(m[1]))}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above the test directory")
		}
		dir = parent
	}
}

// imports maps each non-test Go file under internal/<sub> (slash separated,
// relative to internal/) to its import paths.
func (m module) imports(t *testing.T, sub string) map[string][]string {
	t.Helper()
	base := filepath.Join(m.root, "internal")
	fset := token.NewFileSet()
	out := map[string][]string{}
	err := filepath.WalkDir(filepath.Join(base, sub), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		var list []string
		for _, is := range f.Imports {
			if imp, err := strconv.Unquote(is.Path.Value); err == nil {
				list = append(list, imp)
			}
		}
		out[filepath.ToSlash(rel)] = list
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/%s: %v", sub, err)
	}
	return out
}

func report(t *testing.T, title string, violations []string) {
	t.Helper()
	if len(violations) == 0 {
		return
	}
	sort.Strings(violations)
	t.Fatalf("%s:\n%s", title, strings.Join(violations, "\n"))
}

func TestImportBoundaries(t *testing.T) {
	mod := currentModule(t)
	internal := mod.path + "/internal/"

	var violations []string
	for file, imps := range mod.imports(t, ".") {
		for _, layer := range layers {
			if !strings.HasPrefix(file, layer.prefix) {
				continue
			}
			for _, imp := range imps {
				if !strings.HasPrefix(imp, internal) {
					continue
				}
				target := strings.TrimPrefix(imp, internal)
				for _, bad := range layer.forbidden {
					if target == bad || strings.HasPrefix(target, bad+"/") {
						violations = append(violations, fmt.Sprintf("- internal/%s imports %q (layer %s must not use %s)", file, imp, layer.prefix, bad))
						break
					}
				}
			}
		}
	}
	report(t, "import boundary violations", violations)
}

func TestMatrixHasNoInternalImports(t *testing.T) {
	mod := currentModule(t)

	var violations []string
	for file, imps := range mod.imports(t, "matrix") {
		for _, imp := range imps {
			// the engine only leans on the standard library
			host := strings.SplitN(imp, "/", 2)[0]
			if strings.HasPrefix(imp, mod.path+"/") || strings.Contains(host, ".") {
				violations = append(violations, fmt.Sprintf("- internal/%s imports %q", file, imp))
			}
		}
	}
	report(t, "internal/matrix must stay free of transport and storage imports", violations)
}
