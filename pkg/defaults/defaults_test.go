package defaults_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/ui"
)

// TestVersionConsistency ensures all version references match defaults.Version
func TestVersionConsistency(t *testing.T) {
	if ui.Version != defaults.Version {
		t.Errorf("ui.Version (%s) != defaults.Version (%s)", ui.Version, defaults.Version)
	}

	semverPattern := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9]+)?$`)
	if !semverPattern.MatchString(defaults.Version) {
		t.Errorf("defaults.Version (%s) is not valid semver", defaults.Version)
	}
}

// TestNoHardcodedListenAddr ensures listen addresses come from defaults
// rather than being scattered as string literals.
func TestNoHardcodedListenAddr(t *testing.T) {
	violations := findHardcodedFieldStrings(t, "Addr", regexp.MustCompile(`^:\d+$`), []string{
		"defaults.go",
		"_test.go",
	})

	if len(violations) > 0 {
		t.Errorf("Found %d hardcoded listen addresses. Use defaults.ServeAddr or defaults.MCPHTTPAddr:", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

// TestExitCodesUseConstants ensures every os.Exit call in cmd/ goes
// through the named exit-code constants rather than bare integer
// literals, so exit statuses stay consistent across commands.
func TestExitCodesUseConstants(t *testing.T) {
	root := findProjectRoot(t)
	var violations []string

	dirPath := filepath.Join(root, "cmd")
	_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return nil
		}

		ast.Inspect(node, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "Exit" {
				return true
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok || pkg.Name != "os" || len(call.Args) != 1 {
				return true
			}
			if lit, isLit := call.Args[0].(*ast.BasicLit); isLit {
				pos := fset.Position(lit.Pos())
				relPath, _ := filepath.Rel(root, pos.Filename)
				violations = append(violations,
					relPath+":"+strconv.Itoa(pos.Line)+": os.Exit("+lit.Value+")")
			}
			return true
		})
		return nil
	})

	if len(violations) > 0 {
		t.Errorf("Found %d bare exit codes. Use the defaults.Exit* constants:", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

// findHardcodedFieldStrings walks pkg/ and cmd/ for struct field
// assignments whose string literal matches the forbidden pattern.
func findHardcodedFieldStrings(t *testing.T, fieldName string, forbidden *regexp.Regexp, excludePatterns []string) []string {
	t.Helper()

	var violations []string
	root := findProjectRoot(t)

	for _, dir := range []string{"pkg", "cmd"} {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			for _, pattern := range excludePatterns {
				if strings.Contains(path, pattern) {
					return nil
				}
			}

			fset := token.NewFileSet()
			node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				return nil
			}

			ast.Inspect(node, func(n ast.Node) bool {
				kv, ok := n.(*ast.KeyValueExpr)
				if !ok {
					return true
				}
				ident, ok := kv.Key.(*ast.Ident)
				if !ok || ident.Name != fieldName {
					return true
				}
				lit, ok := kv.Value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					return true
				}
				val := strings.Trim(lit.Value, `"`)
				if forbidden.MatchString(val) {
					pos := fset.Position(lit.Pos())
					relPath, _ := filepath.Rel(root, pos.Filename)
					violations = append(violations,
						relPath+":"+strconv.Itoa(pos.Line)+": "+fieldName+" = "+lit.Value)
				}
				return true
			})
			return nil
		})
	}

	return violations
}

// findProjectRoot finds the project root by looking for go.mod
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
