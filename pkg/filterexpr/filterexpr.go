// Package filterexpr compiles user-supplied boolean expressions for
// advanced finding selection. Expressions run in a sandboxed Tengo VM
// with only safe stdlib modules: no file I/O, no network, no OS access.
package filterexpr

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/pcidash/pcidash/pkg/compliance"
)

// safeModules are the only Tengo stdlib modules available to expressions.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math", "times")

// exprVars are the per-finding variables an expression can reference.
// All are strings; severity and status carry the canonical lowercase forms.
var exprVars = []string{
	"id",
	"requirement",
	"severity",
	"status",
	"title",
	"resource",
	"description",
}

// Vars returns the variable names available to expressions, for help text.
func Vars() []string {
	return append([]string(nil), exprVars...)
}

// Expr is a compiled finding filter expression. Compile once, match many;
// each Match runs against a clone so an Expr is safe for concurrent use.
type Expr struct {
	source   string
	compiled *tengo.Compiled
}

// Compile compiles a boolean expression such as
//
//	severity == "critical" && status == "open"
//	text.contains(title, "S3") || requirement == "Req 10"
//
// Compilation errors are returned to the caller; they usually mean a typo
// in the expression.
func Compile(source string) (*Expr, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("filterexpr: empty expression")
	}

	// Wrap so the expression result lands in a variable we can read back.
	// The text module is pre-imported for string helpers like contains.
	wrapper := fmt.Sprintf(`text := import("text")
__match__ := (%s)`, source)

	script := tengo.NewScript([]byte(wrapper))
	script.SetImports(safeModules)
	script.SetMaxAllocs(10_000_000)
	for _, name := range exprVars {
		_ = script.Add(name, "")
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("filterexpr: compile %q: %w", source, err)
	}
	return &Expr{source: source, compiled: compiled}, nil
}

// Source returns the original expression text.
func (e *Expr) Source() string { return e.source }

// Match evaluates the expression against a finding. Runtime errors and
// non-boolean results count as no match rather than failing the caller.
func (e *Expr) Match(f compliance.Finding) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	c := e.compiled.Clone()
	vals := map[string]string{
		"id":          f.ID,
		"requirement": f.RequirementID,
		"severity":    string(f.Severity),
		"status":      string(f.Status),
		"title":       f.Title,
		"resource":    f.ResourceID,
		"description": f.Description,
	}
	for name, val := range vals {
		if err := c.Set(name, val); err != nil {
			return false
		}
	}

	if err := c.Run(); err != nil {
		return false
	}

	result := c.Get("__match__")
	if result.IsUndefined() {
		return false
	}
	b, ok := result.Value().(bool)
	return ok && b
}

// Filter returns the findings the expression matches, preserving input order.
func Filter(findings []compliance.Finding, e *Expr) []compliance.Finding {
	out := make([]compliance.Finding, 0, len(findings))
	for _, f := range findings {
		if e.Match(f) {
			out = append(out, f)
		}
	}
	return out
}
