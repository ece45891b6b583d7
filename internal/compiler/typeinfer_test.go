package compiler

import (
	"slices"
	"strings"
	"testing"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/parser"
	"github.com/kolkov/awkjit/internal/types"
)

// lower parses and lowers AWK source.
func lower(t testing.TB, src string) *ast.BlockStmt {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return prog.Lower()
}

// analyzeSource parses, lowers and analyzes AWK source.
func analyzeSource(t *testing.T, src string) (*ast.BlockStmt, *analyzer, TypeEnv) {
	t.Helper()
	stmt := lower(t, src)
	a := newAnalyzer()
	env := a.stmt(stmt, TypeEnv{})
	return stmt, a, env
}

// readTypes returns "name:T" for every variable read, in source order.
func readTypes(stmt ast.Stmt) []string {
	var reads []string
	var visit func(n ast.Node) bool
	visit = func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignExpr:
			ast.Walk(n.Right, visit)
			return false
		case *ast.Ident:
			reads = append(reads, n.Name+":"+n.Type().Short())
		}
		return true
	}
	ast.Walk(stmt, visit)
	return reads
}

func envString(env TypeEnv) string {
	var parts []string
	for _, name := range env.Names() {
		parts = append(parts, name+":"+env[name].Short())
	}
	return strings.Join(parts, " ")
}

func TestAnalyzeLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"number", `BEGIN { x = 42 }`, "x:F"},
		{"string", `BEGIN { x = "hello" }`, "x:S"},
		{"field", `{ x = $1 }`, "x:V"},
		{"arithmetic", `BEGIN { x = "1" + 2 }`, "x:F"},
		{"comparison", `BEGIN { x = "a" < "b" }`, "x:F"},
		{"logical", `BEGIN { x = "a" && "b" }`, "x:F"},
		{"not", `BEGIN { x = !"a" }`, "x:F"},
		{"chained", `BEGIN { x = y = "s" }`, "x:S y:S"},
		{"copy", `BEGIN { x = "s"; y = x }`, "x:S y:S"},
		{"unassigned read", `BEGIN { y = x }`, "y:F"},
		{"group", `BEGIN { x = ("s") }`, "x:S"},
		{"reassigned", `BEGIN { x = "s"; x = 1 }`, "x:F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, env := analyzeSource(t, tt.src)
			if got := envString(env); got != tt.want {
				t.Errorf("env = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeExprTypes(t *testing.T) {
	stmt, _, _ := analyzeSource(t, `BEGIN { x = $1; y = x + 1; print (x < y) }`)
	want := `{
    {
        x:S = $1:F:S:S
        y:F = (x:S + 1:F):F:F
        print ((x:S < y:F):F):F
    }
}`
	if got := ast.TypedString(stmt); got != want {
		t.Errorf("typed AST =\n%s\nwant\n%s", got, want)
	}
}

func TestAnalyzeIfMerge(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"both float", `BEGIN { if (c) x = 1; else x = 2 }`, "x:F"},
		{"both string", `BEGIN { if (c) x = "a"; else x = "b" }`, "x:S"},
		{"mixed", `BEGIN { if (c) x = 1; else x = "b" }`, "x:V"},
		{"then only", `BEGIN { if (c) x = "a" }`, "x:V"},
		{"else only", `BEGIN { if (c) ; else x = 1 }`, "x:V"},
		{"assigned before", `BEGIN { x = 1; if (c) x = 2 }`, "x:F"},
		{"string before", `BEGIN { x = "s"; if (c) x = 2 }`, "x:V"},
		{"untouched", `BEGIN { x = "s"; if (c) y = 1 }`, "x:S y:V"},
		{"assignment in test", `BEGIN { if (x = "s") y = 1; else y = 2 }`, "x:S y:F"},
		{"reassigned on both paths", `BEGIN { if (a) x = 1; else x = "s"; if (b) x = 2; else x = 3 }`, "x:F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, env := analyzeSource(t, tt.src)
			if got := envString(env); got != tt.want {
				t.Errorf("env = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeReadsSeePointType(t *testing.T) {
	stmt, _, _ := analyzeSource(t, `BEGIN { x = "a"; print x; x = 1; print x; if (c) x = "b"; print x }`)
	want := []string{"x:S", "x:F", "c:F", "x:V"}
	if got := readTypes(stmt); !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
}

func TestAnalyzeLogicalJoin(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"and", `BEGIN { x = 1; c && (x = "s"); print x }`, []string{"c:F", "x:V"}},
		{"or", `BEGIN { x = "a"; c || (x = "s"); print x }`, []string{"c:F", "x:S"}},
		{"left always runs", `BEGIN { (x = "s") && c; print x }`, []string{"c:F", "x:S"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, _, _ := analyzeSource(t, tt.src)
			if got := readTypes(stmt); !slices.Equal(got, tt.want) {
				t.Errorf("reads = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeWhileSecondPass(t *testing.T) {
	// The read of x comes before the assignment that makes it a string,
	// so only the second pass sees the promotion.
	stmt, a, env := analyzeSource(t, `BEGIN { x = 1; while (c) { print x; x = "s" } print x }`)

	if got, want := readTypes(stmt), []string{"c:F", "x:V", "x:V"}; !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
	if got := envString(env); got != "x:V" {
		t.Errorf("env = %q, want x:V", got)
	}

	loop := findWhile(t, stmt)
	if a.passes[loop] != 2 {
		t.Errorf("passes = %d, want 2", a.passes[loop])
	}
	if got := envString(a.merged[loop]); got != "x:V" {
		t.Errorf("loop head env = %q, want x:V", got)
	}
}

func TestAnalyzeWhileStable(t *testing.T) {
	stmt, a, env := analyzeSource(t, `BEGIN { i = 0; while (i < 10) { i = i + 1 } }`)
	if got := envString(env); got != "i:F" {
		t.Errorf("env = %q, want i:F", got)
	}
	if got, want := readTypes(stmt), []string{"i:F", "i:F"}; !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
	if p := a.passes[findWhile(t, stmt)]; p != 2 {
		t.Errorf("passes = %d, want 2", p)
	}
}

func TestAnalyzeWhileChainNeedsMorePasses(t *testing.T) {
	// Each pass moves the string one link further along the chain. Two
	// passes would leave x Float although it ends up holding "s".
	src := `BEGIN { x = 1; y = 2; z = 3; while (c) { x = y; y = z; z = "s" } }`
	stmt, a, env := analyzeSource(t, src)

	if got := envString(env); got != "x:V y:V z:V" {
		t.Errorf("env = %q, want x:V y:V z:V", got)
	}
	if p := a.passes[findWhile(t, stmt)]; p != 4 {
		t.Errorf("passes = %d, want 4", p)
	}
	if got, want := readTypes(stmt), []string{"c:F", "y:V", "z:V"}; !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
}

func TestAnalyzeWhileExitRunsTest(t *testing.T) {
	// The loop is left through a failed test, so assignments in the test
	// decide the types after the loop, not the loop-head join.
	tests := []struct {
		name string
		src  string
		head string
		exit string
	}{
		{"assign in test", `BEGIN { x = "a"; while (x = 0) { x = "b" } }`, "x:S", "x:F"},
		{"assign in and", `BEGIN { x = "a"; while ((x = 1) && 0) { x = "b" } }`, "x:S", "x:F"},
		{"string in and", `BEGIN { x = 5; while ((x = "s") && 0) { x = 1 } }`, "x:F", "x:S"},
		{"no assignment", `BEGIN { x = 1; while (c) { x = "s" } }`, "x:V", "x:V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, a, env := analyzeSource(t, tt.src)
			if got := envString(a.merged[findWhile(t, stmt)]); got != tt.head {
				t.Errorf("loop head env = %q, want %q", got, tt.head)
			}
			if got := envString(env); got != tt.exit {
				t.Errorf("env after loop = %q, want %q", got, tt.exit)
			}
		})
	}
}

func TestAnalyzeNestedLoops(t *testing.T) {
	src := `BEGIN { x = 1; while (a) { print x; while (b) { x = "s" } print x } }`
	stmt, _, env := analyzeSource(t, src)
	if got, want := readTypes(stmt), []string{"a:F", "x:V", "b:F", "x:V"}; !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
	if got := envString(env); got != "x:V" {
		t.Errorf("env = %q, want x:V", got)
	}
}

func TestAnalyzeRecordLoop(t *testing.T) {
	// Rule bodies run inside the lowered record loop.
	stmt, _, _ := analyzeSource(t, `{ print s; s = $1 } END { print s }`)
	if got, want := readTypes(stmt), []string{"s:V", "s:V"}; !slices.Equal(got, want) {
		t.Errorf("reads = %q, want %q", got, want)
	}
}

func TestAnalyzeAssignPrev(t *testing.T) {
	stmt, _, _ := analyzeSource(t, `BEGIN { x = 1; x = "a"; x = "b"; if (c) x = 2; x = 3 }`)
	var prev []types.Type
	ast.Walk(stmt, func(n ast.Node) bool {
		if a, ok := n.(*ast.AssignExpr); ok {
			prev = append(prev, a.Prev)
		}
		return true
	})
	want := []types.Type{types.Float, types.Float, types.String, types.String, types.Variable}
	if !slices.Equal(prev, want) {
		t.Errorf("Prev = %v, want %v", prev, want)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	src := `BEGIN { x = 1; while (c) { if (d) x = "s"; print x } }`
	stmt, _, first := analyzeSource(t, src)
	typed := ast.TypedString(stmt)

	second := newAnalyzer().stmt(stmt, TypeEnv{})
	if !first.Equal(second) {
		t.Errorf("re-analysis env %q, first %q", envString(second), envString(first))
	}
	if got := ast.TypedString(stmt); got != typed {
		t.Errorf("re-analysis changed annotations:\n%s\nwas\n%s", got, typed)
	}
}

func TestJoin(t *testing.T) {
	a := TypeEnv{"f": types.Float, "s": types.String, "v": types.Float, "a": types.Float}
	b := TypeEnv{"f": types.Float, "s": types.String, "v": types.String, "b": types.String}
	got := Join(a, b)
	if s := envString(got); s != "a:V b:V f:F s:S v:V" {
		t.Errorf("Join = %q", s)
	}
	if !Join(b, a).Equal(got) {
		t.Error("Join is not commutative")
	}
	if len(a) != 4 || len(b) != 4 {
		t.Error("Join modified its inputs")
	}
}

func TestTypeEnvLookup(t *testing.T) {
	env := TypeEnv{"s": types.String}
	if env.Lookup("s") != types.String {
		t.Error("Lookup(s) != String")
	}
	if env.Lookup("missing") != types.Float {
		t.Error("unassigned variable should default to Float")
	}
	clone := env.Clone()
	clone["s"] = types.Float
	if env["s"] != types.String {
		t.Error("Clone shares storage")
	}
}

func findWhile(t *testing.T, stmt ast.Stmt) *ast.WhileStmt {
	t.Helper()
	var loop *ast.WhileStmt
	ast.Walk(stmt, func(n ast.Node) bool {
		if w, ok := n.(*ast.WhileStmt); ok && loop == nil {
			loop = w
		}
		return true
	})
	if loop == nil {
		t.Fatal("no while loop")
	}
	return loop
}
