package compiler

import (
	"slices"
	"strings"
	"testing"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/runtime"
	"github.com/kolkov/awkjit/internal/token"
	"github.com/kolkov/awkjit/internal/types"
)

// compileSource parses, lowers and compiles a program without inputs.
func compileSource(t *testing.T, src string) *Unit {
	t.Helper()
	unit, err := Compile(lower(t, src), nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return unit
}

// countCalls returns how many times each native is called in the code.
func countCalls(u *Unit) map[runtime.NativeID]int {
	counts := make(map[runtime.NativeID]int)
	for _, in := range u.Code {
		if in.Op == Call {
			counts[runtime.NativeID(in.Imm)]++
		}
	}
	return counts
}

var corpus = []string{
	``,
	`BEGIN { }`,
	`BEGIN { x = 1; print x }`,
	`BEGIN { print "hi" }`,
	`{ print $1 }`,
	`{ x = $1; y = x + 1; print y }`,
	`{ if ($1 > 2) print $2; else print $3 }`,
	`BEGIN { x = 1; while (x < 10) { x = x * 2 } print x }`,
	`BEGIN { x = 1; while (c) { print x; x = "s" } print x }`,
	`{ s = $0 } END { print s }`,
	`BEGIN { x = "a" && (y = "b"); print x; print y }`,
	`BEGIN { print !"" ; print -"3"; print +x }`,
	`$1 { n = n + 1 } END { print n }`,
	`BEGIN { x = ((y = 123) + (z = 4)); print x }`,
	`{ a = $44 } END { print a }`,
	`BEGIN { if (x = "s") y = x; print y }`,
}

func TestCompileCorpus(t *testing.T) {
	for _, src := range corpus {
		t.Run(src, func(t *testing.T) {
			u := compileSource(t, src)
			if len(u.Code) == 0 || u.Code[len(u.Code)-1].Op != Return {
				t.Fatal("routine does not end with Return")
			}
			checkLabels(t, u)
			checkClasses(t, u)
		})
	}
}

// checkLabels verifies that every label is placed once and that every
// jump targets a placed label.
func checkLabels(t *testing.T, u *Unit) {
	t.Helper()
	placed := make(map[int32]int)
	for _, in := range u.Code {
		if in.Op == Label {
			placed[in.Imm]++
		}
	}
	for l, n := range placed {
		if n != 1 {
			t.Errorf("label L%d placed %d times", l, n)
		}
		if int(l) >= u.NumLabels {
			t.Errorf("label L%d out of range (NumLabels %d)", l, u.NumLabels)
		}
	}
	for i, in := range u.Code {
		if in.Op.IsJump() && placed[in.Imm] == 0 {
			t.Errorf("instruction %d jumps to missing label L%d", i, in.Imm)
		}
	}
	for _, m := range u.Merges {
		if placed[int32(m.Label)] == 0 {
			t.Errorf("%s merge refers to missing label L%d", m.Kind, m.Label)
		}
	}
}

var abiClass = map[runtime.ABIType]Class{
	runtime.ABITag:   ClassTag,
	runtime.ABIFloat: ClassFloat,
	runtime.ABIPtr:   ClassPtr,
}

// checkClasses verifies that every operand has the class its opcode
// expects.
func checkClasses(t *testing.T, u *Unit) {
	t.Helper()
	class := func(r Reg) Class { return u.Regs[r] }
	expect := func(i int, what string, r Reg, want Class) {
		if r == NoReg || int(r) >= len(u.Regs) {
			t.Errorf("%04d %s: %s register %d out of range", i, u.FormatInstr(u.Code[i]), what, r)
			return
		}
		if got := class(r); got != want {
			t.Errorf("%04d %s: %s is %s register, want %s", i, u.FormatInstr(u.Code[i]), what, got.Prefix(), want.Prefix())
		}
	}

	for i, in := range u.Code {
		switch in.Op {
		case ConstF:
			expect(i, "dst", in.Dst, ClassFloat)
		case ConstT:
			expect(i, "dst", in.Dst, ClassTag)
		case ConstS, NullP:
			expect(i, "dst", in.Dst, ClassPtr)
		case Move:
			expect(i, "src", in.A, class(in.Dst))
		case Add, Sub, Mul, Div:
			expect(i, "dst", in.Dst, ClassFloat)
			expect(i, "a", in.A, ClassFloat)
			expect(i, "b", in.B, ClassFloat)
		case Less, LessEq, Greater, GreaterEq, Equal, NotEqual:
			expect(i, "dst", in.Dst, ClassBool)
			expect(i, "a", in.A, ClassFloat)
			expect(i, "b", in.B, ClassFloat)
		case TagIs:
			expect(i, "dst", in.Dst, ClassBool)
			expect(i, "a", in.A, ClassTag)
		case TruthyF:
			expect(i, "dst", in.Dst, ClassBool)
			expect(i, "a", in.A, ClassFloat)
		case TruthyS:
			expect(i, "dst", in.Dst, ClassBool)
			expect(i, "a", in.A, ClassPtr)
		case BoolToF:
			expect(i, "dst", in.Dst, ClassFloat)
			expect(i, "a", in.A, ClassBool)
		case Not:
			expect(i, "dst", in.Dst, ClassBool)
			expect(i, "a", in.A, ClassBool)
		case JumpIf, JumpIfNot:
			expect(i, "cond", in.A, ClassBool)
		case Call:
			n := runtime.Natives[in.Imm]
			if len(in.Args) != len(n.Params) {
				t.Errorf("%04d: %s with %d args", i, n.Name, len(in.Args))
				continue
			}
			for j, p := range n.Params {
				expect(i, "arg", in.Args[j], abiClass[p])
			}
			if n.Result == runtime.ABIVoid {
				if in.Dst != NoReg {
					t.Errorf("%04d: void native %s has a result register", i, n.Name)
				}
			} else {
				expect(i, "result", in.Dst, abiClass[n.Result])
			}
		}
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "float variable",
			src:  `BEGIN { x = 1; print x }`,
			want: `=== Variables ===
  x: float (t0 f1 p2)

=== Numbers ===
  [0] 0
  [1] 1

=== Code ===
  0000: ConstT    t0, float
  0001: ConstF    f1, 0
  0002: NullP     p2
  0003: ConstF    f3, 1
  0004: ConstT    t0, float
  0005: Move      f1, f3
  0006: NullP     p2
  0007: Move      f4, f1
  0008: Call      print-float(f4)
  0009: Return    0
`,
		},
		{
			name: "string literal",
			src:  `BEGIN { print "hi" }`,
			want: `=== Strings ===
  [0] "hi"

=== Code ===
  0000: ConstS    p0, "hi"
  0001: Call      p1 = copy-string(p0)
  0002: Call      print-string(p1)
  0003: Call      free-string(p1)
  0004: Return    0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compileSource(t, tt.src)
			if got := u.Disassemble(); got != tt.want {
				t.Errorf("Disassemble() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCompileFreesBySlotType(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		frees int // free-string calls
		tests int // TagIs instructions
	}{
		// Float slots are never freed.
		{"float only", `BEGIN { x = 1; x = 2 }`, 0, 0},
		// One free when x is overwritten, one at exit.
		{"string overwrite", `BEGIN { x = "a"; x = "b" }`, 2, 0},
		// The second store frees the string; the float at exit is not freed.
		{"string then float", `BEGIN { x = "a"; x = 1 }`, 1, 0},
		// The exit free of a variable slot branches on the tag.
		{"variable at exit", `BEGIN { if (c) x = "a" }`, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compileSource(t, tt.src)
			if got := countCalls(u)[runtime.FreeString]; got != tt.frees {
				t.Errorf("free-string calls = %d, want %d\n%s", got, tt.frees, u.Disassemble())
			}
			var tagTests int
			for _, in := range u.Code {
				if in.Op == TagIs {
					tagTests++
				}
			}
			if tagTests != tt.tests {
				t.Errorf("TagIs count = %d, want %d\n%s", tagTests, tt.tests, u.Disassemble())
			}
		})
	}
}

func TestCompileStringOps(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		native runtime.NativeID
		want   int
	}{
		{"literal is copied", `BEGIN { x = "a" }`, runtime.CopyString, 1},
		{"string read is copied", `BEGIN { x = "a"; print x }`, runtime.CopyString, 2},
		{"float read is not copied", `BEGIN { x = 1; print x }`, runtime.CopyString, 0},
		{"numeric use converts", `BEGIN { print "1" + 2 }`, runtime.StringToNumber, 1},
		{"field is read", `{ print $2 }`, runtime.ReadField, 1},
		{"record loop", `{ }`, runtime.NextRecord, 1},
		{"no record loop", `BEGIN { }`, runtime.NextRecord, 0},
		{"assignment result is copied", `BEGIN { print (x = "a") }`, runtime.CopyString, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compileSource(t, tt.src)
			if got := countCalls(u)[tt.native]; got != tt.want {
				t.Errorf("%s calls = %d, want %d\n%s", tt.native, got, tt.want, u.Disassemble())
			}
		})
	}
}

func TestCompilePrintBranchesOnTag(t *testing.T) {
	u := compileSource(t, `{ x = $1; if ($2) x = 0; print x }`)
	calls := countCalls(u)
	if calls[runtime.PrintString] != 1 || calls[runtime.PrintFloat] != 1 {
		t.Errorf("print of a variable should emit both print natives, got %v", calls)
	}
}

func TestCompileMerges(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string // "kind name:T ..." per merge point
	}{
		{"if", `BEGIN { if (c) x = "a" }`, []string{"if x:V"}},
		{"if else", `BEGIN { if (c) x = 1; else { x = 2; y = "s" } }`, []string{"if x:F y:V"}},
		{"untouched if", `BEGIN { if (c) print 1 }`, []string{"if"}},
		{"while", `BEGIN { x = 1; while (c) { x = "s" } }`, []string{"while x:V"}},
		{"nested", `BEGIN { while (a) { if (b) x = 1 } }`, []string{"if x:V", "while x:V"}},
		// n is unassigned before the first record.
		{"record loop", `{ n = n + 1 }`, []string{"while n:V"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compileSource(t, tt.src)
			var got []string
			for _, m := range u.Merges {
				parts := []string{m.Kind}
				for _, v := range m.Vars {
					parts = append(parts, v.Name+":"+v.Type.Short())
				}
				got = append(got, strings.Join(parts, " "))
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("merges = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisassembleMergeComment(t *testing.T) {
	u := compileSource(t, `BEGIN { x = 1; while (c) { x = "s" } }`)
	if out := u.Disassemble(); !strings.Contains(out, "; while merge x:V") {
		t.Errorf("listing has no merge annotation:\n%s", out)
	}
}

func TestCompileInputsAndVarOrder(t *testing.T) {
	unit, err := Compile(lower(t, `BEGIN { a = 1; c = 2 }`), []string{"one.txt", "two.txt"}, []string{"b", "a", "b"})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	var names []string
	for _, v := range unit.Vars {
		names = append(names, v.Name)
	}
	if want := []string{"b", "a", "c"}; !slices.Equal(names, want) {
		t.Errorf("vars = %q, want %q", names, want)
	}

	// Inputs are registered first, in order.
	var inputs []string
	for i, in := range unit.Code {
		if in.Op == Call && runtime.NativeID(in.Imm) == runtime.AddInput {
			prev := unit.Code[i-1]
			if prev.Op != ConstS {
				t.Fatalf("add-input argument is not a static string: %s", unit.FormatInstr(prev))
			}
			inputs = append(inputs, unit.Strs[prev.Imm])
		}
	}
	if want := []string{"one.txt", "two.txt"}; !slices.Equal(inputs, want) {
		t.Errorf("inputs = %q, want %q", inputs, want)
	}
	if unit.Code[0].Op != ConstS || unit.Code[1].Op != Call {
		t.Errorf("routine does not start with input registration:\n%s", unit.Disassemble())
	}
}

func TestCompileVarTypes(t *testing.T) {
	u := compileSource(t, `{ f = 1; s = "a"; v = $1 }`)
	want := map[string]types.Type{"f": types.Variable, "s": types.Variable, "v": types.Variable}
	for _, v := range u.Vars {
		if v.Type != want[v.Name] {
			t.Errorf("%s: type %s, want %s", v.Name, v.Type, want[v.Name])
		}
	}

	u = compileSource(t, `BEGIN { f = 1; s = "a"; v = $1 }`)
	want = map[string]types.Type{"f": types.Float, "s": types.String, "v": types.String}
	for _, v := range u.Vars {
		if v.Type != want[v.Name] {
			t.Errorf("%s: type %s, want %s", v.Name, v.Type, want[v.Name])
		}
	}
}

func TestCompileConstantPools(t *testing.T) {
	u := compileSource(t, `BEGIN { x = 1; y = 1; z = "a"; w = "a"; v = 2 }`)
	if want := []float64{0, 1, 2}; !slices.Equal(u.Nums, want) {
		t.Errorf("Nums = %v, want %v", u.Nums, want)
	}
	if want := []string{"a"}; !slices.Equal(u.Strs, want) {
		t.Errorf("Strs = %q, want %q", u.Strs, want)
	}
}

func TestCompileError(t *testing.T) {
	bad := &ast.BlockStmt{Stmts: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.BinaryExpr{
			Left:  &ast.NumLit{Value: 1},
			Op:    token.COMMA,
			Right: &ast.NumLit{Value: 2},
		}},
	}}
	_, err := Compile(bad, nil, nil)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !strings.Contains(err.Error(), "unexpected binary operator") {
		t.Errorf("error = %q", err)
	}
}

func TestVarStore(t *testing.T) {
	var regs []Class
	vs := NewVarStore(func(c Class) Reg {
		regs = append(regs, c)
		return Reg(len(regs) - 1)
	})

	x := vs.Define("x")
	if again := vs.Define("x"); again != x {
		t.Errorf("Define(x) twice gave %v and %v", x, again)
	}
	y := vs.Define("y")
	if y == x {
		t.Error("distinct names share a slot")
	}
	if want := []Class{ClassTag, ClassFloat, ClassPtr, ClassTag, ClassFloat, ClassPtr}; !slices.Equal(regs, want) {
		t.Errorf("register classes = %v, want %v", regs, want)
	}
	if _, ok := vs.Lookup("z"); ok {
		t.Error("Lookup of undefined name succeeded")
	}
	if got := vs.Names(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("Names() = %q", got)
	}

	vs.BeginScope()
	vs.NoteWrite("y")
	vs.BeginScope()
	vs.NoteWrite("x")
	if got := vs.EndScope(); !slices.Equal(got, []string{"x"}) {
		t.Errorf("inner scope wrote %q, want [x]", got)
	}
	if got := vs.EndScope(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("outer scope wrote %q, want [x y]", got)
	}

	// Writes outside any scope are not recorded.
	vs.NoteWrite("x")

	defer func() {
		if _, ok := recover().(*CompileError); !ok {
			t.Error("unbalanced EndScope did not panic with a CompileError")
		}
	}()
	vs.EndScope()
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{Nop, "Nop"},
		{ConstF, "ConstF"},
		{BoolToF, "BoolToF"},
		{JumpIfNot, "JumpIfNot"},
		{Return, "Return"},
		{Opcode(200), "Opcode(200)"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Opcode(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	src := `{ x = $1; if (x > 1) { s = $2; n = n + x } else s = "none"; print s } END { print n }`
	for b.Loop() {
		stmt := lower(b, src)
		if _, err := Compile(stmt, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}
