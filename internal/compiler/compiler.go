package compiler

import (
	"math"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/runtime"
	"github.com/kolkov/awkjit/internal/token"
	"github.com/kolkov/awkjit/internal/types"
)

// CompileError represents a compilation error.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return e.Message
}

// Compile analyzes stmt and lowers it into a Unit.
//
// The routine registers files as inputs in order, zero-initializes every
// variable (vars first, in order, then any other name in stmt in order of
// appearance), runs stmt and returns status 0. Every string the routine
// allocates is freed by the time it returns.
func Compile(stmt ast.Stmt, files []string, vars []string) (unit *Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	a := newAnalyzer()
	final := a.stmt(stmt, TypeEnv{})

	c := newCompiler(a)
	c.prologue(files, collectNames(stmt, vars))
	c.stmt(stmt)
	c.epilogue(final)
	return c.unit, nil
}

// collectNames returns vars followed by the names in stmt not in vars.
func collectNames(stmt ast.Stmt, vars []string) []string {
	seen := make(map[string]bool, len(vars))
	names := make([]string, 0, len(vars))
	for _, name := range vars {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	ast.Walk(stmt, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
		return true
	})
	return names
}

// compiler holds the state of one Compile call.
type compiler struct {
	unit     *Unit
	vars     *VarStore
	analysis *analyzer
	numIdx   map[uint64]int32
	strIdx   map[string]int32
	nextLbl  int
}

func newCompiler(a *analyzer) *compiler {
	c := &compiler{
		unit:     &Unit{},
		analysis: a,
		numIdx:   make(map[uint64]int32),
		strIdx:   make(map[string]int32),
	}
	c.vars = NewVarStore(c.newReg)
	return c
}

// value is the register form of an expression result. Float values use
// only f, String values only p; Variable values use all three and every
// consumer branches on tag. A string a value carries is owned.
type value struct {
	typ types.Type
	tag Reg
	f   Reg
	p   Reg
}

func (c *compiler) newReg(class Class) Reg {
	c.unit.Regs = append(c.unit.Regs, class)
	return Reg(len(c.unit.Regs) - 1)
}

func (c *compiler) add(in Instr) {
	c.unit.Code = append(c.unit.Code, in)
}

func (c *compiler) numIndex(n float64) int32 {
	key := math.Float64bits(n)
	if idx, ok := c.numIdx[key]; ok {
		return idx
	}
	idx := int32(len(c.unit.Nums))
	c.unit.Nums = append(c.unit.Nums, n)
	c.numIdx[key] = idx
	return idx
}

func (c *compiler) strIndex(s string) int32 {
	if idx, ok := c.strIdx[s]; ok {
		return idx
	}
	idx := int32(len(c.unit.Strs))
	c.unit.Strs = append(c.unit.Strs, s)
	c.strIdx[s] = idx
	return idx
}

// Register helpers. Each writes dst and returns it.

func (c *compiler) constF(dst Reg, n float64) Reg {
	c.add(Instr{Op: ConstF, Dst: dst, A: NoReg, B: NoReg, Imm: c.numIndex(n)})
	return dst
}

func (c *compiler) constT(dst Reg, tag types.Tag) Reg {
	c.add(Instr{Op: ConstT, Dst: dst, A: NoReg, B: NoReg, Imm: int32(tag)})
	return dst
}

func (c *compiler) constS(s string) Reg {
	dst := c.newReg(ClassPtr)
	c.add(Instr{Op: ConstS, Dst: dst, A: NoReg, B: NoReg, Imm: c.strIndex(s)})
	return dst
}

func (c *compiler) nullP(dst Reg) Reg {
	c.add(Instr{Op: NullP, Dst: dst, A: NoReg, B: NoReg})
	return dst
}

func (c *compiler) move(dst, src Reg) Reg {
	c.add(Instr{Op: Move, Dst: dst, A: src, B: NoReg})
	return dst
}

func (c *compiler) unary(op Opcode, class Class, a Reg) Reg {
	dst := c.newReg(class)
	c.add(Instr{Op: op, Dst: dst, A: a, B: NoReg})
	return dst
}

func (c *compiler) binary(op Opcode, class Class, a, b Reg) Reg {
	dst := c.newReg(class)
	c.add(Instr{Op: op, Dst: dst, A: a, B: b})
	return dst
}

func (c *compiler) isString(tag Reg) Reg {
	dst := c.newReg(ClassBool)
	c.add(Instr{Op: TagIs, Dst: dst, A: tag, B: NoReg, Imm: int32(types.TagString)})
	return dst
}

// call emits a native call. dst is NoReg for void natives.
func (c *compiler) call(id runtime.NativeID, dst Reg, args ...Reg) Reg {
	n := &runtime.Natives[id]
	if len(args) != len(n.Params) {
		panic(&CompileError{Message: "wrong argument count for " + n.Name})
	}
	c.add(Instr{Op: Call, Dst: dst, A: NoReg, B: NoReg, Imm: int32(id), Args: args})
	return dst
}

func (c *compiler) callF(id runtime.NativeID, args ...Reg) Reg {
	return c.call(id, c.newReg(ClassFloat), args...)
}

func (c *compiler) callP(id runtime.NativeID, args ...Reg) Reg {
	return c.call(id, c.newReg(ClassPtr), args...)
}

// Labels

func (c *compiler) newLabel() int {
	l := c.nextLbl
	c.nextLbl++
	c.unit.NumLabels = c.nextLbl
	return l
}

// jumpForward emits a jump to a new label and returns the label. cond is
// NoReg for an unconditional jump.
func (c *compiler) jumpForward(op Opcode, cond Reg) int {
	l := c.newLabel()
	c.jumpTo(op, cond, l)
	return l
}

func (c *compiler) jumpTo(op Opcode, cond Reg, l int) {
	c.add(Instr{Op: op, Dst: NoReg, A: cond, B: NoReg, Imm: int32(l)})
}

// patchForward places a label emitted by jumpForward at the current
// position.
func (c *compiler) patchForward(l int) {
	c.add(Instr{Op: Label, Dst: NoReg, A: NoReg, B: NoReg, Imm: int32(l)})
}

// labelBackward places a new label at the current position for a
// backward jump.
func (c *compiler) labelBackward() int {
	l := c.newLabel()
	c.patchForward(l)
	return l
}

// Routine frame

func (c *compiler) prologue(files, names []string) {
	for _, f := range files {
		c.call(runtime.AddInput, NoReg, c.constS(f))
	}
	for _, name := range names {
		slot := c.vars.Define(name)
		c.constT(slot.Tag, types.TagFloat)
		c.constF(slot.F, 0)
		c.nullP(slot.P)
	}
}

// epilogue frees what the variables still hold and returns.
func (c *compiler) epilogue(final TypeEnv) {
	for _, name := range c.vars.Names() {
		slot, _ := c.vars.Lookup(name)
		t := final.Lookup(name)
		c.freeSlot(slot, t)
		c.unit.Vars = append(c.unit.Vars, VarInfo{Name: name, Slot: slot, Type: t})
	}
	c.add(Instr{Op: Return, Dst: NoReg, A: NoReg, B: NoReg, Imm: 0})
}

// freeSlot frees the string a slot of static type t may hold.
func (c *compiler) freeSlot(slot Slot, t types.Type) {
	switch t {
	case types.String:
		c.call(runtime.FreeString, NoReg, slot.P)
	case types.Variable:
		done := c.jumpForward(JumpIfNot, c.isString(slot.Tag))
		c.call(runtime.FreeString, NoReg, slot.P)
		c.patchForward(done)
	}
}

// Statements

func (c *compiler) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:

	case *ast.ExprStmt:
		if assign, ok := s.Expr.(*ast.AssignExpr); ok {
			c.assign(assign, false)
			return
		}
		c.release(c.expr(s.Expr))

	case *ast.PrintStmt:
		c.print(c.expr(s.Expr))

	case *ast.BlockStmt:
		if s == nil {
			return
		}
		for _, st := range s.Stmts {
			c.stmt(st)
		}

	case *ast.IfStmt:
		c.ifStmt(s)

	case *ast.WhileStmt:
		c.whileStmt(s)

	default:
		panic(&CompileError{Message: "unexpected statement"})
	}
}

func (c *compiler) print(v value) {
	switch v.typ {
	case types.Float:
		c.call(runtime.PrintFloat, NoReg, v.f)
	case types.String:
		c.call(runtime.PrintString, NoReg, v.p)
		c.call(runtime.FreeString, NoReg, v.p)
	default:
		num := c.jumpForward(JumpIfNot, c.isString(v.tag))
		c.call(runtime.PrintString, NoReg, v.p)
		c.call(runtime.FreeString, NoReg, v.p)
		done := c.jumpForward(Jump, NoReg)
		c.patchForward(num)
		c.call(runtime.PrintFloat, NoReg, v.f)
		c.patchForward(done)
	}
}

func (c *compiler) ifStmt(s *ast.IfStmt) {
	cond := c.truthy(c.expr(s.Cond))

	c.vars.BeginScope()
	if s.Else == nil {
		end := c.jumpForward(JumpIfNot, cond)
		c.stmt(s.Then)
		c.patchForward(end)
		c.recordMerge(end, "if", c.vars.EndScope(), s)
		return
	}

	elseLbl := c.jumpForward(JumpIfNot, cond)
	c.stmt(s.Then)
	end := c.jumpForward(Jump, NoReg)
	c.patchForward(elseLbl)
	c.stmt(s.Else)
	c.patchForward(end)
	c.recordMerge(end, "if", c.vars.EndScope(), s)
}

// whileStmt emits
//
//	top:  cond; free cond; if false goto exit
//	      body
//	      goto top
//	exit:
//
// The loop head is the merge point of entry and back edge.
func (c *compiler) whileStmt(s *ast.WhileStmt) {
	top := c.labelBackward()
	c.vars.BeginScope()
	cond := c.truthy(c.expr(s.Cond))
	exit := c.jumpForward(JumpIfNot, cond)
	c.stmt(s.Body)
	c.jumpTo(Jump, NoReg, top)
	c.patchForward(exit)
	c.recordMerge(top, "while", c.vars.EndScope(), s)
}

func (c *compiler) recordMerge(label int, kind string, written []string, s ast.Stmt) {
	env := c.analysis.merged[s]
	mp := MergePoint{Label: label, Kind: kind}
	for _, name := range written {
		mp.Vars = append(mp.Vars, MergeVar{Name: name, Type: env.Lookup(name)})
	}
	c.unit.Merges = append(c.unit.Merges, mp)
}

// Expressions

func (c *compiler) expr(e ast.Expr) value {
	switch e := e.(type) {
	case *ast.NumLit:
		return value{typ: types.Float, tag: NoReg, f: c.constF(c.newReg(ClassFloat), e.Value), p: NoReg}

	case *ast.StrLit:
		return c.strValue(c.callP(runtime.CopyString, c.constS(e.Value)))

	case *ast.Ident:
		return c.read(c.slot(e.Name), e.Type())

	case *ast.AssignExpr:
		return c.assign(e, true)

	case *ast.FieldExpr:
		idx := c.materialize(c.expr(e.Index))
		field := c.callP(runtime.ReadField, idx.tag, idx.f, idx.p)
		c.release(idx)
		return c.strValue(field)

	case *ast.BinaryExpr:
		return c.binaryExpr(e)

	case *ast.LogicalExpr:
		return c.logicalExpr(e)

	case *ast.UnaryExpr:
		return c.unaryExpr(e)

	case *ast.GroupExpr:
		return c.expr(e.Expr)

	case *ast.NextRecordExpr:
		return c.floatValue(c.callF(runtime.NextRecord))

	default:
		panic(&CompileError{Message: "unexpected expression"})
	}
}

func (c *compiler) floatValue(f Reg) value {
	return value{typ: types.Float, tag: NoReg, f: f, p: NoReg}
}

func (c *compiler) strValue(p Reg) value {
	return value{typ: types.String, tag: NoReg, f: NoReg, p: p}
}

func (c *compiler) slot(name string) Slot {
	slot, ok := c.vars.Lookup(name)
	if !ok {
		panic(&CompileError{Message: "undefined variable " + name})
	}
	return slot
}

// read yields the value of a slot with static type t. Strings are
// copied, so the result never aliases the slot.
func (c *compiler) read(slot Slot, t types.Type) value {
	switch t {
	case types.String:
		return c.strValue(c.callP(runtime.CopyString, slot.P))
	case types.Variable:
		v := value{
			typ: types.Variable,
			tag: c.move(c.newReg(ClassTag), slot.Tag),
			f:   c.move(c.newReg(ClassFloat), slot.F),
			p:   c.newReg(ClassPtr),
		}
		num := c.jumpForward(JumpIfNot, c.isString(v.tag))
		c.call(runtime.CopyString, v.p, slot.P)
		done := c.jumpForward(Jump, NoReg)
		c.patchForward(num)
		c.nullP(v.p)
		c.patchForward(done)
		return v
	default:
		return c.floatValue(c.move(c.newReg(ClassFloat), slot.F))
	}
}

// assign stores the value of e.Right in the variable. The old payload is
// freed first when the slot may hold a string. With result set it also
// yields the assigned value as an independent copy.
func (c *compiler) assign(e *ast.AssignExpr, result bool) value {
	v := c.expr(e.Right)
	name := e.Name.Name
	slot := c.slot(name)
	c.vars.NoteWrite(name)

	c.freeSlot(slot, e.Prev)

	switch v.typ {
	case types.Float:
		c.constT(slot.Tag, types.TagFloat)
		c.move(slot.F, v.f)
		c.nullP(slot.P)
	case types.String:
		c.constT(slot.Tag, types.TagString)
		c.move(slot.P, v.p)
	default:
		c.move(slot.Tag, v.tag)
		c.move(slot.F, v.f)
		c.move(slot.P, v.p)
	}

	if !result {
		return value{}
	}
	if v.typ == types.Float {
		return v
	}
	return c.read(slot, v.typ)
}

// materialize returns v with all three registers set, for natives that
// take a full tagged value.
func (c *compiler) materialize(v value) value {
	switch v.typ {
	case types.Float:
		v.tag = c.constT(c.newReg(ClassTag), types.TagFloat)
		v.p = c.nullP(c.newReg(ClassPtr))
	case types.String:
		v.tag = c.constT(c.newReg(ClassTag), types.TagString)
		v.f = c.constF(c.newReg(ClassFloat), 0)
	}
	return v
}

// release frees the string v may carry.
func (c *compiler) release(v value) {
	switch v.typ {
	case types.String:
		c.call(runtime.FreeString, NoReg, v.p)
	case types.Variable:
		done := c.jumpForward(JumpIfNot, c.isString(v.tag))
		c.call(runtime.FreeString, NoReg, v.p)
		c.patchForward(done)
	}
}

// number coerces v to a float register, consuming any string.
func (c *compiler) number(v value) Reg {
	switch v.typ {
	case types.Float:
		return v.f
	case types.String:
		f := c.callF(runtime.StringToNumber, v.p)
		c.call(runtime.FreeString, NoReg, v.p)
		return f
	default:
		f := c.newReg(ClassFloat)
		num := c.jumpForward(JumpIfNot, c.isString(v.tag))
		c.call(runtime.StringToNumber, f, v.p)
		c.call(runtime.FreeString, NoReg, v.p)
		done := c.jumpForward(Jump, NoReg)
		c.patchForward(num)
		c.move(f, v.f)
		c.patchForward(done)
		return f
	}
}

// truthy tests v, consuming any string. A float is true when non-zero, a
// string when non-empty.
func (c *compiler) truthy(v value) Reg {
	switch v.typ {
	case types.Float:
		return c.unary(TruthyF, ClassBool, v.f)
	case types.String:
		b := c.unary(TruthyS, ClassBool, v.p)
		c.call(runtime.FreeString, NoReg, v.p)
		return b
	default:
		b := c.newReg(ClassBool)
		num := c.jumpForward(JumpIfNot, c.isString(v.tag))
		c.add(Instr{Op: TruthyS, Dst: b, A: v.p, B: NoReg})
		c.call(runtime.FreeString, NoReg, v.p)
		done := c.jumpForward(Jump, NoReg)
		c.patchForward(num)
		c.add(Instr{Op: TruthyF, Dst: b, A: v.f, B: NoReg})
		c.patchForward(done)
		return b
	}
}

var binaryOps = map[token.Token]Opcode{
	token.ADD:        Add,
	token.SUB:        Sub,
	token.MUL:        Mul,
	token.DIV:        Div,
	token.LESS:       Less,
	token.LTE:        LessEq,
	token.GREATER:    Greater,
	token.GTE:        GreaterEq,
	token.EQUALS:     Equal,
	token.NOT_EQUALS: NotEqual,
}

// binaryExpr coerces both operands to numbers, left first. Comparisons
// are numeric too and yield 1 or 0.
func (c *compiler) binaryExpr(e *ast.BinaryExpr) value {
	op, ok := binaryOps[e.Op]
	if !ok {
		panic(&CompileError{Message: "unexpected binary operator " + e.Op.String()})
	}
	l := c.number(c.expr(e.Left))
	r := c.number(c.expr(e.Right))
	if op.IsCompare() {
		return c.floatValue(c.unary(BoolToF, ClassFloat, c.binary(op, ClassBool, l, r)))
	}
	return c.floatValue(c.binary(op, ClassFloat, l, r))
}

// logicalExpr emits the short-circuit form. For &&:
//
//	if !left goto false
//	if !right goto false
//	out = 1; goto done
//	false: out = 0
//	done:
func (c *compiler) logicalExpr(e *ast.LogicalExpr) value {
	out := c.newReg(ClassFloat)
	jump, decided, other := JumpIfNot, 0.0, 1.0
	if e.Op == token.OR {
		jump, decided, other = JumpIf, 1, 0
	}

	short := c.jumpForward(jump, c.truthy(c.expr(e.Left)))
	c.vars.BeginScope()
	c.jumpTo(jump, c.truthy(c.expr(e.Right)), short)
	c.vars.EndScope()
	c.constF(out, other)
	done := c.jumpForward(Jump, NoReg)
	c.patchForward(short)
	c.constF(out, decided)
	c.patchForward(done)
	return c.floatValue(out)
}

func (c *compiler) unaryExpr(e *ast.UnaryExpr) value {
	switch e.Op {
	case token.SUB:
		x := c.number(c.expr(e.Expr))
		return c.floatValue(c.binary(Sub, ClassFloat, c.constF(c.newReg(ClassFloat), 0), x))
	case token.ADD:
		return c.floatValue(c.number(c.expr(e.Expr)))
	case token.NOT:
		b := c.unary(Not, ClassBool, c.truthy(c.expr(e.Expr)))
		return c.floatValue(c.unary(BoolToF, ClassFloat, b))
	default:
		panic(&CompileError{Message: "unexpected unary operator " + e.Op.String()})
	}
}
