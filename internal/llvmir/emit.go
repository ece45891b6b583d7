// Package llvmir lowers a compiled unit to an LLVM IR module.
//
// Every register becomes a stack slot allocated in the entry block, so the
// module needs no phi nodes; LLVM's mem2reg pass turns the slots back into
// SSA values. Natives are declared as externals taking the runtime state
// pointer first; the runtime library that defines them is linked
// separately.
package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/awkjit/internal/compiler"
	"github.com/kolkov/awkjit/internal/runtime"
)

// MainSymbol is the name of the emitted routine.
const MainSymbol = "awk_main"

var (
	statePtr = types.I8Ptr
	charPtr  = types.I8Ptr
)

// Emit lowers unit to a module defining
//
//	i32 @awk_main(i8* %state)
//	i32 @main()
//
// main creates a state with awk_state_new, runs awk_main and finishes
// the state with awk_state_finish. It returns the routine's status, or
// the finish status when that is non-zero.
func Emit(unit *compiler.Unit) (*ir.Module, error) {
	e := &emitter{
		unit:    unit,
		module:  ir.NewModule(),
		natives: make(map[runtime.NativeID]*ir.Func),
		labels:  make(map[int32]*ir.Block),
	}
	e.declareNatives()
	e.declareStrings()
	if err := e.emitMain(); err != nil {
		return nil, err
	}
	e.emitEntry()
	return e.module, nil
}

type emitter struct {
	unit    *compiler.Unit
	module  *ir.Module
	natives map[runtime.NativeID]*ir.Func
	strs    []*ir.Global
	labels  map[int32]*ir.Block
	placed  map[int32]bool

	fn    *ir.Func
	slots []*ir.InstAlloca
	cur   *ir.Block
	dead  int
}

func abiType(t runtime.ABIType) types.Type {
	switch t {
	case runtime.ABITag:
		return types.I8
	case runtime.ABIFloat:
		return types.Double
	case runtime.ABIPtr:
		return charPtr
	default:
		return types.Void
	}
}

func classType(c compiler.Class) types.Type {
	switch c {
	case compiler.ClassTag:
		return types.I8
	case compiler.ClassFloat:
		return types.Double
	case compiler.ClassPtr:
		return charPtr
	default:
		return types.I1
	}
}

func (e *emitter) declareNatives() {
	for i := range runtime.Natives {
		n := &runtime.Natives[i]
		params := []*ir.Param{ir.NewParam("state", statePtr)}
		for j, p := range n.Params {
			params = append(params, ir.NewParam(fmt.Sprintf("a%d", j), abiType(p)))
		}
		e.natives[n.ID] = e.module.NewFunc(n.Symbol, abiType(n.Result), params...)
	}
}

func (e *emitter) declareStrings() {
	for i, s := range e.unit.Strs {
		g := e.module.NewGlobalDef(fmt.Sprintf("str.%d", i), constant.NewCharArrayFromString(s+"\x00"))
		g.Immutable = true
		g.Linkage = enum.LinkagePrivate
		e.strs = append(e.strs, g)
	}
}

// emitEntry emits the process entry point.
func (e *emitter) emitEntry() {
	stateNew := e.module.NewFunc(runtime.StateNewSymbol, statePtr)
	stateFinish := e.module.NewFunc(runtime.StateFinishSymbol, types.I32, ir.NewParam("state", statePtr))

	main := e.module.NewFunc("main", types.I32)
	b := main.NewBlock("entry")
	state := b.NewCall(stateNew)
	status := b.NewCall(e.fn, state)
	finish := b.NewCall(stateFinish, state)
	ok := b.NewICmp(enum.IPredEQ, finish, constant.NewInt(types.I32, 0))
	b.NewRet(b.NewSelect(ok, status, finish))
}

func (e *emitter) emitMain() error {
	if err := e.checkLabels(); err != nil {
		return err
	}

	state := ir.NewParam("state", statePtr)
	e.fn = e.module.NewFunc(MainSymbol, types.I32, state)

	entry := e.fn.NewBlock("entry")
	for i, c := range e.unit.Regs {
		slot := entry.NewAlloca(classType(c))
		slot.SetName(e.unit.RegName(compiler.Reg(i)))
		e.slots = append(e.slots, slot)
	}
	e.cur = e.fn.NewBlock("start")
	entry.NewBr(e.cur)

	for _, in := range e.unit.Code {
		e.instr(in, state)
	}
	if e.cur != nil && e.cur.Term == nil {
		e.cur.NewRet(constant.NewInt(types.I32, 0))
	}
	return nil
}

func (e *emitter) checkLabels() error {
	e.placed = make(map[int32]bool)
	for _, in := range e.unit.Code {
		if in.Op == compiler.Label {
			if e.placed[in.Imm] {
				return fmt.Errorf("label L%d placed twice", in.Imm)
			}
			e.placed[in.Imm] = true
		}
	}
	for i, in := range e.unit.Code {
		if in.Op.IsJump() && !e.placed[in.Imm] {
			return fmt.Errorf("%04d: jump to missing label L%d", i, in.Imm)
		}
	}
	return nil
}

// label returns the block that starts at label l.
func (e *emitter) label(l int32) *ir.Block {
	if b, ok := e.labels[l]; ok {
		return b
	}
	b := e.fn.NewBlock(fmt.Sprintf("L%d", l))
	e.labels[l] = b
	return b
}

// block returns the current block, opening one for unreachable code
// after a terminator.
func (e *emitter) block() *ir.Block {
	if e.cur == nil {
		e.dead++
		e.cur = e.fn.NewBlock(fmt.Sprintf("dead%d", e.dead))
	}
	return e.cur
}

func (e *emitter) load(r compiler.Reg) value.Value {
	return e.block().NewLoad(classType(e.unit.Regs[r]), e.slots[r])
}

func (e *emitter) store(r compiler.Reg, v value.Value) {
	e.block().NewStore(v, e.slots[r])
}

func (e *emitter) instr(in compiler.Instr, state value.Value) {
	switch in.Op {
	case compiler.Nop:

	case compiler.Label:
		next := e.label(in.Imm)
		if e.cur != nil && e.cur.Term == nil {
			e.cur.NewBr(next)
		}
		e.cur = next

	case compiler.ConstF:
		e.store(in.Dst, constant.NewFloat(types.Double, e.unit.Nums[in.Imm]))
	case compiler.ConstT:
		e.store(in.Dst, constant.NewInt(types.I8, int64(in.Imm)))
	case compiler.ConstS:
		g := e.strs[in.Imm]
		elem := g.ContentType
		ptr := e.block().NewGetElementPtr(elem, g, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
		e.store(in.Dst, ptr)
	case compiler.NullP:
		e.store(in.Dst, constant.NewNull(charPtr))
	case compiler.Move:
		e.store(in.Dst, e.load(in.A))

	case compiler.Add:
		e.store(in.Dst, e.block().NewFAdd(e.load(in.A), e.load(in.B)))
	case compiler.Sub:
		e.store(in.Dst, e.block().NewFSub(e.load(in.A), e.load(in.B)))
	case compiler.Mul:
		e.store(in.Dst, e.block().NewFMul(e.load(in.A), e.load(in.B)))
	case compiler.Div:
		e.store(in.Dst, e.block().NewFDiv(e.load(in.A), e.load(in.B)))

	case compiler.Less, compiler.LessEq, compiler.Greater, compiler.GreaterEq, compiler.Equal, compiler.NotEqual:
		e.store(in.Dst, e.block().NewFCmp(fpred[in.Op], e.load(in.A), e.load(in.B)))

	case compiler.TagIs:
		e.store(in.Dst, e.block().NewICmp(enum.IPredEQ, e.load(in.A), constant.NewInt(types.I8, int64(in.Imm))))
	case compiler.TruthyF:
		e.store(in.Dst, e.block().NewFCmp(enum.FPredUNE, e.load(in.A), constant.NewFloat(types.Double, 0)))
	case compiler.TruthyS:
		// A string is truthy when its first byte is not the terminator.
		first := e.block().NewLoad(types.I8, e.load(in.A))
		e.store(in.Dst, e.block().NewICmp(enum.IPredNE, first, constant.NewInt(types.I8, 0)))
	case compiler.BoolToF:
		e.store(in.Dst, e.block().NewUIToFP(e.load(in.A), types.Double))
	case compiler.Not:
		e.store(in.Dst, e.block().NewXor(e.load(in.A), constant.True))

	case compiler.Jump:
		e.block().NewBr(e.label(in.Imm))
		e.cur = nil
	case compiler.JumpIf, compiler.JumpIfNot:
		cond := e.load(in.A)
		target := e.label(in.Imm)
		b := e.block()
		e.dead++
		next := e.fn.NewBlock(fmt.Sprintf("c%d", e.dead))
		if in.Op == compiler.JumpIf {
			b.NewCondBr(cond, target, next)
		} else {
			b.NewCondBr(cond, next, target)
		}
		e.cur = next

	case compiler.Call:
		args := []value.Value{state}
		for _, r := range in.Args {
			args = append(args, e.load(r))
		}
		result := e.block().NewCall(e.natives[runtime.NativeID(in.Imm)], args...)
		if in.Dst != compiler.NoReg {
			e.store(in.Dst, result)
		}

	case compiler.Return:
		e.block().NewRet(constant.NewInt(types.I32, int64(in.Imm)))
		e.cur = nil
	}
}

var fpred = map[compiler.Opcode]enum.FPred{
	compiler.Less:      enum.FPredOLT,
	compiler.LessEq:    enum.FPredOLE,
	compiler.Greater:   enum.FPredOGT,
	compiler.GreaterEq: enum.FPredOGE,
	compiler.Equal:     enum.FPredOEQ,
	compiler.NotEqual:  enum.FPredUNE,
}
