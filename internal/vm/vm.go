// Package vm executes compiled units directly. It is the reference engine
// for the native code path: natives are called through the same table
// and with the same word encoding the generated code uses.
package vm

import (
	"fmt"
	"math"

	"github.com/kolkov/awkjit/internal/compiler"
	"github.com/kolkov/awkjit/internal/runtime"
)

// maxArgs is the largest native parameter count.
const maxArgs = 3

// VM runs one compiled unit. A VM may be run many times, but not
// concurrently.
type VM struct {
	unit *compiler.Unit
	code []compiler.Instr
	pcs  []int // label number -> pc

	// Register file. Every register is a 64-bit word: tags as small
	// integers, floats as IEEE bits, strings as runtime handles and
	// booleans as 0 or 1.
	regs []uint64

	statics []runtime.Handle // Strs index -> static handle of the current run
	args    [maxArgs]uint64
	state   *runtime.State
}

// Load prepares a unit for execution, resolving labels to code positions.
func Load(unit *compiler.Unit) (*VM, error) {
	pcs := make([]int, unit.NumLabels)
	for i := range pcs {
		pcs[i] = -1
	}
	for pc, in := range unit.Code {
		if in.Op != compiler.Label {
			continue
		}
		l := int(in.Imm)
		if l < 0 || l >= len(pcs) {
			return nil, fmt.Errorf("label L%d out of range", l)
		}
		if pcs[l] >= 0 {
			return nil, fmt.Errorf("label L%d placed twice", l)
		}
		pcs[l] = pc
	}
	for pc, in := range unit.Code {
		switch {
		case in.Op.IsJump():
			if l := int(in.Imm); l < 0 || l >= len(pcs) || pcs[l] < 0 {
				return nil, fmt.Errorf("%04d: jump to missing label L%d", pc, l)
			}
		case in.Op == compiler.Call:
			if int(in.Imm) >= len(runtime.Natives) {
				return nil, fmt.Errorf("%04d: unknown native %d", pc, in.Imm)
			}
			if len(in.Args) > maxArgs {
				return nil, fmt.Errorf("%04d: too many arguments", pc)
			}
		}
	}

	return &VM{
		unit:    unit,
		code:    unit.Code,
		pcs:     pcs,
		regs:    make([]uint64, len(unit.Regs)),
		statics: make([]runtime.Handle, len(unit.Strs)),
	}, nil
}

// Run loads and runs a unit once against s.
func Run(unit *compiler.Unit, s *runtime.State) (int, error) {
	vm, err := Load(unit)
	if err != nil {
		return 0, err
	}
	return vm.Run(s)
}

// Run executes the routine against s and returns its status. A fatal
// runtime error stops the run and is returned as a *runtime.Error.
// Output is flushed on return, including on error.
func (vm *VM) Run(s *runtime.State) (status int, err error) {
	defer func() {
		if ferr := s.Flush(); err == nil && ferr != nil {
			err = ferr
		}
	}()
	defer runtime.Catch(&err)

	vm.state = s
	clear(vm.regs)
	for i, text := range vm.unit.Strs {
		vm.statics[i] = s.Static(text)
	}
	return vm.execute(), nil
}

func (vm *VM) execute() int {
	code := vm.code
	regs := vm.regs
	nums := vm.unit.Nums

	f := func(r compiler.Reg) float64 { return math.Float64frombits(regs[r]) }
	setF := func(r compiler.Reg, x float64) { regs[r] = math.Float64bits(x) }
	setB := func(r compiler.Reg, b bool) {
		if b {
			regs[r] = 1
		} else {
			regs[r] = 0
		}
	}

	pc := 0
	for pc < len(code) {
		in := &code[pc]
		pc++

		switch in.Op {
		case compiler.Nop, compiler.Label:

		case compiler.ConstF:
			setF(in.Dst, nums[in.Imm])

		case compiler.ConstT:
			regs[in.Dst] = uint64(in.Imm)

		case compiler.ConstS:
			regs[in.Dst] = uint64(vm.statics[in.Imm])

		case compiler.NullP:
			regs[in.Dst] = uint64(runtime.NullHandle)

		case compiler.Move:
			regs[in.Dst] = regs[in.A]

		case compiler.Add:
			setF(in.Dst, f(in.A)+f(in.B))
		case compiler.Sub:
			setF(in.Dst, f(in.A)-f(in.B))
		case compiler.Mul:
			setF(in.Dst, f(in.A)*f(in.B))
		case compiler.Div:
			// IEEE division, as in native code: x/0 is an infinity.
			setF(in.Dst, f(in.A)/f(in.B))

		case compiler.Less:
			setB(in.Dst, f(in.A) < f(in.B))
		case compiler.LessEq:
			setB(in.Dst, f(in.A) <= f(in.B))
		case compiler.Greater:
			setB(in.Dst, f(in.A) > f(in.B))
		case compiler.GreaterEq:
			setB(in.Dst, f(in.A) >= f(in.B))
		case compiler.Equal:
			setB(in.Dst, f(in.A) == f(in.B))
		case compiler.NotEqual:
			setB(in.Dst, f(in.A) != f(in.B))

		case compiler.TagIs:
			setB(in.Dst, regs[in.A] == uint64(in.Imm))
		case compiler.TruthyF:
			setB(in.Dst, f(in.A) != 0)
		case compiler.TruthyS:
			setB(in.Dst, vm.state.Truthy(runtime.Handle(regs[in.A])))
		case compiler.BoolToF:
			if regs[in.A] != 0 {
				setF(in.Dst, 1)
			} else {
				setF(in.Dst, 0)
			}
		case compiler.Not:
			regs[in.Dst] = regs[in.A] ^ 1

		case compiler.Jump:
			pc = vm.pcs[in.Imm]
		case compiler.JumpIf:
			if regs[in.A] != 0 {
				pc = vm.pcs[in.Imm]
			}
		case compiler.JumpIfNot:
			if regs[in.A] == 0 {
				pc = vm.pcs[in.Imm]
			}

		case compiler.Call:
			args := vm.args[:len(in.Args)]
			for i, r := range in.Args {
				args[i] = regs[r]
			}
			result := runtime.Natives[in.Imm].Call(vm.state, args)
			if in.Dst != compiler.NoReg {
				regs[in.Dst] = result
			}

		case compiler.Return:
			return int(in.Imm)

		default:
			panic(fmt.Sprintf("vm: unexpected opcode %s", in.Op))
		}
	}
	return 0
}
