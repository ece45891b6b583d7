package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kolkov/awkjit/internal/runtime"
	"github.com/kolkov/awkjit/internal/types"
)

// Unit is a compiled routine ready for an execution engine or native
// emission.
type Unit struct {
	// Code is the flat instruction list.
	Code []Instr

	// Regs holds the class of each virtual register.
	Regs []Class

	// Constant pools
	Nums []float64 // Float constants
	Strs []string  // Static strings: literals and input paths

	// Vars lists the variables in definition order.
	Vars []VarInfo

	// Merges lists the control-flow merge points with the variables
	// written on the merging paths.
	Merges []MergePoint

	// NumLabels is the number of labels used by Code.
	NumLabels int
}

// VarInfo describes a variable's storage triple.
type VarInfo struct {
	Name string
	Slot Slot
	Type types.Type // static type at the end of the routine
}

// MergePoint records a place where paths reconcile variable state: the
// end of an if statement or the head of a while loop.
type MergePoint struct {
	Label int
	Kind  string // "if" or "while"
	Vars  []MergeVar
}

// MergeVar is a variable written on a merging path with its merged type.
type MergeVar struct {
	Name string
	Type types.Type
}

// RegName returns the register's display name, such as "f3".
func (u *Unit) RegName(r Reg) string {
	if r == NoReg {
		return "_"
	}
	if int(r) < 0 || int(r) >= len(u.Regs) {
		return "r" + strconv.Itoa(int(r))
	}
	return u.Regs[r].Prefix() + strconv.Itoa(int(r))
}

// Disassemble returns a human-readable listing of the unit.
func (u *Unit) Disassemble() string {
	var sb strings.Builder

	if len(u.Vars) > 0 {
		sb.WriteString("=== Variables ===\n")
		for _, v := range u.Vars {
			fmt.Fprintf(&sb, "  %s: %s (%s %s %s)\n", v.Name, v.Type,
				u.RegName(v.Slot.Tag), u.RegName(v.Slot.F), u.RegName(v.Slot.P))
		}
		sb.WriteString("\n")
	}

	if len(u.Nums) > 0 {
		sb.WriteString("=== Numbers ===\n")
		for i, n := range u.Nums {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, types.FormatNum(n, types.DefaultFloatFormat))
		}
		sb.WriteString("\n")
	}

	if len(u.Strs) > 0 {
		sb.WriteString("=== Strings ===\n")
		for i, s := range u.Strs {
			fmt.Fprintf(&sb, "  [%d] %q\n", i, s)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== Code ===\n")
	u.disassembleCode(&sb)
	return sb.String()
}

func (u *Unit) disassembleCode(sb *strings.Builder) {
	merges := make(map[int]*MergePoint, len(u.Merges))
	for i := range u.Merges {
		merges[u.Merges[i].Label] = &u.Merges[i]
	}

	for i, in := range u.Code {
		if in.Op == Label {
			fmt.Fprintf(sb, "L%d:", in.Imm)
			if m := merges[int(in.Imm)]; m != nil {
				fmt.Fprintf(sb, "  ; %s merge", m.Kind)
				for _, v := range m.Vars {
					fmt.Fprintf(sb, " %s:%s", v.Name, v.Type.Short())
				}
			}
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(sb, "  %04d: %s\n", i, u.FormatInstr(in))
	}
}

// FormatInstr formats one instruction, without its index.
func (u *Unit) FormatInstr(in Instr) string {
	r := u.RegName
	op := in.Op.String()
	switch in.Op {
	case ConstF:
		return fmt.Sprintf("%-9s %s, %s", op, r(in.Dst), u.numText(in.Imm))
	case ConstT:
		return fmt.Sprintf("%-9s %s, %s", op, r(in.Dst), types.Tag(in.Imm))
	case ConstS:
		text := "?"
		if int(in.Imm) < len(u.Strs) {
			text = strconv.Quote(u.Strs[in.Imm])
		}
		return fmt.Sprintf("%-9s %s, %s", op, r(in.Dst), text)
	case NullP:
		return fmt.Sprintf("%-9s %s", op, r(in.Dst))
	case Move, TruthyF, TruthyS, BoolToF, Not:
		return fmt.Sprintf("%-9s %s, %s", op, r(in.Dst), r(in.A))
	case Add, Sub, Mul, Div, Less, LessEq, Greater, GreaterEq, Equal, NotEqual:
		return fmt.Sprintf("%-9s %s, %s, %s", op, r(in.Dst), r(in.A), r(in.B))
	case TagIs:
		return fmt.Sprintf("%-9s %s, %s, %s", op, r(in.Dst), r(in.A), types.Tag(in.Imm))
	case Jump:
		return fmt.Sprintf("%-9s L%d", op, in.Imm)
	case JumpIf, JumpIfNot:
		return fmt.Sprintf("%-9s %s, L%d", op, r(in.A), in.Imm)
	case Call:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = r(a)
		}
		call := fmt.Sprintf("%s(%s)", runtime.NativeID(in.Imm), strings.Join(args, ", "))
		if in.Dst == NoReg {
			return fmt.Sprintf("%-9s %s", op, call)
		}
		return fmt.Sprintf("%-9s %s = %s", op, r(in.Dst), call)
	case Return:
		return fmt.Sprintf("%-9s %d", op, in.Imm)
	default:
		return op
	}
}

func (u *Unit) numText(idx int32) string {
	if int(idx) < len(u.Nums) {
		return types.FormatNum(u.Nums[idx], types.DefaultFloatFormat)
	}
	return "?"
}
