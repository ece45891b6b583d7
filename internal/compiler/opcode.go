// Package compiler turns a typed statement tree into register IR.
//
// The IR works on typed virtual registers. A runtime value occupies a
// triple of registers (tag, float, string pointer); expressions whose
// static type is Float or String only use the part they need. Strings are
// runtime handles with explicit ownership: every string an expression
// yields is owned by its consumer, which must free it or store it.
package compiler

import "fmt"

// Opcode is an IR operation.
type Opcode uint8

const (
	Nop Opcode = iota

	// Constants
	ConstF // Dst(f) = Nums[Imm]
	ConstT // Dst(t) = Imm
	ConstS // Dst(p) = static string Strs[Imm], borrowed
	NullP  // Dst(p) = null

	// Move copies A into Dst; both have the same class.
	Move

	// Float arithmetic: Dst(f) = A op B
	Add
	Sub
	Mul
	Div

	// Float comparison: Dst(b) = A op B
	Less
	LessEq
	Greater
	GreaterEq
	Equal
	NotEqual

	TagIs   // Dst(b) = A(t) == Imm
	TruthyF // Dst(b) = A(f) != 0
	TruthyS // Dst(b) = A(p) is not empty
	BoolToF // Dst(f) = A(b) ? 1 : 0
	Not     // Dst(b) = !A(b)

	// Control flow
	Label     // Imm is the label number
	Jump      // goto Imm
	JumpIf    // if A(b) goto Imm
	JumpIfNot // if !A(b) goto Imm

	// Call invokes native Imm (a runtime.NativeID) with the state handle
	// and Args. Dst receives the result, or is NoReg.
	Call

	// Return ends the routine with status Imm.
	Return
)

// String returns the opcode's name.
func (op Opcode) String() string {
	switch op {
	case Nop:
		return "Nop"
	case ConstF:
		return "ConstF"
	case ConstT:
		return "ConstT"
	case ConstS:
		return "ConstS"
	case NullP:
		return "NullP"
	case Move:
		return "Move"
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Less:
		return "Less"
	case LessEq:
		return "LessEq"
	case Greater:
		return "Greater"
	case GreaterEq:
		return "GreaterEq"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case TagIs:
		return "TagIs"
	case TruthyF:
		return "TruthyF"
	case TruthyS:
		return "TruthyS"
	case BoolToF:
		return "BoolToF"
	case Not:
		return "Not"
	case Label:
		return "Label"
	case Jump:
		return "Jump"
	case JumpIf:
		return "JumpIf"
	case JumpIfNot:
		return "JumpIfNot"
	case Call:
		return "Call"
	case Return:
		return "Return"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
}

// IsJump reports whether op transfers control to label Imm.
func (op Opcode) IsJump() bool {
	return op == Jump || op == JumpIf || op == JumpIfNot
}

// IsCompare reports whether op is a float comparison.
func (op Opcode) IsCompare() bool {
	return op >= Less && op <= NotEqual
}

// Class is a register class.
type Class uint8

const (
	ClassTag   Class = iota // i8 runtime tag
	ClassFloat              // double
	ClassPtr                // string handle
	ClassBool               // i1
)

// Prefix returns the register name prefix for the class.
func (c Class) Prefix() string {
	switch c {
	case ClassTag:
		return "t"
	case ClassFloat:
		return "f"
	case ClassPtr:
		return "p"
	case ClassBool:
		return "b"
	default:
		return "?"
	}
}

// Reg is a virtual register number. Registers may be written on several
// paths; control-flow merges share one register instead of phis.
type Reg int32

// NoReg marks an absent register operand.
const NoReg Reg = -1

// Instr is one IR instruction.
type Instr struct {
	Op   Opcode
	Dst  Reg
	A, B Reg
	Imm  int32
	Args []Reg // Call arguments
}
