package runtime

import (
	"fmt"
	"math"

	"github.com/kolkov/awkjit/internal/types"
)

// ABIType is the machine type of a native parameter or result.
type ABIType uint8

const (
	ABIVoid  ABIType = iota
	ABITag           // i8
	ABIFloat         // double
	ABIPtr           // i8*, a string Handle
)

// String returns the LLVM spelling of the type.
func (t ABIType) String() string {
	switch t {
	case ABIVoid:
		return "void"
	case ABITag:
		return "i8"
	case ABIFloat:
		return "double"
	case ABIPtr:
		return "i8*"
	default:
		return fmt.Sprintf("abi(%d)", uint8(t))
	}
}

// NativeID identifies a native entry point.
type NativeID uint8

const (
	AddInput NativeID = iota
	NextRecord
	ReadField
	FreeString
	StringToNumber
	CopyString
	NumberToString
	PrintString
	PrintFloat

	numNatives
)

// String returns the native's name, e.g. "read-field".
func (id NativeID) String() string {
	if id < numNatives {
		return Natives[id].Name
	}
	return fmt.Sprintf("native(%d)", uint8(id))
}

// Native describes an entry point exported by the runtime. Every native
// takes the state handle as an implicit first argument; Params lists the
// rest.
type Native struct {
	ID     NativeID
	Name   string
	Symbol string // C symbol of the native runtime library
	Params []ABIType
	Result ABIType
	call   func(s *State, args []uint64) uint64
}

// Call invokes the native with arguments encoded as machine words: tags
// as small integers, floats as IEEE bits and strings as Handles. The
// result is encoded the same way, and is 0 for void natives.
func (n *Native) Call(s *State, args []uint64) uint64 {
	if s == nil {
		fatalf(ErrOwnership, "%s called without a state", n.Name)
	}
	if len(args) != len(n.Params) {
		fatalf(ErrOwnership, "%s called with %d arguments, want %d", n.Name, len(args), len(n.Params))
	}
	return n.call(s, args)
}

// Natives is the native table, indexed by NativeID. Code generators and
// engines query it instead of hard-coding signatures.
var Natives = [numNatives]Native{
	AddInput: {
		ID: AddInput, Name: "add-input", Symbol: "awk_add_input",
		Params: []ABIType{ABIPtr}, Result: ABIVoid,
		call: func(s *State, a []uint64) uint64 {
			s.AddInput(Handle(a[0]))
			return 0
		},
	},
	NextRecord: {
		ID: NextRecord, Name: "next-record", Symbol: "awk_next_record",
		Result: ABIFloat,
		call: func(s *State, a []uint64) uint64 {
			return math.Float64bits(s.NextRecord())
		},
	},
	ReadField: {
		ID: ReadField, Name: "read-field", Symbol: "awk_read_field",
		Params: []ABIType{ABITag, ABIFloat, ABIPtr}, Result: ABIPtr,
		call: func(s *State, a []uint64) uint64 {
			return uint64(s.ReadField(types.Tag(a[0]), math.Float64frombits(a[1]), Handle(a[2])))
		},
	},
	FreeString: {
		ID: FreeString, Name: "free-string", Symbol: "awk_free_string",
		Params: []ABIType{ABIPtr}, Result: ABIVoid,
		call: func(s *State, a []uint64) uint64 {
			s.FreeString(Handle(a[0]))
			return 0
		},
	},
	StringToNumber: {
		ID: StringToNumber, Name: "string-to-number", Symbol: "awk_string_to_number",
		Params: []ABIType{ABIPtr}, Result: ABIFloat,
		call: func(s *State, a []uint64) uint64 {
			return math.Float64bits(s.StringToNumber(Handle(a[0])))
		},
	},
	CopyString: {
		ID: CopyString, Name: "copy-string", Symbol: "awk_copy_string",
		Params: []ABIType{ABIPtr}, Result: ABIPtr,
		call: func(s *State, a []uint64) uint64 {
			return uint64(s.CopyString(Handle(a[0])))
		},
	},
	NumberToString: {
		ID: NumberToString, Name: "number-to-string", Symbol: "awk_number_to_string",
		Params: []ABIType{ABITag, ABIFloat}, Result: ABIPtr,
		call: func(s *State, a []uint64) uint64 {
			return uint64(s.NumberToString(types.Tag(a[0]), math.Float64frombits(a[1])))
		},
	},
	PrintString: {
		ID: PrintString, Name: "print-string", Symbol: "awk_print_string",
		Params: []ABIType{ABIPtr}, Result: ABIVoid,
		call: func(s *State, a []uint64) uint64 {
			s.PrintString(Handle(a[0]))
			return 0
		},
	},
	PrintFloat: {
		ID: PrintFloat, Name: "print-float", Symbol: "awk_print_float",
		Params: []ABIType{ABIFloat}, Result: ABIVoid,
		call: func(s *State, a []uint64) uint64 {
			s.PrintFloat(math.Float64frombits(a[0]))
			return 0
		},
	},
}

// Symbols of the native library's lifecycle functions, called by the
// generated native main.
const (
	StateNewSymbol    = "awk_state_new"
	StateFinishSymbol = "awk_state_finish"
)
