package types

// Type is the static type lattice used by type analysis.
//
// Float and String are statically known representations. Variable means
// the representation is only known at run time, so every consumer has to
// branch on the value's tag.
//
//	Float ⊔ Float   = Float
//	String ⊔ String = String
//	x ⊔ y           = Variable otherwise
//
// Unset is the zero value left by the parser before analysis runs. It is
// the identity of Merge and never escapes a finished analysis.
type Type uint8

const (
	Unset Type = iota
	Float
	String
	Variable
)

// String returns the lattice element's name.
func (t Type) String() string {
	switch t {
	case Unset:
		return "unset"
	case Float:
		return "float"
	case String:
		return "string"
	case Variable:
		return "variable"
	default:
		return "invalid"
	}
}

// Short returns a one-letter tag for dumps: F, S, V or ?.
func (t Type) Short() string {
	switch t {
	case Float:
		return "F"
	case String:
		return "S"
	case Variable:
		return "V"
	default:
		return "?"
	}
}

// Merge joins two types observed along different control-flow paths.
// It is commutative and associative, and Variable absorbs everything.
func Merge(a, b Type) Type {
	switch {
	case a == Unset:
		return b
	case b == Unset:
		return a
	case a == b:
		return a
	default:
		return Variable
	}
}

// MayBeString reports whether a value of type t can carry a heap string
// at run time.
func (t Type) MayBeString() bool {
	return t == String || t == Variable
}
