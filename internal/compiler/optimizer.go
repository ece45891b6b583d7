package compiler

// Optimize applies peephole optimizations to a compiled unit in place:
//
//   - code after an unconditional Jump or Return up to the next Label is
//     unreachable and removed
//   - a Jump to the label that immediately follows it is removed
//   - "BoolToF f, b" followed by "TruthyF b2, f" becomes "Move b2, b"
//     when f has no other use; this is the shape of every comparison
//     used as a condition
//
// Labels are kept even when nothing jumps to them, since merge points
// refer to them.
func Optimize(u *Unit) {
	for {
		n := len(u.Code)
		u.Code = removeUnreachable(u.Code)
		u.Code = removeJumpsToNext(u.Code)
		u.Code = fuseCompareTests(u.Code)
		if len(u.Code) == n {
			return
		}
	}
}

func removeUnreachable(code []Instr) []Instr {
	out := code[:0]
	dead := false
	for _, in := range code {
		if in.Op == Label {
			dead = false
		}
		if dead {
			continue
		}
		out = append(out, in)
		if in.Op == Jump || in.Op == Return {
			dead = true
		}
	}
	return out
}

func removeJumpsToNext(code []Instr) []Instr {
	out := code[:0]
	for i, in := range code {
		if in.Op == Jump && i+1 < len(code) && code[i+1].Op == Label && code[i+1].Imm == in.Imm {
			continue
		}
		out = append(out, in)
	}
	return out
}

func fuseCompareTests(code []Instr) []Instr {
	uses := make(map[Reg]int)
	for _, in := range code {
		for _, r := range readRegs(in) {
			uses[r]++
		}
	}

	out := code[:0]
	for i := 0; i < len(code); i++ {
		in := code[i]
		if in.Op == BoolToF && i+1 < len(code) {
			next := code[i+1]
			if next.Op == TruthyF && next.A == in.Dst && uses[in.Dst] == 1 {
				out = append(out, Instr{Op: Move, Dst: next.Dst, A: in.A, B: NoReg})
				i++
				continue
			}
		}
		out = append(out, in)
	}
	return out
}

// readRegs returns the registers an instruction reads.
func readRegs(in Instr) []Reg {
	switch in.Op {
	case Call:
		return in.Args
	case Move, TruthyF, TruthyS, BoolToF, Not, TagIs, JumpIf, JumpIfNot:
		return []Reg{in.A}
	case Add, Sub, Mul, Div, Less, LessEq, Greater, GreaterEq, Equal, NotEqual:
		return []Reg{in.A, in.B}
	default:
		return nil
	}
}
