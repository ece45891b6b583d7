package runtime

import "fmt"

// Handle is the runtime's string pointer. The low 32 bits hold the slot
// index plus one and the high 32 bits the slot generation, so a handle
// that outlives its string is detected instead of aliasing a new one.
// The zero Handle is null.
type Handle uint64

// NullHandle is the null string pointer stored in non-string slots.
const NullHandle Handle = 0

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx+1))
}

func (h Handle) split() (idx, gen uint32) {
	return uint32(h) - 1, uint32(h >> 32)
}

// String formats the handle for diagnostics.
func (h Handle) String() string {
	if h == NullHandle {
		return "null"
	}
	idx, gen := h.split()
	return fmt.Sprintf("#%d.%d", idx, gen)
}

type slotState uint8

const (
	slotFree slotState = iota
	slotOwned
	slotStatic
)

type slot struct {
	text  string
	gen   uint32
	state slotState
}

// heap stores string payloads behind handles and accounts for owned
// strings. Static strings (literals and input paths) live for the whole
// run and are never counted or freed.
type heap struct {
	slots []slot
	free  []uint32

	live      int // owned strings currently allocated
	peak      int // maximum of live
	allocated int // owned strings ever allocated
}

func (h *heap) alloc(text string, state slotState) Handle {
	var idx uint32
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.slots = append(h.slots, slot{})
		idx = uint32(len(h.slots) - 1)
	}
	s := &h.slots[idx]
	s.gen++
	s.text = text
	s.state = state

	if state == slotOwned {
		h.live++
		h.allocated++
		h.peak = max(h.peak, h.live)
	}
	return makeHandle(idx, s.gen)
}

func (h *heap) lookup(p Handle) *slot {
	if p == NullHandle {
		fatalf(ErrOwnership, "use of null string handle")
	}
	idx, gen := p.split()
	if int(idx) >= len(h.slots) {
		fatalf(ErrOwnership, "invalid string handle %s", p)
	}
	s := &h.slots[idx]
	if s.gen != gen || s.state == slotFree {
		fatalf(ErrOwnership, "use of freed string handle %s", p)
	}
	return s
}

func (h *heap) text(p Handle) string {
	return h.lookup(p).text
}

func (h *heap) release(p Handle) {
	s := h.lookup(p)
	if s.state == slotStatic {
		fatalf(ErrOwnership, "free of static string %s", p)
	}
	idx, _ := p.split()
	s.state = slotFree
	s.text = ""
	h.free = append(h.free, idx)
	h.live--
}
