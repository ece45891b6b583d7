package runtime

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kolkov/awkjit/internal/types"
)

// Config configures a State.
type Config struct {
	// FS is the field separator. "" defaults to " ", which splits on
	// runs of blanks.
	FS string

	// RS is the record separator. "" defaults to "\n" unless Paragraph
	// is set.
	RS string

	// Paragraph selects paragraph mode: records are separated by blank
	// lines and RS is ignored.
	Paragraph bool

	// FloatFormat formats non-integral numbers for print
	// (default "%.6g").
	FloatFormat string

	// Stdin is read when no input path is registered. Nil reads as empty.
	Stdin io.Reader

	// Output receives printed text. Nil discards it.
	Output io.Writer

	// FlushRecords flushes output before each record is read, for
	// interactive use.
	FlushRecords bool
}

// State is the per-run runtime handle passed to every native. A State is
// used by one run at a time and needs no locking.
type State struct {
	cols        *Columns
	heap        heap
	out         *Output
	floatFormat string
	capture     *bytes.Buffer

	trace bool
	calls []Call
}

// NewState creates a State for one run.
func NewState(config Config) (*State, error) {
	if config.FS == "" {
		config.FS = " "
	}
	switch {
	case config.Paragraph:
		config.RS = ""
	case config.RS == "":
		config.RS = "\n"
	}
	if config.FloatFormat == "" {
		config.FloatFormat = types.DefaultFloatFormat
	}

	cols, err := NewColumns(config.FS, config.RS, config.Stdin)
	if err != nil {
		return nil, err
	}
	return &State{
		cols:        cols,
		out:         newOutput(config.Output, config.FlushRecords),
		floatFormat: config.FloatFormat,
	}, nil
}

// NewCapture creates a State whose output is collected in memory and
// returned by Captured. config.Output is ignored.
func NewCapture(config Config) (*State, error) {
	var buf bytes.Buffer
	config.Output = &buf
	s, err := NewState(config)
	if err != nil {
		return nil, err
	}
	s.capture = &buf
	return s, nil
}

// Captured flushes and returns everything printed so far by a State made
// with NewCapture.
func (s *State) Captured() string {
	if s.capture == nil {
		return ""
	}
	s.out.Flush()
	return s.capture.String()
}

// Columns returns the record reader.
func (s *State) Columns() *Columns {
	return s.cols
}

// Flush flushes buffered output.
func (s *State) Flush() error {
	return s.out.Flush()
}

// Finish flushes output and closes the current input. It returns the
// first output error.
func (s *State) Finish() error {
	s.cols.Close()
	return s.out.Flush()
}

// Static registers text as a static string that lives for the whole run.
func (s *State) Static(text string) Handle {
	return s.heap.alloc(text, slotStatic)
}

// NewString allocates an owned string.
func (s *State) NewString(text string) Handle {
	return s.heap.alloc(text, slotOwned)
}

// Text returns the text behind a live handle.
func (s *State) Text(p Handle) string {
	return s.heap.text(p)
}

// Truthy reports the truthiness of a string: non-empty is true, so "0"
// is true. Generated code inlines this as a first-byte load.
func (s *State) Truthy(p Handle) bool {
	return types.Str(s.heap.text(p)).Truthy()
}

// value reads the tagged triple (tag, f, p) as a Value. p is read only
// for the string tag.
func (s *State) value(tag types.Tag, f float64, p Handle) types.Value {
	if tag == types.TagString {
		return types.Str(s.heap.text(p))
	}
	return types.Num(f)
}

// Live returns the number of owned strings currently allocated. Compiled
// code must end a run with Live() == 0.
func (s *State) Live() int { return s.heap.live }

// Peak returns the maximum of Live over the run.
func (s *State) Peak() int { return s.heap.peak }

// Allocated returns the number of owned strings ever allocated.
func (s *State) Allocated() int { return s.heap.allocated }

// AddInput registers an input path. The path handle is borrowed.
func (s *State) AddInput(path Handle) {
	text := s.heap.text(path)
	s.log(Call{Native: AddInput, Text: text})
	s.cols.AddInput(text)
}

// NextRecord advances to the next input record and returns 1, or 0 once
// the input is exhausted. An unreadable input is fatal.
func (s *State) NextRecord() float64 {
	s.log(Call{Native: NextRecord})
	s.out.endRecord()
	ok, err := s.cols.Next()
	if err != nil {
		fatalErr(ErrResource, err, "cannot read input")
	}
	if ok {
		return 1
	}
	return 0
}

// ReadField returns a fresh owned copy of field (tag, f, p). A string
// index is converted to a number; the index handle is borrowed. The
// index is rounded to the nearest integer.
func (s *State) ReadField(tag types.Tag, f float64, p Handle) Handle {
	n := s.toNumber(s.value(tag, f, p))
	text := ""
	if idx := math.Round(n); idx >= 0 && idx <= math.MaxInt32 {
		text = s.cols.Field(int(idx))
	}
	s.log(Call{Native: ReadField, Num: n, Text: text})
	return s.heap.alloc(text, slotOwned)
}

// FreeString releases an owned string.
func (s *State) FreeString(p Handle) {
	s.log(Call{Native: FreeString})
	s.heap.release(p)
}

// StringToNumber converts a string to a number. The handle is borrowed.
// Text that is not a number is a fatal type error.
func (s *State) StringToNumber(p Handle) float64 {
	text := s.heap.text(p)
	s.log(Call{Native: StringToNumber, Text: text})
	return s.toNumber(types.Str(text))
}

func (s *State) toNumber(v types.Value) float64 {
	n, err := v.ToNum()
	if err != nil {
		msg := fmt.Sprintf("cannot use %q as a number", v.Text())
		if pos := s.cols.Position(); pos != "" {
			msg += " at " + pos
		}
		fatalf(ErrType, "%s", msg)
	}
	return n
}

// CopyString returns an owned duplicate of p.
func (s *State) CopyString(p Handle) Handle {
	text := s.heap.text(p)
	s.log(Call{Native: CopyString, Text: text})
	return s.heap.alloc(text, slotOwned)
}

// NumberToString formats a number as an owned string. A non-float tag
// is a fatal type error.
func (s *State) NumberToString(tag types.Tag, f float64) Handle {
	if tag != types.TagFloat {
		fatalf(ErrType, "number-to-string of a %s value", tag)
	}
	s.log(Call{Native: NumberToString, Num: f})
	return s.heap.alloc(types.FormatNum(f, s.floatFormat), slotOwned)
}

// PrintString writes a string followed by a newline, unless the string
// already ends in one. The handle is borrowed.
func (s *State) PrintString(p Handle) {
	text := s.heap.text(p)
	s.log(Call{Native: PrintString, Text: text})
	s.out.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		s.out.WriteString("\n")
	}
}

// PrintFloat writes a number and a newline.
func (s *State) PrintFloat(f float64) {
	s.log(Call{Native: PrintFloat, Num: f})
	s.out.WriteString(types.Num(f).Format(s.floatFormat))
	s.out.WriteString("\n")
}

// Call is one recorded native call.
type Call struct {
	Native NativeID
	Text   string  // string argument or result, if any
	Num    float64 // numeric argument, if any
}

// String formats the call as "name arg".
func (c Call) String() string {
	switch c.Native {
	case AddInput, StringToNumber, CopyString, PrintString:
		return fmt.Sprintf("%s %q", c.Native, c.Text)
	case ReadField:
		return fmt.Sprintf("%s %s %q", c.Native, types.FormatNum(c.Num, types.DefaultFloatFormat), c.Text)
	case NumberToString, PrintFloat:
		return fmt.Sprintf("%s %s", c.Native, types.FormatNum(c.Num, types.DefaultFloatFormat))
	default:
		return c.Native.String()
	}
}

// Trace starts recording native calls.
func (s *State) Trace() {
	s.trace = true
}

// Calls returns the native calls recorded since Trace.
func (s *State) Calls() []Call {
	return s.calls
}

func (s *State) log(c Call) {
	if s.trace {
		s.calls = append(s.calls, c)
	}
}
