package awkjit

import (
	"io"

	"github.com/kolkov/awkjit/internal/runtime"
)

// Config holds configuration options for compiling and running a program.
type Config struct {
	// FS is the input field separator (default: " ").
	// A single space splits on runs of blanks. Any other single
	// character splits on that character. A longer FS is a regular
	// expression.
	FS string

	// RS is the input record separator (default: "\n"). A longer RS is
	// a regular expression.
	RS string

	// ParagraphMode separates records by blank lines; RS is ignored.
	// Newlines also separate fields.
	ParagraphMode bool

	// FloatFormat formats non-integral numbers for print
	// (default: "%.6g").
	FloatFormat string

	// Files lists the input paths, read in order. They are fixed at
	// compile time; with none, the program reads Stdin. "-" names
	// Stdin explicitly.
	Files []string

	// Output receives printed text. If nil, output is discarded by
	// Program.Run and captured by Run.
	Output io.Writer

	// Stdin is the input read when Files is empty.
	Stdin io.Reader

	// FlushRecords flushes buffered output before each input record is
	// read, so interactive use sees results as lines arrive.
	FlushRecords bool

	// DumpIR, if set, receives the disassembled program at compile time.
	DumpIR io.Writer
}

func (c *Config) runtimeConfig(input io.Reader, output io.Writer) runtime.Config {
	return runtime.Config{
		FS:           c.FS,
		RS:           c.RS,
		Paragraph:    c.ParagraphMode,
		FloatFormat:  c.FloatFormat,
		Stdin:        input,
		Output:       output,
		FlushRecords: c.FlushRecords,
	}
}
