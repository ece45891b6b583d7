package runtime

import (
	"bufio"
	"io"
	"os"
)

// Output is the buffered sink print writes to. The first write error is
// kept and later writes are dropped, so a closed pipe does not turn
// every print into a failure.
type Output struct {
	w            *bufio.Writer
	flushRecords bool
	err          error
}

func newOutput(w io.Writer, flushRecords bool) *Output {
	if w == nil {
		w = io.Discard
	}
	return &Output{w: bufio.NewWriterSize(w, 64*1024), flushRecords: flushRecords}
}

// WriteString writes s unless an earlier write failed.
func (o *Output) WriteString(s string) {
	if o.err != nil {
		return
	}
	_, o.err = o.w.WriteString(s)
}

// endRecord is called before each new record is read. In per-record
// mode it pushes the previous record's output out before blocking on
// input.
func (o *Output) endRecord() {
	if o.flushRecords {
		o.Flush()
	}
}

// Flush flushes buffered output and returns the first write error.
func (o *Output) Flush() error {
	if o.err == nil {
		o.err = o.w.Flush()
	}
	return o.err
}

// openInput opens a record source. "-" names standard input.
func openInput(path string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if path == "-" {
		return stdin, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
