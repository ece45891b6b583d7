package runtime

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// maxRecordSize bounds a single record. bufio.Scanner's default of 64KB
// is too small for real data files.
const maxRecordSize = 64 * 1024 * 1024

// asciiSpace marks the blanks that separate fields when FS is " ".
var asciiSpace = [256]bool{'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true}

// Columns reads records from the registered inputs and splits them into
// fields on demand.
//
// Inputs are opened lazily, one at a time, in registration order. If no
// input was registered, the configured stdin is read instead. Once every
// input is exhausted, Next keeps returning false.
type Columns struct {
	pending []string
	added   int
	stdin   io.Reader

	scanner *bufio.Scanner
	closer  io.Closer
	source  string
	done    bool

	fs      string
	fsRegex *Regex
	rs      string
	rsRegex *Regex

	record     string
	fields     []string
	haveFields bool
	nr         int
	fnr        int
}

// NewColumns creates a record reader. An FS longer than one character
// and an RS longer than one character are regular expressions. RS ""
// selects paragraph mode. A nil stdin reads as empty.
func NewColumns(fs, rs string, stdin io.Reader) (*Columns, error) {
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	c := &Columns{fs: fs, rs: rs, stdin: stdin}
	if len(fs) > 1 {
		re, err := CompileRegex(fs)
		if err != nil {
			return nil, fmt.Errorf("invalid field separator %q: %w", fs, err)
		}
		c.fsRegex = re
	}
	if len(rs) > 1 {
		re, err := CompileRegex(rs)
		if err != nil {
			return nil, fmt.Errorf("invalid record separator %q: %w", rs, err)
		}
		c.rsRegex = re
	}
	return c, nil
}

// AddInput registers an input path. "-" is standard input. Paths added
// after the inputs were exhausted are ignored.
func (c *Columns) AddInput(path string) {
	if c.done {
		return
	}
	c.pending = append(c.pending, path)
	c.added++
}

// Next advances to the next record. It returns false once every input is
// exhausted, and an error if an input cannot be opened or read.
func (c *Columns) Next() (bool, error) {
	for !c.done {
		if c.scanner == nil {
			ok, err := c.open()
			if err != nil {
				c.done = true
				return false, err
			}
			if !ok {
				c.done = true
				break
			}
		}
		if c.scanner.Scan() {
			c.setRecord(c.scanner.Text())
			return true, nil
		}
		err := c.scanner.Err()
		c.closeCurrent()
		if err != nil {
			c.done = true
			return false, fmt.Errorf("reading %s: %w", c.source, err)
		}
	}
	return false, nil
}

func (c *Columns) open() (bool, error) {
	var path string
	switch {
	case len(c.pending) > 0:
		path = c.pending[0]
		c.pending = c.pending[1:]
	case c.added == 0:
		// Read stdin once, then behave as if "-" had been consumed.
		path = "-"
		c.added = 1
	default:
		return false, nil
	}

	r, closer, err := openInput(path, c.stdin)
	if err != nil {
		return false, err
	}
	c.source = path
	c.closer = closer
	c.scanner = bufio.NewScanner(r)
	c.scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	switch {
	case c.rs == "":
		c.scanner.Split(splitParagraph)
	case c.rsRegex != nil:
		c.scanner.Split(splitRegex(c.rsRegex))
	case c.rs != "\n":
		c.scanner.Split(splitByte(c.rs[0]))
	default:
		c.scanner.Split(splitLine)
	}
	c.fnr = 0
	return true, nil
}

func (c *Columns) closeCurrent() {
	if c.closer != nil {
		c.closer.Close()
	}
	c.closer = nil
	c.scanner = nil
}

// Close releases the current input, if any, and ends reading.
func (c *Columns) Close() {
	c.closeCurrent()
	c.done = true
}

func (c *Columns) setRecord(text string) {
	c.record = text
	c.haveFields = false
	c.nr++
	c.fnr++
}

// Record returns the current record ($0). Before the first record, and
// after exhaustion if no record was read, it is "".
func (c *Columns) Record() string {
	return c.record
}

// NR returns the number of records read so far.
func (c *Columns) NR() int {
	return c.nr
}

// FNR returns the number of records read from the current input.
func (c *Columns) FNR() int {
	return c.fnr
}

// Exhausted reports whether every input has been consumed.
func (c *Columns) Exhausted() bool {
	return c.done
}

// Position describes the current record for diagnostics, as
// "record NR (source:FNR)". It is "" before the first record and once
// the input is exhausted.
func (c *Columns) Position() string {
	if c.NR() == 0 || c.Exhausted() {
		return ""
	}
	source := c.source
	if source == "-" {
		source = "stdin"
	}
	return fmt.Sprintf("record %d (%s:%d)", c.NR(), source, c.FNR())
}

// Field returns field i of the current record. Field 0 is the record
// itself; a negative index or one past the last field yields "".
func (c *Columns) Field(i int) string {
	if i == 0 {
		return c.record
	}
	if i < 0 {
		return ""
	}
	c.ensureFields()
	if i > len(c.fields) {
		return ""
	}
	return c.fields[i-1]
}

// NF returns the number of fields in the current record.
func (c *Columns) NF() int {
	c.ensureFields()
	return len(c.fields)
}

func (c *Columns) ensureFields() {
	if c.haveFields {
		return
	}
	c.haveFields = true
	c.fields = c.fields[:0]
	if c.record == "" {
		return
	}

	switch {
	case c.fs == " ":
		c.fields = splitBlanks(c.fields, c.record)
	case c.rs == "":
		// In paragraph mode newline separates fields whatever FS is.
		for line := range strings.SplitSeq(c.record, "\n") {
			c.fields = c.splitSep(c.fields, line)
		}
	default:
		c.fields = c.splitSep(c.fields, c.record)
	}
}

func (c *Columns) splitSep(dst []string, line string) []string {
	switch {
	case c.fsRegex != nil:
		return append(dst, c.fsRegex.Split(line)...)
	case c.fs == "":
		for _, r := range line {
			dst = append(dst, string(r))
		}
		return dst
	default:
		return splitByteSep(dst, line, c.fs[0])
	}
}

// splitBlanks splits on runs of blanks, ignoring leading and trailing
// ones.
func splitBlanks(dst []string, line string) []string {
	n := len(line)
	i := 0
	for i < n && asciiSpace[line[i]] {
		i++
	}
	for i < n {
		start := i
		for i < n && !asciiSpace[line[i]] {
			i++
		}
		dst = append(dst, line[start:i])
		for i < n && asciiSpace[line[i]] {
			i++
		}
	}
	return dst
}

func splitByteSep(dst []string, line string, sep byte) []string {
	for {
		idx := strings.IndexByte(line, sep)
		if idx < 0 {
			break
		}
		dst = append(dst, line[:idx])
		line = line[idx+1:]
	}
	return append(dst, line)
}

// splitLine is bufio.ScanLines without the "\r" stripping: the record is
// everything before "\n", verbatim.
func splitLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	return splitByte('\n')(data, atEOF)
}

func splitByte(sep byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, sep); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// splitParagraph separates records by one or more blank lines. Leading
// and trailing newlines never produce empty records.
func splitParagraph(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && data[start] == '\n' {
		start++
	}
	if start == len(data) {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}
	if i := bytes.Index(data[start:], []byte("\n\n")); i >= 0 {
		end := start + i
		return end + 2, data[start:end], nil
	}
	if atEOF {
		end := len(data)
		for end > start && data[end-1] == '\n' {
			end--
		}
		return len(data), data[start:end], nil
	}
	return start, nil, nil
}

// splitRegex separates records at matches of re. A match that touches
// the end of the buffered data might extend further, so more data is
// requested before it is accepted.
func splitRegex(re *Regex) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		loc := re.FindNonEmptyIndex(string(data))
		if loc != nil && (loc[1] < len(data) || atEOF) {
			return loc[1], data[:loc[0]], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
