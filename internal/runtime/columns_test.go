package runtime

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newColumns(t *testing.T, fs, rs, input string) *Columns {
	t.Helper()
	c, err := NewColumns(fs, rs, strings.NewReader(input))
	if err != nil {
		t.Fatalf("NewColumns: %v", err)
	}
	return c
}

// records drains c and returns every record read.
func records(t *testing.T, c *Columns) []string {
	t.Helper()
	var got []string
	for {
		ok, err := c.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return got
		}
		got = append(got, c.Record())
	}
}

func TestRecordSeparators(t *testing.T) {
	tests := []struct {
		name  string
		rs    string
		input string
		want  []string
	}{
		{"newline", "\n", "a\nb\nc\n", []string{"a", "b", "c"}},
		{"no final newline", "\n", "a\nb", []string{"a", "b"}},
		{"empty lines kept", "\n", "a\n\nb\n", []string{"a", "", "b"}},
		{"carriage return kept", "\n", "a\r\nb\r\n", []string{"a\r", "b\r"}},
		{"empty input", "\n", "", nil},
		{"single char", ";", "a;b;c", []string{"a", "b", "c"}},
		{"single char with newlines", ";", "a\n;b", []string{"a\n", "b"}},
		{"paragraph", "", "a b\nc\n\n\nd\n", []string{"a b\nc", "d"}},
		{"paragraph leading blank lines", "", "\n\nx\n\ny", []string{"x", "y"}},
		{"regex", "[;|]+", "a;b||c", []string{"a", "b", "c"}},
		{"regex matching empty", ";*", "a;b;;c", []string{"a", "b", "c"}},
		{"regex matching empty at start", ";*", ";a;", []string{"", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newColumns(t, " ", tt.rs, tt.input)
			if got := records(t, c); !slices.Equal(got, tt.want) {
				t.Errorf("records = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldSplitting(t *testing.T) {
	tests := []struct {
		name   string
		fs     string
		record string
		want   []string
	}{
		{"blanks", " ", "  a \t b  c ", []string{"a", "b", "c"}},
		{"only blanks", " ", "   ", nil},
		{"single char", ",", "a,,b,", []string{"a", "", "b", ""}},
		{"tab", "\t", "a b\tc", []string{"a b", "c"}},
		{"regex", "[,;]", "a,b;c", []string{"a", "b", "c"}},
		{"regex runs", ", *", "a, b,c", []string{"a", "b", "c"}},
		{"empty fs splits characters", "", "abc", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newColumns(t, tt.fs, "\n", tt.record+"\n")
			if ok, err := c.Next(); !ok || err != nil {
				t.Fatalf("Next = %v, %v", ok, err)
			}
			if c.NF() != len(tt.want) {
				t.Fatalf("NF = %d, want %d", c.NF(), len(tt.want))
			}
			for i, want := range tt.want {
				if got := c.Field(i + 1); got != want {
					t.Errorf("Field(%d) = %q, want %q", i+1, got, want)
				}
			}
			if got := c.Field(0); got != tt.record {
				t.Errorf("Field(0) = %q, want %q", got, tt.record)
			}
			if got := c.Field(len(tt.want) + 1); got != "" {
				t.Errorf("field past the end = %q, want \"\"", got)
			}
			if got := c.Field(-1); got != "" {
				t.Errorf("Field(-1) = %q, want \"\"", got)
			}
		})
	}
}

func TestParagraphModeFields(t *testing.T) {
	c := newColumns(t, ",", "", "a,b\nc\n\nd")
	if ok, _ := c.Next(); !ok {
		t.Fatal("no record")
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got := c.Field(i + 1); got != w {
			t.Errorf("Field(%d) = %q, want %q", i+1, got, w)
		}
	}
}

func TestFieldsAreLazy(t *testing.T) {
	c := newColumns(t, " ", "\n", "a b\nc d e\n")
	c.Next()
	if c.haveFields {
		t.Fatal("fields split before use")
	}
	if got := c.Field(2); got != "b" {
		t.Errorf("Field(2) = %q", got)
	}
	c.Next()
	if c.haveFields {
		t.Fatal("fields of the previous record reused")
	}
	if c.NF() != 3 {
		t.Errorf("NF = %d, want 3", c.NF())
	}
}

func TestInputsInOrder(t *testing.T) {
	a := writeFile(t, "a.txt", "1\n2\n")
	b := writeFile(t, "b.txt", "3\n")
	c := newColumns(t, " ", "\n", "stdin\n")
	c.AddInput(a)
	c.AddInput(b)

	if got, want := records(t, c), []string{"1", "2", "3"}; !slices.Equal(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
	if c.NR() != 3 {
		t.Errorf("NR = %d, want 3", c.NR())
	}
	if c.FNR() != 1 {
		t.Errorf("FNR = %d, want 1", c.FNR())
	}
}

func TestPosition(t *testing.T) {
	a := writeFile(t, "a.txt", "1\n2\n")
	c := newColumns(t, " ", "\n", "x\n")
	c.AddInput(a)
	c.AddInput("-")

	if got := c.Position(); got != "" {
		t.Errorf("Position() before input = %q, want empty", got)
	}
	want := []string{
		"record 1 (" + a + ":1)",
		"record 2 (" + a + ":2)",
		"record 3 (stdin:1)",
	}
	for i, w := range want {
		if ok, err := c.Next(); !ok || err != nil {
			t.Fatalf("Next %d = %v, %v", i, ok, err)
		}
		if got := c.Position(); got != w {
			t.Errorf("Position() = %q, want %q", got, w)
		}
	}
	if ok, _ := c.Next(); ok {
		t.Fatal("Next after the last record = true")
	}
	if got := c.Position(); got != "" {
		t.Errorf("Position() after exhaustion = %q, want empty", got)
	}
}

func TestStdinWhenNoInputs(t *testing.T) {
	c := newColumns(t, " ", "\n", "x\ny\n")
	if got, want := records(t, c), []string{"x", "y"}; !slices.Equal(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
}

func TestDashReadsStdin(t *testing.T) {
	a := writeFile(t, "a.txt", "file\n")
	c := newColumns(t, " ", "\n", "stdin\n")
	c.AddInput("-")
	c.AddInput(a)
	if got, want := records(t, c), []string{"stdin", "file"}; !slices.Equal(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
}

func TestExhaustionIsPermanent(t *testing.T) {
	c := newColumns(t, " ", "\n", "only\n")
	records(t, c)
	c.AddInput(writeFile(t, "late.txt", "late\n"))
	for range 3 {
		if ok, err := c.Next(); ok || err != nil {
			t.Fatalf("Next after exhaustion = %v, %v", ok, err)
		}
	}
	if !c.Exhausted() {
		t.Error("Exhausted() = false")
	}
	if got := c.Record(); got != "only" {
		t.Errorf("Record() after exhaustion = %q, want last record", got)
	}
}

func TestMissingInput(t *testing.T) {
	c := newColumns(t, " ", "\n", "")
	c.AddInput(filepath.Join(t.TempDir(), "missing.txt"))
	ok, err := c.Next()
	if ok || err == nil {
		t.Fatalf("Next = %v, %v; want error", ok, err)
	}
	if ok, err := c.Next(); ok || err != nil {
		t.Errorf("Next after error = %v, %v", ok, err)
	}
}

func TestInvalidSeparators(t *testing.T) {
	if _, err := NewColumns("[a", "\n", nil); err == nil {
		t.Error("invalid FS accepted")
	}
	if _, err := NewColumns(" ", "(x", nil); err == nil {
		t.Error("invalid RS accepted")
	}
}

func TestNilStdinIsEmpty(t *testing.T) {
	c, err := NewColumns(" ", "\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := c.Next(); ok || err != nil {
		t.Errorf("Next = %v, %v", ok, err)
	}
}
