package awkjit

import (
	"errors"
	"io"
	"strings"

	"github.com/kolkov/awkjit/internal/compiler"
	"github.com/kolkov/awkjit/internal/parser"
	"github.com/kolkov/awkjit/internal/semantic"
	"github.com/kolkov/awkjit/internal/vm"
)

// Version is the awkjit version.
const Version = "0.1.0"

// Run compiles and executes src in one step, returning everything the
// program printed.
//
// If config is nil, default configuration is used. config.Output is
// ignored; use Exec to stream output.
func Run(src string, input io.Reader, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}
	prog, err := Compile(src, config)
	if err != nil {
		return "", err
	}
	return prog.run(input, nil, config, true)
}

// Exec compiles src and executes it, streaming printed text to output.
func Exec(src string, input io.Reader, output io.Writer, config *Config) error {
	if config == nil {
		config = &Config{}
	}
	prog, err := Compile(src, config)
	if err != nil {
		return err
	}
	return prog.Run(input, output, config)
}

// Compile parses, analyzes and compiles src. The input files named by
// config are fixed in the result. A nil config compiles a program that
// reads standard input.
//
// Compile returns a *ParseError for syntax errors and a *CompileError
// for semantic errors.
func Compile(src string, config *Config) (*Program, error) {
	if config == nil {
		config = &Config{}
	}
	if strings.TrimSpace(src) == "" {
		return nil, ErrNoProgram
	}

	parsed, err := parser.Parse(src)
	if err != nil {
		return nil, convertParseError(err)
	}
	stmt := parsed.Lower()

	resolved, err := semantic.Resolve(stmt)
	if err != nil {
		return nil, convertSemanticError(err)
	}

	unit, err := compiler.Compile(stmt, config.Files, resolved.Vars)
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}
	compiler.Optimize(unit)

	if config.DumpIR != nil {
		if _, err := io.WriteString(config.DumpIR, unit.Disassemble()); err != nil {
			return nil, err
		}
	}

	v, err := vm.Load(unit)
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}

	p := &Program{
		unit:     unit,
		stmt:     stmt,
		source:   src,
		warnings: resolved.Warnings.Strings(),
	}
	p.vms.Put(v)
	return p, nil
}

// MustCompile is like Compile but panics on error.
// Useful for programs known at compile time.
func MustCompile(src string) *Program {
	prog, err := Compile(src, nil)
	if err != nil {
		panic(err)
	}
	return prog
}

func convertParseError(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message}
	}
	var list parser.ErrorList
	if errors.As(err, &list) && list.First() != nil {
		first := list.First()
		return &ParseError{Line: first.Pos.Line, Column: first.Pos.Column, Message: first.Message}
	}
	return &ParseError{Message: err.Error()}
}

func convertSemanticError(err error) error {
	var list semantic.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &CompileError{Line: first.Pos.Line, Column: first.Pos.Column, Message: first.Message}
	}
	var se *semantic.Error
	if errors.As(err, &se) {
		return &CompileError{Line: se.Pos.Line, Column: se.Pos.Column, Message: se.Message}
	}
	return &CompileError{Message: err.Error()}
}
