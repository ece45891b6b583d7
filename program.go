package awkjit

import (
	"io"
	"sync"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/compiler"
	"github.com/kolkov/awkjit/internal/llvmir"
	"github.com/kolkov/awkjit/internal/runtime"
	"github.com/kolkov/awkjit/internal/vm"
)

// Program represents a compiled program ready for execution.
// It is safe for concurrent use; each call to Run executes in an
// independent context with its own string heap.
type Program struct {
	unit     *compiler.Unit
	stmt     ast.Stmt // lowered, type-annotated routine
	source   string   // Original source for debugging
	warnings []string

	vms sync.Pool
}

// Variable is a program variable with its static type at the end of the
// routine: "float", "string" or "variable".
type Variable struct {
	Name string
	Type string
}

// Run executes the program, reading input and writing printed text to
// output. A nil input reads config.Stdin (when the program names no
// files); a nil output falls back to config.Output and is discarded if
// that is nil too. Only the runtime settings of config are used; the
// input files were fixed by Compile.
func (p *Program) Run(input io.Reader, output io.Writer, config *Config) error {
	if config == nil {
		config = &Config{}
	}
	_, err := p.run(input, output, config, false)
	return err
}

func (p *Program) run(input io.Reader, output io.Writer, config *Config, capture bool) (string, error) {
	if input == nil {
		input = config.Stdin
	}
	if output == nil {
		output = config.Output
	}

	rc := config.runtimeConfig(input, output)
	var (
		s   *runtime.State
		err error
	)
	if capture {
		s, err = runtime.NewCapture(rc)
	} else {
		s, err = runtime.NewState(rc)
	}
	if err != nil {
		return "", runtimeError(err)
	}

	v := p.getVM()
	defer p.vms.Put(v)

	status, err := v.Run(s)
	if ferr := s.Finish(); err == nil && ferr != nil {
		err = ferr
	}
	out := s.Captured()
	if err != nil {
		return out, runtimeError(err)
	}
	if status != 0 {
		return out, &ExitError{Code: status}
	}
	return out, nil
}

func (p *Program) getVM() *vm.VM {
	if v, ok := p.vms.Get().(*vm.VM); ok {
		return v
	}
	// The unit was validated by Compile.
	v, err := vm.Load(p.unit)
	if err != nil {
		panic(err)
	}
	return v
}

// Disassemble returns a human-readable listing of the compiled routine:
// variable storage, constant pools, merge points and instructions.
func (p *Program) Disassemble() string {
	return p.unit.Disassemble()
}

// TypedAST returns the lowered program with the static type of every
// expression.
func (p *Program) TypedAST() string {
	return ast.TypedString(p.stmt)
}

// LLVM returns the program as textual LLVM IR, including a main function
// that drives the runtime library.
func (p *Program) LLVM() (string, error) {
	m, err := llvmir.Emit(p.unit)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// Variables returns the program's variables in storage order.
func (p *Program) Variables() []Variable {
	vars := make([]Variable, len(p.unit.Vars))
	for i, v := range p.unit.Vars {
		vars[i] = Variable{Name: v.Name, Type: v.Type.String()}
	}
	return vars
}

// Warnings returns the non-fatal diagnostics found during compilation.
func (p *Program) Warnings() []string {
	return p.warnings
}

// Source returns the original source code.
func (p *Program) Source() string {
	return p.source
}
