// awkjit - AWK-like language compiler
//
// Compiles a program to a typed register IR and runs it, or emits it as
// an LLVM module for native compilation.
// Uses manual argument parsing for POSIX compatibility (supports -F: style flags).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kolkov/awkjit"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	shortUsage = "usage: awkjit [-F fs] [-R rs] [-f progfile | 'prog'] [file ...]"
	longUsage  = `Standard AWK arguments:
  -F separator      field separator (default " ")
  -f progfile       load source from progfile (multiple allowed)

Additional awkjit features:
  -R separator      record separator (default "\n"; "" for paragraph mode)
  -W                print compile warnings to stderr
  --float-format f  format for non-integral numbers (default "%.6g")

Debugging arguments:
  --dump-ast        print the typed AST to stderr and exit
  --dump-ir         print the IR listing to stderr and exit
  --emit-llvm       write the LLVM module and exit
  -o file           write --emit-llvm output to file instead of stdout

Other:
  -h, --help        show this help message
  -version          show awkjit version and exit
`
)

// exitError is the exit status for every error.
const exitError = 2

// options holds the parsed command line.
type options struct {
	fieldSep    string
	recordSep   *string // nil = default
	floatFormat string
	progFiles   []string
	program     string
	inputFiles  []string
	warnings    bool
	dumpAST     bool
	dumpIR      bool
	emitLLVM    bool
	outFile     string
	help        bool
	version     bool
}

var errUsage = errors.New(shortUsage)

// parseArgs parses the arguments after the command name. Flags may be
// given with no space between flag and argument, like '-F:' (allowed by
// POSIX).
//
//nolint:gocyclo // CLI argument parsing is inherently branchy
func parseArgs(args []string) (*options, error) {
	opts := &options{fieldSep: " "}

	var i int
	for i = 0; i < len(args); i++ {
		// Stop on explicit end of args or first arg not prefixed with "-"
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-F", "-R", "-f", "-o", "--float-format":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			opts.set(arg, args[i])
		case "-W":
			opts.warnings = true
		case "--dump-ast":
			opts.dumpAST = true
		case "--dump-ir":
			opts.dumpIR = true
		case "--emit-llvm":
			opts.emitLLVM = true
		case "-h", "--help":
			opts.help = true
			return opts, nil
		case "-version", "--version":
			opts.version = true
			return opts, nil
		default:
			// Handle flags with no space: -F:, -ffile, -R';', -oout.ll
			switch {
			case strings.HasPrefix(arg, "-F"),
				strings.HasPrefix(arg, "-R"),
				strings.HasPrefix(arg, "-f"),
				strings.HasPrefix(arg, "-o"):
				opts.set(arg[:2], arg[2:])
			default:
				return nil, fmt.Errorf("flag provided but not defined: %s", arg)
			}
		}
	}

	// Remaining args are program and input files
	rest := args[i:]
	switch {
	case len(opts.progFiles) > 0:
		opts.inputFiles = rest
	case len(rest) > 0:
		opts.program = rest[0]
		opts.inputFiles = rest[1:]
	default:
		return nil, errUsage
	}
	if opts.outFile != "" && !opts.emitLLVM {
		return nil, errors.New("-o is only valid with --emit-llvm")
	}
	return opts, nil
}

func (o *options) set(flag, value string) {
	switch flag {
	case "-F":
		o.fieldSep = value
	case "-R":
		o.recordSep = &value
	case "-f":
		o.progFiles = append(o.progFiles, value)
	case "-o":
		o.outFile = value
	case "--float-format":
		o.floatFormat = value
	}
}

// source returns the program text, reading -f files in order.
func (o *options) source() (string, error) {
	if len(o.progFiles) == 0 {
		return o.program, nil
	}
	var sb strings.Builder
	for _, f := range o.progFiles {
		content, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("cannot read program file %s: %w", f, err)
		}
		sb.Write(content)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// config builds the compile and run configuration.
func (o *options) config() *awkjit.Config {
	config := &awkjit.Config{
		FS:          o.fieldSep,
		FloatFormat: o.floatFormat,
		Files:       o.inputFiles,
	}
	if o.recordSep != nil {
		if *o.recordSep == "" {
			config.ParagraphMode = true
		} else {
			config.RS = *o.recordSep
		}
	}
	return config
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		errorExitf("%v", err)
	}
	if opts.help {
		fmt.Printf("awkjit %s\n\n%s\n\n%s", version, shortUsage, longUsage)
		os.Exit(0)
	}
	if opts.version {
		fmt.Printf("awkjit version %s\n", version)
		os.Exit(0)
	}
	os.Exit(run(opts, os.Stdin, os.Stdout, os.Stderr))
}

// run compiles and executes the program and returns the exit status.
func run(opts *options, stdin io.Reader, stdout, stderr io.Writer) int {
	program, err := opts.source()
	if err != nil {
		return report(stderr, err)
	}

	config := opts.config()
	prog, err := awkjit.Compile(program, config)
	if err != nil {
		return report(stderr, err)
	}
	if opts.warnings {
		for _, w := range prog.Warnings() {
			fmt.Fprintf(stderr, "awkjit: %s\n", w)
		}
	}

	// Debug output modes
	if opts.dumpAST {
		fmt.Fprint(stderr, prog.TypedAST())
		return 0
	}
	if opts.dumpIR {
		fmt.Fprint(stderr, prog.Disassemble())
		return 0
	}
	if opts.emitLLVM {
		return emitLLVM(prog, opts.outFile, stdout, stderr)
	}

	config.Stdin = stdin
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		config.FlushRecords = true
	}

	// Output is buffered by the runtime and flushed when the run ends.
	if err := prog.Run(nil, stdout, config); err != nil {
		if code, ok := awkjit.IsExitError(err); ok {
			return code
		}
		return report(stderr, err)
	}
	return 0
}

func emitLLVM(prog *awkjit.Program, path string, stdout, stderr io.Writer) int {
	ir, err := prog.LLVM()
	if err != nil {
		return report(stderr, err)
	}
	if path == "" {
		if _, err := io.WriteString(stdout, ir); err != nil {
			return report(stderr, err)
		}
		return 0
	}
	if err := os.WriteFile(path, []byte(ir), 0o644); err != nil {
		return report(stderr, err)
	}
	return 0
}

// report prints err and returns the error exit status.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "awkjit: %v\n", err)
	return exitError
}

// errorExitf prints formatted error message and exits with code 2
func errorExitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "awkjit: "+format+"\n", args...)
	os.Exit(exitError)
}
