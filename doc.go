// Package awkjit compiles a small AWK-like language to native code.
//
// The language has BEGIN, END and main rules with optional pattern
// guards, print, if/else, while, global variables, field access ($n),
// arithmetic, comparison and the logical operators. Every expression is
// statically typed as float, string or variable (a tagged value known
// only at run time); the compiler keeps each variable in a storage
// triple of tag, float and string slots and emits the conversions and
// string frees each path needs.
//
// # Quick Start
//
// For simple one-off execution:
//
//	output, err := awkjit.Run(`{ s = s + $2 } END { print s }`, strings.NewReader("a 1\nb 2\n"), nil)
//
// With configuration:
//
//	output, err := awkjit.Run(program, input, &awkjit.Config{
//	    FS: ",",
//	})
//
// # Compiled Programs
//
// For repeated execution of the same program:
//
//	prog, err := awkjit.Compile(`$1 > 10 { print $2 }`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range inputs {
//	    if err := prog.Run(r, os.Stdout, nil); err != nil {
//	        // ...
//	    }
//	}
//
// A compiled [Program] also exposes its intermediate forms:
// [Program.TypedAST], [Program.Disassemble] and [Program.LLVM]. The LLVM
// module calls the runtime natives by their C symbols and is linked
// against a runtime library to produce an executable.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in the source
//   - [CompileError]: semantic errors such as use of a built-in variable
//   - [RuntimeError]: fatal errors during execution
//   - [ExitError]: a non-zero routine status
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent execution context.
package awkjit
