// cmd/minijava/main.go
package main

import (
	"flag"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"log"
	"minijava/internal/bytecode"
	"minijava/internal/codegen"
	diag "minijava/internal/errors"
	"minijava/internal/lexer"
	"minijava/internal/parser"
	"minijava/internal/semantics"
	"minijava/internal/vm"
	"os"
	"strings"
	"time"
)

const VERSION = "1.0.0"

// Build variables - can be set during build with ldflags
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	if args[0] == "--help" || args[0] == "-h" || args[0] == "help" {
		showUsage()
		return
	}

	if args[0] == "--version" || args[0] == "-v" || args[0] == "version" {
		showVersion()
		return
	}

	switch args[0] {
	case "compile":
		compileCommand(args[1:])
	case "run":
		runCommand(args[1:])
	case "exec":
		execCommand(args[1:])
	case "check":
		checkCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func compileCommand(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	output := fs.String("o", "", "object file path")
	stats := fs.Bool("stats", false, "print token and instruction counts")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: minijava compile [-o file.obj] [-stats] <file.java>")
		os.Exit(1)
	}

	objPath := compileToFile(fs.Arg(0), *output, *stats)
	fmt.Printf("wrote %s\n", objPath)
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	output := fs.String("o", "", "object file path")
	trace := fs.Bool("trace", false, "log every instruction as it executes")
	stats := fs.Bool("stats", false, "print token and instruction counts")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: minijava run [-o file.obj] [-trace] [-stats] <file.java>")
		os.Exit(1)
	}

	// run keeps the intermediate artifact and executes it from disk, so
	// a later exec uses exactly the file that already ran.
	objPath := compileToFile(fs.Arg(0), *output, *stats)
	executeFile(objPath, *trace)
}

func execCommand(args []string) {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	trace := fs.Bool("trace", false, "log every instruction as it executes")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: minijava exec [-trace] <file.obj>")
		os.Exit(1)
	}

	executeFile(fs.Arg(0), *trace)
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: minijava check <file.java>")
		os.Exit(1)
	}
	srcPath := fs.Arg(0)

	source, err := os.ReadFile(srcPath)
	if err != nil {
		log.Fatalf("Error: %v", errors.Wrapf(err, "reading %s", srcPath))
	}

	if _, _, err := compileSource(string(source), srcPath); err != nil {
		reportDiagnostic(err)
		os.Exit(1)
	}
	fmt.Printf("%s: no problems found\n", srcPath)
}

// compileToFile runs the front end over a source file and writes the
// object code next to it, or to the -o override. The first diagnostic
// stops the process with exit status 1.
func compileToFile(srcPath, objPath string, stats bool) string {
	source, err := os.ReadFile(srcPath)
	if err != nil {
		log.Fatalf("Error: %v", errors.Wrapf(err, "reading %s", srcPath))
	}

	prog, tokenCount, err := compileSource(string(source), srcPath)
	if err != nil {
		reportDiagnostic(err)
		os.Exit(1)
	}

	if objPath == "" {
		objPath = defaultObjectPath(srcPath)
	}
	if err := os.WriteFile(objPath, []byte(prog.Encode()), 0644); err != nil {
		log.Fatalf("Error: %v", errors.Wrapf(err, "writing %s", objPath))
	}

	if stats {
		fmt.Fprintf(os.Stderr, "%s: %s tokens, %s instructions\n", srcPath,
			humanize.Comma(int64(tokenCount)), humanize.Comma(int64(len(prog.Instructions))))
	}
	return objPath
}

// compileSource runs scanner, parser, checker and generator in order,
// stopping at the first diagnostic.
func compileSource(source, file string) (*bytecode.Program, int, error) {
	tokens, err := lexer.NewScanner(source, file).ScanTokens()
	if err != nil {
		return nil, 0, err
	}
	tree, err := parser.NewParserWithSource(tokens, source, file).Parse()
	if err != nil {
		return nil, 0, err
	}
	checked, err := semantics.NewCheckerWithSource(source, file).Check(tree)
	if err != nil {
		return nil, 0, err
	}
	prog, err := codegen.NewGenerator().Generate(checked)
	if err != nil {
		return nil, 0, err
	}
	return prog, len(tokens), nil
}

// executeFile loads an object file into a fresh machine and runs it to
// completion.
func executeFile(objPath string, trace bool) {
	text, err := os.ReadFile(objPath)
	if err != nil {
		log.Fatalf("Error: %v", errors.Wrapf(err, "reading %s", objPath))
	}

	prog, err := bytecode.Parse(string(text), objPath)
	if err != nil {
		reportDiagnostic(err)
		os.Exit(1)
	}
	machine, err := vm.Load(prog)
	if err != nil {
		reportDiagnostic(err)
		os.Exit(1)
	}
	if trace {
		machine.Trace = os.Stderr
	}
	if err := machine.Run(); err != nil {
		reportDiagnostic(err)
		os.Exit(1)
	}
}

// defaultObjectPath derives average.obj from average.java. Sources with
// any other extension keep their name and gain the suffix.
func defaultObjectPath(srcPath string) string {
	if strings.HasSuffix(srcPath, ".java") {
		return strings.TrimSuffix(srcPath, ".java") + ".obj"
	}
	return srcPath + ".obj"
}

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// reportDiagnostic prints a compile or runtime error to stderr, coloring
// the kind and the hint when stderr is a terminal.
func reportDiagnostic(err error) {
	rendered := err.Error()
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		rendered = colorize(rendered, err)
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	fmt.Fprint(os.Stderr, rendered)
}

func colorize(rendered string, err error) string {
	var kind, hint string
	switch e := err.(type) {
	case *diag.Diagnostic:
		kind = string(e.Kind)
		hint = e.Hint
	case *diag.Fault:
		kind = string(diag.RuntimeFault)
	default:
		return rendered
	}

	if prefix := kind + ":"; strings.HasPrefix(rendered, prefix) {
		rendered = colorRed + prefix + colorReset + strings.TrimPrefix(rendered, prefix)
	}
	if hint != "" {
		marked := "hint: " + hint
		rendered = strings.Replace(rendered, marked, colorYellow+marked+colorReset, 1)
	}
	return rendered
}

func showUsage() {
	fmt.Println("MiniJava - a compiler and stack machine for the MiniJava teaching subset")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  minijava compile <file.java>   Compile to stack machine object code")
	fmt.Println("  minijava run <file.java>       Compile and execute in one step")
	fmt.Println("  minijava exec <file.obj>       Execute a compiled object file")
	fmt.Println("  minijava check <file.java>     Compile without writing object code")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -o <file>    Where to write the object code (compile, run)")
	fmt.Println("  -trace       Log every instruction as it executes (exec, run)")
	fmt.Println("  -stats       Print token and instruction counts (compile, run)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  minijava run examples/average.java")
	fmt.Println("  minijava compile -o build/fahrenheit.obj examples/fahrenheit.java")
	fmt.Println("  minijava exec -trace build/fahrenheit.obj")
}

func showVersion() {
	fmt.Printf("MiniJava compiler v%s\n", VERSION)
	fmt.Printf("Build Date: %s\n", BuildDate)
	if GitCommit != "unknown" {
		fmt.Printf("Git Commit: %s\n", GitCommit)
	}
}
