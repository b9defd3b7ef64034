package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"flowproof/internal/ast"
	"flowproof/internal/builder"
	"flowproof/internal/dialect"
	"flowproof/internal/errors"
	"flowproof/internal/parser"
	"flowproof/internal/scope"
	"flowproof/internal/validator"

	"github.com/fatih/color"
)

func main() {
	dialectName := flag.String("dialect", "default", "builtin registry to validate calls against (default, minimal)")
	printAST := flag.Bool("print", false, "print the parsed program before validating")
	debug := flag.Bool("debug", false, "print the CFG shape (block count per graph) used to drive validation")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("usage: flowproof-cli [-dialect name] [-print] [-debug] <file>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	result := parser.ParseResultFor(path, string(source))
	reporter := errors.NewErrorReporter(path, string(source))
	for _, se := range result.ScanErrors {
		fmt.Print(reporter.FormatError(errors.ScanFailure(path, se)))
	}
	for _, pe := range result.ParseErrors {
		fmt.Print(reporter.FormatError(errors.SyntaxError(path, pe)))
	}
	if !result.OK() {
		os.Exit(1)
	}

	if *printAST {
		fmt.Println(ast.Print(result.Program))
	}

	d, ok := dialect.ByName(*dialectName)
	if !ok {
		color.Red("unknown dialect %q", *dialectName)
		os.Exit(1)
	}

	info := scope.NewAnalysisInfo()
	cfg := builder.Build(result.Program, d, info)

	if *debug {
		log.Printf("built CFG for %s: %d block(s) in main graph", path, len(cfg.Main.Blocks))
		for name, g := range cfg.Functions {
			log.Printf("  function %q: %d block(s)", name, len(g.Blocks))
		}
	}

	if err := validator.Validate(cfg, result.Program, info, d); err != nil {
		vf, ok := err.(*errors.ValidationFailure)
		if !ok {
			color.Red("validation error: %s", err)
			os.Exit(1)
		}
		color.Red("%s", errors.FormatValidationFailure(vf))
		os.Exit(1)
	}

	color.Green("%s validates against its SSA CFG under the %q dialect", path, d.Name())
}
