package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/cli"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/codegen"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/lexer"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/parser"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/semantic"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/util"
)

func main() {
	app := cli.NewApp("mpc")
	app.Synopsis = "[options] <input.pas>"
	app.Description = "A Mini-Pascal compiler targeting a stack-based virtual machine."

	var (
		outFile  string
		toStdout bool
		dumpAST  bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file>.", "file")
	fs.Bool(&toStdout, "stdout", "S", false, "Write the instruction stream to standard output.")
	fs.Bool(&dumpAST, "dump-ast", "d", false, "Dump the syntax tree and exit.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		cfg.Apply(warningFlags, featureFlags)

		if len(inputFiles) == 0 {
			util.Error(token.Token{FileIndex: -1}, "no input file specified.")
		}
		if len(inputFiles) > 1 {
			util.Error(token.Token{FileIndex: -1}, "expected exactly one input file, got %d.", len(inputFiles))
		}
		input := inputFiles[0]

		source, err := os.ReadFile(input)
		if err != nil {
			util.Error(token.Token{FileIndex: -1}, "could not read file '%s': %v", input, err)
		}
		runes := []rune(string(source))
		util.SetSourceFiles([]util.SourceFileRecord{{Name: input, Content: runes}})

		tokens := lexer.NewLexer(runes, 0, cfg).Tokenize()
		root := parser.NewParser(tokens, cfg).Parse()

		if dumpAST {
			ast.Dump(os.Stdout, root)
			return nil
		}

		analyzer := semantic.NewAnalyzer(cfg)
		syms, errs := analyzer.Analyze(root)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", input, e)
			}
			os.Exit(1)
		}

		prog, err := codegen.New(syms).Generate(root)
		if err != nil {
			util.Error(token.Token{FileIndex: -1}, "%v", err)
		}

		if toStdout {
			fmt.Print(prog.String())
			return nil
		}
		if outFile == "" {
			outFile = strings.TrimSuffix(input, filepath.Ext(input)) + ".vm"
		}
		if err := os.WriteFile(outFile, []byte(prog.String()), 0o644); err != nil {
			util.Error(token.Token{FileIndex: -1}, "could not write '%s': %v", outFile, err)
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
