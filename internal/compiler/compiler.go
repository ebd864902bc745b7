// Package compiler drives the compilation pipeline: lexing, parsing,
// semantic analysis and code generation.
package compiler

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"pixardis/pkg/codegen"
	"pixardis/pkg/color"
	"pixardis/pkg/isa"
	"pixardis/pkg/lexer"
	"pixardis/pkg/parser"
	"pixardis/pkg/semantics"
)

type Compiler struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable verbose output
	EmitBinary bool   // Emit the binary encoding instead of text
	ShowScopes bool   // Annotate the listing with scope ids
	NoColor    bool   // Disable colored output
	SourceFile string // Path to the source file
	OutputFile string // Path to the output file, "-" for stdout
}

// Compile processes the source file and writes the generated program
// in text or binary form.
func (opts *Compiler) Compile() error {
	log.Info("Processing file", "file", opts.SourceFile)

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		log.Fatal("Failed to read file", "file", opts.SourceFile, "error", err)
	}

	l := lexer.NewLexer(string(input))
	p := parser.NewParser(l)
	program := p.Parse()

	if lexicalErrors := l.Errors(); len(lexicalErrors) > 0 {
		fmt.Println(color.Stage("Lexical Errors"))
		for _, e := range lexicalErrors {
			fmt.Println(e)
		}
		return fmt.Errorf("lexing failed with %d errors", len(lexicalErrors))
	}

	if syntaxErrors := p.Errors(); len(syntaxErrors) > 0 {
		fmt.Println(color.Stage("Syntax Errors"))
		for _, e := range syntaxErrors {
			fmt.Println(e)
		}
		return fmt.Errorf("parsing failed with %d errors", len(syntaxErrors))
	}

	analyzer := semantics.NewAnalyzer()
	if result := analyzer.Analyse(program); result == semantics.ResultFailure {
		diagnostics := analyzer.Diagnostics()

		fmt.Println(color.Stage("Semantic Errors"))
		for _, d := range diagnostics {
			fmt.Println(d.String())
		}
		return fmt.Errorf("semantic analysis failed with %d errors", len(diagnostics))
	}

	generator := codegen.NewGenerator(analyzer.Scopes())
	code := generator.Generate(program)

	if generator.Status() != semantics.ResultSuccess {
		return fmt.Errorf("code generation failed")
	}

	if opts.Verbose {
		fmt.Println(color.GreenText("\n=== Generated Code ==="))
		scopes := generator.ScopeTags()
		for i, instruction := range code {
			fmt.Println(color.Listing(i, instruction.String(), scopes[i], opts.ShowScopes))
		}
	}

	return opts.write(code)
}

func (opts *Compiler) write(code isa.Program) error {
	var output []byte

	if opts.EmitBinary {
		encoded, err := isa.MarshalProgram(code)
		if err != nil {
			return fmt.Errorf("binary encoding failed: %w", err)
		}
		output = encoded
	} else {
		output = []byte(isa.FormatProgram(code))
	}

	if opts.OutputFile == "-" {
		_, err := os.Stdout.Write(output)
		return err
	}

	if err := os.WriteFile(opts.OutputFile, output, 0o644); err != nil {
		return fmt.Errorf("writing output failed: %w", err)
	}

	log.Info("Wrote program", "file", opts.OutputFile, "instructions", len(code))
	return nil
}
