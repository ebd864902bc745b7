package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"pixardis/internal/compiler"
	"pixardis/internal/logger"
	"pixardis/pkg/color"
)

// Main entry point for the pixardis compiler.
func main() {
	options := compiler.Compiler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.EmitBinary, "b", false, "Emit binary program encoding")
	flag.BoolVar(&options.ShowScopes, "s", false, "Show scope ids in the listing")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.OutputFile, "o", "out.pixir", "Output file, - for stdout")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	err := options.Compile()
	if err != nil {
		log.Fatal("Compilation failed", "error", err)
	}
}
