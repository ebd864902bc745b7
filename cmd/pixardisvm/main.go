package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"pixardis/internal/config"
	"pixardis/internal/logger"
	"pixardis/pkg/vm"
)

// Main entry point for the pixardis virtual machine.
func main() {
	var (
		help        bool
		verbose     bool
		noColor     bool
		binary      bool
		configPath  string
		framebuffer string
		seed        int64
	)

	flag.BoolVar(&help, "h", false, "Show help")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noColor, "n", false, "No color")
	flag.BoolVar(&binary, "b", false, "Treat input as binary program encoding")
	flag.StringVar(&configPath, "c", "", "Path to pixardis.toml")
	flag.StringVar(&framebuffer, "f", "", "Write final framebuffer to a PPM file")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = from clock)")

	flag.Parse()
	args := flag.Args()

	logger.Init(verbose, noColor)
	if help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) == 0 {
		log.Fatal("No program file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatal("Failed to load configuration", "error", err)
		}
		cfg = loaded
	}

	program, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatal("Failed to read program", "file", args[0], "error", err)
	}

	options := []vm.Option{
		vm.WithMaxSteps(cfg.Machine.MaxSteps),
		vm.WithLogger(log.Default()),
	}

	if seed == 0 {
		seed = cfg.Machine.Seed
	}
	if seed != 0 {
		options = append(options, vm.WithSeed(seed))
	}

	machine := vm.NewMachine(cfg.Display.Width, cfg.Display.Height, options...)

	if binary || strings.HasSuffix(args[0], ".pixb") {
		if err := machine.LoadBinary(program); err != nil {
			log.Fatal("Failed to load program", "error", err)
		}
	} else {
		machine.LoadSource(string(program))
	}

	// Step in config-sized batches so pending delays burn whole
	// batches instead of single instructions.
	for {
		err := machine.Step(cfg.Machine.CyclesPerStep)
		if err == nil {
			continue
		}
		if errors.Is(err, vm.ErrHalt) {
			break
		}
		log.Fatal("Execution failed", "error", err)
	}

	if framebuffer != "" {
		if err := writePPM(framebuffer, machine.Display()); err != nil {
			log.Fatal("Failed to write framebuffer", "error", err)
		}
		log.Info("Wrote framebuffer", "file", framebuffer)
	}
}

// writePPM dumps the display as a plain-text PPM image.
func writePPM(path string, display *vm.Display) error {
	var b strings.Builder

	fmt.Fprintf(&b, "P3\n%d %d\n255\n", display.Width(), display.Height())

	for _, pixel := range display.Framebuffer() {
		r := (pixel >> 16) & 0xFF
		g := (pixel >> 8) & 0xFF
		v := pixel & 0xFF
		fmt.Fprintf(&b, "%d %d %d\n", r, g, v)
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
