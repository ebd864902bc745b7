// Package color provides ANSI styling for compiler and machine
// output. Colour is disabled automatically for dumb terminals and
// when NO_COLOR is set.
package color

import (
	"fmt"
	"os"
)

const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"

	BrightRed   = "\033[91m"
	BrightGreen = "\033[92m"
)

var colorEnabled = true

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal() {
		colorEnabled = false
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func EnableColor(enable bool) {
	colorEnabled = enable
}

func IsColorEnabled() bool {
	return colorEnabled
}

func Colorize(color, text string) string {
	if !colorEnabled {
		return text
	}
	return color + text + Reset
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	return Colorize(Bold, text)
}

// Stage renders a compilation stage banner, e.g. "=== Analysis ===".
func Stage(name string) string {
	return BrightRedText(fmt.Sprintf("=== %s ===", name))
}

// Listing renders one line of a program listing with its slot index
// and, when showScope is set, the scope the slot was emitted in.
func Listing(index int, instruction string, scope int, showScope bool) string {
	slot := CyanText(fmt.Sprintf("%4d", index))

	if showScope {
		return fmt.Sprintf("%s %s %s", slot, GrayText(fmt.Sprintf("(%d)", scope)), instruction)
	}

	return fmt.Sprintf("%s %s", slot, instruction)
}
