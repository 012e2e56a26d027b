package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorWarn  = color.New(color.FgYellow, color.Bold)
	colorGood  = color.New(color.FgGreen)
	colorDim   = color.New(color.FgHiBlack)
)

// Colorize paints text with c when color is enabled.
func Colorize(text string, c *color.Color, useColor bool) string {
	if !useColor {
		return text
	}
	painted := *c
	painted.EnableColor()
	return painted.Sprint(text)
}

// ShouldUseColor determines if color output should be used.
// Respects --no-color flag and NO_COLOR environment variable
func ShouldUseColor(noColorFlag bool, w io.Writer) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
