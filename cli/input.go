package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// input is one named piece of source text.
type input struct {
	Name string
	Text string
}

// readInput handles the 3 modes of input:
// 1. Inline text with -c
// 2. Explicit stdin with "-", or piped input when no file is given
// 3. File input
func (a *app) readInput(args []string, command string) (input, error) {
	if command != "" {
		return input{Name: "<command>", Text: command}, nil
	}

	if len(args) == 0 || args[0] == "-" {
		if len(args) == 0 && !hasPipedInput(a.stdin) {
			return input{}, &CLIError{
				Type:    "input",
				Message: "no input",
				Hint:    "pass a file, inline text with -c, or pipe a script on stdin",
			}
		}
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return input{}, &CLIError{Type: "input", Message: "error reading stdin", Details: err.Error()}
		}
		return input{Name: "<stdin>", Text: string(data)}, nil
	}

	return a.readFile(args[0])
}

func (a *app) readFile(path string) (input, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return input{}, &CLIError{
			Type:    "input",
			Message: fmt.Sprintf("error opening file %s", path),
			Details: err.Error(),
		}
	}
	return input{Name: path, Text: string(data)}, nil
}

// hasPipedInput detects if there's data piped to stdin. Readers that are not
// files count as piped.
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	// Pipes may not report a size, so only the mode is checked.
	return (stat.Mode() & os.ModeCharDevice) == 0
}
