package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/parser"
)

// checkResult is the outcome of parsing one file.
type checkResult struct {
	in   input
	tree *parser.ParseTree
	err  error
}

func newCheckCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "check file...",
		Short: "Parse files and report their diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := lo.Uniq(args)
			err := a.checkFiles(files)
			if !watch {
				return err
			}
			return a.watch(cmd.Context(), files)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-check files when they change")
	return cmd
}

// checkFiles parses every file concurrently and prints the results in
// argument order.
func (a *app) checkFiles(files []string) error {
	opts := a.parserOptions()
	results := iter.Map(files, func(path *string) checkResult {
		in, err := a.readFile(*path)
		if err != nil {
			return checkResult{in: input{Name: *path}, err: err}
		}
		return checkResult{in: in, tree: parser.Parse(in.Text, a.registry, opts...)}
	})

	failed := 0
	for _, res := range results {
		if !a.printCheck(res) {
			failed++
		}
	}
	if failed > 0 {
		a.logger.Debug("check failed", "files", len(files), "failed", failed)
		return errDiagnostics
	}
	return nil
}

// printCheck writes the diagnostics and a one-line summary for res and
// reports whether the file is clean.
func (a *app) printCheck(res checkResult) bool {
	if res.err != nil {
		FormatError(a.stderr, res.err, a.useColor)
		_, _ = fmt.Fprintf(a.stdout, "%s: %s\n", res.in.Name, Colorize("unreadable", colorError, a.useColor))
		return false
	}

	_ = a.report(res.in, res.tree)
	status := res.tree.Status()
	counts := lo.CountValuesBy(res.tree.Diagnostics, func(d diag.Diagnostic) diag.Severity { return d.Severity })

	var summary string
	switch status {
	case diag.StatusOK:
		summary = Colorize("ok", colorGood, a.useColor)
		if n := counts[diag.Warning]; n > 0 {
			summary += fmt.Sprintf(" (%d %s)", n, plural(n, "warning"))
		}
	case diag.StatusIncomplete:
		summary = Colorize("incomplete", colorWarn, a.useColor)
	default:
		n := counts[diag.Error]
		summary = Colorize(fmt.Sprintf("%d %s", n, plural(n, "error")), colorError, a.useColor)
	}
	_, _ = fmt.Fprintf(a.stdout, "%s: %s\n", res.in.Name, summary)
	return status == diag.StatusOK
}

func plural(n int, word string) string {
	return lo.Ternary(n == 1, word, word+"s")
}

// watch re-checks a file whenever it is written. Directories are watched
// rather than files so editors that replace files on save are still seen.
func (a *app) watch(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &CLIError{Type: "watch", Message: "cannot start file watcher", Details: err.Error()}
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]string, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return &CLIError{Type: "watch", Message: fmt.Sprintf("cannot resolve %s", f), Details: err.Error()}
		}
		watched[abs] = f
	}
	for _, dir := range lo.Uniq(lo.Map(lo.Keys(watched), func(p string, _ int) string { return filepath.Dir(p) })) {
		if err := watcher.Add(dir); err != nil {
			return &CLIError{Type: "watch", Message: fmt.Sprintf("cannot watch %s", dir), Details: err.Error()}
		}
	}
	_, _ = fmt.Fprintln(a.stderr, Colorize("watching for changes, interrupt to stop", colorDim, a.useColor))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name, ok := watched[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			a.logger.Debug("file changed", "file", name, "op", ev.Op.String())
			_ = a.checkFiles([]string{name})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				_ = a.checkFiles(files)
				continue
			}
			return &CLIError{Type: "watch", Message: "file watcher failed", Details: err.Error()}
		}
	}
}
