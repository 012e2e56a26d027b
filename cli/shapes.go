package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/nuparse/runtime/parser"
	"github.com/aledsdavies/nuparse/runtime/shapes"
)

func newShapesCmd(a *app) *cobra.Command {
	var (
		command   string
		highlight bool
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "shapes [file]",
		Short: "Print the syntax-highlighting shape of every token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(args, command)
			if err != nil {
				return err
			}
			tree := parser.Parse(in.Text, a.registry, a.parserOptions()...)
			list := shapes.Compute(tree)

			if highlight {
				_, err := fmt.Fprintln(a.stdout, shapes.Highlight(in.Text, list, shapes.DefaultPalette()))
				return err
			}
			return writeShapes(a.stdout, in.Text, list, all)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "Classify this text instead of a file")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "Print the input colored by shape")
	cmd.Flags().BoolVar(&all, "all", false, "Include whitespace and comments")
	return cmd
}

func writeShapes(w io.Writer, src string, list []shapes.Shape, all bool) error {
	for _, s := range list {
		if !all && (s.Kind == shapes.Whitespace || s.Kind == shapes.Comment) {
			continue
		}
		line := runewidth.FillRight(s.Span.String(), 10) + " " +
			runewidth.FillRight(s.Kind.String(), 17) + " " +
			strconv.Quote(s.Span.Slice(src))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
