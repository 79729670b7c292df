package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/signalscope/pkg/scope"
)

func tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the scope transition table",
		Long: `Print what starting a scope does for every combination of the
currently active scope's usage mode and the new scope's usage mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTable(cmd.OutOrStdout())
		},
	}
}

func writeTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVE\tSTARTING\tACTION")

	for _, next := range scope.Modes() {
		fmt.Fprintf(tw, "(none)\t%s\t%s\n", next, scope.Transition(false, 0, next))
	}
	for _, prev := range scope.Modes() {
		for _, next := range scope.Modes() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", prev, next, scope.Transition(true, prev, next))
		}
	}
	return tw.Flush()
}
