package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/alloc"
)

var classesName string

func init() {
	cmd := newClassesCmd()
	cmd.Flags().StringVar(&classesName, "classes", "classic", "Size class ladder (classic, fine, coarse)")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Show the block sizes each free list holds",
		Long: `The classes command prints the size class ladder of a configuration:
the range of block sizes (header and footer included) kept on each free list.

Example:
  arenactl classes
  arenactl classes --classes fine --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
	return cmd
}

type classRow struct {
	Index int `json:"index"`
	Min   int `json:"min"`
	Max   int `json:"max"` // -1 for the catch-all
}

func runClasses() error {
	config, ok := alloc.LookupConfig(classesName)
	if !ok {
		return fmt.Errorf("unknown size classes: %s (must be classic, fine, or coarse)", classesName)
	}
	ranges, err := config.Ranges()
	if err != nil {
		return err
	}

	if jsonOut {
		rows := make([]classRow, len(ranges))
		for i, r := range ranges {
			rows[i] = classRow{Index: r.Index, Min: r.Min, Max: r.Max}
		}
		return printJSON(map[string]interface{}{
			"name":    config.Name,
			"lists":   len(ranges),
			"classes": rows,
		})
	}

	printInfo("%s: %d free lists\n\n", config.Name, len(ranges))
	if quiet {
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "class\tblock sizes")
	for _, r := range ranges {
		if r.Max < 0 {
			fmt.Fprintf(tw, "%d\t%d and up\n", r.Index, r.Min)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d - %d\n", r.Index, r.Min, r.Max)
	}
	return tw.Flush()
}
