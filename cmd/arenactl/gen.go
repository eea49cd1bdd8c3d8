package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/trace"
)

var (
	genOutput       string
	genName         string
	genSeed         int64
	genAllocs       int
	genMinSize      int
	genMaxSize      int
	genFreeRatio    float64
	genReallocRatio float64
	genWeight       int
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the trace to this file instead of stdout")
	cmd.Flags().StringVar(&genName, "name", "", "Trace name (default gen-<seed>)")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genAllocs, "allocs", 1000, "Number of alloc ops")
	cmd.Flags().IntVar(&genMinSize, "min", 1, "Smallest request in bytes")
	cmd.Flags().IntVar(&genMaxSize, "max", 4096, "Largest request in bytes")
	cmd.Flags().Float64Var(&genFreeRatio, "free-ratio", 0.4, "Chance that a step frees a live id")
	cmd.Flags().Float64Var(&genReallocRatio, "realloc-ratio", 0.1, "Chance that a step reallocs a live id")
	cmd.Flags().IntVar(&genWeight, "weight", 1, "Trace weight in the utilization average")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic trace",
		Long: `The gen command writes a random but reproducible trace. Every id is
allocated once and freed before the end, so replays finish with an empty heap.

Example:
  arenactl gen --seed 7 -o random7.rep
  arenactl gen --allocs 50000 --max 65536 --realloc-ratio 0.2 -o big.rep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	t, err := trace.Generate(trace.GenConfig{
		Name:         genName,
		Seed:         genSeed,
		Allocs:       genAllocs,
		MinSize:      genMinSize,
		MaxSize:      genMaxSize,
		FreeRatio:    genFreeRatio,
		ReallocRatio: genReallocRatio,
		Weight:       genWeight,
	})
	if err != nil {
		return err
	}

	if genOutput == "" {
		_, err := t.WriteTo(os.Stdout)
		return err
	}

	if err := t.WriteFile(genOutput); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	allocs, reallocs, frees := t.Counts()
	printInfo("Wrote %s: %d ops (%d alloc, %d realloc, %d free), suggested heap %s\n",
		genOutput, len(t.Ops), allocs, reallocs, frees, humanize.Bytes(uint64(t.HeapSize)))
	return nil
}
