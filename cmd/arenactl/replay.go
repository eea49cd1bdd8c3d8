package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/trace"
)

var (
	replayAllocator string
	replayClasses   string
	replayArena     string
	replayMaxHeap   string
	replayCheck     bool
	replayChecked   bool
	replayWorkers   int
	replayTiming    bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().StringVar(&replayAllocator, "allocator", "tag", "Allocator to replay against (tag, naive)")
	cmd.Flags().StringVar(&replayClasses, "classes", "classic", "Size class ladder (classic, fine, coarse)")
	cmd.Flags().StringVar(&replayArena, "arena", "mem", "Arena backing (mem, mmap)")
	cmd.Flags().StringVar(&replayMaxHeap, "max-heap", "", "Arena capacity, e.g. 20MB (default 20 MiB)")
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Run the heap checker after every op")
	cmd.Flags().BoolVar(&replayChecked, "checked", false, "Verify block tags on every reserve and release (panics on corruption)")
	cmd.Flags().IntVarP(&replayWorkers, "workers", "j", 0, "Traces replayed in parallel (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&replayTiming, "timing", false, "Time a second unvalidated pass per trace")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace|dir>...",
		Short: "Replay traces and score the allocator",
		Long: `The replay command runs every trace against a fresh allocator,
validates each block it returns and prints utilization, throughput and the
overall performance index. Directories are expanded to their *.rep files.

Example:
  arenactl replay traces/
  arenactl replay short1.rep short2.rep --check --checked
  arenactl replay traces/ --allocator naive --json
  arenactl replay traces/ --arena mmap --max-heap 64MB --timing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// replayReport is the JSON shape of a replay run.
type replayReport struct {
	Allocator string         `json:"allocator"`
	Classes   string         `json:"classes,omitempty"`
	Arena     string         `json:"arena"`
	Results   []trace.Result `json:"results"`
	Summary   trace.Summary  `json:"summary"`
}

func runReplay(args []string) error {
	factory, err := replayFactory()
	if err != nil {
		return err
	}

	paths, err := expandTraces(args)
	if err != nil {
		return err
	}
	traces := make([]*trace.Trace, 0, len(paths))
	for _, path := range paths {
		printVerbose("Loading trace: %s\n", path)
		t, err := trace.ParseFile(path)
		if err != nil {
			return err
		}
		traces = append(traces, t)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := trace.Run(ctx, traces, factory, trace.RunOptions{
		Workers: replayWorkers,
		Check:   replayCheck,
		Timing:  replayTiming,
	})
	if err != nil {
		return err
	}
	summary := trace.Summarize(results)

	switch {
	case jsonOut:
		report := replayReport{
			Allocator: replayAllocator,
			Arena:     replayArena,
			Results:   results,
			Summary:   summary,
		}
		if replayAllocator != "naive" {
			report.Classes = replayClasses
		}
		if err := printJSON(report); err != nil {
			return err
		}
	case quiet:
	case noColor:
		if err := trace.WriteReport(os.Stdout, results); err != nil {
			return err
		}
	default:
		fmt.Fprintln(os.Stdout, renderResults(results, summary))
	}

	if summary.Failed > 0 {
		if !jsonOut {
			for _, r := range results {
				if !r.OK() {
					printError("%s\n", r.Error)
				}
			}
		}
		return fmt.Errorf("%d of %d traces failed", summary.Failed, summary.Traces)
	}
	return nil
}

func replayFactory() (trace.Factory, error) {
	classes, ok := alloc.LookupConfig(replayClasses)
	if !ok {
		return nil, fmt.Errorf("unknown size classes: %s (must be classic, fine, or coarse)", replayClasses)
	}

	var maxHeap uint64
	if replayMaxHeap != "" {
		n, err := humanize.ParseBytes(replayMaxHeap)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-heap: %w", err)
		}
		if n > math.MaxInt {
			return nil, fmt.Errorf("invalid --max-heap: %s exceeds %d bytes", replayMaxHeap, math.MaxInt)
		}
		maxHeap = n
	}

	return trace.NewFactory(trace.FactoryConfig{
		Allocator:   replayAllocator,
		Arena:       trace.ArenaKind(replayArena),
		MaxHeap:     int(maxHeap),
		SizeClasses: &classes,
		Checked:     replayChecked,
	})
}

// expandTraces replaces every directory argument with its sorted *.rep
// files.
func expandTraces(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.rep"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no .rep files in %s", arg)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}
