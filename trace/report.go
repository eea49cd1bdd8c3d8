package trace

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// utilWeight is the utilization share of the performance index; the
	// rest goes to throughput.
	utilWeight = 0.6

	// targetKOps is the throughput (Kops/s) that earns the full
	// throughput share of the performance index.
	targetKOps = 600.0
)

// Summary aggregates a set of results.
type Summary struct {
	Traces      int           `json:"traces"`
	Failed      int           `json:"failed"`
	Ops         int           `json:"ops"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Utilization float64       `json:"utilization"` // weighted mean over passing traces
	KOpsPerSec  float64       `json:"kops_per_sec"`
	PerfIndex   float64       `json:"perf_index"` // 0..100
}

// Summarize computes the weighted average utilization, the aggregate
// throughput and the performance index over the passing traces:
//
//	index = 100 * (0.6*util + 0.4*min(1, kops/600))
//
// Any failed trace zeroes the index.
func Summarize(results []Result) Summary {
	s := Summary{Traces: len(results)}
	weight := 0
	utilSum := 0.0

	for _, r := range results {
		if !r.OK() {
			s.Failed++
			continue
		}
		s.Ops += r.Ops
		s.Elapsed += r.Elapsed
		utilSum += r.Utilization * float64(r.Weight)
		weight += r.Weight
	}

	if weight > 0 {
		s.Utilization = utilSum / float64(weight)
	}
	if s.Elapsed > 0 {
		s.KOpsPerSec = float64(s.Ops) / s.Elapsed.Seconds() / 1000
	}
	if s.Failed == 0 && s.Traces > 0 {
		s.PerfIndex = 100 * (utilWeight*s.Utilization + (1-utilWeight)*min(1, s.KOpsPerSec/targetKOps))
	}
	return s
}

// WriteReport prints one row per trace and a total row.
//
//	trace      valid  util   ops      secs      Kops/s  arena    peak
//	short1.rep yes    84.2%  12,000   0.000410  29268   32 kB    27 kB
func WriteReport(w io.Writer, results []Result) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "trace\tvalid\tutil\tops\tsecs\tKops/s\tarena\tpeak")
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(tw, "%s\tno\t-\t-\t-\t-\t-\t-\n", r.Trace)
			continue
		}
		fmt.Fprintf(tw, "%s\tyes\t%.1f%%\t%s\t%.6f\t%s\t%s\t%s\n",
			r.Trace,
			r.Utilization*100,
			p.Sprintf("%d", r.Ops),
			r.Elapsed.Seconds(),
			p.Sprintf("%.0f", r.KOpsPerSec()),
			humanize.Bytes(uint64(r.ArenaBytes)),
			humanize.Bytes(uint64(r.PeakLive)),
		)
	}

	s := Summarize(results)
	fmt.Fprintf(tw, "Total\t%d/%d\t%.1f%%\t%s\t%.6f\t%s\t\t\n",
		s.Traces-s.Failed, s.Traces,
		s.Utilization*100,
		p.Sprintf("%d", s.Ops),
		s.Elapsed.Seconds(),
		p.Sprintf("%.0f", s.KOpsPerSec),
	)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n", s)
	return err
}

// String returns the one-line verdict printed under a report.
func (s Summary) String() string {
	if s.Failed > 0 {
		return fmt.Sprintf("%d trace(s) failed, perf index = 0/100", s.Failed)
	}
	utilPart := 100 * utilWeight * s.Utilization
	return fmt.Sprintf("Perf index = %.0f (util) + %.0f (thru) = %.0f/100",
		utilPart, s.PerfIndex-utilPart, s.PerfIndex)
}
