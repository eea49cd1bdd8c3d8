package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/arenakit/trace"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	failStyle    = cellStyle.Foreground(lipgloss.Color("9"))
	totalStyle   = cellStyle.Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	verdictStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

// renderResults draws the replay results as a bordered table followed by
// the summary verdict.
func renderResults(results []trace.Result, s trace.Summary) string {
	p := message.NewPrinter(language.English)

	rows := make([][]string, 0, len(results)+1)
	for _, r := range results {
		if !r.OK() {
			rows = append(rows, []string{r.Trace, "no", "-", "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			r.Trace,
			"yes",
			fmt.Sprintf("%.1f%%", r.Utilization*100),
			p.Sprintf("%d", r.Ops),
			fmt.Sprintf("%.6f", r.Elapsed.Seconds()),
			p.Sprintf("%.0f", r.KOpsPerSec()),
			humanize.Bytes(uint64(r.ArenaBytes)),
			humanize.Bytes(uint64(r.PeakLive)),
		})
	}
	rows = append(rows, []string{
		"Total",
		fmt.Sprintf("%d/%d", s.Traces-s.Failed, s.Traces),
		fmt.Sprintf("%.1f%%", s.Utilization*100),
		p.Sprintf("%d", s.Ops),
		fmt.Sprintf("%.6f", s.Elapsed.Seconds()),
		p.Sprintf("%.0f", s.KOpsPerSec),
		"",
		"",
	})
	totalRow := len(rows) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("trace", "valid", "util", "ops", "secs", "Kops/s", "arena", "peak").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == totalRow:
				return totalStyle
			case !results[row].OK():
				return failStyle
			default:
				return cellStyle
			}
		})

	verdict := verdictStyle.Render(s.String())
	if s.Failed > 0 {
		verdict = verdictStyle.Foreground(lipgloss.Color("9")).Render(s.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, t.Render(), verdict)
}
