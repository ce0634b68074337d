package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/watchfloor/opschain/internal/analyze"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "analyze [chain-id]",
		Short: "Compute response-time statistics for a chain",
		Long: `Compute response-time statistics over a chain's timestamp-ordered
links: consecutive deltas, mean, min, max, total duration and the
average response time, rated against configurable thresholds. Links
with unparseable timestamps are excluded from the math but reported
in the link count.

With --all, print a one-line timing overview for every chain instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			if all {
				if len(args) != 0 {
					return reportInvalidArg(formatter, fmt.Errorf("--all does not take a chain-id"))
				}
				return runAnalyzeAll(rootOpts, cmd)
			}
			if len(args) != 1 {
				return reportInvalidArg(formatter, fmt.Errorf("a chain-id is required unless --all is given"))
			}
			id, err := parseID(args[0], "chain-id")
			if err != nil {
				return reportInvalidArg(formatter, err)
			}
			return runAnalyzeChain(rootOpts, cmd, id)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "analyze every chain")

	return cmd
}

func runAnalyzeChain(opts *RootOptions, cmd *cobra.Command, id int64) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	analysis, err := app.Analyzer.AnalyzeChain(cmd.Context(), id)
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(analysis, func(w io.Writer) {
		renderAnalysis(w, analysis)
	})
}

func renderAnalysis(w io.Writer, a analyze.ChainAnalysis) {
	fmt.Fprintf(w, "Chain #%d: %s\n", a.ChainID, a.Title)
	fmt.Fprintf(w, "Links: %d (%d with usable timestamps)\n", a.LinkCount, a.ResolvedCount)

	if a.InsufficientData {
		fmt.Fprintln(w, "Not enough dated records for timing analysis (need at least 2).")
		return
	}

	for _, d := range a.Deltas {
		fmt.Fprintf(w, "  %s -> %s: %.1f min\n", d.From.String(), d.To.String(), d.Minutes)
	}
	fmt.Fprintf(w, "Mean delta:    %.1f min\n", a.MeanMinutes)
	fmt.Fprintf(w, "Min delta:     %.1f min\n", a.MinMinutes)
	fmt.Fprintf(w, "Max delta:     %.1f min\n", a.MaxMinutes)
	fmt.Fprintf(w, "Duration:      %.1f min\n", a.DurationMinutes)
	fmt.Fprintf(w, "Avg response:  %.1f min\n", a.AvgResponseMinutes)
	fmt.Fprintf(w, "Rating:        %s\n", colorRating(a.Rating))
}

// colorRating tints the rating label for terminals. color respects
// NO_COLOR and non-TTY writers, so piped output stays plain.
func colorRating(rating string) string {
	switch rating {
	case "excellent", "good":
		return color.GreenString(rating)
	case "fair":
		return color.YellowString(rating)
	case "slow":
		return color.MagentaString(rating)
	case "critical":
		return color.RedString(rating)
	}
	return rating
}

func runAnalyzeAll(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	overviews, err := app.Analyzer.AnalyzeAll(cmd.Context())
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(overviews, func(w io.Writer) {
		if len(overviews) == 0 {
			fmt.Fprintln(w, "No chains.")
			return
		}
		fmt.Fprintf(w, "%-6s %-30s %-6s %-12s %s\n", "ID", "Title", "Links", "Duration", "Avg response")
		for _, o := range overviews {
			duration, avg := "N/A", "N/A"
			if o.HasTiming {
				duration = fmt.Sprintf("%.1f min", o.DurationMinutes)
				avg = fmt.Sprintf("%.1f min", o.AvgResponseMinutes)
			}
			fmt.Fprintf(w, "%-6d %-30s %-6d %-12s %s\n", o.Chain.ID, o.Chain.Title, o.LinkCount, duration, avg)
		}
	})
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var kinds []string

	cmd := &cobra.Command{
		Use:           "summary",
		Short:         "Show per-source activity statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(rootOpts, cmd, kinds)
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "restrict to the given kinds (repeatable)")

	return cmd
}

func runSummary(opts *RootOptions, cmd *cobra.Command, kinds []string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	summary, err := app.Analyzer.Summarize(cmd.Context(), kinds)
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(summary, func(w io.Writer) {
		fmt.Fprintf(w, "%-12s %-7s %-7s %-10s %s\n", "Source", "Total", "Today", "Last 7d", "Avg/day")
		for _, k := range summary.Kinds {
			avg := "N/A"
			if k.AvgPerDayKnown {
				avg = fmt.Sprintf("%.1f", k.AvgPerDay)
			}
			fmt.Fprintf(w, "%-12s %-7d %-7d %-10d %s\n", k.Label, k.Total, k.Today, k.TrailingWeek, avg)
		}
		if summary.FirstActivity != "" {
			fmt.Fprintf(w, "First activity: %s\n", summary.FirstActivity)
			fmt.Fprintf(w, "Last activity:  %s\n", summary.LastActivity)
		}
	})
}
