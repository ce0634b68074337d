package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/watchfloor/opschain/internal/unify"
)

// NewLogsCommand creates the logs command.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	var kinds []string
	var filter string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show a merged, timestamp-ordered view of all log sources",
		Long: `Merge records from every configured log source into a single
timestamp-ordered listing. Records with unparseable timestamps sort
after dated ones. Use --kind to restrict sources and --filter for a
case-insensitive text search over each record's display line and
summary.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(rootOpts, cmd, kinds, filter)
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "restrict to the given kinds (repeatable)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive text filter")

	return cmd
}

func runLogs(opts *RootOptions, cmd *cobra.Command, kinds []string, filter string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	formatter.VerboseLog("database: %s", app.Config.DBPath)

	entries, err := app.Merger.Merge(cmd.Context(), unify.Options{Kinds: kinds, Filter: filter})
	if err != nil {
		return reportChainError(formatter, err)
	}
	formatter.VerboseLog("merged %d record(s)", len(entries))

	return formatter.SuccessText(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No records.")
			return
		}
		for _, e := range entries {
			fmt.Fprintln(w, e.Display())
		}
	})
}
