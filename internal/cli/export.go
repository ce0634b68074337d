package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ExportResult is the JSON payload for `export`.
type ExportResult struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Export a log source to CSV",
		Long: `Export all records of one log source to a CSV file, header row
included. Without --out, the file is written to the working directory
under a generated report-<uuid>.csv name.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, cmd, args[0], out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path (default report-<uuid>.csv)")

	return cmd
}

func runExport(opts *RootOptions, cmd *cobra.Command, kind, out string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	k, ok := app.Catalog.Lookup(kind)
	if !ok {
		return reportInvalidArg(formatter, fmt.Errorf("unknown kind %q: known kinds are %v", kind, app.Catalog.Names()))
	}

	if out == "" {
		out = fmt.Sprintf("report-%s.csv", uuid.NewString())
		formatter.VerboseLog("no --out given, writing %s", out)
	}

	f, err := os.Create(out)
	if err != nil {
		if outErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("creating %s: %v", out, err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, err.Error())
	}

	if err := app.Store.ExportCSV(cmd.Context(), k.Table, f); err != nil {
		f.Close()
		os.Remove(out)
		if outErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("exporting %s: %v", k.Table, err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, err.Error())
	}
	if err := f.Close(); err != nil {
		if outErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("closing %s: %v", out, err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, err.Error())
	}

	result := ExportResult{Kind: k.Name, Path: out}
	return formatter.SuccessText(result, func(w io.Writer) {
		fmt.Fprintf(w, "Exported %s logs to %s\n", k.Name, out)
	})
}
