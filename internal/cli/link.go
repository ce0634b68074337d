package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/watchfloor/opschain/internal/ref"
)

// AttachResult is the JSON payload for `attach`.
type AttachResult struct {
	LinkID  int64   `json:"link_id"`
	ChainID int64   `json:"chain_id"`
	Ref     ref.Ref `json:"ref"`
}

// NewAttachCommand creates the attach command.
func NewAttachCommand(rootOpts *RootOptions) *cobra.Command {
	var timestamp string

	cmd := &cobra.Command{
		Use:   "attach <chain-id> <kind> <record-id>",
		Short: "Attach a log record to an event chain",
		Long: `Attach a log record reference to an event chain.

The record is identified by its kind (email, phone, radio, alert by
default) and row id. The timestamp is the record's event timestamp and
is stored with the link; records whose timestamp cannot be parsed are
still accepted and sort after dated ones.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			chainID, err := parseID(args[0], "chain-id")
			if err != nil {
				return reportInvalidArg(formatter, err)
			}
			recordID, err := parseID(args[2], "record-id")
			if err != nil {
				return reportInvalidArg(formatter, err)
			}
			return runAttach(rootOpts, cmd, chainID, args[1], recordID, timestamp)
		},
	}

	cmd.Flags().StringVarP(&timestamp, "timestamp", "t", "", "event timestamp (YYYY-MM-DD HH:MM:SS); defaults to the record's stored timestamp")

	return cmd
}

func runAttach(opts *RootOptions, cmd *cobra.Command, chainID int64, kind string, recordID int64, timestamp string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	ctx := cmd.Context()
	r := ref.Ref{Kind: kind, ID: recordID, Stamp: timestamp}

	// Fall back to the record's own timestamp when none is given. A
	// missing or dangling record leaves the stamp empty; the link is
	// stored regardless.
	if r.Stamp == "" {
		if k, ok := app.Catalog.Lookup(kind); ok {
			r.Stamp = lookupRecordStamp(ctx, app, k, recordID)
		}
	}

	linkID, err := app.Links.Attach(ctx, chainID, r)
	if err != nil {
		return reportChainError(formatter, err)
	}

	result := AttachResult{LinkID: linkID, ChainID: chainID, Ref: r}
	return formatter.SuccessText(result, func(w io.Writer) {
		fmt.Fprintf(w, "Attached %s to chain #%d (link %d)\n", r.String(), chainID, linkID)
	})
}

// lookupRecordStamp fetches the stored event timestamp for a record.
// Returns "" when the record does not exist.
func lookupRecordStamp(ctx context.Context, app *App, k ref.Kind, id int64) string {
	details, ok, err := app.Store.RecordDetails(ctx, k.Table, id)
	if err != nil || !ok {
		return ""
	}
	if ts, ok := details["timestamp"].(string); ok {
		return ts
	}
	return ""
}

// NewDetachCommand creates the detach command.
func NewDetachCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "detach <chain-id> <link-id>",
		Short:         "Remove a link from an event chain",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			chainID, err := parseID(args[0], "chain-id")
			if err != nil {
				return reportInvalidArg(formatter, err)
			}
			linkID, err := parseID(args[1], "link-id")
			if err != nil {
				return reportInvalidArg(formatter, err)
			}
			return runDetach(rootOpts, cmd, chainID, linkID)
		},
	}
}

func runDetach(opts *RootOptions, cmd *cobra.Command, chainID, linkID int64) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	if err := app.Links.Detach(cmd.Context(), chainID, linkID); err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(map[string]int64{"chain_id": chainID, "link_id": linkID}, func(w io.Writer) {
		fmt.Fprintf(w, "Detached link %d from chain #%d\n", linkID, chainID)
	})
}
