package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
)

// RecordResult is the JSON payload for the `log` subcommands.
type RecordResult struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// NewLogCommand creates the log command group for recording new entries.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a new log entry",
		Long:  `Record a new email, phone, radio or alert log entry.`,
	}

	cmd.AddCommand(newLogEmailCommand(rootOpts))
	cmd.AddCommand(newLogPhoneCommand(rootOpts))
	cmd.AddCommand(newLogRadioCommand(rootOpts))
	cmd.AddCommand(newLogAlertCommand(rootOpts))

	return cmd
}

func newLogEmailCommand(rootOpts *RootOptions) *cobra.Command {
	var rec store.EmailLog

	cmd := &cobra.Command{
		Use:           "email",
		Short:         "Record an email log entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(rootOpts, cmd, "email", func(app *App) (int64, error) {
				return app.Store.InsertEmailLog(cmd.Context(), rec)
			})
		},
	}

	cmd.Flags().StringVar(&rec.LogType, "type", "", "email log type")
	cmd.Flags().StringVar(&rec.Sender, "sender", "", "sender address")
	cmd.Flags().StringVar(&rec.Recipient, "recipient", "", "recipient address")
	cmd.Flags().StringVar(&rec.Subject, "subject", "", "subject line")
	cmd.Flags().StringVarP(&rec.Stamp, "timestamp", "t", "", "event timestamp (YYYY-MM-DD HH:MM:SS)")
	cmd.Flags().StringVar(&rec.MsgPath, "msg-path", "", "path to the saved message file")

	return cmd
}

func newLogPhoneCommand(rootOpts *RootOptions) *cobra.Command {
	var rec store.PhoneLog

	cmd := &cobra.Command{
		Use:           "phone",
		Short:         "Record a phone-call log entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(rootOpts, cmd, "phone", func(app *App) (int64, error) {
				return app.Store.InsertPhoneLog(cmd.Context(), rec)
			})
		},
	}

	cmd.Flags().StringVar(&rec.CallType, "call-type", "", "call type")
	cmd.Flags().StringVar(&rec.CallerName, "caller", "", "caller name")
	cmd.Flags().StringVar(&rec.SiteCode, "site", "", "site code")
	cmd.Flags().StringVar(&rec.TicketNumber, "ticket", "", "ticket number")
	cmd.Flags().StringVar(&rec.Address, "address", "", "site address")
	cmd.Flags().StringVar(&rec.AlarmType, "alarm-type", "", "alarm type")
	cmd.Flags().StringVar(&rec.IssueType, "issue-type", "", "issue type")
	cmd.Flags().StringVar(&rec.IssueSubtype, "issue-subtype", "", "issue subtype")
	cmd.Flags().StringVar(&rec.Message, "message", "", "free-form message")
	cmd.Flags().StringVarP(&rec.Stamp, "timestamp", "t", "", "event timestamp (YYYY-MM-DD HH:MM:SS)")

	return cmd
}

func newLogRadioCommand(rootOpts *RootOptions) *cobra.Command {
	var rec store.RadioLog

	cmd := &cobra.Command{
		Use:           "radio",
		Short:         "Record a radio-dispatch log entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(rootOpts, cmd, "radio", func(app *App) (int64, error) {
				return app.Store.InsertRadioLog(cmd.Context(), rec)
			})
		},
	}

	cmd.Flags().StringVar(&rec.Unit, "unit", "", "responding unit")
	cmd.Flags().StringVar(&rec.Location, "location", "", "dispatch location")
	cmd.Flags().StringVar(&rec.Reason, "reason", "", "dispatch reason")
	cmd.Flags().BoolVar(&rec.Arrived, "arrived", false, "unit arrived on scene")
	cmd.Flags().BoolVar(&rec.Departed, "departed", false, "unit departed the scene")
	cmd.Flags().StringVarP(&rec.Stamp, "timestamp", "t", "", "event timestamp (YYYY-MM-DD HH:MM:SS)")

	return cmd
}

func newLogAlertCommand(rootOpts *RootOptions) *cobra.Command {
	var rec store.EverbridgeLog

	cmd := &cobra.Command{
		Use:           "alert",
		Short:         "Record a mass-notification log entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(rootOpts, cmd, "alert", func(app *App) (int64, error) {
				return app.Store.InsertEverbridgeLog(cmd.Context(), rec)
			})
		},
	}

	cmd.Flags().StringVar(&rec.SiteCode, "site", "", "site code")
	cmd.Flags().StringVar(&rec.Message, "message", "", "notification message")
	cmd.Flags().StringVarP(&rec.Stamp, "timestamp", "t", "", "event timestamp (YYYY-MM-DD HH:MM:SS)")

	return cmd
}

// runRecord validates the timestamp, runs the insert and reports the new id.
// An empty timestamp is allowed; a non-empty one must parse so that freshly
// recorded entries sort correctly in chains and merged views.
func runRecord(opts *RootOptions, cmd *cobra.Command, kind string, insert func(app *App) (int64, error)) error {
	formatter := newFormatter(opts, cmd)

	stamp, _ := cmd.Flags().GetString("timestamp")
	if stamp != "" {
		if _, err := ref.ParseStamp(stamp); err != nil {
			return reportInvalidArg(formatter, fmt.Errorf("invalid --timestamp %q: want %s", stamp, ref.StampLayout))
		}
	}

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	id, err := insert(app)
	if err != nil {
		return reportChainError(formatter, err)
	}

	result := RecordResult{Kind: kind, ID: id}
	return formatter.SuccessText(result, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded %s log #%d\n", kind, id)
	})
}
