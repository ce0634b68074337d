package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/watchfloor/opschain/internal/chain"
)

// ChainDetail is the JSON payload for `chain show`.
type ChainDetail struct {
	Chain chain.Chain  `json:"chain"`
	Links []chain.Link `json:"links"`
}

// NewChainCommand creates the chain command group.
func NewChainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Manage event chains",
		Long:  `Create, list, inspect and rename event chains.`,
	}

	cmd.AddCommand(newChainCreateCommand(rootOpts))
	cmd.AddCommand(newChainListCommand(rootOpts))
	cmd.AddCommand(newChainShowCommand(rootOpts))
	cmd.AddCommand(newChainRenameCommand(rootOpts))

	return cmd
}

func newChainCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "create <title>",
		Short:         "Create a new event chain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChainCreate(rootOpts, cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "chain description")

	return cmd
}

func runChainCreate(opts *RootOptions, cmd *cobra.Command, title, description string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	ch, err := app.Chains.Create(cmd.Context(), title, description)
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(ch, func(w io.Writer) {
		fmt.Fprintf(w, "Created chain #%d: %s\n", ch.ID, ch.Title)
	})
}

func newChainListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List event chains, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChainList(rootOpts, cmd)
		},
	}
}

func runChainList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	chains, err := app.Chains.List(cmd.Context())
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(chains, func(w io.Writer) {
		if len(chains) == 0 {
			fmt.Fprintln(w, "No chains.")
			return
		}
		for _, ch := range chains {
			fmt.Fprintf(w, "#%-5d %-30s %s\n", ch.ID, ch.Title, ch.CreatedAt)
		}
	})
}

func newChainShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <chain-id>",
		Short:         "Show a chain and its links in timestamp order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "chain-id")
			if err != nil {
				return reportInvalidArg(newFormatter(rootOpts, cmd), err)
			}
			return runChainShow(rootOpts, cmd, id)
		},
	}
}

func runChainShow(opts *RootOptions, cmd *cobra.Command, id int64) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	ch, err := app.Chains.Get(cmd.Context(), id)
	if err != nil {
		return reportChainError(formatter, err)
	}
	links, err := app.Links.List(cmd.Context(), id)
	if err != nil {
		return reportChainError(formatter, err)
	}

	detail := ChainDetail{Chain: ch, Links: links}
	return formatter.SuccessText(detail, func(w io.Writer) {
		fmt.Fprintf(w, "Chain #%d: %s\n", ch.ID, ch.Title)
		if ch.Description != "" {
			fmt.Fprintf(w, "  %s\n", ch.Description)
		}
		fmt.Fprintf(w, "Created: %s\n", ch.CreatedAt)
		if len(links) == 0 {
			fmt.Fprintln(w, "No linked records.")
			return
		}
		fmt.Fprintf(w, "Links (%d):\n", len(links))
		for _, ln := range links {
			stamp := ln.Ref.Stamp
			if ln.Malformed {
				if stamp == "" {
					stamp = "(no timestamp)"
				} else {
					stamp = stamp + " (unparseable)"
				}
			}
			fmt.Fprintf(w, "  [%d] %-12s %s\n", ln.ID, ln.Ref.String(), stamp)
		}
	})
}

func newChainRenameCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "rename <chain-id> <title>",
		Short:         "Rename a chain and update its description",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "chain-id")
			if err != nil {
				return reportInvalidArg(newFormatter(rootOpts, cmd), err)
			}
			return runChainRename(rootOpts, cmd, id, args[1], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "new chain description")

	return cmd
}

func runChainRename(opts *RootOptions, cmd *cobra.Command, id int64, title, description string) error {
	formatter := newFormatter(opts, cmd)

	app, err := openApp(opts)
	if err != nil {
		return reportOpenError(formatter, err)
	}
	defer app.Close()

	if err := app.Chains.Rename(cmd.Context(), id, title, description); err != nil {
		return reportChainError(formatter, err)
	}

	ch, err := app.Chains.Get(cmd.Context(), id)
	if err != nil {
		return reportChainError(formatter, err)
	}

	return formatter.SuccessText(ch, func(w io.Writer) {
		fmt.Fprintf(w, "Renamed chain #%d to %s\n", ch.ID, ch.Title)
	})
}

// parseID parses a positive integer command argument.
func parseID(arg, name string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, arg)
	}
	return id, nil
}

// reportOpenError reports a config/store startup failure.
func reportOpenError(formatter *OutputFormatter, err error) error {
	if outErr := formatter.Error(ErrCodeStore, err.Error(), nil); outErr != nil {
		return outErr
	}
	return NewExitError(ExitCommandError, err.Error())
}

// reportInvalidArg reports a bad command argument.
func reportInvalidArg(formatter *OutputFormatter, err error) error {
	if outErr := formatter.Error(ErrCodeInvalidArg, err.Error(), nil); outErr != nil {
		return outErr
	}
	return NewExitError(ExitCommandError, err.Error())
}
