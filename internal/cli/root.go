// Package cli wires configuration, storage and reminders together and
// exposes them as the deadline command.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tgienger/deadline/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "deadline",
		Short: "Deadline - a personal task tracker",
		Long: `Deadline keeps a personal task list ordered by urgency.

Tasks are classified as overdue, high, medium or low from their due date,
and a reminder fires when a task comes due. Run without arguments to open
the task list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("deadline {{.Version}}\n")

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Print warnings to stderr")

	rootCmd.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newDoneCmd(opts),
		newRemoveCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(version),
	)
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deadline %s\n", version)
		},
	}
}
