// Command welesctl performs operator tasks against a weles workspace and
// database: manifest inspection, environment provisioning, and user setup.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "welesctl",
		Short:             "Operate a weles model registry workspace",
		SilenceUsage:      true,
		RunE:              func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(
		newManifestCmd(),
		newEnvCmd(),
		newUsersCmd(),
	)
	return cmd
}
