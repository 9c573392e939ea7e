package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Back Office Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println(BuildInfo)
		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backoffice",
		Short: "Back Office",
		Long:  "Storefront back-office client managing sessions, catalog, sales and billing.",
	}

	cmd.AddCommand(
		versionCmd,
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		registerCmd(),
		plansCmd(),
		listCmd(),
		getCmd(),
		createCmd(),
		updateCmd(),
		deleteCmd(),
		settingsCmd(),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Error(ctx, "command failed", "error", err)
		return err
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
