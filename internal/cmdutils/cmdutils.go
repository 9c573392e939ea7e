// Package cmdutils holds the shared scaffolding of the CLI commands:
// configuration loading, logger initialisation and the error boundary.
package cmdutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/config"
)

// CobraCommand wraps a business function with config loading and
// logger setup so the individual commands only contain their own
// logic. Flags are registered by the caller on the returned command.
func CobraCommand(
	use, short, long string,
	businessFunc func(context.Context, *config.Config, []string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			err = InitLogger(cfg)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to initialise the logger")
			}

			slogctx.Debug(cmd.Context(), "Starting the command", slog.String("command", use))

			err = businessFunc(cmd.Context(), cfg, args)
			if err != nil {
				return oops.In(use).Wrap(err)
			}

			return nil
		},
	}
}

// InitLogger installs the process-wide slog default according to the
// logger section of the configuration.
func InitLogger(cfg *config.Config) error {
	level, err := parseLevel(cfg.Logger.Level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Logger.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown logger format %q", cfg.Logger.Format)
	}

	slog.SetDefault(slog.New(slogctx.NewHandler(handler, nil)))

	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown logger level %q", level)
	}
}
