package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"DailyDigest/internal/app"
	"DailyDigest/internal/config"
	"DailyDigest/internal/domain"
	"DailyDigest/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dailydigest",
	Short: "Collect, summarize and publish the daily news and paper digest",
	Long: `dailydigest fetches the configured news sites and journals, summarizes every
item in three lines and publishes the latest page plus a dated archive page.

Without a subcommand it performs one run for today's date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			_, err := a.RunOnce(ctx)
			return err
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the digest on the configured cron expression",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Schedule(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the published pages and run history over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Serve(ctx)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of dailydigest",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dailydigest %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $DAILY_DIGEST_CONFIG)")
	rootCmd.AddCommand(scheduleCmd, serveCmd, versionCmd)
}

var logger *slog.Logger

func withApp(ctx context.Context, fn func(context.Context, *app.Application) error) error {
	cfg := config.Load(configPath)
	logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	return fn(ctx, application)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report(err)
		stop()
		os.Exit(1)
	}
}

func report(err error) {
	if logger == nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	if domain.IsSetupError(err) {
		logger.Error("setup failed, nothing was published", "error", err)
		return
	}
	logger.Error("run failed", "error", err)
}
