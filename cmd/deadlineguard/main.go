// Package main is the entry point for the deadlineguard CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/deadlineguard/internal/config"
	"github.com/flemzord/deadlineguard/internal/report"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/app"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deadlineguard",
		Short:         "Watches Zoho Projects deadlines and alerts Cliq channels before SLAs slip",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), reportCmd(), initCmd(), serviceCmd(), mcpCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deadlineguard %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the monitor, bot endpoint and admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return app.Run(cmd.Context(), app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration OK")
			fmt.Fprintf(out, "  project:   %s (portal %s)\n", cfg.Tracker.ProjectName, cfg.Tracker.PortalID)
			fmt.Fprintf(out, "  interval:  %s, timezone %s, auto start %t\n", cfg.Monitor.Interval, cfg.Monitor.Timezone, cfg.Monitor.AutoStart)
			fmt.Fprintf(out, "  gateway:   %s (admin api %t)\n", cfg.Gateway.Bind, cfg.Gateway.Auth.IsConfigured())
			fmt.Fprintf(out, "  telemetry: metrics %t, tracing %t\n", cfg.Telemetry.Metrics, cfg.Telemetry.Tracing.Enabled())
			return nil
		},
	})
	return cmd
}

// reportCmd prints one of the chat reports as markdown.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "report health|critical|open",
		Short:     "Print a project report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"health", "critical", "open"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, _, err := app.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			loc, err := cfg.Monitor.Location()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Tracker.Timeout)
			defer cancel()
			client := tracker.NewClient(cmd.Context(), cfg.Tracker, logger)
			tasks, err := client.FetchTasks(ctx)
			if err != nil {
				return err
			}

			today := tracker.Today(time.Now(), loc)
			var p message.Payload
			switch args[0] {
			case "health":
				p = report.Health(client.ProjectName(), tasks, today)
			case "critical":
				p = report.Critical(tasks, today)
			case "open":
				p = report.Open(tasks, today)
			default:
				return fmt.Errorf("unknown report %q (want health, critical or open)", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Markdown())
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
