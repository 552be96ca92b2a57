package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/deadlineguard/internal/mcpserver"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/app"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the project reports as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, _, err := app.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only.
			logger, err := app.NewLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			loc, err := cfg.Monitor.Location()
			if err != nil {
				return err
			}

			client := tracker.NewClient(cmd.Context(), cfg.Tracker, logger)
			tools := mcpserver.NewTools(client, loc, logger)
			return mcpserver.Serve(mcpserver.New(tools, version))
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
