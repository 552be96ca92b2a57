package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flemzord/deadlineguard/internal/config"
	"github.com/flemzord/deadlineguard/internal/wizard"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if output == "" {
				output = defaultConfigPath()
			}

			answers := wizard.Defaults()
			if err := wizard.Form(&answers).Run(); err != nil {
				return err
			}
			if err := wizard.Write(output, answers, force); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), wizard.Summary(output, answers))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the configuration (default: user config dir)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	return cmd
}

// defaultConfigPath is the first location config.Find searches.
func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deadlineguard", config.FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.FileName
	}
	return filepath.Join(home, ".config", "deadlineguard", config.FileName)
}
