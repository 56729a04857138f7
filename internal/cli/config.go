package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"advpal/internal/config"
)

// newConfigCommand groups commands that manage the config file itself. They
// replace the root pre-run hook, so no store is opened.
func newConfigCommand(app *App) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the advpal config file",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ = cmd.Flags().GetString("config")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write the default settings to the user config file, or to the file
named by --config. An existing file is left untouched.

Example:
  advpal config init
  advpal --config ./advpal.yaml config init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefaultFile(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})

	return cmd
}
