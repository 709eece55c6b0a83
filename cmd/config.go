package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pacsea/internal/config"
	"github.com/papapumpkin/pacsea/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the pacsea configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write pacsea.toml with every setting at its default value. The file
goes to the --config path when given, otherwise to the pacsea
configuration directory.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		paths, err := config.ResolvePaths(dir)
		if err != nil {
			return err
		}
		path = paths.ConfigFile
	}
	force, _ := cmd.Flags().GetBool("force")
	if err := config.WriteDefault(path, force); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.NewWriter(cmd.OutOrStdout()).ConfigWritten(path)
	return nil
}
