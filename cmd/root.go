package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/pacsea/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pacsea",
	Short: "Fast package browser for Arch Linux",
	Long: `Pacsea searches the official repositories and the AUR as you type,
shows package details, previews what a transaction will change and runs
it in an embedded terminal.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute runs the root command and exits 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pacsea:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/pacsea/pacsea.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().Bool("dry-run", false, "print commands instead of running them")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pacsea")
		viper.SetConfigType("toml")
		if dir, err := config.Dir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

// loadSession loads the configuration and resolves the state directory.
func loadSession() (config.Config, config.Paths, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, config.Paths{}, fmt.Errorf("failed to load config: %w", err)
	}
	dir, err := config.Dir()
	if err != nil {
		return config.Config{}, config.Paths{}, err
	}
	paths, err := config.ResolvePaths(dir)
	if err != nil {
		return config.Config{}, config.Paths{}, err
	}
	if cfg.LogFile != "" {
		paths.Log = cfg.LogFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		paths.ConfigFile = filepath.Clean(used)
	}
	return cfg, paths, nil
}

func isStderrTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
