package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/logging"
	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/ui"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the official package index",
}

var indexUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the official package index from pacman",
	Long: `List every configured official repository with pacman -Sl and save
the merged index. Descriptions already in the index are kept.`,
	Args: cobra.NoArgs,
	RunE: runIndexUpdate,
}

func init() {
	indexUpdateCmd.Flags().StringSlice("repo", nil, "repositories to list (default: all known)")
	indexCmd.AddCommand(indexUpdateCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexUpdate(cmd *cobra.Command, _ []string) error {
	cfg, paths, err := loadSession()
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Path: paths.Log, Verbose: cfg.Verbose})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	repos, _ := cmd.Flags().GetStringSlice("repo")
	if len(repos) == 0 {
		repos = index.AllRepos()
	}

	x := index.New(paths.OfficialIndex, pacman.NewClient(pacman.ExecRunner{}), logger)
	if err := x.Load(); err != nil {
		logger.Warn("official index unreadable, rebuilding", "err", err)
	}
	start := time.Now()
	if _, err := x.Update(cmd.Context(), repos); err != nil {
		return fmt.Errorf("failed to update index: %w", err)
	}
	ui.NewWriter(cmd.OutOrStdout()).IndexUpdated(x.Len(), repos, paths.OfficialIndex, time.Since(start))
	return nil
}
