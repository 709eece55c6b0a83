package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pacsea/internal/history"
	"github.com/papapumpkin/pacsea/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history [package]",
	Short: "Show recorded package transactions",
	Long: `List the transactions pacsea has run, newest first. With a package
name, list only transactions that touched that package.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of transactions to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, paths, err := loadSession()
	if err != nil {
		return err
	}
	store, err := history.Open(cmd.Context(), paths.History)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	var txs []history.Transaction
	if len(args) == 1 {
		txs, err = store.ForPackage(cmd.Context(), args[0])
	} else {
		limit, _ := cmd.Flags().GetInt("limit")
		txs, err = store.Recent(cmd.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	ui.NewWriter(cmd.OutOrStdout()).History(txs)
	return nil
}
