package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexgraph/chainbench/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chainbench",
	Short: "Legal reasoning chain evaluation harness",
	Long:  "Runs a seven-step legal reasoning chain over Supreme Court citation pairs, scores each step against the source tables, and reports chain-level metrics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
