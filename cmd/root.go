package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m1227sasaki/company-enrichment/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "resolver",
	Short: "Company website resolution pipeline",
	Long:  "Resolves official company websites from bare company names: deterministic domain probing first, then external searches, cross-validated and arbitrated by domain similarity.",
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
