package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geofusion/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geofusion",
	Short: "Multi-provider geocoding fusion",
	Long:  "Queries OpenCage, Nominatim and LocationIQ for a place name, normalizes their answers, enriches them with Wikidata aliases and fuses them into one best location.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
