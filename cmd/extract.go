package main

import (
	"github.com/spf13/cobra"
)

var extractFormat string

var extractCmd = &cobra.Command{
	Use:   "extract <place>",
	Short: "Print the canonical candidates of every provider for a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}
		p, err := buildPipeline(cfg, nil)
		if err != nil {
			return err
		}

		_, ex := p.Extract(cmd.Context(), args[0])
		return writeOutput(cmd.OutOrStdout(), extractFormat, ex)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", formatJSON, "output format: json or yaml")
	rootCmd.AddCommand(extractCmd)
}
