package main

import (
	"github.com/spf13/cobra"
)

var rawCmd = &cobra.Command{
	Use:   "raw <place>",
	Short: "Print every provider's raw response for a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}
		p, err := buildPipeline(cfg, nil)
		if err != nil {
			return err
		}

		out, err := p.Search(cmd.Context(), args[0]).JSON()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(out, '\n'))
		return err
	},
}

func init() {
	rootCmd.AddCommand(rawCmd)
}
