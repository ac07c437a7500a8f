package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	resolveFormat      string
	resolveThreshold   float64
	resolveConsensusKM float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [place...]",
	Short: "Resolve place names to one best location each",
	Long:  "Resolves every place given as an argument, or one per line on stdin when none are given. Places without an answer are omitted from the output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("threshold") {
			cfg.Fusion.ImportanceThreshold = resolveThreshold
		}
		if cmd.Flags().Changed("consensus-km") {
			cfg.Fusion.ConsensusKM = resolveConsensusKM
		}
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		places := args
		if len(places) == 0 {
			var err error
			if places, err = readPlaces(cmd.InOrStdin()); err != nil {
				return err
			}
		}
		if len(places) == 0 {
			return eris.New("no places given")
		}

		p, err := buildPipeline(cfg, nil)
		if err != nil {
			return err
		}

		results := p.ResolveAll(cmd.Context(), places)
		zap.L().Info("resolve: done", zap.Int("places", len(places)), zap.Int("resolved", len(results)))
		return writeOutput(cmd.OutOrStdout(), resolveFormat, results)
	},
}

// readPlaces reads one place per line, skipping blank lines.
func readPlaces(r io.Reader) ([]string, error) {
	var places []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			places = append(places, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read places")
	}
	return places, nil
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", formatJSON, "output format: json or yaml")
	resolveCmd.Flags().Float64Var(&resolveThreshold, "threshold", 0, "minimum candidate importance (default from config)")
	resolveCmd.Flags().Float64Var(&resolveConsensusKM, "consensus-km", 0, "average provider distance counted as agreement (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
