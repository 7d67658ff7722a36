package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/internal/processing"
)

func newDCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dc",
		Short: "Work with geopsy dispersion reports",
	}
	cmd.AddCommand(newDCBestCmd())
	return cmd
}

func newDCBestCmd() *cobra.Command {
	var nrayleigh, nlove int
	cmd := &cobra.Command{
		Use:   "best <report> <output>",
		Short: "Write the lowest-misfit dispersion sets of a report to a new file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := processing.New(cfg).WriteBestDispersion(args[0], args[1], nrayleigh, nlove); err != nil {
				return err
			}
			log.Info().Str("output", args[1]).Msg("dispersion sets written")
			return nil
		},
	}
	cmd.Flags().IntVar(&nrayleigh, "nrayleigh", swprep.All, "Rayleigh modes to keep per set, -1 for all, 0 to skip")
	cmd.Flags().IntVar(&nlove, "nlove", swprep.All, "Love modes to keep per set, -1 for all, 0 to skip")
	return cmd
}
