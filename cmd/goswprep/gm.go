package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/internal/processing"
)

func newGMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gm",
		Short: "Work with geopsy ground-model reports",
	}
	cmd.AddCommand(newGMSummarizeCmd(), newGMBestCmd(), newGMSigmaLnCmd())
	return cmd
}

func newGMSigmaLnCmd() *cobra.Command {
	var (
		dmax, dy  float64
		parameter string
	)
	cmd := &cobra.Command{
		Use:   "sigmaln <report>",
		Short: "Report the per-depth log-normal standard deviation of a parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			summary, err := processing.New(cfg).SigmaLnGroundModels(args[0], dmax, dy, swprep.Param(parameter))
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().Float64Var(&dmax, "dmax", 50, "maximum depth of the uniform grid in meters")
	cmd.Flags().Float64Var(&dy, "dy", 0.5, "grid spacing in meters")
	cmd.Flags().StringVar(&parameter, "parameter", string(swprep.ParamVs), "ground-model parameter (vp, vs, or rh)")
	return cmd
}

func newGMSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <report>",
		Short: "Report misfit range and Vs30 statistics of a ground-model report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			summary, err := processing.New(cfg).SummarizeGroundModels(args[0])
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func newGMBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best <report> <output>",
		Short: "Write the lowest-misfit models of a report to a new file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := processing.New(cfg).WriteBestGroundModels(args[0], args[1]); err != nil {
				return err
			}
			log.Info().Str("output", args[1]).Msg("ground models written")
			return nil
		},
	}
}
