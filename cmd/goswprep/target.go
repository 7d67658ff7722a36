package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/internal/processing"
)

func newTargetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Work with Dinver .target containers",
	}
	cmd.AddCommand(newTargetPackCmd(), newTargetUnpackCmd())
	return cmd
}

func newTargetPackCmd() *cobra.Command {
	var (
		rsMin, rsMax float64
		rsN          int
		sampling     string
		domain       string
	)
	cmd := &cobra.Command{
		Use:   "pack <input.csv> <prefix>",
		Short: "Build <prefix>.target from CSV dispersion data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var rs *processing.ResampleOptions
			if rsN > 0 {
				rs = &processing.ResampleOptions{
					Min:      rsMin,
					Max:      rsMax,
					N:        rsN,
					Sampling: swprep.Sampling(sampling),
					Domain:   swprep.Domain(domain),
				}
			}
			if err := processing.New(cfg).PackTarget(args[0], args[1], rs); err != nil {
				return err
			}
			log.Info().Str("output", args[1]+".target").Msg("target container written")
			return nil
		},
	}
	cmd.Flags().Float64("min-cov", 0, "raise every point's coefficient of variation to at least this value")
	cmd.Flags().Float64Var(&rsMin, "resample-min", 0, "lower resample bound")
	cmd.Flags().Float64Var(&rsMax, "resample-max", 0, "upper resample bound")
	cmd.Flags().IntVar(&rsN, "resample-n", 0, "resample onto this many points before packing, 0 to keep the data as read")
	cmd.Flags().StringVar(&sampling, "sampling", string(swprep.SamplingLog), "resample spacing (log or linear)")
	cmd.Flags().StringVar(&domain, "domain", string(swprep.DomainWavelength), "resample domain (frequency or wavelength)")
	v.BindPFlag("min_cov", cmd.Flags().Lookup("min-cov"))
	return cmd
}

func newTargetUnpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack <prefix> <output.csv>",
		Short: "Extract the modal targets of <prefix>.target to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			summary, err := processing.New(cfg).UnpackTarget(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}
