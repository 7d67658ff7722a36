package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/pkg/config"
)

var v = viper.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "goswprep",
		Short:        "Pre- and post-process surface wave inversion data",
		Long:         "goswprep converts between the file formats used around surface wave\ninversion: geopsy ground-model and dispersion reports, CSV dispersion\ndata, and Dinver .target containers.",
		Version:      swprep.Version(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("geopsy-version", config.Default().GeopsyVersion, "geopsy convention to read and write (2.10.1 or 3.4.2)")
	pf.Int("nmodels", swprep.All, "number of models to parse, -1 for all")
	pf.Int("nbest", swprep.All, "number of lowest-misfit records to keep, -1 for all")
	pf.Int("workers", 0, "parser goroutines, 0 for the CPU count")
	pf.String("log-level", config.Default().LogLevel, "log level (trace, debug, info, warn, error)")
	pf.Bool("quiet", false, "suppress all logging below error")

	config.Bind(v)
	v.BindPFlag("geopsy_version", pf.Lookup("geopsy-version"))
	v.BindPFlag("nmodels", pf.Lookup("nmodels"))
	v.BindPFlag("nbest", pf.Lookup("nbest"))
	v.BindPFlag("workers", pf.Lookup("workers"))
	v.BindPFlag("log_level", pf.Lookup("log-level"))
	v.BindPFlag("quiet", pf.Lookup("quiet"))

	root.AddCommand(newGMCmd(), newDCCmd(), newTargetCmd())
	return root
}

func setupLogging(cmd *cobra.Command) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.Quiet {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		return nil
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(v)
}

// printJSON writes a result document to stdout.
func printJSON(doc any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
