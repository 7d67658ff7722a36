// Package config holds the runtime settings of the conversion tool, backed
// by viper so values can come from flags, environment, or a config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kacperjurak/goswprep"
)

const envPrefix = "GOSWPREP"

// Config holds all settings of the conversion tool.
type Config struct {
	GeopsyVersion string  `mapstructure:"geopsy_version"`
	NModels       int     `mapstructure:"nmodels"`
	NBest         int     `mapstructure:"nbest"`
	Workers       int     `mapstructure:"workers"`
	MinCov        float64 `mapstructure:"min_cov"`
	LogLevel      string  `mapstructure:"log_level"`
	Quiet         bool    `mapstructure:"quiet"`
}

// Default returns the settings used when nothing is overridden.
func Default() *Config {
	return &Config{
		GeopsyVersion: string(swprep.Geopsy3),
		NModels:       swprep.All,
		NBest:         swprep.All,
		Workers:       0, // pool picks the CPU count
		MinCov:        0,
		LogLevel:      "info",
	}
}

// Bind registers the defaults and environment mapping on v. Flag bindings
// are added by the commands that own the flags.
func Bind(v *viper.Viper) {
	def := Default()
	v.SetDefault("geopsy_version", def.GeopsyVersion)
	v.SetDefault("nmodels", def.NModels)
	v.SetDefault("nbest", def.NBest)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("min_cov", def.MinCov)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("quiet", def.Quiet)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the effective settings.
func Load(v *viper.Viper) (*Config, error) {
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := swprep.CheckGeopsyVersion(swprep.GeopsyVersion(cfg.GeopsyVersion)); err != nil {
		return nil, err
	}
	if cfg.MinCov < 0 {
		return nil, fmt.Errorf("config: min_cov must be >= 0, got %v", cfg.MinCov)
	}
	return cfg, nil
}

// Version returns the typed geopsy version.
func (c *Config) Version() swprep.GeopsyVersion {
	return swprep.GeopsyVersion(c.GeopsyVersion)
}
