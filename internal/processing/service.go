// Package processing wires the file-level conversion operations exposed by
// the command line onto the core library.
package processing

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/pkg/config"
	"github.com/kacperjurak/goswprep/pkg/models"
	"github.com/kacperjurak/goswprep/pkg/worker"
)

// Service executes conversions under one configuration.
type Service struct {
	cfg *config.Config
}

// New builds a service.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// SummarizeGroundModels parses a geopsy ground-model report in parallel
// and reports misfit range and Vs30 statistics over the nbest models.
func (s *Service) SummarizeGroundModels(fname string) (*models.SuiteSummary, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	gms, err := worker.ParseGroundModels(string(raw), s.cfg.NModels, s.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fname, err)
	}
	suite, err := swprep.GroundModelSuiteFromModels(gms)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", fname).Int("models", suite.Size()).
		Dur("elapsed", time.Since(start)).Msg("ground models parsed")

	minMisfit, maxMisfit, err := suite.MisfitRange(s.cfg.NBest)
	if err != nil {
		return nil, err
	}
	vs30s, err := suite.VS30s(s.cfg.NBest)
	if err != nil {
		return nil, err
	}
	medianModel, err := suite.Median(s.cfg.NBest)
	if err != nil {
		return nil, err
	}

	return &models.SuiteSummary{
		File:       fname,
		Models:     suite.Size(),
		MisfitMin:  minMisfit,
		MisfitMax:  maxMisfit,
		VS30Median: medianModel.VS30(),
		VS30s:      vs30s,
	}, nil
}

// SigmaLnGroundModels computes the per-depth log-normal standard deviation
// of parameter p across the nbest models of a report, on a uniform grid of
// spacing dy down to dmax meters.
func (s *Service) SigmaLnGroundModels(fname string, dmax, dy float64, p swprep.Param) (*models.SigmaLnSummary, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	gms, err := worker.ParseGroundModels(string(raw), s.cfg.NModels, s.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fname, err)
	}
	suite, err := swprep.GroundModelSuiteFromModels(gms)
	if err != nil {
		return nil, err
	}
	depth, sigma, err := suite.SigmaLn(s.cfg.NBest, dmax, dy, p)
	if err != nil {
		return nil, err
	}
	return &models.SigmaLnSummary{
		File:      fname,
		Parameter: string(p),
		Models:    suite.Size(),
		Depth:     depth,
		Sigma:     sigma,
	}, nil
}

// WriteBestGroundModels copies the nbest lowest-misfit models of a report
// into a new geopsy-format file.
func (s *Service) WriteBestGroundModels(input, output string) error {
	suite, err := swprep.ReadGroundModelSuite(input, s.cfg.NModels)
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}
	return suite.WriteToTxt(output, s.cfg.NBest)
}

// WriteBestDispersion copies the nbest lowest-misfit dispersion sets of a
// report into a new geopsy-format file.
func (s *Service) WriteBestDispersion(input, output string, nrayleigh, nlove int) error {
	suite, err := swprep.ReadDispersionSuite(input, s.cfg.NModels, nrayleigh, nlove, true)
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}
	return suite.WriteToTxt(output, s.cfg.NBest)
}

// ResampleOptions requests a resample onto N points spanning [Min, Max]
// before a target is packed. A zero N leaves the data as read.
type ResampleOptions struct {
	Min, Max float64
	N        int
	Sampling swprep.Sampling
	Domain   swprep.Domain
}

// PackTarget reads experimental dispersion data from CSV, optionally
// raises the minimum coefficient of variation and resamples, and writes
// the .target container for the configured geopsy version.
func (s *Service) PackTarget(input, outputPrefix string, rs *ResampleOptions) error {
	t, err := swprep.ReadModalTargetCSV(input, nil)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	if s.cfg.MinCov > 0 {
		if err := t.SetMinCov(s.cfg.MinCov); err != nil {
			return err
		}
	}
	if rs != nil && rs.N > 0 {
		if _, err := t.EasyResample(rs.Min, rs.Max, rs.N, rs.Sampling, rs.Domain, true); err != nil {
			return err
		}
		log.Debug().Int("points", t.Len()).Str("domain", string(rs.Domain)).Msg("target resampled")
	}
	return t.ToTarget(outputPrefix, s.cfg.Version())
}

// UnpackTarget reads a .target container and writes one CSV per modal
// target. A single target keeps the given name, several get a numeric
// suffix.
func (s *Service) UnpackTarget(inputPrefix, output string) (*models.TargetSummary, error) {
	ts, err := swprep.TargetSetFromTargetFile(inputPrefix, s.cfg.Version())
	if err != nil {
		return nil, fmt.Errorf("read %s.target: %w", inputPrefix, err)
	}

	points := 0
	frqMin, frqMax := 0.0, 0.0
	for i, t := range ts.Targets {
		name := output
		if len(ts.Targets) > 1 {
			name = fmt.Sprintf("%s.%d", output, i)
		}
		if err := t.ToCSV(name); err != nil {
			return nil, err
		}
		frq := t.Frequency()
		points += len(frq)
		if i == 0 {
			frqMin, frqMax = floats.Min(frq), floats.Max(frq)
		} else {
			frqMin = min(frqMin, floats.Min(frq))
			frqMax = max(frqMax, floats.Max(frq))
		}
	}
	return &models.TargetSummary{
		File:         inputPrefix + ".target",
		Targets:      len(ts.Targets),
		Points:       points,
		FrequencyMin: frqMin,
		FrequencyMax: frqMax,
	}, nil
}
