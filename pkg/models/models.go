package models

import (
	"time"

	"github.com/kacperjurak/goswprep"
)

// ParseJob is a single ground-model block handed to the worker pool. ID is
// the block's position in the source report and fixes the output order no
// matter which worker finishes first.
type ParseJob struct {
	ID         int
	Identifier int
	Misfit     float64
	Data       string
}

// ParseResult carries one parsed model back from the pool.
type ParseResult struct {
	ID             int
	Model          *swprep.GroundModel
	ProcessingTime time.Duration
	Err            error
}

// SuiteSummary is the JSON report emitted for a parsed ground-model suite.
type SuiteSummary struct {
	File       string    `json:"file"`
	Models     int       `json:"models"`
	MisfitMin  float64   `json:"misfit_min"`
	MisfitMax  float64   `json:"misfit_max"`
	VS30Median float64   `json:"vs30_median"`
	VS30s      []float64 `json:"vs30s,omitempty"`
}

// SigmaLnSummary is the JSON report emitted for a log-normal dispersion
// profile: per-depth standard deviation of the natural log of a parameter
// across the best models of a suite.
type SigmaLnSummary struct {
	File      string    `json:"file"`
	Parameter string    `json:"parameter"`
	Models    int       `json:"models"`
	Depth     []float64 `json:"depth"`
	Sigma     []float64 `json:"sigma_ln"`
}

// TargetSummary is the JSON report emitted for a read target container.
type TargetSummary struct {
	File         string  `json:"file"`
	Targets      int     `json:"targets"`
	Points       int     `json:"points"`
	FrequencyMin float64 `json:"frequency_min"`
	FrequencyMax float64 `json:"frequency_max"`
}
