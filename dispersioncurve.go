package swprep

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// DispersionCurve is a single mode's dispersion data: frequency in Hz along
// x and phase velocity in m/s along y. Both must be strictly positive.
type DispersionCurve struct {
	Curve
}

// NewDispersionCurve builds a dispersion curve from frequency and velocity
// vectors of equal length.
func NewDispersionCurve(frequency, velocity []float64) (*DispersionCurve, error) {
	curve, err := NewCurve(frequency, velocity, func(f, v float64) error {
		if f <= 0 || v <= 0 {
			return fmt.Errorf("%w: frequency and velocity must be positive, got (%v, %v)",
				ErrPhysicalConstraint, f, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DispersionCurve{Curve: curve}, nil
}

// Frequency returns the curve's frequency values in Hz.
func (dc *DispersionCurve) Frequency() []float64 { return dc.x }

// Velocity returns the curve's phase velocity values in m/s.
func (dc *DispersionCurve) Velocity() []float64 { return dc.y }

// Wavelength returns velocity/frequency per point.
func (dc *DispersionCurve) Wavelength() []float64 {
	out := make([]float64, len(dc.x))
	for i := range dc.x {
		out[i] = dc.y[i] / dc.x[i]
	}
	return out
}

// Slowness returns 1/velocity per point.
func (dc *DispersionCurve) Slowness() []float64 {
	out := make([]float64, len(dc.y))
	for i := range dc.y {
		out[i] = 1 / dc.y[i]
	}
	return out
}

// parseDispersionCurve scans "<frequency> <slowness>" pairs out of block.
// Frequencies are expected to increase monotonically; scanning stops at the
// first frequency lower than its predecessor, so a runaway match cannot
// bleed into a following mode block.
func parseDispersionCurve(block string) (*DispersionCurve, error) {
	var frequency, velocity []float64
	for _, m := range dcPairRe.FindAllStringSubmatch(block, -1) {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad frequency %q", ErrFormat, m[1])
		}
		if len(frequency) > 0 && f < frequency[len(frequency)-1] {
			break
		}
		p, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad slowness %q", ErrFormat, m[2])
		}
		frequency = append(frequency, f)
		velocity = append(velocity, 1/p)
	}
	if len(frequency) == 0 {
		return nil, fmt.Errorf("%w: no dispersion data", ErrEmptyInput)
	}
	return NewDispersionCurve(frequency, velocity)
}

// ReadDispersionCurve reads the first dispersion curve from a geopsy-style
// text file.
func ReadDispersionCurve(fname string) (*DispersionCurve, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return parseDispersionCurve(string(raw))
}

// WriteCurve appends "<frequency> <slowness>" lines to w. Velocity is
// stored; slowness is derived at write time.
func (dc *DispersionCurve) WriteCurve(w io.Writer) error {
	for i := range dc.x {
		if _, err := fmt.Fprintf(w, "%s %s\n", fstr(dc.x[i]), fstr(1/dc.y[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteToTxt writes the curve as a complete single-mode geopsy file with a
// synthetic header describing the given wave type, mode, model identifier,
// and misfit.
func (dc *DispersionCurve) WriteToTxt(fname string, wavetype Polarization, mode, identifier int, misfit float64) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# File written by goswprep\n")
	fmt.Fprintf(f, "# Layered model %d: value=%s\n", identifier, fstr(misfit))
	fmt.Fprintf(f, "# 1 %s dispersion mode(s)\n", wavetype.Title())
	fmt.Fprintf(f, "# CPU Time = 0 ms\n")
	fmt.Fprintf(f, "# Mode %d\n", mode)
	return dc.WriteCurve(f)
}

// Equal compares element-wise with rounding at the sixth decimal.
func (dc *DispersionCurve) Equal(other *DispersionCurve) bool {
	if other == nil || len(dc.x) != len(other.x) {
		return false
	}
	for i := range dc.x {
		if round6(dc.x[i]) != round6(other.x[i]) || round6(dc.y[i]) != round6(other.y[i]) {
			return false
		}
	}
	return true
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func (dc *DispersionCurve) String() string {
	return fmt.Sprintf("DispersionCurve with %d points", len(dc.x))
}
