package swprep

import (
	"fmt"
	"strconv"
	"strings"
)

// Polarization identifies the surface-wave type of a dispersion curve.
type Polarization string

const (
	Rayleigh Polarization = "rayleigh"
	Love     Polarization = "love"
)

// Title returns the capitalized form used by the geopsy file formats.
func (p Polarization) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[0])) + string(p[1:])
}

// ParsePolarization accepts either casing convention.
func ParsePolarization(s string) (Polarization, error) {
	switch Polarization(strings.ToLower(s)) {
	case Rayleigh:
		return Rayleigh, nil
	case Love:
		return Love, nil
	default:
		return "", fmt.Errorf("%w: polarization %q is not recognized, must be %q or %q",
			ErrInvalidParameter, s, Rayleigh, Love)
	}
}

// fstr renders a float with the shortest representation that round-trips,
// matching the number token accepted by the pattern library.
func fstr(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
