package swprep

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

// All requests every available mode, set, or model when passed as a count.
const All = -1

// DispersionSet is the full set of modal dispersion curves belonging to one
// velocity model. Rayleigh and Love map mode number to curve; a nil map
// means that wave type was not provided, but both cannot be nil at once.
type DispersionSet struct {
	Identifier int
	Misfit     float64
	Rayleigh   map[int]*DispersionCurve
	Love       map[int]*DispersionCurve
}

// NewDispersionSet builds a dispersion set from per-mode curve maps.
func NewDispersionSet(identifier int, misfit float64, rayleigh, love map[int]*DispersionCurve) (*DispersionSet, error) {
	if rayleigh == nil && love == nil {
		return nil, fmt.Errorf("%w: rayleigh and love cannot both be nil", ErrInvalidParameter)
	}
	if identifier < 0 {
		return nil, fmt.Errorf("%w: identifier must be >= 0, got %d", ErrInvalidParameter, identifier)
	}
	if misfit < 0 {
		return nil, fmt.Errorf("%w: misfit must be >= 0, got %v", ErrInvalidParameter, misfit)
	}
	return &DispersionSet{
		Identifier: identifier,
		Misfit:     misfit,
		Rayleigh:   rayleigh,
		Love:       love,
	}, nil
}

// parseModes splits a wave-type block on its mode headers and parses each
// mode's curve. limit caps the number of modes taken from the front of the
// block; 0 skips the block entirely (returning a nil map) and All takes
// every mode. The cap is applied while parsing so suppressed modes cost
// nothing.
func parseModes(block string, limit int) (map[int]*DispersionCurve, error) {
	if limit == 0 {
		return nil, nil
	}
	headers := modeHeaderRe.FindAllStringSubmatchIndex(block, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no mode headers in dispersion block", ErrFormat)
	}

	curves := make(map[int]*DispersionCurve)
	for i, h := range headers {
		if limit != All && i >= limit {
			break
		}
		modeNumber, err := strconv.Atoi(block[h[2]:h[3]])
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode number %q", ErrFormat, block[h[2]:h[3]])
		}
		end := len(block)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		curve, err := parseDispersionCurve(block[h[1]:end])
		if err != nil {
			return nil, err
		}
		curves[modeNumber] = curve
	}
	return curves, nil
}

// ParseDispersionSet extracts the first model's dispersion set from a
// geopsy-style report. Scanning stops as soon as a differing model
// identifier is encountered. nrayleigh and nlove cap the modes parsed per
// wave type (0 skips the wave type, All takes everything).
func ParseDispersionSet(text string, nrayleigh, nlove int) (*DispersionSet, error) {
	if nrayleigh == 0 && nlove == 0 {
		return nil, fmt.Errorf("%w: nrayleigh and nlove cannot both be 0", ErrInvalidParameter)
	}

	var (
		rayleigh, love map[int]*DispersionCurve
		identifier     = -1
		misfit         float64
	)
	for _, m := range dcSetRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad model identifier %q", ErrFormat, m[1])
		}
		if identifier >= 0 && id != identifier {
			break
		}
		msft, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad misfit %q", ErrFormat, m[2])
		}

		switch Polarization(m[3]) {
		case "Rayleigh":
			if rayleigh, err = parseModes(m[4], nrayleigh); err != nil {
				return nil, err
			}
		case "Love":
			if love, err = parseModes(m[4], nlove); err != nil {
				return nil, err
			}
		}
		identifier, misfit = id, msft
	}
	if identifier < 0 {
		return nil, fmt.Errorf("%w: no dispersion sets in input", ErrEmptyInput)
	}
	return NewDispersionSet(identifier, misfit, rayleigh, love)
}

// ReadDispersionSet reads the first dispersion set from a geopsy report file.
func ReadDispersionSet(fname string, nrayleigh, nlove int) (*DispersionSet, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ParseDispersionSet(string(raw), nrayleigh, nlove)
}

// Modes returns the mode numbers of curves in ascending order.
func Modes(curves map[int]*DispersionCurve) []int {
	modes := make([]int, 0, len(curves))
	for k := range curves {
		modes = append(modes, k)
	}
	sort.Ints(modes)
	return modes
}

// WriteSet writes the set in the bracketed geopsy structure, wave type by
// wave type, modes in ascending order. nrayleigh and nlove cap the modes
// written per wave type.
func (ds *DispersionSet) WriteSet(w io.Writer, nrayleigh, nlove int) error {
	if err := ds.writeWave(w, ds.Rayleigh, Rayleigh, nrayleigh); err != nil {
		return err
	}
	return ds.writeWave(w, ds.Love, Love, nlove)
}

func (ds *DispersionSet) writeWave(w io.Writer, curves map[int]*DispersionCurve, wave Polarization, limit int) error {
	if curves == nil || limit == 0 {
		return nil
	}
	most := math.MaxInt
	if limit != All {
		most = limit
	}
	nmodes := len(curves)
	if most < nmodes {
		nmodes = most
	}

	fmt.Fprintf(w, "# Layered model %d: value=%s\n", ds.Identifier, fstr(ds.Misfit))
	fmt.Fprintf(w, "# %d %s dispersion mode(s)\n", nmodes, wave.Title())
	fmt.Fprintf(w, "# CPU Time = 0 ms\n")
	for _, mode := range Modes(curves) {
		if mode >= most {
			continue
		}
		fmt.Fprintf(w, "# Mode %d\n", mode)
		if err := curves[mode].WriteCurve(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteToTxt writes the set as a complete geopsy-formatted file.
func (ds *DispersionSet) WriteToTxt(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# File written by goswprep\n")
	return ds.WriteSet(f, All, All)
}

// Equal compares identifier, misfit, and both mode maps structurally.
func (ds *DispersionSet) Equal(other *DispersionSet) bool {
	if other == nil || ds.Identifier != other.Identifier || ds.Misfit != other.Misfit {
		return false
	}
	return equalModes(ds.Rayleigh, other.Rayleigh) && equalModes(ds.Love, other.Love)
}

func equalModes(a, b map[int]*DispersionCurve) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

func (ds *DispersionSet) String() string {
	return fmt.Sprintf("DispersionSet with %d Rayleigh and %d Love modes", len(ds.Rayleigh), len(ds.Love))
}
