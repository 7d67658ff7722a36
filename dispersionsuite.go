package swprep

import (
	"fmt"
	"os"
	"strconv"
)

// DispersionSuite is an ordered, misfit-sortable collection of
// DispersionSet records.
type DispersionSuite struct {
	suite[*DispersionSet]
}

// NewDispersionSuite starts a suite from a single set.
func NewDispersionSuite(set *DispersionSet) (*DispersionSuite, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: dispersion set is nil", ErrInvalidParameter)
	}
	return &DispersionSuite{
		suite: newSuite(
			func(ds *DispersionSet) float64 { return ds.Misfit },
			func(ds *DispersionSet) int { return ds.Identifier },
			set),
	}, nil
}

// Sets returns the suite's records in suite order.
func (s *DispersionSuite) Sets() []*DispersionSet { return s.items }

// Append adds a set. See suite.append for the sortNow tradeoff.
func (s *DispersionSuite) Append(set *DispersionSet, sortNow bool) error {
	if set == nil {
		return fmt.Errorf("%w: dispersion set is nil", ErrInvalidParameter)
	}
	s.append(set, sortNow)
	return nil
}

// DispersionSuiteFromSets builds a suite from an ordered slice of sets.
func DispersionSuiteFromSets(sets []*DispersionSet, sortSets bool) (*DispersionSuite, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no dispersion sets provided", ErrEmptyInput)
	}
	s, err := NewDispersionSuite(sets[0])
	if err != nil {
		return nil, err
	}
	for _, set := range sets[1:] {
		if err := s.Append(set, sortSets); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseDispersionSuite scans a multi-model geopsy report in a single linear
// pass of the combined dispersion-set pattern. Consecutive matches sharing
// an identifier accumulate into one pending set; an identifier change
// finalizes the pending set. nsets caps the number of records emitted and
// nrayleigh/nlove cap the modes parsed per wave type during parsing (0
// skips a wave type entirely, All is unlimited).
func ParseDispersionSuite(text string, nsets, nrayleigh, nlove int, sortSets bool) (*DispersionSuite, error) {
	if nsets != All && nsets < 1 {
		return nil, fmt.Errorf("%w: nsets must be positive or All, got %d", ErrInvalidParameter, nsets)
	}

	matches := dcSetRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no dispersion records matched", ErrEmptyInput)
	}

	var (
		sets           []*DispersionSet
		rayleigh, love map[int]*DispersionCurve
		pendingID      = -1
		pendingMisfit  float64
	)
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad model identifier %q", ErrFormat, m[1])
		}

		// New model: finalize the pending record unless the cap is reached.
		if pendingID >= 0 && id != pendingID {
			if len(sets)+1 == nsets {
				break
			}
			set, err := NewDispersionSet(pendingID, pendingMisfit, rayleigh, love)
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
			rayleigh, love = nil, nil
		}

		misfit, err := strconv.ParseFloat(m[2], 64)
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
		pendingID, pendingMisfit = id, misfit
	}

	set, err := NewDispersionSet(pendingID, pendingMisfit, rayleigh, love)
	if err != nil {
		return nil, err
	}
	sets = append(sets, set)
	return DispersionSuiteFromSets(sets, sortSets)
}

// ReadDispersionSuite reads a multi-model geopsy report from fname.
func ReadDispersionSuite(fname string, nsets, nrayleigh, nlove int, sortSets bool) (*DispersionSuite, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ParseDispersionSuite(string(raw), nsets, nrayleigh, nlove, sortSets)
}

// WriteToTxt writes the nbest lowest-misfit sets to a geopsy-formatted file.
func (s *DispersionSuite) WriteToTxt(fname string, nbest int) error {
	n, err := s.handleNBest(nbest)
	if err != nil {
		return err
	}
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# File written by goswprep\n")
	for _, set := range s.items[:n] {
		if err := set.WriteSet(f, All, All); err != nil {
			return err
		}
	}
	return nil
}

// Equal compares suites record by record.
func (s *DispersionSuite) Equal(other *DispersionSuite) bool {
	if other == nil || s.Size() != other.Size() {
		return false
	}
	for i, set := range s.items {
		if !set.Equal(other.items[i]) {
			return false
		}
	}
	return true
}

func (s *DispersionSuite) String() string {
	return fmt.Sprintf("DispersionSuite with %d DispersionSets", s.Size())
}
