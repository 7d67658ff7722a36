package swprep

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// suite is the shared core of the misfit-sortable record collections. The
// concrete record type is supplied by the embedding suite together with its
// misfit and identifier accessors.
type suite[T any] struct {
	items      []T
	misfit     func(T) float64
	identifier func(T) int
}

func newSuite[T any](misfit func(T) float64, identifier func(T) int, first T) suite[T] {
	return suite[T]{
		items:      []T{first},
		misfit:     misfit,
		identifier: identifier,
	}
}

// append adds item to the suite. Sorting is a full O(n log n) re-sort by
// ascending misfit; callers that know the incoming misfit is already the
// worst can pass sortNow=false for an O(1) append.
func (s *suite[T]) append(item T, sortNow bool) {
	s.items = append(s.items, item)
	if sortNow {
		s.sort()
	}
}

func (s *suite[T]) sort() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.misfit(s.items[i]) < s.misfit(s.items[j])
	})
}

// Size returns the number of records in the suite.
func (s *suite[T]) Size() int { return len(s.items) }

// Misfits returns the misfit of each record in suite order.
func (s *suite[T]) Misfits() []float64 {
	out := make([]float64, len(s.items))
	for i, item := range s.items {
		out[i] = s.misfit(item)
	}
	return out
}

// Identifiers returns the identifier of each record in suite order.
func (s *suite[T]) Identifiers() []int {
	out := make([]int, len(s.items))
	for i, item := range s.items {
		out[i] = s.identifier(item)
	}
	return out
}

// handleNBest resolves an nbest request against the available records. All
// selects everything; a request beyond the available count is clamped with
// a warning rather than treated as an error.
func (s *suite[T]) handleNBest(nbest int) (int, error) {
	if nbest == All {
		return len(s.items), nil
	}
	if nbest < 1 {
		return 0, fmt.Errorf("%w: nbest must be positive or All, got %d", ErrInvalidParameter, nbest)
	}
	if nbest > len(s.items) {
		log.Warn().Msgf("requested (%d) > available (%d), setting requested to available", nbest, len(s.items))
		return len(s.items), nil
	}
	return nbest, nil
}

// MisfitRange returns the minimum and maximum misfit among the first
// nmodels records.
func (s *suite[T]) MisfitRange(nmodels int) (minMisfit, maxMisfit float64, err error) {
	n, err := s.handleNBest(nmodels)
	if err != nil {
		return 0, 0, err
	}
	misfits := s.Misfits()
	return misfits[0], misfits[n-1], nil
}
