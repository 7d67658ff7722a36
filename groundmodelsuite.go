package swprep

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GroundModelSuite holds many candidate layered models, kept in ascending
// misfit order, and computes cross-model statistics.
type GroundModelSuite struct {
	suite[*GroundModel]
}

// NewGroundModelSuite starts a suite from a single model.
func NewGroundModelSuite(gm *GroundModel) (*GroundModelSuite, error) {
	if gm == nil {
		return nil, fmt.Errorf("%w: ground model is nil", ErrInvalidParameter)
	}
	return &GroundModelSuite{suite: newSuite(
		func(gm *GroundModel) float64 { return gm.Misfit },
		func(gm *GroundModel) int { return gm.Identifier },
		gm,
	)}, nil
}

// GroundModelSuiteFromModels builds a suite from models, sorting once at
// the end.
func GroundModelSuiteFromModels(gms []*GroundModel) (*GroundModelSuite, error) {
	if len(gms) == 0 {
		return nil, fmt.Errorf("%w: no ground models provided", ErrEmptyInput)
	}
	s, err := NewGroundModelSuite(gms[0])
	if err != nil {
		return nil, err
	}
	for _, gm := range gms[1:] {
		if err := s.Append(gm, false); err != nil {
			return nil, err
		}
	}
	s.sort()
	return s, nil
}

// Models returns the models in ascending misfit order.
func (s *GroundModelSuite) Models() []*GroundModel { return s.items }

// Append adds a model, resorting when sortNow is set. Appending many models
// with sortNow false and sorting once afterwards is linear instead of
// n log n per insert.
func (s *GroundModelSuite) Append(gm *GroundModel, sortNow bool) error {
	if gm == nil {
		return fmt.Errorf("%w: ground model is nil", ErrInvalidParameter)
	}
	s.append(gm, sortNow)
	return nil
}

// median matches the convention of averaging the two central values for an
// even count.
func median(values []float64) float64 {
	tmp := append([]float64(nil), values...)
	sort.Float64s(tmp)
	n := len(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}

// MedianSimple simplifies the nbest lowest-misfit models on parameter p and
// takes the layerwise median of thicknesses and values. All simplified
// profiles must share a layer count; a mismatch means the models disagree
// on layering and cannot be stacked.
func (s *GroundModelSuite) MedianSimple(nbest int, p Param) (thickness, values []float64, err error) {
	n, err := s.handleNBest(nbest)
	if err != nil {
		return nil, nil, err
	}
	firstTk, firstPar, err := s.items[0].Simplify(p)
	if err != nil {
		return nil, nil, err
	}
	layers := len(firstTk)
	tks := mat.NewDense(n, layers, nil)
	pars := mat.NewDense(n, layers, nil)
	tks.SetRow(0, firstTk)
	pars.SetRow(0, firstPar)
	for i := 1; i < n; i++ {
		tk, par, err := s.items[i].Simplify(p)
		if err != nil {
			return nil, nil, err
		}
		if len(tk) != layers {
			return nil, nil, fmt.Errorf("%w: model %d simplifies to %d layers, expected %d",
				ErrDimensionMismatch, i, len(tk), layers)
		}
		tks.SetRow(i, tk)
		pars.SetRow(i, par)
	}
	thickness = make([]float64, layers)
	values = make([]float64, layers)
	col := make([]float64, n)
	for j := 0; j < layers; j++ {
		thickness[j] = median(mat.Col(col, j, tks))
		values[j] = median(mat.Col(col, j, pars))
	}
	return thickness, values, nil
}

// Median computes per-parameter simplified medians over the nbest models
// and merges them back into a single representative model.
func (s *GroundModelSuite) Median(nbest int) (*GroundModel, error) {
	vpTk, vp, err := s.MedianSimple(nbest, ParamVp)
	if err != nil {
		return nil, err
	}
	vsTk, vs, err := s.MedianSimple(nbest, ParamVs)
	if err != nil {
		return nil, err
	}
	rhTk, rh, err := s.MedianSimple(nbest, ParamDensity)
	if err != nil {
		return nil, err
	}
	return FromSimpleProfiles(vpTk, vp, vsTk, vs, rhTk, rh)
}

// SigmaLn discretizes the nbest models onto a common depth grid and returns
// the sample standard deviation of the natural log of parameter p at each
// depth.
func (s *GroundModelSuite) SigmaLn(nbest int, dmax, dy float64, p Param) (depth, sigma []float64, err error) {
	n, err := s.handleNBest(nbest)
	if err != nil {
		return nil, nil, err
	}
	var grid *mat.Dense
	for i := 0; i < n; i++ {
		d, vals, err := s.items[i].Discretize(dmax, dy, p)
		if err != nil {
			return nil, nil, err
		}
		if grid == nil {
			depth = d
			grid = mat.NewDense(n, len(vals), nil)
		}
		for j, v := range vals {
			grid.Set(i, j, math.Log(v))
		}
	}
	sigma = make([]float64, len(depth))
	col := make([]float64, n)
	for j := range sigma {
		sigma[j] = stat.StdDev(mat.Col(col, j, grid), nil)
	}
	return depth, sigma, nil
}

// VS30s returns the time-averaged 30 m shear-wave velocity of the nbest
// models.
func (s *GroundModelSuite) VS30s(nbest int) ([]float64, error) {
	n, err := s.handleNBest(nbest)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.items[i].VS30()
	}
	return out, nil
}

// GroundModelSuiteFromArray assembles a suite from columnar layer data.
// Each matrix carries one model per column and one layer per row; all four
// must share dimensions, and ids and misfits must have one entry per
// column.
func GroundModelSuiteFromArray(thickness, vp, vs, density *mat.Dense, ids []int, misfits []float64) (*GroundModelSuite, error) {
	rows, cols := thickness.Dims()
	for name, m := range map[string]*mat.Dense{"vp": vp, "vs": vs, "density": density} {
		r, c := m.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("%w: thickness is %dx%d but %s is %dx%d",
				ErrDimensionMismatch, rows, cols, name, r, c)
		}
	}
	if len(ids) != cols || len(misfits) != cols {
		return nil, fmt.Errorf("%w: %d columns but %d ids and %d misfits",
			ErrDimensionMismatch, cols, len(ids), len(misfits))
	}
	gms := make([]*GroundModel, 0, cols)
	buf := make([]float64, rows)
	for c := 0; c < cols; c++ {
		gm, err := NewGroundModel(
			append([]float64(nil), mat.Col(buf, c, thickness)...),
			append([]float64(nil), mat.Col(buf, c, vp)...),
			append([]float64(nil), mat.Col(buf, c, vs)...),
			append([]float64(nil), mat.Col(buf, c, density)...),
			ids[c], misfits[c])
		if err != nil {
			return nil, err
		}
		gms = append(gms, gm)
	}
	return GroundModelSuiteFromModels(gms)
}

// ParseGroundModelSuite parses up to nmodels models from a geopsy report
// (All for no limit). Geopsy already emits models in ascending misfit
// order, so the suite is sorted once after the scan.
func ParseGroundModelSuite(text string, nmodels int) (*GroundModelSuite, error) {
	if nmodels != All && nmodels < 1 {
		return nil, fmt.Errorf("%w: nmodels must be positive or All, got %d", ErrInvalidParameter, nmodels)
	}
	blocks, err := ScanGroundModelBlocks(text)
	if err != nil {
		return nil, err
	}
	if nmodels != All && nmodels < len(blocks) {
		blocks = blocks[:nmodels]
	}
	gms := make([]*GroundModel, len(blocks))
	for i, b := range blocks {
		if gms[i], err = ParseGroundModelData(b.Data, b.Identifier, b.Misfit); err != nil {
			return nil, err
		}
	}
	return GroundModelSuiteFromModels(gms)
}

// ReadGroundModelSuite reads a geopsy report file, see
// ParseGroundModelSuite.
func ReadGroundModelSuite(fname string, nmodels int) (*GroundModelSuite, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ParseGroundModelSuite(string(raw), nmodels)
}

// WriteToTxt writes the nbest lowest-misfit models in the geopsy format.
func (s *GroundModelSuite) WriteToTxt(fname string, nbest int) error {
	n, err := s.handleNBest(nbest)
	if err != nil {
		return err
	}
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	for i := 0; i < n; i++ {
		if err := s.items[i].WriteModel(f); err != nil {
			return err
		}
	}
	return nil
}

// Equal compares model counts and each model pairwise.
func (s *GroundModelSuite) Equal(other *GroundModelSuite) bool {
	if other == nil || s.Size() != other.Size() {
		return false
	}
	for i := range s.items {
		if !s.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}

func (s *GroundModelSuite) String() string {
	return fmt.Sprintf("GroundModelSuite with %d models", s.Size())
}
