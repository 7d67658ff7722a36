package swprep

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// Param selects which per-layer quantity of a ground model an operation
// works on.
type Param string

const (
	ParamDepth   Param = "depth"
	ParamVp      Param = "vp"
	ParamVs      Param = "vs"
	ParamDensity Param = "rh"
	ParamPR      Param = "pr"
)

// halfspaceDepth is the synthetic bottom assigned to the half-space when a
// profile is expanded to stair-step form.
const halfspaceDepth = 9999.0

// GroundModel is a layered earth model. Thickness, Vp, Vs, and Density hold
// one value per layer, surface downward; the last layer is conventionally
// the half-space with zero thickness. Vp must exceed Vs strictly in every
// layer.
type GroundModel struct {
	Thickness []float64
	Vp        []float64
	Vs        []float64
	Density   []float64

	Identifier int
	Misfit     float64
}

// NewGroundModel validates and builds a layered model.
func NewGroundModel(thickness, vp, vs, density []float64, identifier int, misfit float64) (*GroundModel, error) {
	n := len(thickness)
	if n == 0 {
		return nil, fmt.Errorf("%w: ground model requires at least one layer", ErrInvalidParameter)
	}
	for name, vals := range map[string][]float64{"vp": vp, "vs": vs, "density": density} {
		if len(vals) != n {
			return nil, fmt.Errorf("%w: thickness has %d layers but %s has %d",
				ErrLengthMismatch, n, name, len(vals))
		}
	}
	for name, vals := range map[string][]float64{"thickness": thickness, "vp": vp, "vs": vs, "density": density} {
		for _, v := range vals {
			if v < 0 {
				return nil, fmt.Errorf("%w: %s must always be >= 0, got %v", ErrPhysicalConstraint, name, v)
			}
		}
	}
	if identifier < 0 {
		return nil, fmt.Errorf("%w: identifier must be >= 0, got %d", ErrInvalidParameter, identifier)
	}
	if misfit < 0 {
		return nil, fmt.Errorf("%w: misfit must be >= 0, got %v", ErrInvalidParameter, misfit)
	}
	for i := range vp {
		if vp[i] <= vs[i] {
			return nil, fmt.Errorf("%w: vp must be greater than vs, %v !> %v",
				ErrPhysicalConstraint, vp[i], vs[i])
		}
	}
	return &GroundModel{
		Thickness:  append([]float64(nil), thickness...),
		Vp:         append([]float64(nil), vp...),
		Vs:         append([]float64(nil), vs...),
		Density:    append([]float64(nil), density...),
		Identifier: identifier,
		Misfit:     misfit,
	}, nil
}

// NLayers returns the number of layers including the half-space.
func (gm *GroundModel) NLayers() int { return len(gm.Thickness) }

// PoissonRatio computes Poisson's ratio from a vp, vs pair.
func PoissonRatio(vp, vs float64) (float64, error) {
	if vp <= vs {
		return 0, fmt.Errorf("%w: vp must be greater than vs, %v !> %v", ErrPhysicalConstraint, vp, vs)
	}
	x := (vp * vp) / (vs * vs)
	pr := (2 - x) / (2 - 2*x)
	if pr <= 0 {
		return 0, fmt.Errorf("%w: Poisson's ratio cannot be negative, vp/vs=%v/%v too close to unity",
			ErrPhysicalConstraint, vp, vs)
	}
	return pr, nil
}

// parameter resolves p to the matching per-layer slice. ParamDepth and
// ParamPR are derived quantities and are handled by the callers that accept
// them.
func (gm *GroundModel) parameter(p Param) ([]float64, error) {
	switch p {
	case ParamVp:
		return gm.Vp, nil
	case ParamVs:
		return gm.Vs, nil
	case ParamDensity, "density":
		return gm.Density, nil
	default:
		return nil, fmt.Errorf("%w: parameter=%q is invalid", ErrInvalidParameter, p)
	}
}

// StairStep expands per-layer constant values into a piecewise-constant
// plotting profile. For ParamDepth the result alternates the top and bottom
// of each layer, closing the half-space at a synthetic large depth; for the
// other parameters each layer value is duplicated at both its breakpoints.
// ParamPR stair-steps vp and vs and derives Poisson's ratio pointwise.
func (gm *GroundModel) StairStep(p Param) ([]float64, error) {
	switch p {
	case ParamPR:
		vp, err := gm.StairStep(ParamVp)
		if err != nil {
			return nil, err
		}
		vs, err := gm.StairStep(ParamVs)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(vp))
		for i := range vp {
			if out[i], err = PoissonRatio(vp[i], vs[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	case ParamDepth:
		out := make([]float64, 0, 2*gm.NLayers())
		out = append(out, 0)
		depth := 0.0
		for i, tk := range gm.Thickness {
			if i == gm.NLayers()-1 {
				out = append(out, halfspaceDepth)
				break
			}
			depth += tk
			out = append(out, depth, depth)
		}
		return out, nil
	default:
		par, err := gm.parameter(p)
		if err != nil {
			return nil, err
		}
		out := make([]float64, 0, 2*len(par))
		for _, v := range par {
			out = append(out, v, v)
		}
		return out, nil
	}
}

// Discretize rasterizes a parameter onto the uniform depth grid
// [0, dy, 2dy, ..., dmax]. The grid always has round(dmax/dy)+1 samples.
// Real-valued layer boundaries are aligned to the grid with fractional
// accumulation and carry, so no drift accumulates across many thin layers.
// The half-space fills all remaining samples.
func (gm *GroundModel) Discretize(dmax, dy float64, p Param) (depth, values []float64, err error) {
	if dmax <= 0 || dy <= 0 {
		return nil, nil, fmt.Errorf("%w: dmax and dy must be positive, got %v and %v", ErrInvalidParameter, dmax, dy)
	}
	n := int(math.Round(dmax/dy)) + 1
	depth = floats.Span(make([]float64, n), 0, dmax)

	if p == ParamPR {
		_, vp, err := gm.Discretize(dmax, dy, ParamVp)
		if err != nil {
			return nil, nil, err
		}
		_, vs, err := gm.Discretize(dmax, dy, ParamVs)
		if err != nil {
			return nil, nil, err
		}
		values = make([]float64, n)
		for i := range vp {
			if values[i], err = PoissonRatio(vp[i], vs[i]); err != nil {
				return nil, nil, err
			}
		}
		return depth, values, nil
	}

	par, err := gm.parameter(p)
	if err != nil {
		return nil, nil, err
	}

	values = make([]float64, n)
	values[0] = par[0]
	start := 1
	residual := 0.0
	for layer, tk := range gm.Thickness {
		if tk == 0 {
			for i := start; i < n; i++ {
				values[i] = par[layer]
			}
			break
		}
		samples := int(tk / dy)
		residual += tk/dy - float64(samples)
		if residual >= 1 {
			samples++
			residual--
		}
		stop := start + samples
		if stop > n {
			for i := start; i < n; i++ {
				values[i] = par[layer]
			}
			break
		}
		for i := start; i < stop; i++ {
			values[i] = par[layer]
		}
		start = stop
	}
	return depth, values, nil
}

// Simplify merges adjacent layers whose value of p is identical, removing
// breaks that carry no information for that parameter. The returned
// thickness list ends with the zero-thickness half-space. Simplified
// profiles are how differently-layered models are aligned before
// elementwise statistics.
func (gm *GroundModel) Simplify(p Param) (thickness, values []float64, err error) {
	par, err := gm.parameter(p)
	if err != nil {
		return nil, nil, err
	}
	values = []float64{par[0]}
	sum := gm.Thickness[0]
	for i := 1; i < len(par); i++ {
		if par[i] == values[len(values)-1] {
			sum += gm.Thickness[i]
			continue
		}
		thickness = append(thickness, sum)
		values = append(values, par[i])
		sum = gm.Thickness[i]
	}
	thickness = append(thickness, 0)
	return thickness, values, nil
}

// VS30 is the time-averaged shear-wave velocity over the top 30 m. A
// zero-thickness half-space encountered above 30 m is treated as extending
// to exactly 30 m.
func (gm *GroundModel) VS30() float64 {
	depth := 0.0
	travelTime := 0.0
	for i, tk := range gm.Thickness {
		if tk == 0 {
			tk = 30
		}
		depth += tk
		if depth >= 30 {
			travelTime += (tk - (depth - 30)) / gm.Vs[i]
			break
		}
		travelTime += tk / gm.Vs[i]
	}
	return 30 / travelTime
}

// FromSimpleProfiles merges three independently-layered simple profiles
// (vp, vs, density, each with its own thickness breaks ending in a
// zero-thickness half-space) onto the union of all boundary depths,
// yielding one model with unified layering.
func FromSimpleProfiles(vpTk, vp, vsTk, vs, rhTk, rh []float64) (*GroundModel, error) {
	depthSet := map[float64]struct{}{}
	var depths []float64
	for _, tks := range [][]float64{vpTk, vsTk, rhTk} {
		for _, d := range ThicknessToDepth(tks) {
			if _, ok := depthSet[d]; !ok {
				depthSet[d] = struct{}{}
				depths = append(depths, d)
			}
		}
	}
	sort.Float64s(depths)

	newVp, err := alignProfile(depths, vpTk, vp)
	if err != nil {
		return nil, err
	}
	newVs, err := alignProfile(depths, vsTk, vs)
	if err != nil {
		return nil, err
	}
	newRh, err := alignProfile(depths, rhTk, rh)
	if err != nil {
		return nil, err
	}
	newTk, err := DepthToThickness(depths)
	if err != nil {
		return nil, err
	}
	return NewGroundModel(newTk, newVp, newVs, newRh, 0, 0)
}

// alignProfile repeats each profile value over every unified boundary it
// spans. A zero-thickness layer means the half-space was reached early and
// its value repeats for all remaining positions.
func alignProfile(depths, tk, par []float64) ([]float64, error) {
	if len(tk) != len(par) {
		return nil, fmt.Errorf("%w: %d thicknesses and %d values", ErrLengthMismatch, len(tk), len(par))
	}
	out := make([]float64, 0, len(depths))
	layer := 0
	bottom := tk[0]
	for i := range depths {
		if tk[layer] == 0 {
			for len(out) < len(depths) {
				out = append(out, par[layer])
			}
			return out, nil
		}
		out = append(out, par[layer])
		if i+1 < len(depths) && depths[i+1] >= bottom {
			layer++
			if layer < len(tk) {
				bottom += tk[layer]
			}
		}
	}
	return out, nil
}

// DepthToThickness converts layer-top depths to thicknesses. The first
// depth must be zero; the half-space gets zero thickness.
func DepthToThickness(depths []float64) ([]float64, error) {
	if len(depths) == 0 {
		return nil, fmt.Errorf("%w: no depths provided", ErrEmptyInput)
	}
	if depths[0] != 0 {
		return nil, fmt.Errorf("%w: depths are defined from the top of each layer, first must be 0",
			ErrInvalidParameter)
	}
	if len(depths) == 1 {
		return []float64{0}, nil
	}
	thicknesses := []float64{depths[1]}
	for i := 2; i < len(depths); i++ {
		thicknesses = append(thicknesses, depths[i]-depths[i-1])
	}
	return append(thicknesses, 0), nil
}

// ThicknessToDepth converts layer thicknesses to the depth at the top of
// each layer.
func ThicknessToDepth(thicknesses []float64) []float64 {
	depths := make([]float64, len(thicknesses))
	sum := 0.0
	for i := 1; i < len(thicknesses); i++ {
		sum += thicknesses[i-1]
		depths[i] = sum
	}
	return depths
}

// GroundModelBlock is one raw model record located in a geopsy report:
// identifier, misfit, and the span of quad rows still to be parsed. Blocks
// are independent once located, which is what makes parallel parsing safe.
type GroundModelBlock struct {
	Identifier int
	Misfit     float64
	Data       string
}

// ScanGroundModelBlocks locates every ground-model record in text in one
// linear pass.
func ScanGroundModelBlocks(text string) ([]GroundModelBlock, error) {
	matches := gmRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no ground models matched", ErrEmptyInput)
	}
	blocks := make([]GroundModelBlock, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad model identifier %q", ErrFormat, m[1])
		}
		misfit, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad misfit %q", ErrFormat, m[2])
		}
		blocks = append(blocks, GroundModelBlock{Identifier: id, Misfit: misfit, Data: m[3]})
	}
	return blocks, nil
}

// ParseGroundModelData parses the quad rows of one model block, stopping at
// the first zero-thickness row (the half-space).
func ParseGroundModelData(data string, identifier int, misfit float64) (*GroundModel, error) {
	var tks, vps, vss, rhs []float64
	for _, m := range gmQuadRe.FindAllStringSubmatch(data, -1) {
		row := make([]float64, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad layer value %q", ErrFormat, m[i+1])
			}
			row[i] = v
		}
		tks = append(tks, row[0])
		vps = append(vps, row[1])
		vss = append(vss, row[2])
		rhs = append(rhs, row[3])
		if row[0] == 0 {
			break
		}
	}
	if len(tks) == 0 {
		return nil, fmt.Errorf("%w: no layer rows in model block", ErrEmptyInput)
	}
	return NewGroundModel(tks, vps, vss, rhs, identifier, misfit)
}

// ParseGroundModel parses the first model found in a geopsy-style text.
func ParseGroundModel(text string) (*GroundModel, error) {
	blocks, err := ScanGroundModelBlocks(text)
	if err != nil {
		return nil, err
	}
	b := blocks[0]
	return ParseGroundModelData(b.Data, b.Identifier, b.Misfit)
}

// ReadGroundModel reads the first model from a geopsy-format file.
func ReadGroundModel(fname string) (*GroundModel, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ParseGroundModel(string(raw))
}

// WriteModel appends the model to w in the geopsy format: header line,
// layer count, one quad row per layer.
func (gm *GroundModel) WriteModel(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# Layered model %d: value=%s\n", gm.Identifier, fstr(gm.Misfit)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d\n", gm.NLayers()); err != nil {
		return err
	}
	for i := range gm.Thickness {
		_, err := fmt.Fprintf(w, "%s %s %s %s\n",
			fstr(gm.Thickness[i]), fstr(gm.Vp[i]), fstr(gm.Vs[i]), fstr(gm.Density[i]))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteToTxt writes the model to a geopsy-format file.
func (gm *GroundModel) WriteToTxt(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return gm.WriteModel(f)
}

// Equal compares identifier, misfit, and all four per-layer sequences
// elementwise.
func (gm *GroundModel) Equal(other *GroundModel) bool {
	if other == nil || gm.Identifier != other.Identifier || gm.Misfit != other.Misfit {
		return false
	}
	for _, pair := range [][2][]float64{
		{gm.Thickness, other.Thickness},
		{gm.Vp, other.Vp},
		{gm.Vs, other.Vs},
		{gm.Density, other.Density},
	} {
		if len(pair[0]) != len(pair[1]) {
			return false
		}
		for i := range pair[0] {
			if pair[0][i] != pair[1][i] {
				return false
			}
		}
	}
	return true
}

func (gm *GroundModel) String() string {
	return fmt.Sprintf("GroundModel with %d layers", gm.NLayers())
}
