package swprep

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gmReport = `# File generated by an inversion run
# Layered model 0: value=1.2
3
5 200 100 2000
10 400 200 2000
0 600 300 2000
# Layered model 1: value=0.9
3
4 210 105 2000
11 410 205 2000
0 610 305 2000
# Layered model 2: value=1.7
3
6 190 95 2000
9 390 195 2000
0 590 295 2000
`

func simpleGM(t *testing.T) *GroundModel {
	t.Helper()
	gm, err := NewGroundModel(
		[]float64{5, 0},
		[]float64{200, 250},
		[]float64{100, 125},
		[]float64{2000, 2000}, 0, 0)
	require.NoError(t, err)
	return gm
}

func TestNewGroundModelValidation(t *testing.T) {
	_, err := NewGroundModel([]float64{5, 0}, []float64{200}, []float64{100, 125}, []float64{2000, 2000}, 0, 0)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewGroundModel([]float64{5, 0}, []float64{100, 250}, []float64{100, 125}, []float64{2000, 2000}, 0, 0)
	assert.ErrorIs(t, err, ErrPhysicalConstraint)

	_, err = NewGroundModel([]float64{-5, 0}, []float64{200, 250}, []float64{100, 125}, []float64{2000, 2000}, 0, 0)
	assert.ErrorIs(t, err, ErrPhysicalConstraint)
}

func TestPoissonRatio(t *testing.T) {
	pr, err := PoissonRatio(300, 150)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, pr, 1e-12)

	_, err = PoissonRatio(150, 150)
	assert.ErrorIs(t, err, ErrPhysicalConstraint)

	// vp/vs close to unity drives the ratio negative.
	_, err = PoissonRatio(150, 120)
	assert.ErrorIs(t, err, ErrPhysicalConstraint)
}

func TestStairStep(t *testing.T) {
	gm := simpleGM(t)

	depth, err := gm.StairStep(ParamDepth)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 5, 9999.0}, depth)

	vp, err := gm.StairStep(ParamVp)
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 200, 250, 250}, vp)

	pr, err := gm.StairStep(ParamPR)
	require.NoError(t, err)
	require.Len(t, pr, 4)
	want, err := PoissonRatio(200, 100)
	require.NoError(t, err)
	assert.InDelta(t, want, pr[0], 1e-12)
}

func TestDiscretize(t *testing.T) {
	gm, err := NewGroundModel(
		[]float64{2, 3, 0},
		[]float64{200, 400, 600},
		[]float64{100, 200, 300},
		[]float64{2000, 2000, 2000}, 0, 0)
	require.NoError(t, err)

	depth, vs, err := gm.Discretize(10, 1, ParamVs)
	require.NoError(t, err)
	require.Len(t, depth, 11)
	assert.Equal(t, 0.0, depth[0])
	assert.Equal(t, 10.0, depth[10])
	assert.Equal(t, []float64{100, 100, 100, 200, 200, 200, 300, 300, 300, 300, 300}, vs)
}

func TestDiscretizeFractionalCarry(t *testing.T) {
	gm, err := NewGroundModel(
		[]float64{1.5, 1.5, 0},
		[]float64{200, 400, 600},
		[]float64{100, 200, 300},
		[]float64{2000, 2000, 2000}, 0, 0)
	require.NoError(t, err)

	// Fractions of a sample accumulate and carry instead of truncating.
	_, vs, err := gm.Discretize(5, 1, ParamVs)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 200, 200, 300, 300}, vs)
}

func TestSimplify(t *testing.T) {
	gm, err := NewGroundModel(
		[]float64{1, 1, 2, 0},
		[]float64{200, 200, 300, 300},
		[]float64{100, 100, 150, 150},
		[]float64{2000, 2000, 2000, 2000}, 0, 0)
	require.NoError(t, err)

	tk, vp, err := gm.Simplify(ParamVp)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0}, tk)
	assert.Equal(t, []float64{200, 300}, vp)

	// Simplifying an already simple profile changes nothing.
	gm2, err := NewGroundModel(tk, vp, []float64{100, 150}, []float64{2000, 2000}, 0, 0)
	require.NoError(t, err)
	tk2, vp2, err := gm2.Simplify(ParamVp)
	require.NoError(t, err)
	assert.Equal(t, tk, tk2)
	assert.Equal(t, vp, vp2)
}

func TestVS30(t *testing.T) {
	gm, err := NewGroundModel(
		[]float64{15, 15, 0},
		[]float64{200, 400, 600},
		[]float64{100, 200, 300},
		[]float64{2000, 2000, 2000}, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 30/(15.0/100+15.0/200), gm.VS30(), 1e-12)

	// A half-space at the surface gives its velocity directly.
	hs, err := NewGroundModel([]float64{0}, []float64{400}, []float64{180}, []float64{2000}, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, hs.VS30(), 1e-12)
}

func TestDepthThicknessConversions(t *testing.T) {
	tk, err := DepthToThickness([]float64{0, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 0}, tk)

	tk, err = DepthToThickness([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, tk)

	_, err = DepthToThickness([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	assert.Equal(t, []float64{0, 2, 5}, ThicknessToDepth([]float64{2, 3, 0}))
}

func TestFromSimpleProfiles(t *testing.T) {
	gm, err := FromSimpleProfiles(
		[]float64{5, 0}, []float64{200, 250},
		[]float64{2, 0}, []float64{100, 150},
		[]float64{0}, []float64{2000})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 3, 0}, gm.Thickness)
	assert.Equal(t, []float64{200, 200, 250}, gm.Vp)
	assert.Equal(t, []float64{100, 150, 150}, gm.Vs)
	assert.Equal(t, []float64{2000, 2000, 2000}, gm.Density)
}

func TestParseGroundModelFirstBlock(t *testing.T) {
	gm, err := ParseGroundModel(gmReport)
	require.NoError(t, err)
	assert.Equal(t, 0, gm.Identifier)
	assert.Equal(t, 1.2, gm.Misfit)
	assert.Equal(t, []float64{5, 10, 0}, gm.Thickness)
	assert.Equal(t, []float64{100, 200, 300}, gm.Vs)
}

func TestParseGroundModelStopsAtHalfspace(t *testing.T) {
	// Rows after the zero-thickness half-space belong to the next record.
	gm, err := ParseGroundModelData("5 200 100 2000\n0 600 300 2000\n7 999 500 2000\n", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, gm.NLayers())
}

func TestScanGroundModelBlocksEmptyInput(t *testing.T) {
	_, err := ScanGroundModelBlocks("nothing to see\n")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestGroundModelWriteParseRoundTrip(t *testing.T) {
	gm, err := ParseGroundModel(gmReport)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gm.WriteModel(&buf))
	back, err := ParseGroundModel(buf.String())
	require.NoError(t, err)
	assert.True(t, gm.Equal(back))
}

func TestGroundModelFileRoundTrip(t *testing.T) {
	gm := simpleGM(t)
	fname := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, gm.WriteToTxt(fname))

	back, err := ReadGroundModel(fname)
	require.NoError(t, err)
	assert.True(t, gm.Equal(back))
}

func TestDiscretizePoissonRatio(t *testing.T) {
	gm := simpleGM(t)
	_, pr, err := gm.Discretize(10, 1, ParamPR)
	require.NoError(t, err)
	require.Len(t, pr, 11)
	for _, v := range pr {
		assert.False(t, math.IsNaN(v))
		assert.Greater(t, v, 0.0)
	}
}
