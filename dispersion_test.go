package swprep

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dcReport = `# File generated by a forward solver
# Layered model 0: value=1.5
# 2 Rayleigh dispersion mode(s)
# CPU Time = 40 ms
# Mode 0
0.1 0.005
0.2 0.0055
0.3 0.006
# Mode 1
0.15 0.004
0.25 0.0045
# Layered model 0: value=1.5
# 1 Love dispersion mode(s)
# CPU Time = 35 ms
# Mode 0
0.1 0.0065
0.2 0.007
# Layered model 1: value=0.8
# 1 Rayleigh dispersion mode(s)
# CPU Time = 40 ms
# Mode 0
0.1 0.0051
0.2 0.0056
# Layered model 1: value=0.8
# 1 Love dispersion mode(s)
# CPU Time = 35 ms
# Mode 0
0.1 0.0064
0.2 0.0071
`

func TestParseDispersionCurveTruncatesAtMonotonicityBreak(t *testing.T) {
	dc, err := parseDispersionCurve("0.1 0.005\n0.2 0.006\n0.15 0.004\n")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, dc.Frequency())
	assert.InDeltaSlice(t, []float64{200, 1 / 0.006}, dc.Velocity(), 1e-9)
}

func TestDispersionCurveDerivedQuantities(t *testing.T) {
	dc, err := NewDispersionCurve([]float64{2, 4}, []float64{100, 200})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{50, 50}, dc.Wavelength(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.01, 0.005}, dc.Slowness(), 1e-12)
}

func TestNewDispersionCurveRejectsNonPositive(t *testing.T) {
	_, err := NewDispersionCurve([]float64{1, 2}, []float64{100, 0})
	assert.ErrorIs(t, err, ErrPhysicalConstraint)
}

func TestDispersionCurveWriteParseRoundTrip(t *testing.T) {
	dc, err := NewDispersionCurve([]float64{0.5, 1, 2}, []float64{400, 300, 200})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dc.WriteCurve(&buf))
	back, err := parseDispersionCurve(buf.String())
	require.NoError(t, err)
	assert.True(t, dc.Equal(back))
}

func TestParseDispersionSetFirstModelOnly(t *testing.T) {
	set, err := ParseDispersionSet(dcReport, All, All)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Identifier)
	assert.Equal(t, 1.5, set.Misfit)
	assert.Equal(t, []int{0, 1}, Modes(set.Rayleigh))
	assert.Equal(t, []int{0}, Modes(set.Love))
	assert.InDelta(t, 200.0, set.Rayleigh[0].Velocity()[0], 1e-9)
}

func TestParseDispersionSetModeCaps(t *testing.T) {
	set, err := ParseDispersionSet(dcReport, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, Modes(set.Rayleigh))
	assert.Nil(t, set.Love)

	_, err = ParseDispersionSet(dcReport, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseDispersionSetEmptyInput(t *testing.T) {
	_, err := ParseDispersionSet("no dispersion data here\n", All, All)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDispersionSetWriteParseRoundTrip(t *testing.T) {
	set, err := ParseDispersionSet(dcReport, All, All)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, set.WriteSet(&buf, All, All))
	back, err := ParseDispersionSet(buf.String(), All, All)
	require.NoError(t, err)
	assert.True(t, set.Equal(back))
}

func TestParseDispersionSuiteAllModels(t *testing.T) {
	suite, err := ParseDispersionSuite(dcReport, All, All, All, true)
	require.NoError(t, err)
	assert.Equal(t, 2, suite.Size())

	// Sorted ascending by misfit: model 1 (0.8) before model 0 (1.5).
	assert.Equal(t, []int{1, 0}, suite.Identifiers())
	assert.Equal(t, []float64{0.8, 1.5}, suite.Misfits())
}

func TestParseDispersionSuiteNSetsCap(t *testing.T) {
	suite, err := ParseDispersionSuite(dcReport, 1, All, All, false)
	require.NoError(t, err)
	require.Equal(t, 1, suite.Size())
	assert.Equal(t, 0, suite.Sets()[0].Identifier)
}

func TestParseDispersionSuiteEmptyInput(t *testing.T) {
	_, err := ParseDispersionSuite("junk\n", All, All, All, false)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDispersionSuiteFileRoundTrip(t *testing.T) {
	suite, err := ParseDispersionSuite(dcReport, All, All, All, false)
	require.NoError(t, err)

	fname := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, suite.WriteToTxt(fname, All))

	back, err := ReadDispersionSuite(fname, All, All, All, false)
	require.NoError(t, err)
	assert.True(t, suite.Equal(back))
}

func TestHandleNBestClampsAndRejects(t *testing.T) {
	suite, err := ParseDispersionSuite(dcReport, All, All, All, true)
	require.NoError(t, err)

	n, err := suite.handleNBest(5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = suite.handleNBest(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	minM, maxM, err := suite.MisfitRange(All)
	require.NoError(t, err)
	assert.Equal(t, 0.8, minM)
	assert.Equal(t, 1.5, maxM)
}

func TestReadDispersionSetFromFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(fname, []byte(dcReport), 0644))

	set, err := ReadDispersionSet(fname, All, All)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Identifier)
}
