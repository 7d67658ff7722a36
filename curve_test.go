package swprep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurveLengthMismatch(t *testing.T) {
	_, err := NewCurve([]float64{1, 2, 3}, []float64{1, 2}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNewCurveCheckRejectsPair(t *testing.T) {
	_, err := NewCurve([]float64{1, -2}, []float64{1, 2}, func(x, y float64) error {
		if x <= 0 {
			return ErrPhysicalConstraint
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrPhysicalConstraint)
}

func TestCurveResampleLinearData(t *testing.T) {
	c, err := NewCurve([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, nil)
	require.NoError(t, err)

	xx := []float64{1.5, 2.5, 3.5}
	nx, ny, err := c.Resample(xx, false, LinearInterpolator)
	require.NoError(t, err)
	assert.Equal(t, xx, nx)
	assert.InDeltaSlice(t, []float64{3, 5, 7}, ny, 1e-12)

	// The original curve is untouched without inPlace.
	assert.Equal(t, 4, c.Len())
}

func TestCurveResampleInPlace(t *testing.T) {
	c, err := NewCurve([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, nil)
	require.NoError(t, err)

	_, _, err = c.Resample([]float64{1.5, 2.5}, true, LinearInterpolator)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, c.X())
	assert.InDeltaSlice(t, []float64{3, 5}, c.Y(), 1e-12)
}

func TestLinearInterpolatorExtrapolates(t *testing.T) {
	res, err := LinearInterpolator([]float64{1, 2, 3}, []float64{10, 20, 30})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res(0), 1e-12)
	assert.InDelta(t, 40.0, res(4), 1e-12)
}

func TestCubicInterpolatorAcceptsDescendingInput(t *testing.T) {
	// Wavelength-domain fits hand over descending x values.
	res, err := CubicInterpolator([]float64{4, 3, 2, 1}, []float64{8, 6, 4, 2})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res(2.5), 1e-9)
}

func TestCurveEqual(t *testing.T) {
	a, err := NewCurve([]float64{1, 2}, []float64{3, 4}, nil)
	require.NoError(t, err)
	b, err := NewCurve([]float64{1, 2}, []float64{3, 4.000000001}, nil)
	require.NoError(t, err)
	assert.True(t, a.Equal(&b, 1e-6))
	assert.False(t, a.Equal(&b, 1e-12))
}

func TestNewCurveUncertainLengthMismatch(t *testing.T) {
	_, err := NewCurveUncertain([]float64{1, 2}, []float64{3, 4}, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewCurveUncertain([]float64{1, 2}, []float64{3, 4}, nil, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCurveUncertainResampleChannels(t *testing.T) {
	c, err := NewCurveUncertain(
		[]float64{1, 2, 3, 4},
		[]float64{10, 20, 30, 40},
		[]float64{1, 2, 3, 4},
		nil)
	require.NoError(t, err)

	out, err := c.ResampleUncertain([]float64{1.5, 3.5}, false, LinearInterpolator)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{15, 35}, out.Y, 1e-12)
	assert.InDeltaSlice(t, []float64{1.5, 3.5}, out.YErr, 1e-12)
	assert.Nil(t, out.XErr)
}
