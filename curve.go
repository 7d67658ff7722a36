package swprep

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// ResampleFunc evaluates a fitted interpolant at x.
type ResampleFunc func(x float64) float64

// Interpolator fits an interpolant to the provided sample points and returns
// a function evaluating it. Callers may supply their own to replace the
// default cubic machinery.
type Interpolator func(xs, ys []float64) (ResampleFunc, error)

// CheckFunc validates one (x, y) pair during curve construction.
type CheckFunc func(x, y float64) error

// sortedPairs copies the sample points in ascending x order. Fitting in the
// wavelength domain hands over descending x values, so interpolators cannot
// assume their input is sorted.
func sortedPairs(xs, ys []float64) ([]float64, []float64) {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	x := make([]float64, len(xs))
	y := make([]float64, len(ys))
	for i, j := range idx {
		x[i] = xs[j]
		y[i] = ys[j]
	}
	return x, y
}

// CubicInterpolator fits a natural cubic spline using gonum.
func CubicInterpolator(xs, ys []float64) (ResampleFunc, error) {
	x, y := sortedPairs(xs, ys)
	nc := &interp.NaturalCubic{}
	if err := nc.Fit(x, y); err != nil {
		return nil, fmt.Errorf("swprep: cubic fit: %w", err)
	}
	return nc.Predict, nil
}

// LinearInterpolator fits a piecewise linear interpolant that extrapolates
// beyond the sample range using the slope of the nearest segment. The gonum
// predictors clamp at the boundary, which is unusable for the
// wavelength-domain construction path, so the segments are evaluated
// directly.
func LinearInterpolator(xs, ys []float64) (ResampleFunc, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values and %d y values", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least two points to interpolate", ErrInvalidParameter)
	}
	x, y := sortedPairs(xs, ys)
	return func(v float64) float64 {
		i := sort.SearchFloat64s(x, v)
		switch {
		case i <= 0:
			i = 1
		case i >= len(x):
			i = len(x) - 1
		}
		slope := (y[i] - y[i-1]) / (x[i] - x[i-1])
		return y[i-1] + slope*(v-x[i-1])
	}, nil
}

// Curve is an ordered set of (x, y) coordinates.
type Curve struct {
	x, y []float64
}

// NewCurve builds a curve from x and y coordinates of equal length. When
// check is non-nil it is invoked per pair and its error aborts construction.
func NewCurve(x, y []float64, check CheckFunc) (Curve, error) {
	if len(x) != len(y) {
		return Curve{}, fmt.Errorf("%w: x and y must be the same size, currently %d and %d",
			ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return Curve{}, fmt.Errorf("%w: curve requires at least one point", ErrInvalidParameter)
	}
	if check != nil {
		for i := range x {
			if err := check(x[i], y[i]); err != nil {
				return Curve{}, err
			}
		}
	}
	return Curve{
		x: append([]float64(nil), x...),
		y: append([]float64(nil), y...),
	}, nil
}

// X returns the curve's x coordinates. The slice is shared, not copied.
func (c *Curve) X() []float64 { return c.x }

// Y returns the curve's y coordinates. The slice is shared, not copied.
func (c *Curve) Y() []float64 { return c.y }

// Len returns the number of points defining the curve.
func (c *Curve) Len() int { return len(c.x) }

// Resample evaluates the curve at xx. With a nil interpolator a natural
// cubic spline is fitted over the existing points. When inPlace is true the
// curve's coordinates are replaced, otherwise new slices are returned and
// the curve is left untouched.
func (c *Curve) Resample(xx []float64, inPlace bool, fn Interpolator) ([]float64, []float64, error) {
	if fn == nil {
		fn = CubicInterpolator
	}
	res, err := fn(c.x, c.y)
	if err != nil {
		return nil, nil, err
	}
	return c.resampleWith(xx, inPlace, res)
}

func (c *Curve) resampleWith(xx []float64, inPlace bool, res ResampleFunc) ([]float64, []float64, error) {
	nx := append([]float64(nil), xx...)
	ny := make([]float64, len(nx))
	for i, v := range nx {
		ny[i] = res(v)
	}
	if inPlace {
		c.x, c.y = nx, ny
	}
	return nx, ny, nil
}

// Equal reports whether both curves have the same size and values within tol.
func (c *Curve) Equal(other *Curve, tol float64) bool {
	if other == nil || len(c.x) != len(other.x) {
		return false
	}
	return floats.EqualApprox(c.x, other.x, tol) && floats.EqualApprox(c.y, other.y, tol)
}

func (c *Curve) String() string {
	return fmt.Sprintf("Curve with %d points", len(c.x))
}
