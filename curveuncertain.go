package swprep

import "fmt"

// CurveUncertain is a curve with optional error in the x and y directions.
// A nil error slice means no error was provided for that direction.
type CurveUncertain struct {
	Curve
	yerr, xerr []float64
}

// ResampledUncertain carries the outcome of resampling a CurveUncertain.
// YErr and XErr are nil whenever the corresponding error channel was absent
// on the source curve.
type ResampledUncertain struct {
	X, Y, YErr, XErr []float64
}

// NewCurveUncertain builds an uncertain curve. yerr and xerr, when non-nil,
// must match the curve length exactly.
func NewCurveUncertain(x, y, yerr, xerr []float64) (CurveUncertain, error) {
	curve, err := NewCurve(x, y, nil)
	if err != nil {
		return CurveUncertain{}, err
	}
	c := CurveUncertain{Curve: curve}
	if yerr != nil {
		if len(yerr) != curve.Len() {
			return CurveUncertain{}, fmt.Errorf("%w: size of yerr and curve must match exactly, %d != %d",
				ErrLengthMismatch, len(yerr), curve.Len())
		}
		c.yerr = append([]float64(nil), yerr...)
	}
	if xerr != nil {
		if len(xerr) != curve.Len() {
			return CurveUncertain{}, fmt.Errorf("%w: size of xerr and curve must match exactly, %d != %d",
				ErrLengthMismatch, len(xerr), curve.Len())
		}
		c.xerr = append([]float64(nil), xerr...)
	}
	return c, nil
}

// YErr returns the y-direction error, nil if absent.
func (c *CurveUncertain) YErr() []float64 { return c.yerr }

// XErr returns the x-direction error, nil if absent.
func (c *CurveUncertain) XErr() []float64 { return c.xerr }

// ResampleUncertain resamples the central trend and, independently, each
// error channel that is present, all at the same xx. With a nil interpolator
// a natural cubic spline is fitted per channel.
func (c *CurveUncertain) ResampleUncertain(xx []float64, inPlace bool, fn Interpolator) (ResampledUncertain, error) {
	if fn == nil {
		fn = CubicInterpolator
	}

	// Error interpolants are fitted against the original x before the mean
	// curve can be mutated in place.
	var resYErr, resXErr ResampleFunc
	var err error
	if c.yerr != nil {
		if resYErr, err = fn(c.x, c.yerr); err != nil {
			return ResampledUncertain{}, err
		}
	}
	if c.xerr != nil {
		if resXErr, err = fn(c.x, c.xerr); err != nil {
			return ResampledUncertain{}, err
		}
	}

	nx, ny, err := c.Resample(xx, inPlace, fn)
	if err != nil {
		return ResampledUncertain{}, err
	}

	out := ResampledUncertain{X: nx, Y: ny}
	if resYErr != nil {
		out.YErr = make([]float64, len(nx))
		for i, v := range nx {
			out.YErr[i] = resYErr(v)
		}
	}
	if resXErr != nil {
		out.XErr = make([]float64, len(nx))
		for i, v := range nx {
			out.XErr[i] = resXErr(v)
		}
	}

	if inPlace {
		c.yerr = out.YErr
		c.xerr = out.XErr
	}
	return out, nil
}
