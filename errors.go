package swprep

import "errors"

// Sentinel errors returned by the swprep package. Callers should match them
// with errors.Is; contextual detail is added at the call site with %w.
var (
	// ErrLengthMismatch indicates parallel slices of unequal length.
	ErrLengthMismatch = errors.New("swprep: length mismatch")

	// ErrDimensionMismatch indicates inconsistent array or matrix dimensions.
	ErrDimensionMismatch = errors.New("swprep: dimension mismatch")

	// ErrPhysicalConstraint indicates a physically impossible model, for
	// example vp <= vs or a non-positive Poisson's ratio.
	ErrPhysicalConstraint = errors.New("swprep: physical constraint violated")

	// ErrFormat indicates text or container input that does not follow the
	// expected geopsy grammar.
	ErrFormat = errors.New("swprep: unrecognized format")

	// ErrUnsupportedVersion indicates a geopsy version outside the supported set.
	ErrUnsupportedVersion = errors.New("swprep: unsupported geopsy version")

	// ErrEmptyInput indicates a scan that produced zero records.
	ErrEmptyInput = errors.New("swprep: no records found in input")

	// ErrInvalidParameter indicates an out-of-range scalar argument.
	ErrInvalidParameter = errors.New("swprep: invalid parameter")
)
