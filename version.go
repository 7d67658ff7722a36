package swprep

import "fmt"

// version is written to CSV headers and ModalCurve log entries.
const version = "1.0.0"

// Version reports the library version.
func Version() string { return version }

// GeopsyVersion selects which of the two supported target/report conventions
// to read or write. The two versions use different slowness-domain
// uncertainty encodings and structurally different container schemas, so
// files are not cross-version compatible.
type GeopsyVersion string

const (
	// Geopsy2 is geopsy 2.10.1: slowness-domain half-width standard
	// deviations and GNU-format tar containers.
	Geopsy2 GeopsyVersion = "2.10.1"

	// Geopsy3 is geopsy 3.4.2: logarithmic-domain standard deviations and
	// PAX-format tar containers.
	Geopsy3 GeopsyVersion = "3.4.2"
)

// CheckGeopsyVersion validates v against the supported set.
func CheckGeopsyVersion(v GeopsyVersion) error {
	switch v {
	case Geopsy2, Geopsy3:
		return nil
	default:
		return fmt.Errorf("%w: %q, use one of %q, %q", ErrUnsupportedVersion, v, Geopsy2, Geopsy3)
	}
}
