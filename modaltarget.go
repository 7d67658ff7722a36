package swprep

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// ModeDescription is one possible interpretation of a measured mode: its
// wave type and mode number, zero being the fundamental mode. Experimental
// data often cannot distinguish between nearby modes, so a target carries
// every plausible description.
type ModeDescription struct {
	Polarization Polarization
	Mode         int
}

// Domain selects the abscissa along which a cut or resample operates.
type Domain string

const (
	DomainFrequency  Domain = "frequency"
	DomainWavelength Domain = "wavelength"
)

// Sampling selects the point spacing of a resample.
type Sampling string

const (
	SamplingLog    Sampling = "log"
	SamplingLinear Sampling = "linear"
)

// ModalTarget is the experimental dispersion data of a single mode prepared
// for inversion: frequency, phase velocity, and velocity standard deviation
// per point, plus the candidate descriptions of the mode. Points are kept
// sorted by ascending frequency.
type ModalTarget struct {
	CurveUncertain

	Description []ModeDescription

	// DCWeight is the misfit weight given to the dispersion data relative
	// to other target types.
	DCWeight float64
}

// defaultDescription is the fundamental Rayleigh mode.
func defaultDescription() []ModeDescription {
	return []ModeDescription{{Polarization: Rayleigh, Mode: 0}}
}

func checkDescription(description []ModeDescription) ([]ModeDescription, error) {
	if len(description) == 0 {
		return defaultDescription(), nil
	}
	for _, d := range description {
		if _, err := ParsePolarization(string(d.Polarization)); err != nil {
			return nil, err
		}
		if d.Mode < 0 {
			return nil, fmt.Errorf("%w: mode number %d is negative", ErrInvalidParameter, d.Mode)
		}
	}
	return append([]ModeDescription(nil), description...), nil
}

// NewModalTarget builds a target from frequency, velocity, and velocity
// standard deviation vectors of one surface wave mode. A nil velstd means
// the uncertainty was not measured and is treated as zero. An empty
// description defaults to the fundamental Rayleigh mode.
func NewModalTarget(frequency, velocity, velstd []float64, description []ModeDescription) (*ModalTarget, error) {
	if velstd == nil {
		velstd = make([]float64, len(velocity))
	}
	curve, err := NewCurveUncertain(frequency, velocity, velstd, nil)
	if err != nil {
		return nil, err
	}
	desc, err := checkDescription(description)
	if err != nil {
		return nil, err
	}
	t := &ModalTarget{CurveUncertain: curve, Description: desc, DCWeight: 1}
	t.sortData()
	return t, nil
}

// sortData orders the points by ascending frequency.
func (t *ModalTarget) sortData() {
	idx := make([]int, len(t.x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return t.x[idx[a]] < t.x[idx[b]] })
	x := make([]float64, len(t.x))
	y := make([]float64, len(t.y))
	yerr := make([]float64, len(t.yerr))
	for i, j := range idx {
		x[i] = t.x[j]
		y[i] = t.y[j]
		yerr[i] = t.yerr[j]
	}
	t.x, t.y, t.yerr = x, y, yerr
}

// Frequency returns the target's frequency values in Hz.
func (t *ModalTarget) Frequency() []float64 { return t.x }

// Velocity returns the target's phase velocity values in m/s.
func (t *ModalTarget) Velocity() []float64 { return t.y }

// VelStd returns the velocity standard deviation values in m/s.
func (t *ModalTarget) VelStd() []float64 { return t.yerr }

// Wavelength returns velocity/frequency per point.
func (t *ModalTarget) Wavelength() []float64 {
	out := make([]float64, len(t.x))
	for i := range t.x {
		out[i] = t.y[i] / t.x[i]
	}
	return out
}

// IsNoVelStd reports whether every point has zero velocity standard
// deviation.
func (t *ModalTarget) IsNoVelStd() bool {
	for _, std := range t.yerr {
		if std != 0 {
			return false
		}
	}
	return true
}

// Cov returns the coefficient of variation per point.
func (t *ModalTarget) Cov() []float64 {
	out := make([]float64, len(t.y))
	for i := range t.y {
		out[i] = t.yerr[i] / t.y[i]
	}
	return out
}

// Slowness returns 1/velocity per point.
func (t *ModalTarget) Slowness() []float64 {
	out := make([]float64, len(t.y))
	for i := range t.y {
		out[i] = 1 / t.y[i]
	}
	return out
}

// SloStd returns the slowness standard deviation per point, the half-width
// of the slowness interval implied by velocity +/- velstd.
func (t *ModalTarget) SloStd() []float64 {
	out := make([]float64, len(t.y))
	for i := range t.y {
		out[i] = 0.5 * (1/(t.y[i]-t.yerr[i]) - 1/(t.y[i]+t.yerr[i]))
	}
	return out
}

// LogStd returns the logarithmic slowness standard deviation per point,
// matching the encoding of the 3.4.2 file conventions.
func (t *ModalTarget) LogStd() []float64 {
	out := make([]float64, len(t.y))
	for i := range t.y {
		p := 1 / t.y[i]
		pstd := p * (t.yerr[i] / t.y[i])
		out[i] = 0.5 * ((p+pstd)/p + p/(p-pstd))
	}
	return out
}

// SetCov overwrites the velocity standard deviation with a constant
// coefficient of variation. Values between 0.05 and 0.10 are reasonable
// estimates when no uncertainty was measured.
func (t *ModalTarget) SetCov(cov float64) error {
	if cov < 0 {
		return fmt.Errorf("%w: cov must be greater than zero, not %v", ErrInvalidParameter, cov)
	}
	for i := range t.y {
		t.yerr[i] = t.y[i] * cov
	}
	return nil
}

// SetMinCov raises the velocity standard deviation of every point whose
// coefficient of variation falls below cov, leaving the rest untouched.
func (t *ModalTarget) SetMinCov(cov float64) error {
	if cov < 0 {
		return fmt.Errorf("%w: cov must be greater than zero, not %v", ErrInvalidParameter, cov)
	}
	for i := range t.y {
		if t.yerr[i]/t.y[i] < cov {
			t.yerr[i] = t.y[i] * cov
		}
	}
	return nil
}

// PseudoDepth estimates sensing depth per point as wavelength divided by
// depthFactor. Factors between 2 and 3 are typical.
func (t *ModalTarget) PseudoDepth(depthFactor float64) []float64 {
	if depthFactor > 3 || depthFactor < 2 {
		log.Warn().Float64("depth_factor", depthFactor).Msg("depth_factor is outside the typical range")
	}
	out := t.Wavelength()
	for i := range out {
		out[i] /= depthFactor
	}
	return out
}

// PseudoVs estimates shear-wave velocity per point as phase velocity times
// velocityFactor. Factors between 1 and 1.2 are typical, depending on the
// expected Poisson's ratio.
func (t *ModalTarget) PseudoVs(velocityFactor float64) []float64 {
	if velocityFactor > 1.2 || velocityFactor < 1 {
		log.Warn().Float64("velocity_factor", velocityFactor).Msg("velocity_factor is outside the typical range")
	}
	out := make([]float64, len(t.y))
	for i := range t.y {
		out[i] = t.y[i] * velocityFactor
	}
	return out
}

// domainValues resolves the abscissa for cut and resample operations.
func (t *ModalTarget) domainValues(domain Domain) ([]float64, error) {
	switch domain {
	case DomainFrequency:
		return t.Frequency(), nil
	case DomainWavelength:
		return t.Wavelength(), nil
	default:
		return nil, fmt.Errorf("%w: domain=%q is not recognized", ErrInvalidParameter, domain)
	}
}

// Cut discards all points whose domain value lies outside [pmin, pmax].
// Cutting away every point is an error and leaves the target unchanged.
func (t *ModalTarget) Cut(pmin, pmax float64, domain Domain) error {
	vals, err := t.domainValues(domain)
	if err != nil {
		return err
	}
	var x, y, yerr []float64
	for i, v := range vals {
		if v >= pmin && v <= pmax {
			x = append(x, t.x[i])
			y = append(y, t.y[i])
			yerr = append(yerr, t.yerr[i])
		}
	}
	if len(x) == 0 {
		return fmt.Errorf("%w: no points remain within [%v, %v] %s", ErrEmptyInput, pmin, pmax, domain)
	}
	t.x, t.y, t.yerr = x, y, yerr
	return nil
}

// resample fits cubic interpolants of velocity and of the coefficient of
// variation against the domain values and evaluates them at xx. The
// uncertainty is carried as cov, not velstd, so the relative error survives
// the velocity interpolation; velstd is rebuilt as velocity times cov. In
// the wavelength domain the new frequencies follow from the resampled
// velocities.
func (t *ModalTarget) resample(xx []float64, domain Domain, inPlace bool) (*ModalTarget, error) {
	vals, err := t.domainValues(domain)
	if err != nil {
		return nil, err
	}
	resVel, err := CubicInterpolator(vals, t.Velocity())
	if err != nil {
		return nil, err
	}
	resCov, err := CubicInterpolator(vals, t.Cov())
	if err != nil {
		return nil, err
	}

	newVel := make([]float64, len(xx))
	newStd := make([]float64, len(xx))
	newFrq := make([]float64, len(xx))
	for i, v := range xx {
		newVel[i] = resVel(v)
		newStd[i] = newVel[i] * resCov(v)
		if domain == DomainWavelength {
			newFrq[i] = newVel[i] / v
		} else {
			newFrq[i] = v
		}
	}

	if inPlace {
		t.x, t.y, t.yerr = newFrq, newVel, newStd
		t.sortData()
		return t, nil
	}
	return NewModalTarget(newFrq, newVel, newStd, t.Description)
}

// EasyResample resamples the target onto pn points spanning [pmin, pmax]
// in the chosen domain, spaced logarithmically or linearly. Reversed bounds
// are swapped. With inPlace the target itself is updated and returned,
// otherwise a new target is built.
func (t *ModalTarget) EasyResample(pmin, pmax float64, pn int, sampling Sampling, domain Domain, inPlace bool) (*ModalTarget, error) {
	if pmax < pmin {
		pmin, pmax = pmax, pmin
	}
	if pn < 1 {
		return nil, fmt.Errorf("%w: pn must be greater than zero, not %d", ErrInvalidParameter, pn)
	}

	if sampling != SamplingLog && sampling != SamplingLinear {
		return nil, fmt.Errorf("%w: sampling=%q has not been implemented", ErrInvalidParameter, sampling)
	}
	xx := make([]float64, pn)
	switch {
	case pn == 1:
		// Span panics below two points; a single sample is just pmin.
		xx[0] = pmin
	case sampling == SamplingLog:
		floats.LogSpan(xx, pmin, pmax)
	default:
		floats.Span(xx, pmin, pmax)
	}
	return t.resample(xx, domain, inPlace)
}

// Vr40 estimates the Rayleigh phase velocity at a wavelength of 40 m. The
// measured wavelengths must strictly bracket 40 m.
func (t *ModalTarget) Vr40() (float64, error) {
	wavelength := t.Wavelength()
	if floats.Max(wavelength) <= 40 || floats.Min(wavelength) >= 40 {
		return 0, fmt.Errorf("%w: a wavelength of 40m is out of range", ErrInvalidParameter)
	}
	obj, err := t.EasyResample(40, 40, 1, SamplingLinear, DomainWavelength, false)
	if err != nil {
		return 0, err
	}
	return obj.Velocity()[0], nil
}

// FromWavelength builds a target from data processed in terms of
// wavelength. The uncertainty bounds velocity +/- velstd map to different
// frequencies than the mean curve, so both bounds are carried to the mean
// frequencies by linear interpolation with extrapolation and averaged.
func FromWavelength(wavelength, velocity, velstd []float64, description []ModeDescription) (*ModalTarget, error) {
	if len(wavelength) != len(velocity) {
		return nil, fmt.Errorf("%w: %d wavelengths and %d velocities",
			ErrLengthMismatch, len(wavelength), len(velocity))
	}
	if velstd == nil {
		velstd = make([]float64, len(velocity))
	}
	if len(velstd) != len(velocity) {
		return nil, fmt.Errorf("%w: %d velocities and %d velstds",
			ErrLengthMismatch, len(velocity), len(velstd))
	}

	n := len(velocity)
	frequency := make([]float64, n)
	upperX := make([]float64, n)
	upperY := make([]float64, n)
	lowerX := make([]float64, n)
	lowerY := make([]float64, n)
	for i := 0; i < n; i++ {
		frequency[i] = velocity[i] / wavelength[i]
		upperY[i] = velocity[i] + velstd[i]
		upperX[i] = upperY[i] / wavelength[i]
		lowerY[i] = velocity[i] - velstd[i]
		lowerX[i] = lowerY[i] / wavelength[i]
	}

	resUpper, err := LinearInterpolator(upperX, upperY)
	if err != nil {
		return nil, err
	}
	resLower, err := LinearInterpolator(lowerX, lowerY)
	if err != nil {
		return nil, err
	}

	newStd := make([]float64, n)
	for i, f := range frequency {
		a := resUpper(f)
		b := resLower(f)
		newStd[i] = (math.Abs(a-velocity[i]) + math.Abs(b-velocity[i])) / 2
	}
	return NewModalTarget(frequency, velocity, newStd, description)
}

// WriteCSV appends the target to w as CSV with metadata header rows naming
// every candidate description.
func (t *ModalTarget) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#goswprep v%s,,\n", version)
	fmt.Fprintf(bw, "#%d potential descriptions:,,\n", len(t.Description))
	for _, d := range t.Description {
		fmt.Fprintf(bw, "#%s %d,,\n", d.Polarization, d.Mode)
	}
	fmt.Fprint(bw, "#Frequency (Hz),Velocity (m/s),Velocity Standard Deviation (m/s)\n")
	for i := range t.x {
		fmt.Fprintf(bw, "%s,%s,%s\n", fstr(t.x[i]), fstr(t.y[i]), fstr(t.yerr[i]))
	}
	return bw.Flush()
}

// ToCSV writes the target to a CSV file.
func (t *ModalTarget) ToCSV(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.WriteCSV(f)
}

// ParseModalTargetCSV reads a target from CSV text. Metadata rows of the
// form "#<polarization> <mode>" restore the description; without them the
// provided fallback is used. Rows must carry two or three columns, a
// missing standard deviation reads as zero, and any extra column is an
// error.
func ParseModalTargetCSV(text string, fallback []ModeDescription) (*ModalTarget, error) {
	var description []ModeDescription
	for _, m := range csvDescriptionRe.FindAllStringSubmatch(text, -1) {
		pol, err := ParsePolarization(m[1])
		if err != nil {
			return nil, err
		}
		mode, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode number %q", ErrFormat, m[2])
		}
		description = append(description, ModeDescription{Polarization: pol, Mode: mode})
	}
	if description == nil {
		description = fallback
	}

	var frequency, velocity, velstd []float64
	for _, m := range csvPointRe.FindAllStringSubmatch(text, -1) {
		if m[4] != "" {
			return nil, fmt.Errorf("%w: more than three columns of data", ErrFormat)
		}
		frq, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad frequency %q", ErrFormat, m[1])
		}
		vel, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad velocity %q", ErrFormat, m[2])
		}
		std := 0.0
		if m[3] != "" {
			if std, err = strconv.ParseFloat(m[3], 64); err != nil {
				return nil, fmt.Errorf("%w: bad velocity standard deviation %q", ErrFormat, m[3])
			}
		}
		frequency = append(frequency, frq)
		velocity = append(velocity, vel)
		velstd = append(velstd, std)
	}
	if len(frequency) == 0 {
		return nil, fmt.Errorf("%w: no data rows recognized", ErrEmptyInput)
	}
	return NewModalTarget(frequency, velocity, velstd, description)
}

// ReadModalTargetCSV reads a target from a CSV file.
func ReadModalTargetCSV(fname string, fallback []ModeDescription) (*ModalTarget, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ParseModalTargetCSV(string(raw), fallback)
}

// versionStd resolves the slowness-domain uncertainty encoding of a
// version.
func (t *ModalTarget) versionStd(v GeopsyVersion) ([]float64, error) {
	if err := CheckGeopsyVersion(v); err != nil {
		return nil, err
	}
	if v == Geopsy2 {
		return t.SloStd(), nil
	}
	return t.LogStd(), nil
}

// ToTxtDinver writes the tab-separated frequency, slowness, and
// version-encoded standard deviation rows accepted by Dinver's
// pre-processor.
func (t *ModalTarget) ToTxtDinver(fname string, v GeopsyVersion) error {
	stddevs, err := t.versionStd(v)
	if err != nil {
		return err
	}
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	slowness := t.Slowness()
	for i := range t.x {
		fmt.Fprintf(bw, "%s\t%s\t%s\n", fstr(t.x[i]), fstr(slowness[i]), fstr(stddevs[i]))
	}
	return bw.Flush()
}

// FromTxtDinver reads a Dinver pre-processor text file, inverting the
// version-specific uncertainty encoding back to velocity standard
// deviation.
func FromTxtDinver(fname string, v GeopsyVersion) (*ModalTarget, error) {
	if err := CheckGeopsyVersion(v); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	var frequency, velocity, velstd []float64
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: expected three columns, got %q", ErrFormat, line)
		}
		row := make([]float64, 3)
		for i := 0; i < 3; i++ {
			if row[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
				return nil, fmt.Errorf("%w: bad value %q", ErrFormat, fields[i])
			}
		}
		vel := 1 / row[1]
		frequency = append(frequency, row[0])
		velocity = append(velocity, vel)
		velstd = append(velstd, invertStd(row[2], vel, v))
	}
	if len(frequency) == 0 {
		return nil, fmt.Errorf("%w: no data rows recognized", ErrEmptyInput)
	}
	return NewModalTarget(frequency, velocity, velstd, nil)
}

// invertStd converts a version-encoded slowness-domain standard deviation
// back to a velocity standard deviation.
func invertStd(std, vel float64, v GeopsyVersion) float64 {
	if v == Geopsy2 {
		return (-1 + math.Sqrt(1+4*std*std*vel*vel)) / (2 * std)
	}
	cov := std - math.Sqrt(std*std-2*std+2)
	return cov * vel
}

// ToTarget writes the target alone as a .target container, see
// TargetSet.ToTargetFile.
func (t *ModalTarget) ToTarget(fnamePrefix string, v GeopsyVersion) error {
	return NewTargetSet(t).ToTargetFile(fnamePrefix, v)
}

// FromTarget reads the first modal target of a .target container. A
// container holding several targets logs a warning and returns the first.
func FromTarget(fnamePrefix string, v GeopsyVersion) (*ModalTarget, error) {
	ts, err := TargetSetFromTargetFile(fnamePrefix, v)
	if err != nil {
		return nil, err
	}
	if n := len(ts.Targets); n > 1 {
		log.Warn().Int("ntargets", n).Msg("container holds several modal targets, returning the first")
	}
	return ts.Targets[0], nil
}

// Equal compares descriptions exactly and the three data vectors within a
// small tolerance.
func (t *ModalTarget) Equal(other *ModalTarget) bool {
	if other == nil || len(t.Description) != len(other.Description) {
		return false
	}
	for i, d := range t.Description {
		if d != other.Description[i] {
			return false
		}
	}
	for _, pair := range [][2][]float64{
		{t.x, other.x},
		{t.y, other.y},
		{t.yerr, other.yerr},
	} {
		if len(pair[0]) != len(pair[1]) {
			return false
		}
		if len(pair[0]) > 0 && !floats.EqualApprox(pair[0], pair[1], 1e-8) {
			return false
		}
	}
	return true
}

func (t *ModalTarget) String() string {
	return fmt.Sprintf("ModalTarget with %d frequency points", len(t.x))
}
