package swprep

import (
	"archive/tar"
	"fmt"
	"strconv"
	"strings"

	"github.com/kacperjurak/goswprep/internal/container"
)

// TargetSet groups the modal targets that together form one inversion
// target file.
type TargetSet struct {
	Targets []*ModalTarget
}

// NewTargetSet builds a set from the given targets.
func NewTargetSet(targets ...*ModalTarget) *TargetSet {
	return &TargetSet{Targets: append([]*ModalTarget(nil), targets...)}
}

// Cut discards, in every target, the points whose domain value lies
// outside [pmin, pmax].
func (ts *TargetSet) Cut(pmin, pmax float64, domain Domain) error {
	for _, t := range ts.Targets {
		if err := t.Cut(pmin, pmax, domain); err != nil {
			return err
		}
	}
	return nil
}

// EasyResample resamples every target, see ModalTarget.EasyResample. With
// inPlace the receiver is updated and returned, otherwise a new set is
// built.
func (ts *TargetSet) EasyResample(pmin, pmax float64, pn int, sampling Sampling, domain Domain, inPlace bool) (*TargetSet, error) {
	if inPlace {
		for _, t := range ts.Targets {
			if _, err := t.EasyResample(pmin, pmax, pn, sampling, domain, true); err != nil {
				return nil, err
			}
		}
		return ts, nil
	}
	out := &TargetSet{Targets: make([]*ModalTarget, len(ts.Targets))}
	for i, t := range ts.Targets {
		nt, err := t.EasyResample(pmin, pmax, pn, sampling, domain, false)
		if err != nil {
			return nil, err
		}
		out.Targets[i] = nt
	}
	return out, nil
}

// ToTargetFile writes the set as <fnamePrefix>.target, the container
// format consumed by Dinver. The XML schema, the uncertainty encoding,
// and even the tar flavor differ between the two supported versions.
func (ts *TargetSet) ToTargetFile(fnamePrefix string, v GeopsyVersion) error {
	if err := CheckGeopsyVersion(v); err != nil {
		return err
	}
	if len(ts.Targets) == 0 {
		return fmt.Errorf("%w: target set holds no targets", ErrEmptyInput)
	}

	format := tar.FormatGNU
	if v == Geopsy3 {
		format = tar.FormatPAX
	}
	return container.WriteArchive(fnamePrefix+".target", format, ts.contentsXML(v))
}

// contentsXML renders the full Dinver document. Unused target types are
// emitted disabled since the consumer expects the complete TargetList.
func (ts *TargetSet) contentsXML(v GeopsyVersion) string {
	const (
		ellWeight = 1
		ellMean   = 0
		ellStd    = 0
	)
	ellSelected := "false"

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("<Dinver>")
	line("  <pluginTag>DispersionCurve</pluginTag>")
	line("  <pluginTitle>Surface Wave Inversion</pluginTitle>")
	line("  <TargetList>")

	if v == Geopsy2 {
		line(`    <ModalCurveTarget type="dispersion">`)
		line("      <selected>true</selected>")
		line(fmt.Sprintf("      <misfitWeight>%s</misfitWeight>", fstr(ts.Targets[0].DCWeight)))
		line("      <minimumMisfit>0</minimumMisfit>")
		line("      <misfitType>L2_Normalized</misfitType>")
	} else {
		line("    <position>0 0 0</position>")
		line(`    <DispersionTarget type="dispersion">`)
		line("      <selected>true</selected>")
		line(fmt.Sprintf("      <misfitWeight>%s</misfitWeight>", fstr(ts.Targets[0].DCWeight)))
		line("      <minimumMisfit>0</minimumMisfit>")
		line("      <misfitType>L2_LogNormalized</misfitType>")
	}

	for _, t := range ts.Targets {
		t.sortData()
		line("      <ModalCurve>")
		line("        <name>goswprep</name>")
		line(fmt.Sprintf("        <log>goswprep v%s</log>", version))
		if v == Geopsy3 {
			line("        <enabled>true</enabled>")
		}
		for _, d := range t.Description {
			line("        <Mode>")
			if v == Geopsy3 {
				line("          <value>Signed</value>")
			}
			line("          <slowness>Phase</slowness>")
			if v == Geopsy2 {
				line(fmt.Sprintf("          <polarisation>%s</polarisation>", d.Polarization.Title()))
			} else {
				line(fmt.Sprintf("          <polarization>%s</polarization>", d.Polarization.Title()))
			}
			line("          <ringIndex>0</ringIndex>")
			line(fmt.Sprintf("          <index>%d</index>", d.Mode))
			line("        </Mode>")
		}

		slowness := t.Slowness()
		var stddevs []float64
		point := "RealStatisticalPoint"
		if v == Geopsy2 {
			stddevs = t.SloStd()
			point = "StatPoint"
		} else {
			stddevs = t.LogStd()
		}
		for i := range t.x {
			line(fmt.Sprintf("        <%s>", point))
			line(fmt.Sprintf("          <x>%s</x>", fstr(t.x[i])))
			line(fmt.Sprintf("          <mean>%s</mean>", fstr(slowness[i])))
			line(fmt.Sprintf("          <stddev>%s</stddev>", fstr(stddevs[i])))
			line("          <weight>1</weight>")
			line("          <valid>true</valid>")
			line(fmt.Sprintf("        </%s>", point))
		}
		line("      </ModalCurve>")
	}

	if v == Geopsy2 {
		line("    </ModalCurveTarget>")
	} else {
		line("    </DispersionTarget>")
	}

	line("    <AutocorrTarget>")
	line("      <selected>false</selected>")
	line("      <misfitWeight>1</misfitWeight>")
	line("      <minimumMisfit>0</minimumMisfit>")
	line("      <misfitType>L2_NormalizedBySigmaOnly</misfitType>")
	line("      <AutocorrCurves>")
	line("      </AutocorrCurves>")
	line("    </AutocorrTarget>")

	line(`    <ModalCurveTarget type="ellipticity">`)
	line("      <selected>false</selected>")
	line("      <misfitWeight>1</misfitWeight>")
	line("      <minimumMisfit>0</minimumMisfit>")
	if v == Geopsy2 {
		line("      <misfitType>L2_LogNormalized</misfitType>")
	} else {
		line("      <misfitType>L2_Normalized</misfitType>")
	}
	line("    </ModalCurveTarget>")

	if v == Geopsy2 {
		line(`    <ValueTarget type="ellipticity peak">`)
		line(fmt.Sprintf("      <selected>%s</selected>", ellSelected))
		line(fmt.Sprintf("      <misfitWeight>%d</misfitWeight>", ellWeight))
		line("      <minimumMisfit>0</minimumMisfit>")
		line("      <misfitType>L2_Normalized</misfitType>")
		line("      <StatValue>")
		line(fmt.Sprintf("        <mean>%d</mean>", ellMean))
		line(fmt.Sprintf("        <stddev>%d</stddev>", ellStd))
		line("        <weight>1</weight>")
		line(fmt.Sprintf("        <valid>%s</valid>", ellSelected))
		line("      </StatValue>")
		line("    </ValueTarget>")
	} else {
		line(`    <EllipticityPeakTarget type="ellipticity peak">`)
		line("      <minimumAmplitude>0</minimumAmplitude>")
		line("      <RealStatisticalValue>")
		line(fmt.Sprintf("        <mean>%d</mean>", ellMean))
		line(fmt.Sprintf("        <stddev>%d</stddev>", ellStd))
		line(fmt.Sprintf("        <weight>%d</weight>", ellWeight))
		line(fmt.Sprintf("        <valid>%s</valid>", ellSelected))
		line("      </RealStatisticalValue>")
		line("    </EllipticityPeakTarget>")
	}

	for _, kind := range []string{"Vp", "Vs"} {
		line(fmt.Sprintf(`    <RefractionTarget type="%s">`, kind))
		line("      <selected>false</selected>")
		line("      <misfitWeight>1</misfitWeight>")
		line("      <minimumMisfit>0</minimumMisfit>")
		line("      <misfitType>L2_Normalized</misfitType>")
		line("    </RefractionTarget>")
	}

	if v == Geopsy3 {
		line("    <MagnetoTelluricTarget>")
		line("      <selected>false</selected>")
		line("      <misfitWeight>1</misfitWeight>")
		line("      <minimumMisfit>0</minimumMisfit>")
		line("      <misfitType>L2_Normalized</misfitType>")
		line("    </MagnetoTelluricTarget>")
	}

	line("  </TargetList>")
	line("</Dinver>")
	return b.String()
}

// TargetSetFromTargetFile reads <fnamePrefix>.target, reconstructing one
// modal target per ModalCurve block and inverting the version-specific
// uncertainty encoding back to velocity standard deviations.
func TargetSetFromTargetFile(fnamePrefix string, v GeopsyVersion) (*TargetSet, error) {
	if err := CheckGeopsyVersion(v); err != nil {
		return nil, err
	}
	text, err := container.ReadArchive(fnamePrefix + ".target")
	if err != nil {
		return nil, err
	}
	return parseTargetSetXML(text, v)
}

func parseTargetSetXML(text string, v GeopsyVersion) (*TargetSet, error) {
	blocks := modalCurveRe.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no ModalCurve blocks found", ErrEmptyInput)
	}
	ts := &TargetSet{Targets: make([]*ModalTarget, 0, len(blocks))}
	for _, block := range blocks {
		t, err := parseModalCurve(block[1], v)
		if err != nil {
			return nil, err
		}
		ts.Targets = append(ts.Targets, t)
	}
	return ts, nil
}

// parseModalCurve rebuilds one modal target from the text spanning a
// ModalCurve element.
func parseModalCurve(mcText string, v GeopsyVersion) (*ModalTarget, error) {
	polarizations := polarizationRe.FindAllStringSubmatch(mcText, -1)
	modeNumbers := modeIndexRe.FindAllStringSubmatch(mcText, -1)
	if len(polarizations) != len(modeNumbers) {
		return nil, fmt.Errorf("%w: %d polarizations but %d mode indices",
			ErrFormat, len(polarizations), len(modeNumbers))
	}
	description := make([]ModeDescription, len(polarizations))
	for i := range polarizations {
		pol, err := ParsePolarization(polarizations[i][1])
		if err != nil {
			return nil, err
		}
		mode, err := strconv.Atoi(modeNumbers[i][1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode index %q", ErrFormat, modeNumbers[i][1])
		}
		description[i] = ModeDescription{Polarization: pol, Mode: mode}
	}

	points := statPointRe.FindAllStringSubmatch(mcText, -1)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: ModalCurve holds no stat points", ErrEmptyInput)
	}
	frequency := make([]float64, len(points))
	velocity := make([]float64, len(points))
	velstd := make([]float64, len(points))
	for i, p := range points {
		row := make([]float64, 3)
		for j := 0; j < 3; j++ {
			val, err := strconv.ParseFloat(p[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad stat point value %q", ErrFormat, p[j+1])
			}
			row[j] = val
		}
		frequency[i] = row[0]
		velocity[i] = 1 / row[1]
		velstd[i] = invertStd(row[2], velocity[i], v)
	}
	return NewModalTarget(frequency, velocity, velstd, description)
}

// Equal compares sets target by target.
func (ts *TargetSet) Equal(other *TargetSet) bool {
	if other == nil || len(ts.Targets) != len(other.Targets) {
		return false
	}
	for i, t := range ts.Targets {
		if !t.Equal(other.Targets[i]) {
			return false
		}
	}
	return true
}

func (ts *TargetSet) String() string {
	return fmt.Sprintf("TargetSet with %d targets", len(ts.Targets))
}
