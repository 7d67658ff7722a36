package swprep

import "regexp"

// Lexical grammar of geopsy report files and target containers. Every matcher
// is compiled exactly once at package load; reusing the compiled patterns is
// measurably faster than ad hoc per-call matching on large report streams.
const (
	numberTok = `\d+\.?\d*(?:[eE][+-]?\d+)?`

	modelHeaderTok = `# Layered model (\d+): value=(` + numberTok + `)`
	waveHeaderTok  = `# \d+ (Rayleigh|Love) dispersion mode\(s\)`
	modeHeaderTok  = `# Mode \d+\n`
	pairLineTok    = numberTok + ` ` + numberTok + `\n`
	quadLineTok    = numberTok + ` ` + numberTok + ` ` + numberTok + ` ` + numberTok + `\n`
)

var (
	// modelHeaderRe matches "# Layered model <id>: value=<misfit>".
	modelHeaderRe = regexp.MustCompile(modelHeaderTok)

	// modeHeaderRe matches "# Mode <k>" and captures the mode number.
	modeHeaderRe = regexp.MustCompile(`# Mode (\d+)\n`)

	// dcSetRe matches one wave-type section of a dispersion report: the model
	// header, the wave header, the CPU-time line, and the block of mode data.
	// Capture groups: identifier, misfit, wave type, mode block.
	dcSetRe = regexp.MustCompile(
		modelHeaderTok + `\n` + waveHeaderTok + `\n.*\n((?:` + modeHeaderTok + `(?:` + pairLineTok + `)+)+)`)

	// dcPairRe captures one "<frequency> <slowness>" coordinate pair.
	dcPairRe = regexp.MustCompile(`(` + numberTok + `) (` + numberTok + `)`)

	// gmRe matches one ground model: header, layer-count line, quad rows.
	// Capture groups: identifier, misfit, quad block.
	gmRe = regexp.MustCompile(modelHeaderTok + `\n\d+\n((?:` + quadLineTok + `)+)`)

	// gmQuadRe captures one "<thickness> <vp> <vs> <density>" row.
	gmQuadRe = regexp.MustCompile(
		`(` + numberTok + `) (` + numberTok + `) (` + numberTok + `) (` + numberTok + `)`)
)

// Target container and CSV grammar.
var (
	// modalCurveRe spans one <ModalCurve> block inside contents.xml.
	modalCurveRe = regexp.MustCompile(`(?s)<ModalCurve>(.*?)</ModalCurve>`)

	// polarizationRe accepts both the British spelling written by geopsy
	// 2.10.1 and the American spelling written by 3.4.2.
	polarizationRe = regexp.MustCompile(`<polari[sz]ation>(Rayleigh|Love)</polari[sz]ation>`)

	// modeIndexRe captures the mode number of a <Mode> block.
	modeIndexRe = regexp.MustCompile(`<index>(\d+)</index>`)

	// statPointRe captures one per-point stat entry (x, mean, stddev).
	statPointRe = regexp.MustCompile(
		`<x>(` + numberTok + `)</x>\W+<mean>(` + numberTok + `)</mean>\W+<stddev>(` + numberTok + `)</stddev>`)

	// csvDescriptionRe captures one "#<polarization> <mode>" metadata row.
	csvDescriptionRe = regexp.MustCompile(`#(rayleigh|love) (\d+)`)

	// csvPointRe captures one "frequency,velocity[,velstd]" data row. The
	// trailing group captures any extra columns, which are rejected.
	csvPointRe = regexp.MustCompile(
		`(?m)^(` + numberTok + `),(` + numberTok + `)(?:,(` + numberTok + `)?)?(,[^\r\n]*)?\r?$`)
)
