package worker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kacperjurak/goswprep"
	"github.com/kacperjurak/goswprep/pkg/models"
)

const poolReport = `# Layered model 0: value=1.2
3
5 200 100 2000
10 400 200 2000
0 600 300 2000
# Layered model 1: value=0.9
3
4 180 90 1900
12 420 210 2000
0 640 320 2100
# Layered model 2: value=1.7
3
6 220 110 2000
8 380 190 2000
0 600 300 2000
`

func TestParseGroundModelsPreservesReportOrder(t *testing.T) {
	out, err := ParseGroundModels(poolReport, swprep.All, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, 0, out[0].Identifier)
	assert.Equal(t, 1, out[1].Identifier)
	assert.Equal(t, 2, out[2].Identifier)
	assert.Equal(t, []float64{1.2, 0.9, 1.7},
		[]float64{out[0].Misfit, out[1].Misfit, out[2].Misfit})
	assert.Equal(t, []float64{5, 10, 0}, out[0].Thickness)
}

func TestParseGroundModelsCapsModels(t *testing.T) {
	out, err := ParseGroundModels(poolReport, 1, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Identifier)
}

func TestParseGroundModelsPropagatesBlockErrors(t *testing.T) {
	bad := "# Layered model 0: value=1.0\n2\n5 100 200 2000\n0 600 300 2000\n"
	_, err := ParseGroundModels(bad, swprep.All, 2)
	assert.ErrorIs(t, err, swprep.ErrPhysicalConstraint)
}

func TestParseGroundModelsDrainsAfterFailure(t *testing.T) {
	// Far more failing blocks than the pool's channel buffers: the call must
	// still consume every result and return instead of stranding workers on
	// a full results channel.
	var b strings.Builder
	for i := 0; i < 64; i++ {
		fmt.Fprintf(&b, "# Layered model %d: value=1.0\n2\n5 100 200 2000\n0 600 300 2000\n", i)
	}

	_, err := ParseGroundModels(b.String(), swprep.All, 1)
	assert.ErrorIs(t, err, swprep.ErrPhysicalConstraint)
}

func TestParseGroundModelsEmptyReport(t *testing.T) {
	_, err := ParseGroundModels("no models here\n", swprep.All, 2)
	assert.ErrorIs(t, err, swprep.ErrEmptyInput)
}

func TestPoolCustomProcessor(t *testing.T) {
	pool := New(Options{
		Workers: 1,
		Processor: func(job models.ParseJob) models.ParseResult {
			return models.ParseResult{ID: job.ID * 10}
		},
	})
	defer pool.Shutdown()

	pool.Submit(models.ParseJob{ID: 3})
	res := <-pool.Results()
	assert.Equal(t, 30, res.ID)
}
