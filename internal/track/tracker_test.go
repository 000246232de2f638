package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramburn/gpsl1/internal/prn"
	"github.com/bramburn/gpsl1/internal/sampleio"
)

// synthesize builds a noise-free baseband stream carrying sv's C/A code at
// a fixed Doppler and code phase, nBlocks 1ms periods long, at sampleRateHz.
func synthesize(t *testing.T, sv int, dopplerHz float64, codePhaseSamples int, sampleRateHz, nBlocks int) []sampleio.Sample {
	t.Helper()
	code, err := prn.Code(sv)
	require.NoError(t, err)

	n := int(math.Round(float64(sampleRateHz) * 1e-3))
	out := make([]sampleio.Sample, n*nBlocks)
	for k := 0; k < nBlocks; k++ {
		for i := 0; i < n; i++ {
			chipIdx := (((i-codePhaseSamples)%n + n) % n) * prn.ChipCount / n
			chip := float64(code[chipIdx])
			sampleN := float64(k*n + i)
			ang := 2 * math.Pi * dopplerHz * sampleN / float64(sampleRateHz)
			out[k*n+i] = sampleio.Sample{
				I: chip * math.Cos(ang),
				Q: chip * math.Sin(ang),
			}
		}
	}
	return out
}

func TestTrackerConvergesCarrierFrequency(t *testing.T) {
	const sampleRateHz = 2046000
	const trueDoppler = 1500.0
	const seedError = 150.0 // within the spec's +-250Hz pull-in range

	tr, err := New(5, sampleRateHz, trueDoppler+seedError, 0, Config{})
	require.NoError(t, err)

	samples := synthesize(t, 5, trueDoppler, 0, sampleRateHz, 600)

	var lastFreq float64
	for i, s := range samples {
		if ps := tr.Feed(s, int64(i)); ps != nil {
			lastFreq = ps.CarrierHz
		}
	}

	assert.InDelta(t, trueDoppler, lastFreq, 5.0)
}

func TestTrackerReachesLockedState(t *testing.T) {
	const sampleRateHz = 2046000
	const trueDoppler = -800.0

	tr, err := New(7, sampleRateHz, trueDoppler, 0, Config{})
	require.NoError(t, err)

	samples := synthesize(t, 7, trueDoppler, 0, sampleRateHz, 700)

	var last State
	for i, s := range samples {
		if ps := tr.Feed(s, int64(i)); ps != nil {
			last = ps.State
		}
	}

	assert.Equal(t, StateLocked, last)
}

func TestTrackerCodePhaseSeedIsHonored(t *testing.T) {
	tr, err := New(3, 2046000, 0, 512, Config{})
	require.NoError(t, err)
	assert.Greater(t, tr.codePhaseChips, 0.0)
	assert.Less(t, tr.codePhaseChips, float64(prn.ChipCount))
}
