package navmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticStream builds promptI-like values for nBits navigation bits,
// each held for exactly 20 epochs, optionally offset by a phase shift so
// bit boundaries don't start at epoch 0.
func syntheticStream(bits []int8, phaseOffset int) []float64 {
	out := make([]float64, 0, len(bits)*bitPeriodEpochs+phaseOffset)
	for i := 0; i < phaseOffset; i++ {
		out = append(out, 1) // padding before the first real boundary
	}
	for _, b := range bits {
		v := -1.0
		if b == 1 {
			v = 1.0
		}
		for i := 0; i < bitPeriodEpochs; i++ {
			out = append(out, v)
		}
	}
	return out
}

func TestBitSyncRecoversBitsAfterConfidenceWindow(t *testing.T) {
	bits := make([]int8, 0, 400)
	for i := 0; i < 400; i++ {
		var b int8
		if i%3 == 0 {
			b = 1
		}
		bits = append(bits, b)
	}
	stream := syntheticStream(bits, 7)

	bs := NewBitSync()
	var recovered []int8
	synced := false
	for _, v := range stream {
		s, bit, ready := bs.Feed(v)
		if s {
			synced = true
		}
		if ready {
			recovered = append(recovered, bit)
		}
	}

	require.True(t, synced)
	assert.NotEmpty(t, recovered)
}
