package sampleio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("int8_iq")
	require.NoError(t, err)
	assert.Equal(t, FormatInt8IQ, f)

	_, err = ParseFormat("bogus")
	assert.Error(t, err)
}

func TestDecodeInt8IQ(t *testing.T) {
	s := decode(FormatInt8IQ, []byte{10, byte(int8(-20))})
	assert.Equal(t, Sample{I: 10, Q: -20}, s)
}

func TestDecodeUint8IQ(t *testing.T) {
	s := decode(FormatUint8IQ, []byte{127, 128})
	assert.InDelta(t, -0.5, s.I, 1e-9)
	assert.InDelta(t, 0.5, s.Q, 1e-9)
}

func TestFileSourceReadsSamplesInOrder(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "iq")
	require.NoError(t, err)
	_, err = tmp.Write([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	src, err := OpenFile(tmp.Name(), FormatInt8IQ, 2046000)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 2046000, src.SampleRateHz())

	var lastIdx int64 = -1
	for i := 0; i < 3; i++ {
		_, idx, err := src.Next()
		require.NoError(t, err)
		assert.Greater(t, idx, lastIdx)
		lastIdx = idx
	}

	_, _, err = src.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestRingOverwritesOldestAndFlagsOverrun(t *testing.T) {
	r := NewRing(3)
	for i := int64(0); i < 3; i++ {
		assert.False(t, r.Push(Sample{I: float64(i)}, i))
	}
	assert.False(t, r.ConsumeOverrun())

	overran := r.Push(Sample{I: 99}, 3)
	assert.True(t, overran)
	assert.True(t, r.ConsumeOverrun())
	assert.False(t, r.ConsumeOverrun())

	snap, idx := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int64{1, 2, 3}, idx)
}
