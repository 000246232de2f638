package navmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeWord builds a valid 30-bit navigation word from 24 data bits
// (data's low 24 bits) and the chaining D29*/D30*, computing parity the
// same way CheckWord verifies it. It exists only to synthesize fixtures.
func encodeWord(data uint32, prevD29, prevD30 bool) uint32 {
	invert := prevD30

	var d [25]bool
	for i := 1; i <= 24; i++ {
		bit := (data>>uint(24-i))&1 != 0
		d[i] = bit
	}

	var parity [6]bool
	for eq := 0; eq < 6; eq++ {
		v := false
		for _, idx := range parityEquation[eq] {
			v = v != d[idx]
		}
		if usesD29Star[eq] {
			v = v != prevD29
		} else {
			v = v != prevD30
		}
		parity[eq] = v
	}

	var word uint32
	for i := 1; i <= 24; i++ {
		bit := d[i]
		if invert {
			bit = !bit
		}
		if bit {
			word |= 1 << uint(30-i)
		}
	}
	for i := 0; i < 6; i++ {
		if parity[i] {
			word |= 1 << uint(5-i)
		}
	}
	return word
}

func TestParityRoundTrip(t *testing.T) {
	data := uint32(0x123456) // 24 bits
	word := encodeWord(data, false, true)

	decoded, d29, d30, ok := CheckWord(word, false, true)
	require.True(t, ok)
	assert.Equal(t, data, decoded)
	assert.Equal(t, (word>>1)&1 != 0, d29)
	assert.Equal(t, (word>>0)&1 != 0, d30)
}

func TestParityDetectsCorruption(t *testing.T) {
	data := uint32(0xABCDEF)
	word := encodeWord(data, true, false)
	corrupted := word ^ (1 << 15) // flip a data bit

	_, _, _, ok := CheckWord(corrupted, true, false)
	assert.False(t, ok)
}

// referenceParityEquation and referenceUsesD29Star are an independent
// transcription of ICD-GPS-200 Table 20-XIV (cross-checked against
// RTKLIB's Decode_Word hamming masks), kept deliberately separate from
// parityEquation/usesD29Star so a bug in the package's own table isn't
// invisible to the tests that exercise it.
var referenceParityEquation = [6][]int{
	{1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 17, 18, 20, 23},
	{2, 3, 4, 6, 7, 11, 12, 13, 14, 15, 18, 19, 21, 24},
	{1, 3, 4, 5, 7, 8, 12, 13, 14, 15, 16, 19, 20, 22},
	{2, 4, 5, 6, 8, 9, 13, 14, 15, 16, 17, 20, 21, 23},
	{1, 3, 5, 6, 7, 9, 10, 14, 15, 16, 17, 18, 21, 22, 24},
	{3, 5, 6, 8, 9, 10, 11, 13, 15, 19, 22, 23, 24},
}

var referenceUsesD29Star = [6]bool{true, false, true, false, false, true}

// referenceEncodeWord mirrors encodeWord but computes parity purely from
// the reference table above, never touching the package's own
// parityEquation/usesD29Star variables.
func referenceEncodeWord(data uint32, prevD29, prevD30 bool) uint32 {
	invert := prevD30

	var d [25]bool
	for i := 1; i <= 24; i++ {
		d[i] = (data>>uint(24-i))&1 != 0
	}

	var parity [6]bool
	for eq := 0; eq < 6; eq++ {
		v := false
		for _, idx := range referenceParityEquation[eq] {
			v = v != d[idx]
		}
		if referenceUsesD29Star[eq] {
			v = v != prevD29
		} else {
			v = v != prevD30
		}
		parity[eq] = v
	}

	var word uint32
	for i := 1; i <= 24; i++ {
		bit := d[i]
		if invert {
			bit = !bit
		}
		if bit {
			word |= 1 << uint(30-i)
		}
	}
	for i := 0; i < 6; i++ {
		if parity[i] {
			word |= 1 << uint(5-i)
		}
	}
	return word
}

func TestParityMatchesIndependentReference(t *testing.T) {
	cases := []struct {
		data               uint32
		prevD29, prevD30   bool
	}{
		{0x123456, false, true},
		{0xABCDEF, true, false},
		{0x000000, false, false},
		{0xFFFFFF, true, true},
		{0x5A5A5A, false, false},
	}

	for _, c := range cases {
		word := referenceEncodeWord(c.data, c.prevD29, c.prevD30)
		decoded, d29, d30, ok := CheckWord(word, c.prevD29, c.prevD30)
		require.True(t, ok, "data=%#x prevD29=%v prevD30=%v", c.data, c.prevD29, c.prevD30)
		assert.Equal(t, c.data, decoded)
		assert.Equal(t, (word>>1)&1 != 0, d29)
		assert.Equal(t, (word>>0)&1 != 0, d30)
	}
}

func TestGetBitsRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	setBitU(buf, 3, 10, 0x2A5&0x3FF)
	got := GetBitU(buf, 3, 10)
	assert.Equal(t, uint32(0x2A5&0x3FF), got)

	setBitU(buf, 0, 8, uint32(int8(-5))&0xFF)
	assert.Equal(t, int32(-5), GetBitS(buf, 0, 8))
}
