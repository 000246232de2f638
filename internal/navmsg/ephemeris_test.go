package navmsg

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubframe1ExtractsScaledFields(t *testing.T) {
	var words [8]uint32
	buf := make([]byte, 24)
	setBitU(buf, 0, 10, 1234)               // week number
	setBitU(buf, 16, 6, 0)                  // SV health
	setBitU(buf, 22, 2, 0b10)               // IODC MSB
	setBitU(buf, 120, 8, 0b01010101)        // IODC LSB
	setBitU(buf, 128, 16, 100)              // toc raw -> *16
	for w := 0; w < 8; w++ {
		words[w] = GetBitU(buf, w*24, 24)
	}

	e := &Ephemeris{}
	decodeSubframe1(e, words)

	assert.Equal(t, 1234, e.WeekNumber)
	assert.Equal(t, int(0b10<<8|0b01010101), e.IODC)
	assert.InDelta(t, 1600.0, e.Toc, 1e-9)
	assert.True(t, e.Complete() == false)
}

func TestDecodeSubframe2And3CompleteEphemeris(t *testing.T) {
	buf2 := make([]byte, 24)
	setBitU(buf2, 0, 8, 5) // IODE2
	var w2 [8]uint32
	for w := 0; w < 8; w++ {
		w2[w] = GetBitU(buf2, w*24, 24)
	}

	buf3 := make([]byte, 24)
	setBitU(buf3, 168, 8, 5) // IODE3 matches IODE2
	var w3 [8]uint32
	for w := 0; w < 8; w++ {
		w3[w] = GetBitU(buf3, w*24, 24)
	}

	e := &Ephemeris{SVID: 12}
	var w1 [8]uint32
	decodeSubframe1(e, w1)
	decodeSubframe2(e, w2)
	assert.False(t, e.Complete())
	decodeSubframe3(e, w3)

	require.True(t, e.Complete())
	assert.True(t, e.IODEConsistent())
}

func TestEphemerisJSONRoundTrip(t *testing.T) {
	e := Ephemeris{
		SVID:       9,
		WeekNumber: 2300,
		Ecc:        0.005,
		SqrtA:      5153.6,
		M0:         math.Pi / 4,
		Toe:        302400,
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var out Ephemeris
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, e.SVID, out.SVID)
	assert.Equal(t, e.WeekNumber, out.WeekNumber)
	assert.InDelta(t, e.Ecc, out.Ecc, 1e-12)
	assert.InDelta(t, e.SqrtA, out.SqrtA, 1e-9)
	assert.InDelta(t, e.M0, out.M0, 1e-12)
}
