package navmsg

import (
	"errors"
	"fmt"

	"github.com/bramburn/gpsl1/internal/track"
)

// preamble is the fixed 8-bit TLM word preamble, ICD-GPS-200 §20.3.3.1.
const preamble = 0x8B // 1000 1011

const subframeBits = 300
const wordBits = 30

// ErrParityFailure is returned from Feed when a candidate subframe's word
// parity does not check out.
var ErrParityFailure = errors.New("navmsg: parity check failed")

// Event summarizes what, if anything, newly happened on one Feed call.
// Zero value means "nothing new this epoch".
type Event struct {
	BitSynced   bool
	FrameSynced bool
	SubframeID  int
	ParityOK    bool
	Ephemeris   *Ephemeris // non-nil once subframes 1-3 complete and agree
	Klobuchar   *Klobuchar
	UTC         *UTCParameters
	Almanac     *AlmanacEntry
	Err         error
}

// Decoder assembles LNAV subframes for a single SV from its tracker's
// prompt correlator stream: bit sync, preamble-based frame sync, parity
// checking, and subframe field decode.
type Decoder struct {
	svID int

	bitSync *BitSync

	bits             []int8 // accumulated nav bits, MSB-first append
	frameSynced      bool
	polarityInverted bool

	prevD29, prevD30 bool

	eph *Ephemeris

	announcedBitSync bool

	haveTOW              bool
	towAtSubframeStart   float64
	sampleIndexAtLastHOW int64
}

// NewDecoder creates a Decoder for svID.
func NewDecoder(svID int) *Decoder {
	return &Decoder{
		svID:    svID,
		bitSync: NewBitSync(),
		eph:     &Ephemeris{SVID: svID},
	}
}

// Ephemeris returns the decoder's in-progress/complete ephemeris.
func (d *Decoder) Ephemeris() *Ephemeris { return d.eph }

// Feed consumes one prompt correlator sample from the tracker.
func (d *Decoder) Feed(ps track.PromptSample) Event {
	synced, bit, ready := d.bitSync.Feed(ps.I)
	var ev Event

	if synced && !d.announcedBitSync {
		d.announcedBitSync = true
		ev.BitSynced = true
	}
	if !ready {
		return ev
	}

	d.bits = append(d.bits, bit)
	const maxBuffered = subframeBits * 2
	if len(d.bits) > maxBuffered {
		d.bits = d.bits[len(d.bits)-maxBuffered:]
	}

	if !d.frameSynced {
		if pos, inverted, ok := findPreamble(d.bits); ok {
			if words, parityOK := d.tryDecodeAt(d.bits, pos, inverted, false, false); parityOK {
				d.frameSynced = true
				d.polarityInverted = inverted
				d.bits = d.bits[pos:]
				return d.dispatch(words, ps.SampleIndex, &ev)
			}
		}
		return ev
	}

	if len(d.bits) >= subframeBits {
		words, parityOK := d.tryDecodeAt(d.bits, 0, d.polarityInverted, d.prevD29, d.prevD30)
		d.bits = d.bits[subframeBits:]
		if !parityOK {
			ev.Err = fmt.Errorf("navmsg: sv %d: %w", d.svID, ErrParityFailure)
			d.frameSynced = false
			return ev
		}
		return d.dispatch(words, ps.SampleIndex, &ev)
	}
	return ev
}

// TransmitTime extrapolates the GPS time-of-week of sampleIndex from the
// most recently decoded HOW word, assuming nominal code rate between
// subframe boundaries. The second return value is false until the first
// HOW word has been decoded.
func (d *Decoder) TransmitTime(sampleIndex int64, sampleRateHz int) (float64, bool) {
	if !d.haveTOW {
		return 0, false
	}
	elapsed := float64(sampleIndex-d.sampleIndexAtLastHOW) / float64(sampleRateHz)
	// The anchor sample is the end of the decoded subframe, one subframe
	// (6 s) after its start.
	return d.towAtSubframeStart + 6.0 + elapsed, true
}

// findPreamble scans buf for the TLM preamble (or its bitwise complement,
// covering the Costas loop's 180-degree phase ambiguity) at a position
// leaving at least one full subframe available.
func findPreamble(buf []int8) (pos int, inverted bool, ok bool) {
	if len(buf) < subframeBits {
		return 0, false, false
	}
	limit := len(buf) - subframeBits
	for p := 0; p <= limit; p++ {
		if matchesPattern(buf[p:p+8], preamble, false) {
			return p, false, true
		}
		if matchesPattern(buf[p:p+8], preamble, true) {
			return p, true, true
		}
	}
	return 0, false, false
}

func matchesPattern(bits []int8, pattern uint8, inverted bool) bool {
	for i := 0; i < 8; i++ {
		want := (pattern >> uint(7-i)) & 1
		got := bits[i]
		if inverted {
			got = 1 - got
		}
		if int8(want) != got {
			return false
		}
	}
	return true
}

// tryDecodeAt assembles and parity-checks the 10 words of the subframe
// starting at bit offset pos in buf, returning each word's 24 data bits
// alongside whether every word's parity matched.
func (d *Decoder) tryDecodeAt(buf []int8, pos int, inverted, seedD29, seedD30 bool) ([10]uint32, bool) {
	var dataWords [10]uint32
	prevD29, prevD30 := seedD29, seedD30
	allOK := true

	for w := 0; w < 10; w++ {
		start := pos + w*wordBits
		if start+wordBits > len(buf) {
			return dataWords, false
		}
		var raw uint32
		for i := 0; i < wordBits; i++ {
			bit := buf[start+i]
			if inverted {
				bit = 1 - bit
			}
			raw = raw<<1 | uint32(bit)
		}
		data, d29, d30, ok := CheckWord(raw, prevD29, prevD30)
		dataWords[w] = data
		prevD29, prevD30 = d29, d30
		if !ok {
			allOK = false
		}
	}

	if allOK {
		d.prevD29, d.prevD30 = prevD29, prevD30
	}
	return dataWords, allOK
}

// dispatch decodes the subframe-specific payload from its 10 24-bit data
// words and folds the result into the decoder's accumulated state.
func (d *Decoder) dispatch(dataWords [10]uint32, sampleIndex int64, ev *Event) Event {
	ev.FrameSynced = true
	ev.ParityOK = true

	howWord := dataWords[1]
	subframeID := int((howWord >> 2) & 0x7) // bits 20-22 of the 24-bit HOW payload: TOW(1-17), alert(18), A-S(19), subframe ID(20-22), 2 reserved(23-24)
	ev.SubframeID = subframeID

	towCount := (howWord >> 7) & 0x1FFFF
	d.haveTOW = true
	d.towAtSubframeStart = float64(towCount)*6.0 - 6.0
	d.sampleIndexAtLastHOW = sampleIndex

	var payload [8]uint32
	copy(payload[:], dataWords[2:10])

	switch subframeID {
	case 1:
		decodeSubframe1(d.eph, payload)
	case 2:
		decodeSubframe2(d.eph, payload)
	case 3:
		decodeSubframe3(d.eph, payload)
		if d.eph.Complete() && d.eph.IODEConsistent() {
			ev.Ephemeris = d.eph
		}
	case 4:
		dataID := int((payload[0] >> 22) & 0x3)
		svID := int((payload[0] >> 16) & 0x3f)
		if dataID == 1 && svID == 56 {
			k, u := decodePage18(payload)
			ev.Klobuchar = &k
			ev.UTC = &u
		} else if svID >= 1 && svID <= 32 {
			a := decodeAlmanacPage(payload)
			ev.Almanac = &a
		}
	case 5:
		svID := int((payload[0] >> 16) & 0x3f)
		if svID >= 1 && svID <= 32 {
			a := decodeAlmanacPage(payload)
			ev.Almanac = &a
		}
	}

	return *ev
}
