// Package prn generates the GPS L1 C/A Gold codes (ICD-200 table 3-Ia) used
// by acquisition and tracking to correlate against each space vehicle.
package prn

import (
	"fmt"
	"sync"
)

// ChipCount is the length of one C/A code period.
const ChipCount = 1023

// g2Delay holds the G2 output delay, in chips, selected for each SV PRN
// (ICD-200 table 3-Ia), indexed by SV ID 1..32 (index 0 unused). A delayed
// tap of the G2 m-sequence is algebraically equivalent to the two-tap XOR
// selection the ICD describes, up to the fixed re-labeling of SV numbers to
// delays captured here.
var g2Delay = [33]int{
	0,
	5, 6, 7, 8, 17, 18, 139, 140, 141, 251,
	252, 254, 255, 256, 257, 258, 469, 470, 471, 472,
	473, 474, 509, 512, 513, 514, 515, 516, 859, 860,
	861, 862,
}

var (
	cacheMu sync.Mutex
	cache   = map[int]*[ChipCount]int8{}
)

// Code returns the length-1023 +-1 chip sequence for svID (1..32). Results
// are memoized: the sequence is a pure function of svID.
func Code(svID int) (*[ChipCount]int8, error) {
	if svID < 1 || svID > 32 {
		return nil, fmt.Errorf("prn: sv id %d out of range [1,32]", svID)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if c, ok := cache[svID]; ok {
		return c, nil
	}

	c := generate(svID)
	cache[svID] = c
	return c, nil
}

// generate runs the two 10-stage LFSRs from ICD-200: G1 with polynomial
// 1+x^3+x^10, G2 with 1+x^2+x^3+x^6+x^8+x^9+x^10, both seeded all-ones. The
// C/A code for an SV is the modulo-2 sum of G1's output and a fixed cyclic
// shift of G2's output, the shift coming from g2Delay.
func generate(svID int) *[ChipCount]int8 {
	g1seq := lfsrSequence([10]int8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, []int{2, 9})
	g2seq := lfsrSequence([10]int8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, []int{1, 2, 5, 7, 8, 9})

	delay := g2Delay[svID]

	var code [ChipCount]int8
	for i := 0; i < ChipCount; i++ {
		g2Shifted := g2seq[(i-delay+ChipCount)%ChipCount]
		chip := g1seq[i] ^ g2Shifted
		if chip == 0 {
			code[i] = 1
		} else {
			code[i] = -1
		}
	}
	return &code
}

// lfsrSequence clocks a 10-stage Fibonacci LFSR ChipCount times, XOR-ing the
// register stages named in taps (0-indexed from the register's input end)
// into the feedback bit, and returns the bit shifted out of stage 9 at each
// clock.
func lfsrSequence(seed [10]int8, taps []int) []int8 {
	reg := seed
	out := make([]int8, ChipCount)
	for i := 0; i < ChipCount; i++ {
		out[i] = reg[9]

		var fb int8
		for _, tap := range taps {
			fb ^= reg[tap]
		}

		for s := 9; s > 0; s-- {
			reg[s] = reg[s-1]
		}
		reg[0] = fb
	}
	return out
}
