package navmsg

// ICD-200 word parity: each 30-bit navigation word carries 24 data bits
// D1..D24 and 6 parity bits D25..D30, with the transmitted data bits
// complemented whenever the previous word's D30* was set. Decoding a word
// therefore needs the previous word's D29*/D30* to undo the inversion and
// to recompute the expected parity.

// parityEquation lists, for each parity bit D25..D30, the 1-indexed data
// bit positions (within the un-inverted d1..d24) XORed together, per
// ICD-GPS-200 Table 20-XIV.
var parityEquation = [6][]int{
	{1, 2, 3, 5, 6, 10, 11, 12, 13, 14, 17, 18, 20, 23},     // D25
	{2, 3, 4, 6, 7, 11, 12, 13, 14, 15, 18, 19, 21, 24},     // D26
	{1, 3, 4, 5, 7, 8, 12, 13, 14, 15, 16, 19, 20, 22},      // D27
	{2, 4, 5, 6, 8, 9, 13, 14, 15, 16, 17, 20, 21, 23},      // D28
	{1, 3, 5, 6, 7, 9, 10, 14, 15, 16, 17, 18, 21, 22, 24},  // D29
	{3, 5, 6, 8, 9, 10, 11, 13, 15, 19, 22, 23, 24},         // D30
}

// usesD29Star reports whether the D29*/D30* carry bit feeds a given parity
// equation (D25,D27,D30 use D29*; D26,D28,D29 use D30*, per the ICD).
var usesD29Star = [6]bool{true, false, true, false, false, true}

// CheckWord validates and decodes one 30-bit navigation word (bits stored
// in the low 30 bits of word, MSB-first semantics as read by GetBitU).
// prevD29/prevD30 are the previous word's last two parity bits. It returns
// the 24 un-inverted data bits, this word's D29/D30 for chaining to the
// next word, and whether parity matched.
func CheckWord(word uint32, prevD29, prevD30 bool) (data uint32, d29, d30, ok bool) {
	invert := prevD30

	var d [25]bool // 1-indexed, d[0] unused
	for i := 1; i <= 24; i++ {
		bit := (word>>(30-i))&1 != 0
		if invert {
			bit = !bit
		}
		d[i] = bit
	}

	computed := make([]bool, 6)
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
		computed[eq] = v
	}

	var actual [6]bool
	for i := 0; i < 6; i++ {
		actual[i] = (word>>(5-i))&1 != 0
	}

	ok = true
	for i := 0; i < 6; i++ {
		if computed[i] != actual[i] {
			ok = false
		}
	}

	for i := 1; i <= 24; i++ {
		if d[i] {
			data |= 1 << uint(24-i)
		}
	}
	d29 = actual[4]
	d30 = actual[5]
	return data, d29, d30, ok
}
