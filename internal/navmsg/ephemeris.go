package navmsg

import "math"

// Ephemeris holds the broadcast orbital and clock parameters needed to
// compute an SV's position and clock correction, assembled from subframes
// 1, 2 and 3. Field names follow ICD-GPS-200 Table 20-III so the solver
// package can transcribe the orbit equations directly.
type Ephemeris struct {
	SVID int `json:"sv_id"`

	// Subframe 1: clock.
	WeekNumber   int     `json:"week_number"`
	URAIndex     int     `json:"ura_index"`
	SVHealth     int     `json:"sv_health"`
	IODC         int     `json:"iodc"`
	TGD          float64 `json:"tgd"`
	Toc          float64 `json:"toc"`
	Af2          float64 `json:"af2"`
	Af1          float64 `json:"af1"`
	Af0          float64 `json:"af0"`

	// Subframe 2: orbit, part 1.
	IODE2    int     `json:"iode2"`
	Crs      float64 `json:"crs"`
	DeltaN   float64 `json:"delta_n"`
	M0       float64 `json:"m0"`
	Cuc      float64 `json:"cuc"`
	Ecc      float64 `json:"eccentricity"`
	Cus      float64 `json:"cus"`
	SqrtA    float64 `json:"sqrt_a"`
	Toe      float64 `json:"toe"`
	FitFlag  bool    `json:"fit_interval_flag"`

	// Subframe 3: orbit, part 2.
	IODE3    int     `json:"iode3"`
	Cic      float64 `json:"cic"`
	Omega0   float64 `json:"omega0"`
	Cis      float64 `json:"cis"`
	I0       float64 `json:"i0"`
	Crc      float64 `json:"crc"`
	Omega    float64 `json:"omega"`
	OmegaDot float64 `json:"omega_dot"`
	IDOT     float64 `json:"idot"`

	ReceivedAtSample int64 `json:"received_at_sample"`

	haveSF1, haveSF2, haveSF3 bool
}

// Complete reports whether subframes 1, 2 and 3 have all been decoded. It
// does not compare issue-of-data values; IODEConsistent does that.
func (e *Ephemeris) Complete() bool {
	return e.haveSF1 && e.haveSF2 && e.haveSF3
}

// IODEConsistent reports whether subframe 2's and 3's issue-of-data
// values match, the cross-check spec.md §7 requires before an ephemeris
// is published.
func (e *Ephemeris) IODEConsistent() bool {
	return e.IODE2 == e.IODE3
}

// decodeSubframe1 fills the clock terms from a parity-checked subframe's
// 8 data words (words 3..10, 24 bits each, MSB-first).
func decodeSubframe1(e *Ephemeris, words [8]uint32) {
	buf := packWords(words)

	e.WeekNumber = int(GetBitU(buf, 0, 10))
	e.URAIndex = int(GetBitU(buf, 12, 4))
	e.SVHealth = int(GetBitU(buf, 16, 6))
	iodcMSB := GetBitU(buf, 22, 2)
	iodcLSB := GetBitU(buf, 120, 8)
	e.IODC = int(iodcMSB<<8 | iodcLSB)

	e.TGD = float64(GetBitS(buf, 112, 8)) * math.Pow(2, -31)
	e.Toc = float64(GetBitU(buf, 128, 16)) * math.Pow(2, 4)
	e.Af2 = float64(GetBitS(buf, 144, 8)) * math.Pow(2, -55)
	e.Af1 = float64(GetBitS(buf, 152, 16)) * math.Pow(2, -43)
	e.Af0 = float64(GetBitS(buf, 168, 22)) * math.Pow(2, -31)

	e.haveSF1 = true
}

func decodeSubframe2(e *Ephemeris, words [8]uint32) {
	buf := packWords(words)

	e.IODE2 = int(GetBitU(buf, 0, 8))
	e.Crs = float64(GetBitS(buf, 8, 16)) * math.Pow(2, -5)
	e.DeltaN = float64(GetBitS(buf, 24, 16)) * math.Pow(2, -43) * math.Pi

	m0MSB := GetBitU(buf, 40, 8)
	m0LSB := GetBitU(buf, 48, 24)
	e.M0 = signExtend32(m0MSB<<24|m0LSB, 32) * math.Pow(2, -31) * math.Pi

	e.Cuc = float64(GetBitS(buf, 72, 16)) * math.Pow(2, -29)

	eMSB := GetBitU(buf, 88, 8)
	eLSB := GetBitU(buf, 96, 24)
	e.Ecc = float64(eMSB<<24|eLSB) * math.Pow(2, -33)

	e.Cus = float64(GetBitS(buf, 120, 16)) * math.Pow(2, -29)

	aMSB := GetBitU(buf, 136, 8)
	aLSB := GetBitU(buf, 144, 24)
	e.SqrtA = float64(aMSB<<24|aLSB) * math.Pow(2, -19)

	e.Toe = float64(GetBitU(buf, 168, 16)) * math.Pow(2, 4)
	e.FitFlag = GetBitU(buf, 184, 1) != 0

	e.haveSF2 = true
}

func decodeSubframe3(e *Ephemeris, words [8]uint32) {
	buf := packWords(words)

	e.Cic = float64(GetBitS(buf, 0, 16)) * math.Pow(2, -29)

	om0MSB := GetBitU(buf, 16, 8)
	om0LSB := GetBitU(buf, 24, 24)
	e.Omega0 = signExtend32(om0MSB<<24|om0LSB, 32) * math.Pow(2, -31) * math.Pi

	e.Cis = float64(GetBitS(buf, 48, 16)) * math.Pow(2, -29)

	i0MSB := GetBitU(buf, 64, 8)
	i0LSB := GetBitU(buf, 72, 24)
	e.I0 = signExtend32(i0MSB<<24|i0LSB, 32) * math.Pow(2, -31) * math.Pi

	e.Crc = float64(GetBitS(buf, 96, 16)) * math.Pow(2, -5)

	omMSB := GetBitU(buf, 112, 8)
	omLSB := GetBitU(buf, 120, 24)
	e.Omega = signExtend32(omMSB<<24|omLSB, 32) * math.Pow(2, -31) * math.Pi

	e.OmegaDot = float64(GetBitS(buf, 144, 24)) * math.Pow(2, -43) * math.Pi
	e.IODE3 = int(GetBitU(buf, 168, 8))
	e.IDOT = float64(GetBitS(buf, 176, 14)) * math.Pow(2, -43) * math.Pi

	e.haveSF3 = true
}

// signExtend32 interprets the low n bits of v as a two's-complement n-bit
// integer and returns its value, for fields assembled from MSB/LSB halves
// that span a 32-bit signed quantity.
func signExtend32(v uint32, n int) float64 {
	sign := uint32(1) << uint(n-1)
	if v&sign != 0 {
		return float64(int64(v) - int64(sign)<<1)
	}
	return float64(v)
}

// packWords concatenates 8 24-bit data words into a 24-byte MSB-first
// buffer so GetBitU/GetBitS can address fields that span word boundaries.
func packWords(words [8]uint32) []byte {
	buf := make([]byte, 24)
	for w, word := range words {
		setBitU(buf, w*24, 24, word)
	}
	return buf
}
