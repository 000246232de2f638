package navmsg

import "math"

// AlmanacEntry is a reduced-precision orbit for one SV as broadcast on
// subframes 4 and 5's almanac pages (ICD-GPS-200 Table 20-VI). It is a
// coarse second-hand fix aid, not used by the solver for the tracked SV's
// own position.
type AlmanacEntry struct {
	SVID     int     `json:"sv_id"`
	Healthy  bool    `json:"healthy"`
	Ecc      float64 `json:"eccentricity"`
	Toa      float64 `json:"toa"`
	DeltaI   float64 `json:"delta_i"`
	OmegaDot float64 `json:"omega_dot"`
	SqrtA    float64 `json:"sqrt_a"`
	Omega0   float64 `json:"omega0"`
	Omega    float64 `json:"omega"`
	M0       float64 `json:"m0"`
	Af0      float64 `json:"af0"`
	Af1      float64 `json:"af1"`
}

// decodeAlmanacPage decodes a generic almanac page (common to subframes 4
// pages 1-24 excluding special pages, and subframe 5 pages 1-24).
func decodeAlmanacPage(words [8]uint32) AlmanacEntry {
	buf := packWords(words)

	var a AlmanacEntry
	a.SVID = int(GetBitU(buf, 2, 6))
	a.Ecc = float64(GetBitU(buf, 8, 16)) * math.Pow(2, -21)
	a.Toa = float64(GetBitU(buf, 24, 8)) * math.Pow(2, 12)
	a.DeltaI = float64(GetBitS(buf, 32, 16)) * math.Pow(2, -19) * math.Pi
	a.OmegaDot = float64(GetBitS(buf, 48, 16)) * math.Pow(2, -38) * math.Pi
	a.Healthy = GetBitU(buf, 64, 8) == 0
	a.SqrtA = float64(GetBitU(buf, 72, 24)) * math.Pow(2, -11)
	a.Omega0 = float64(GetBitS(buf, 96, 24)) * math.Pow(2, -23) * math.Pi
	a.Omega = float64(GetBitS(buf, 120, 24)) * math.Pow(2, -23) * math.Pi
	a.M0 = float64(GetBitS(buf, 144, 24)) * math.Pow(2, -23) * math.Pi
	a.Af0 = float64(GetBitS(buf, 168, 11)) * math.Pow(2, -20)
	a.Af1 = float64(GetBitS(buf, 179, 11)) * math.Pow(2, -38)
	return a
}

// Klobuchar holds the 8-parameter ionospheric delay model broadcast on
// subframe 4, page 18.
type Klobuchar struct {
	Alpha [4]float64 `json:"alpha"`
	Beta  [4]float64 `json:"beta"`
}

// UTCParameters is the UTC/GPS time offset model also carried on subframe
// 4, page 18.
type UTCParameters struct {
	A0         float64 `json:"a0"`
	A1         float64 `json:"a1"`
	Tot        float64 `json:"tot"`
	WNt        int     `json:"wn_t"`
	DeltaTLS   int     `json:"delta_t_ls"`
	WNlsf      int     `json:"wn_lsf"`
	DN         int     `json:"dn"`
	DeltaTLSF  int     `json:"delta_t_lsf"`
}

// decodePage18 decodes subframe 4 page 18's ionospheric and UTC
// parameters, identified by data ID 1 and SV ID 56 in word 3.
func decodePage18(words [8]uint32) (Klobuchar, UTCParameters) {
	buf := packWords(words)

	var k Klobuchar
	k.Alpha[0] = float64(GetBitS(buf, 8, 8)) * math.Pow(2, -30)
	k.Alpha[1] = float64(GetBitS(buf, 24, 8)) * math.Pow(2, -27)
	k.Alpha[2] = float64(GetBitS(buf, 32, 8)) * math.Pow(2, -24)
	k.Alpha[3] = float64(GetBitS(buf, 40, 8)) * math.Pow(2, -24)
	k.Beta[0] = float64(GetBitS(buf, 48, 8)) * math.Pow(2, 11)
	k.Beta[1] = float64(GetBitS(buf, 56, 8)) * math.Pow(2, 14)
	k.Beta[2] = float64(GetBitS(buf, 64, 8)) * math.Pow(2, 16)
	k.Beta[3] = float64(GetBitS(buf, 72, 8)) * math.Pow(2, 16)

	var u UTCParameters
	u.A1 = float64(GetBitS(buf, 80, 24)) * math.Pow(2, -50)
	a0MSB := GetBitU(buf, 104, 24)
	a0LSB := GetBitU(buf, 128, 8)
	u.A0 = signExtend32(a0MSB<<8|a0LSB, 32) * math.Pow(2, -30)
	u.Tot = float64(GetBitU(buf, 136, 8)) * math.Pow(2, 12)
	u.WNt = int(GetBitU(buf, 144, 8))
	u.DeltaTLS = int(GetBitS(buf, 152, 8))
	u.WNlsf = int(GetBitU(buf, 160, 8))
	u.DN = int(GetBitU(buf, 168, 8))
	u.DeltaTLSF = int(GetBitS(buf, 176, 8))
	return k, u
}
