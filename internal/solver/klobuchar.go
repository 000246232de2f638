package solver

import (
	"math"

	"github.com/bramburn/gpsl1/internal/navmsg"
)

// IonoDelay estimates the L1 ionospheric group delay in seconds using the
// Klobuchar broadcast model (ICD-GPS-200 §20.3.3.5.2.5), given the
// receiver's geodetic position (radians, meters), the SV's elevation and
// azimuth (radians), and GPS time of day in seconds.
func IonoDelay(k *navmsg.Klobuchar, latRad, lonRad, elRad, azRad, tow float64) float64 {
	if k == nil {
		return 0
	}

	elSemi := elRad / math.Pi
	psi := 0.0137/(elSemi+0.11) - 0.022

	latI := latRad/math.Pi + psi*math.Cos(azRad)
	latI = clamp(latI, -0.416, 0.416)

	lonI := lonRad/math.Pi + psi*math.Sin(azRad)/math.Cos(latI*math.Pi)

	latM := latI + 0.064*math.Cos((lonI-1.617)*math.Pi)

	t := 43200*lonI + tow
	t = math.Mod(t, 86400)
	if t < 0 {
		t += 86400
	}

	amp := k.Alpha[0] + latM*(k.Alpha[1]+latM*(k.Alpha[2]+latM*k.Alpha[3]))
	if amp < 0 {
		amp = 0
	}
	per := k.Beta[0] + latM*(k.Beta[1]+latM*(k.Beta[2]+latM*k.Beta[3]))
	if per < 72000 {
		per = 72000
	}

	x := 2 * math.Pi * (t - 50400) / per

	obliquity := 1.0 + 16.0*math.Pow(0.53-elSemi, 3)

	var delayI float64
	if math.Abs(x) < 1.57 {
		delayI = 5e-9 + amp*(1-x*x/2+x*x*x*x/24)
	} else {
		delayI = 5e-9
	}

	return delayI * obliquity
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
