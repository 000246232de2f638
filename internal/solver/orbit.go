// Package solver turns tracked pseudoranges and broadcast ephemerides
// into a position and clock-bias fix: SV position from Kepler orbital
// elements, Earth-rotation and relativistic corrections, and a
// Newton-iterated weighted least-squares solution (spec.md §4.5).
package solver

import (
	"math"

	"github.com/bramburn/gpsl1/internal/navmsg"
)

// WGS84 / GPS constants, ICD-GPS-200 Table 20-IV.
const (
	muEarth       = 3.986005e14    // m^3/s^2
	earthRotRate  = 7.2921151467e-5 // rad/s
	keplerEpsilon = 1e-12
	keplerMaxIter = 30
)

// SpeedOfLight is the ICD-GPS-200 value of c used throughout pseudorange
// and clock-correction arithmetic.
const SpeedOfLight = 2.99792458e8 // m/s

const speedOfLight = SpeedOfLight

// SVState is an SV's ECEF position and clock correction at a requested
// time of transmission.
type SVState struct {
	X, Y, Z       float64
	ClockBiasSec  float64 // seconds, to be added to the raw transmit time
	RelativisticS float64 // seconds, relativistic correction term
}

// Position computes the SV's ECEF position and clock bias at GPS time of
// transmission t (seconds of week), per ICD-GPS-200 Table 20-IV's orbit
// equations.
func Position(e *navmsg.Ephemeris, t float64) SVState {
	a := e.SqrtA * e.SqrtA
	n0 := math.Sqrt(muEarth / (a * a * a))
	tk := normalizeWeekTime(t - e.Toe)
	n := n0 + e.DeltaN

	m := e.M0 + n*tk
	ek := keplerSolve(m, e.Ecc)

	sinE, cosE := math.Sin(ek), math.Cos(ek)
	nuK := math.Atan2(math.Sqrt(1-e.Ecc*e.Ecc)*sinE, cosE-e.Ecc)

	phiK := nuK + e.Omega
	sin2phi, cos2phi := math.Sin(2*phiK), math.Cos(2*phiK)

	duK := e.Cus*sin2phi + e.Cuc*cos2phi
	drK := e.Crs*sin2phi + e.Crc*cos2phi
	diK := e.Cis*sin2phi + e.Cic*cos2phi

	uK := phiK + duK
	rK := a*(1-e.Ecc*cosE) + drK
	iK := e.I0 + diK + e.IDOT*tk

	xp := rK * math.Cos(uK)
	yp := rK * math.Sin(uK)

	omegaK := e.Omega0 + (e.OmegaDot-earthRotRate)*tk - earthRotRate*e.Toe

	sinOmega, cosOmega := math.Sin(omegaK), math.Cos(omegaK)
	sinI, cosI := math.Sin(iK), math.Cos(iK)

	x := xp*cosOmega - yp*cosI*sinOmega
	y := xp*sinOmega + yp*cosI*cosOmega
	z := yp * sinI

	dtr := relativisticCorrection(e.Ecc, e.SqrtA, sinE)
	dt := clockCorrection(e, t) + dtr

	return SVState{X: x, Y: y, Z: z, ClockBiasSec: dt, RelativisticS: dtr}
}

// keplerSolve iteratively solves Kepler's equation M = E - e*sin(E) for
// the eccentric anomaly E, converging to keplerEpsilon per spec.md §4.5.
func keplerSolve(m, ecc float64) float64 {
	e := m
	for i := 0; i < keplerMaxIter; i++ {
		next := e - (e-ecc*math.Sin(e)-m)/(1-ecc*math.Cos(e))
		if math.Abs(next-e) < keplerEpsilon {
			return next
		}
		e = next
	}
	return e
}

// relativisticCorrection is the periodic relativistic clock correction
// term, ICD-GPS-200 §20.3.3.3.3.1.
func relativisticCorrection(ecc, sqrtA, sinE float64) float64 {
	const fConst = -4.442807633e-10 // s / sqrt(m)
	return fConst * ecc * sqrtA * sinE
}

// clockCorrection evaluates the polynomial SV clock model, including the
// group delay bias but not the relativistic term (added separately so
// callers that need it in isolation, e.g. for diagnostics, can).
func clockCorrection(e *navmsg.Ephemeris, t float64) float64 {
	dt := normalizeWeekTime(t - e.Toc)
	return e.Af0 + e.Af1*dt + e.Af2*dt*dt - e.TGD
}

// normalizeWeekTime folds a time difference into (-302400, 302400] to
// handle week rollover, per ICD-GPS-200 §20.3.3.3.3.1.
func normalizeWeekTime(dt float64) float64 {
	const half = 302400.0
	for dt > half {
		dt -= 2 * half
	}
	for dt < -half {
		dt += 2 * half
	}
	return dt
}

// EarthRotationCorrection applies the Sagnac correction for Earth's
// rotation during signal transit, rotating the SV position at time of
// transmission into the Earth-fixed frame at time of reception.
func EarthRotationCorrection(x, y, z, travelTimeSec float64) (float64, float64, float64) {
	theta := earthRotRate * travelTimeSec
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	return cosT*x + sinT*y, -sinT*x + cosT*y, z
}
