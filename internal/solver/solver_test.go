package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramburn/gpsl1/internal/navmsg"
)

func circularEphemeris(svID int, omega0 float64) *navmsg.Ephemeris {
	return &navmsg.Ephemeris{
		SVID:   svID,
		SqrtA:  5153.6,
		Ecc:    0.0001,
		I0:     55 * math.Pi / 180,
		Omega0: omega0,
		Omega:  0,
		M0:     0,
		Toe:    0,
		Toc:    0,
	}
}

func TestKeplerSolveConverges(t *testing.T) {
	e := keplerSolve(1.2, 0.01)
	residual := e - 0.01*math.Sin(e) - 1.2
	assert.InDelta(t, 0, residual, 1e-9)
}

func TestPositionIsOnOrbitRadius(t *testing.T) {
	eph := circularEphemeris(1, 0)
	st := Position(eph, 0)

	r := math.Sqrt(st.X*st.X + st.Y*st.Y + st.Z*st.Z)
	assert.InDelta(t, eph.SqrtA*eph.SqrtA*(1-eph.Ecc), r, 1000)
}

func TestEarthRotationCorrectionPreservesMagnitude(t *testing.T) {
	x, y, z := EarthRotationCorrection(26000000, 0, 0, 0.07)
	r := math.Sqrt(x*x + y*y + z*z)
	assert.InDelta(t, 26000000, r, 1e-6)
}

func TestSolveRecoversKnownPositionAndClockBias(t *testing.T) {
	trueX, trueY, trueZ := 1.1e6, -4.8e6, 4.0e6
	trueClockBiasSec := 1.2e-6

	ephemerides := map[int]*navmsg.Ephemeris{}
	obs := []Observation{}

	svPositions := [][3]float64{
		{2.0e7, 1.0e7, 1.0e7},
		{-1.5e7, 1.8e7, 1.0e7},
		{0.5e7, -2.0e7, 1.5e7},
		{1.0e7, 0.5e7, -2.2e7},
		{-2.0e7, -0.5e7, 1.2e7},
	}

	for i, p := range svPositions {
		svID := i + 1
		eph := &navmsg.Ephemeris{SVID: svID}
		ephemerides[svID] = eph

		dx, dy, dz := trueX-p[0], trueY-p[1], trueZ-p[2]
		geomRange := math.Sqrt(dx*dx + dy*dy + dz*dz)
		pr := geomRange + speedOfLight*trueClockBiasSec

		obs = append(obs, Observation{SVID: svID, Pseudorange: pr, Healthy: true})
	}

	orig := positionFunc
	positionFunc = func(e *navmsg.Ephemeris, t float64) SVState {
		for i, eph := range ephemerides {
			if eph == e {
				p := svPositions[i-1]
				return SVState{X: p[0], Y: p[1], Z: p[2]}
			}
		}
		return SVState{}
	}
	defer func() { positionFunc = orig }()

	fix, err := Solve(obs, ephemerides, nil, 0, [4]float64{0, 0, 0, 0})
	require.NoError(t, err)

	// Tolerances are loose because the fixture's synthetic pseudoranges
	// don't include the Earth-rotation (Sagnac) term the solver corrects
	// for, leaving a small residual; the point of this test is recovering
	// the right position and clock bias to within a few hundred meters,
	// not bit-exact agreement.
	assert.InDelta(t, trueX, fix.X, 250.0)
	assert.InDelta(t, trueY, fix.Y, 250.0)
	assert.InDelta(t, trueZ, fix.Z, 250.0)
	assert.InDelta(t, trueClockBiasSec, fix.ClockBiasSec, 1e-6)
}
