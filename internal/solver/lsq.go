package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bramburn/gpsl1/internal/navmsg"
)

// ErrGeometrySingular is returned when the satellite geometry matrix is
// too ill-conditioned to invert, spec.md §7's GeometrySingular error kind.
var ErrGeometrySingular = errors.New("solver: satellite geometry is singular")

// ErrInsufficientSVs is returned when fewer than 4 usable pseudoranges
// are supplied.
var ErrInsufficientSVs = errors.New("solver: fewer than 4 usable satellites")

// maxConditionNumber bounds how ill-conditioned the geometry matrix may
// be before a fix is rejected rather than returned with runaway DOP,
// per spec.md §5.
const maxConditionNumber = 1e6

// positionFunc indirects SV position evaluation so tests can substitute a
// fixture without needing a full valid ephemeris.
var positionFunc = Position

// Observation is one SV's pseudorange measurement at a moment of common
// reception time.
type Observation struct {
	SVID        int
	Pseudorange float64 // meters
	Healthy     bool
}

// Fix is a computed position and receiver clock-bias solution with its
// dilution-of-precision figures, spec.md §3. It carries no velocity.
type Fix struct {
	X, Y, Z      float64
	ClockBiasSec float64
	HDOP, VDOP, PDOP float64
	SVsUsed      []int
}

// Solve runs Newton-iterated weighted least squares over obs against
// their ephemerides, starting from initialGuess (ECEF meters + clock bias
// in meters, i.e. c times the clock offset), applying the Klobuchar ionospheric correction when klob is
// non-nil.
func Solve(obs []Observation, ephemerides map[int]*navmsg.Ephemeris, klob *navmsg.Klobuchar, approxTow float64, initialGuess [4]float64) (*Fix, error) {
	usable := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Healthy {
			continue
		}
		if _, ok := ephemerides[o.SVID]; !ok {
			continue
		}
		usable = append(usable, o)
	}
	if len(usable) < 4 {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientSVs, len(usable))
	}

	x := initialGuess
	const maxIter = 20
	const convergeMeters = 1e-4

	var geometry *mat.Dense

	for iter := 0; iter < maxIter; iter++ {
		n := len(usable)
		hRows := make([]float64, 0, n*4)
		residual := mat.NewVecDense(n, nil)

		for i, o := range usable {
			eph := ephemerides[o.SVID]

			travelTime := o.Pseudorange / speedOfLight
			txTime := approxTow - travelTime
			sv := positionFunc(eph, txTime)
			svX, svY, svZ := EarthRotationCorrection(sv.X, sv.Y, sv.Z, travelTime)

			dx := x[0] - svX
			dy := x[1] - svY
			dz := x[2] - svZ
			rangeEst := math.Sqrt(dx*dx + dy*dy + dz*dz)

			ionoDelay := 0.0
			if klob != nil {
				el, az := ElevationAzimuth(x[0], x[1], x[2], svX, svY, svZ)
				lat, lon, _ := ECEFToGeodetic(x[0], x[1], x[2])
				ionoDelay = IonoDelay(klob, lat, lon, el, az, approxTow) * speedOfLight
			}

			predicted := rangeEst - speedOfLight*sv.ClockBiasSec + x[3] + ionoDelay
			residual.SetVec(i, o.Pseudorange-predicted)

			hRows = append(hRows, dx/rangeEst, dy/rangeEst, dz/rangeEst, 1)
		}

		h := mat.NewDense(n, 4, hRows)
		geometry = h

		var ht mat.Dense
		ht.CloneFrom(h.T())

		var hth mat.Dense
		hth.Mul(&ht, h)

		if mat.Cond(&hth, 2) > maxConditionNumber {
			return nil, ErrGeometrySingular
		}

		var hthInv mat.Dense
		if err := hthInv.Inverse(&hth); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeometrySingular, err)
		}

		var htR mat.VecDense
		htR.MulVec(&ht, residual)

		var dx mat.VecDense
		dx.MulVec(&hthInv, &htR)

		x[0] += dx.AtVec(0)
		x[1] += dx.AtVec(1)
		x[2] += dx.AtVec(2)
		x[3] += dx.AtVec(3)

		if math.Abs(dx.AtVec(0))+math.Abs(dx.AtVec(1))+math.Abs(dx.AtVec(2)) < convergeMeters {
			break
		}
	}

	hdop, vdop, pdop := computeDOP(geometry, x[0], x[1], x[2])

	svIDs := make([]int, len(usable))
	for i, o := range usable {
		svIDs[i] = o.SVID
	}

	return &Fix{
		X: x[0], Y: x[1], Z: x[2],
		ClockBiasSec: x[3] / speedOfLight,
		HDOP:         hdop,
		VDOP:         vdop,
		PDOP:         pdop,
		SVsUsed:      svIDs,
	}, nil
}

// computeDOP derives HDOP/VDOP/PDOP from the final geometry matrix,
// rotating the position covariance into the local ENU frame.
func computeDOP(h *mat.Dense, x, y, z float64) (hdop, vdop, pdop float64) {
	var ht mat.Dense
	ht.CloneFrom(h.T())

	var hth mat.Dense
	hth.Mul(&ht, h)

	var q mat.Dense
	if err := q.Inverse(&hth); err != nil {
		return math.Inf(1), math.Inf(1), math.Inf(1)
	}

	lat, lon, _ := ECEFToGeodetic(x, y, z)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	r := mat.NewDense(3, 3, []float64{
		-sinLon, cosLon, 0,
		-sinLat * cosLon, -sinLat * sinLon, cosLat,
		cosLat * cosLon, cosLat * sinLon, sinLat,
	})

	qPos := q.Slice(0, 3, 0, 3).(*mat.Dense)

	var rq mat.Dense
	rq.Mul(r, qPos)
	var enuCov mat.Dense
	enuCov.Mul(&rq, r.T())

	hdop = math.Sqrt(enuCov.At(0, 0) + enuCov.At(1, 1))
	vdop = math.Sqrt(enuCov.At(2, 2))
	pdop = math.Sqrt(q.At(0, 0) + q.At(1, 1) + q.At(2, 2))
	return hdop, vdop, pdop
}
