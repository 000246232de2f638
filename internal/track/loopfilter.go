package track

import "math"

// carrierLoopFilter is the 2nd-order PI loop filter driving the carrier
// NCO, parameterized by natural frequency/damping the way Kaplan's
// "Understanding GPS" derives a noise-bandwidth-referenced PLL filter.
type carrierLoopFilter struct {
	a1, a2     float64 // proportional / integrator gains
	integrator float64
}

func newCarrierLoopFilter(bandwidthHz, dampingZeta float64) *carrierLoopFilter {
	wn := bandwidthHz / (dampingZeta + 1/(4*dampingZeta))
	return &carrierLoopFilter{
		a1: 2 * dampingZeta * wn,
		a2: wn * wn,
	}
}

// Update feeds the phase discriminator output (radians) and the epoch
// duration, returning a carrier-frequency correction in Hz.
func (f *carrierLoopFilter) Update(disc, dt float64) float64 {
	f.integrator += f.a2 * disc * dt
	return f.a1*disc + f.integrator
}

// codeLoopFilter is the 1st-order filter driving the code NCO's chipping
// rate bias, on top of the carrier-aided nominal rate.
type codeLoopFilter struct {
	gain float64
}

func newCodeLoopFilter(bandwidthHz float64) *codeLoopFilter {
	return &codeLoopFilter{gain: 4 * bandwidthHz}
}

// Update feeds the normalized early-minus-late discriminator and returns a
// chip-rate correction in chips/sec.
func (f *codeLoopFilter) Update(disc float64) float64 {
	return f.gain * disc
}

// costasDiscriminator is the four-quadrant-safe-near-lock Costas phase
// discriminator atan(Q/I), tolerant of the 180-degree phase flips BPSK
// navigation data imposes.
func costasDiscriminator(i, q float64) float64 {
	if i == 0 {
		if q == 0 {
			return 0
		}
		if q > 0 {
			return math.Pi / 2
		}
		return -math.Pi / 2
	}
	return math.Atan(q / i)
}

// dllDiscriminator is the normalized non-coherent early-minus-late
// discriminator (E-L)/(E+L).
func dllDiscriminator(ie, qe, il, ql float64) float64 {
	e := math.Hypot(ie, qe)
	l := math.Hypot(il, ql)
	denom := e + l
	if denom == 0 {
		return 0
	}
	return (e - l) / denom
}
