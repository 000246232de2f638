// Package acquire implements the coarse Doppler / code-phase search that
// seeds a Tracker: a two-dimensional search over Doppler bins and code
// phase, using FFT-based circular correlation against the resampled C/A
// code (spec.md §4.2).
package acquire

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/fourier"

	"github.com/bramburn/gpsl1/internal/prn"
	"github.com/bramburn/gpsl1/internal/sampleio"
)

// ChipRateHz is the nominal GPS L1 C/A chipping rate.
const ChipRateHz = 1.023e6

// CarrierHz is the GPS L1 carrier frequency, used for carrier-aided code
// rate scaling elsewhere in the pipeline; retained here for SV position /
// Doppler sanity bounds.
const CarrierHz = 1.57542e9

// Config controls the search. Zero-value fields are replaced by the
// defaults spec.md §6 enumerates (see WithDefaults).
type Config struct {
	DopplerRangeHz  float64 // search +/- this around 0
	DopplerStepHz   float64
	NonCoherentK    int     // number of 1ms blocks non-coherently summed
	ThresholdRatio  float64 // peak / second-peak-in-other-bin required to declare acquisition
}

// WithDefaults fills zero fields of c with spec.md §6's defaults and
// returns the result; cold is true when no fix exists yet, widening the
// Doppler search to +-10kHz to absorb receiver oscillator offset.
func (c Config) WithDefaults(cold bool) Config {
	if c.DopplerRangeHz == 0 {
		if cold {
			c.DopplerRangeHz = 10000
		} else {
			c.DopplerRangeHz = 5000
		}
	}
	if c.DopplerStepHz == 0 {
		c.DopplerStepHz = 200
	}
	if c.NonCoherentK == 0 {
		c.NonCoherentK = 10
	}
	if c.ThresholdRatio == 0 {
		c.ThresholdRatio = 2.5
	}
	return c
}

// Result is the AcquisitionResult of spec.md §3.
type Result struct {
	SVID              int
	DopplerHz         float64
	CodePhaseSamples  float64
	PeakSNRDb         float64
	AcquiredAtSample  int64
}

// Acquirer runs the acquisition search for a fixed sample rate. It holds no
// per-SV state. TryAcquire searches the Doppler bins one after another and
// reuses the Acquirer's single FFT plan for every block.
type Acquirer struct {
	sampleRateHz int
	n            int // samples per 1ms coherent block
	fft          *fourier.CmplxFFT
}

// New creates an Acquirer for the given sample rate.
func New(sampleRateHz int) *Acquirer {
	n := int(math.Round(float64(sampleRateHz) * 1e-3))
	return &Acquirer{
		sampleRateHz: sampleRateHz,
		n:            n,
		fft:          fourier.NewCmplxFFT(n),
	}
}

// BlockLen is the number of samples in one 1ms coherent integration block.
func (a *Acquirer) BlockLen() int { return a.n }

// TryAcquire searches window (which must hold at least cfg.NonCoherentK*BlockLen()
// samples) for sv, starting at absolute sample index startIndex. cold
// widens the Doppler search to +-10kHz when the caller has no fix yet and
// cfg.DopplerRangeHz wasn't explicitly set, per spec.md §4.2. It returns
// nil, nil if no Doppler/code-phase pair clears the acquisition threshold —
// AcquisitionFailed is SV-local and non-fatal per spec.md §7, so the zero
// value is not an error.
func (a *Acquirer) TryAcquire(sv int, window []sampleio.Sample, startIndex int64, cfg Config, cold bool) (*Result, error) {
	cfg = cfg.WithDefaults(cold)

	need := cfg.NonCoherentK * a.n
	if len(window) < need {
		return nil, fmt.Errorf("acquire: window has %d samples, need %d for K=%d", len(window), need, cfg.NonCoherentK)
	}

	code, err := prn.Code(sv)
	if err != nil {
		return nil, err
	}
	resampled := resampleCode(code, a.n)
	codeFreq := a.fft.Coefficients(nil, resampled)
	conjCodeFreq := make([]complex128, len(codeFreq))
	for i, c := range codeFreq {
		conjCodeFreq[i] = complex(real(c), -imag(c))
	}

	nBins := int(2*cfg.DopplerRangeHz/cfg.DopplerStepHz) + 1

	type binResult struct {
		dopplerHz float64
		peak      float64
		peakIdx   int
	}
	bins := make([]binResult, nBins)

	for b := 0; b < nBins; b++ {
		fd := -cfg.DopplerRangeHz + float64(b)*cfg.DopplerStepHz
		accum := make([]float64, a.n)

		mixed := make([]complex128, a.n)
		for k := 0; k < cfg.NonCoherentK; k++ {
			block := window[k*a.n : (k+1)*a.n]
			for i, s := range block {
				ang := -2 * math.Pi * fd * float64(i) / float64(a.sampleRateHz)
				osc := complex(math.Cos(ang), math.Sin(ang))
				mixed[i] = complex(s.I, s.Q) * osc
			}

			mixedFreq := a.fft.Coefficients(nil, mixed)
			for i := range mixedFreq {
				mixedFreq[i] *= conjCodeFreq[i]
			}
			corr := a.fft.Sequence(nil, mixedFreq)

			for i, c := range corr {
				accum[i] += real(c)*real(c) + imag(c)*imag(c)
			}
		}

		peak, peakIdx := 0.0, 0
		for i, v := range accum {
			if v > peak {
				peak, peakIdx = v, i
			}
		}
		bins[b] = binResult{dopplerHz: fd, peak: peak, peakIdx: peakIdx}
	}

	bestBin := 0
	for b := 1; b < nBins; b++ {
		if bins[b].peak > bins[bestBin].peak {
			bestBin = b
		}
	}

	secondPeak := 0.0
	for b, r := range bins {
		if b == bestBin {
			continue
		}
		if r.peak > secondPeak {
			secondPeak = r.peak
		}
	}

	if secondPeak <= 0 {
		secondPeak = 1e-12
	}
	ratio := bins[bestBin].peak / secondPeak
	if ratio < cfg.ThresholdRatio {
		return nil, nil
	}

	return &Result{
		SVID:             sv,
		DopplerHz:        bins[bestBin].dopplerHz,
		CodePhaseSamples: float64(bins[bestBin].peakIdx),
		PeakSNRDb:        10 * math.Log10(ratio),
		AcquiredAtSample: startIndex,
	}, nil
}

// resampleCode maps the length-1023 +-1 chip code onto n samples at the
// receiver's sample rate by nearest-chip selection.
func resampleCode(code *[prn.ChipCount]int8, n int) []complex128 {
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		chipIdx := (i * prn.ChipCount) / n
		out[i] = complex(float64(code[chipIdx]), 0)
	}
	return out
}
