// Package track implements carrier and code tracking of an already
// acquired signal: a Costas PLL on the carrier, a non-coherent early-late
// DLL on the code, and the Acquired/PullIn/Locked/Unlocked state machine
// of spec.md §4.3.
package track

import (
	"math"

	"github.com/bramburn/gpsl1/internal/prn"
	"github.com/bramburn/gpsl1/internal/sampleio"
)

const (
	chipRateHz  = 1.023e6
	carrierHz   = 1.57542e9
	chipCount   = prn.ChipCount
	earlyLateSpacing = 0.5 // chips

	pullInDuration  = 0.5  // seconds, spec.md default
	lockWindowSec   = 0.2  // 200ms lock-detector averaging window
	unlockHoldSec   = 2.0  // continuous below-threshold time before declaring unlocked
	lockThreshold   = 0.8  // I^2/(I^2+Q^2) style narrowband power ratio threshold

	defaultPLLBandwidthHz = 18.0
	defaultPLLDamping     = 0.707
	defaultDLLBandwidthHz = 2.0
)

// Config parameterizes the carrier and code loop filters.
type Config struct {
	PLLBandwidthHz float64
	PLLDamping     float64
	DLLBandwidthHz float64
}

func (c Config) withDefaults() Config {
	if c.PLLBandwidthHz == 0 {
		c.PLLBandwidthHz = defaultPLLBandwidthHz
	}
	if c.PLLDamping == 0 {
		c.PLLDamping = defaultPLLDamping
	}
	if c.DLLBandwidthHz == 0 {
		c.DLLBandwidthHz = defaultDLLBandwidthHz
	}
	return c
}

// PromptSample is one code-epoch's worth of prompt correlator output,
// emitted once per ~1ms as the code NCO completes a 1023-chip period. This
// is the unit bit-sync and frame decoding operate on.
type PromptSample struct {
	SampleIndex int64
	I, Q        float64
	CarrierHz   float64
	CodePhase   float64
	State       State
}

// Tracker tracks a single SV's carrier and code, advancing sample by
// sample via Feed and emitting a PromptSample at the end of every
// code period.
type Tracker struct {
	svID int
	fs   float64
	code *[chipCount]int8

	cfg Config
	pll *carrierLoopFilter
	dll *codeLoopFilter

	carrierPhase float64 // radians, wrapped implicitly by Sin/Cos
	carrierFreq  float64 // Hz, current NCO estimate

	codePhaseChips float64 // 0..chipCount, fractional
	codeRateChips  float64 // chips/sec, carrier-aided nominal + DLL bias
	codeRateBias   float64

	sumIE, sumQE float64
	sumIP, sumQP float64
	sumIL, sumQL float64

	state        State
	elapsedSec   float64
	belowLockSec float64

	lastCarrierForLockDet float64
	lockI2, lockQ2        float64
	lockEpochs            int
}

// New creates a Tracker seeded from an acquisition Result.
func New(svID int, sampleRateHz int, dopplerHz, codePhaseSamples float64, cfg Config) (*Tracker, error) {
	code, err := prn.Code(svID)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	fs := float64(sampleRateHz)
	// codePhaseSamples is the delay of the received code (the acquisition
	// result's convention), so the replica starts that far behind chip 0.
	codePhaseChips := chipCount - math.Mod(codePhaseSamples*chipRateHz/fs, chipCount)

	t := &Tracker{
		svID:           svID,
		fs:             fs,
		code:           code,
		cfg:            cfg,
		pll:            newCarrierLoopFilter(cfg.PLLBandwidthHz, cfg.PLLDamping),
		dll:            newCodeLoopFilter(cfg.DLLBandwidthHz),
		carrierFreq:    dopplerHz,
		codePhaseChips: math.Mod(codePhaseChips, chipCount),
		state:          StateAcquired,
	}
	t.codeRateChips = t.carrierAidedCodeRate()
	return t, nil
}

func (t *Tracker) carrierAidedCodeRate() float64 {
	return chipRateHz*(1+t.carrierFreq/carrierHz) + t.codeRateBias
}

// SVID returns the tracked SV.
func (t *Tracker) SVID() int { return t.svID }

// State returns the current lifecycle state.
func (t *Tracker) State() State { return t.state }

// replica returns the ideal +-1 chip value at fractional chip index phase.
func (t *Tracker) replica(phase float64) float64 {
	idx := int(math.Mod(math.Mod(phase, chipCount)+chipCount, chipCount))
	return float64(t.code[idx])
}

// Feed advances the tracker by one input sample. It returns a non-nil
// PromptSample whenever the code NCO completes a 1023-chip epoch.
func (t *Tracker) Feed(sample sampleio.Sample, sampleIndex int64) *PromptSample {
	dt := 1.0 / t.fs

	t.carrierPhase += 2 * math.Pi * t.carrierFreq * dt
	carrierOsc := complex(math.Cos(-t.carrierPhase), math.Sin(-t.carrierPhase))
	wiped := complex(sample.I, sample.Q) * carrierOsc

	re, im := real(wiped), imag(wiped)

	eRep := t.replica(t.codePhaseChips - earlyLateSpacing)
	pRep := t.replica(t.codePhaseChips)
	lRep := t.replica(t.codePhaseChips + earlyLateSpacing)

	t.sumIE += re * eRep
	t.sumQE += im * eRep
	t.sumIP += re * pRep
	t.sumQP += im * pRep
	t.sumIL += re * lRep
	t.sumQL += im * lRep

	t.codePhaseChips += t.codeRateChips * dt

	var out *PromptSample
	if t.codePhaseChips >= chipCount {
		t.codePhaseChips = math.Mod(t.codePhaseChips, chipCount)
		out = t.finalizeEpoch(sampleIndex)
	}
	return out
}

// finalizeEpoch runs the discriminators and loop filters over one
// accumulated code period, updates the state machine, and resets the
// correlator sums for the next epoch.
func (t *Tracker) finalizeEpoch(sampleIndex int64) *PromptSample {
	phaseDisc := costasDiscriminator(t.sumIP, t.sumQP)
	codeDisc := dllDiscriminator(t.sumIE, t.sumQE, t.sumIL, t.sumQL)

	const epochDt = 1e-3 // nominal 1ms code period
	freqCorrection := t.pll.Update(phaseDisc, epochDt)
	t.carrierFreq += freqCorrection

	t.codeRateBias += t.dll.Update(codeDisc) * epochDt
	t.codeRateChips = t.carrierAidedCodeRate()

	out := &PromptSample{
		SampleIndex: sampleIndex,
		I:           t.sumIP,
		Q:           t.sumQP,
		CarrierHz:   t.carrierFreq,
		CodePhase:   t.codePhaseChips,
		State:       t.state,
	}

	t.updateLockDetector(epochDt)
	t.advanceState(epochDt)
	out.State = t.state

	t.sumIE, t.sumQE = 0, 0
	t.sumIP, t.sumQP = 0, 0
	t.sumIL, t.sumQL = 0, 0

	return out
}

// updateLockDetector accumulates narrowband I^2/Q^2 power over
// lockWindowSec and refreshes the locked/unlocked power ratio.
func (t *Tracker) updateLockDetector(epochDt float64) {
	t.lockI2 += t.lastPromptI() * t.lastPromptI()
	t.lockQ2 += t.lastPromptQ() * t.lastPromptQ()
	t.lockEpochs++

	windowEpochs := int(lockWindowSec / epochDt)
	if windowEpochs < 1 {
		windowEpochs = 1
	}
	if t.lockEpochs < windowEpochs {
		return
	}

	denom := t.lockI2 + t.lockQ2
	ratio := 0.0
	if denom > 0 {
		ratio = t.lockI2 / denom
	}
	t.lastCarrierForLockDet = ratio
	t.lockI2, t.lockQ2, t.lockEpochs = 0, 0, 0

	if ratio < lockThreshold {
		t.belowLockSec += lockWindowSec
	} else {
		t.belowLockSec = 0
	}
}

func (t *Tracker) lastPromptI() float64 { return t.sumIP }
func (t *Tracker) lastPromptQ() float64 { return t.sumQP }

// advanceState runs the Acquired -> PullIn -> Locked -> {Locked|Unlocked}
// transitions of spec.md §4.3.
func (t *Tracker) advanceState(epochDt float64) {
	t.elapsedSec += epochDt

	switch t.state {
	case StateAcquired:
		t.state = StatePullIn
		t.elapsedSec = 0
	case StatePullIn:
		if t.elapsedSec >= pullInDuration {
			t.state = StateLocked
			t.belowLockSec = 0
		}
	case StateLocked:
		if t.belowLockSec >= unlockHoldSec {
			t.state = StateUnlocked
		}
	case StateUnlocked:
		if t.lastCarrierForLockDet >= lockThreshold {
			t.state = StateLocked
			t.belowLockSec = 0
		}
	}
}
