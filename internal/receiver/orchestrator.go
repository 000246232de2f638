// Package receiver owns the world model: it wires sample ingestion,
// acquisition, per-SV tracking and frame decoding, and the PVT solver
// into the single cooperative pipeline spec.md §4.6 describes, following
// the teacher's Start/Stop/run(ctx) service lifecycle.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bramburn/gpsl1/internal/acquire"
	"github.com/bramburn/gpsl1/internal/navmsg"
	"github.com/bramburn/gpsl1/internal/sampleio"
	"github.com/bramburn/gpsl1/internal/solver"
	"github.com/bramburn/gpsl1/internal/track"
)

const (
	ringCapacity        = 1 << 16
	acquisitionBlockMs  = 10 // non-coherent blocks per attempt, matches acquire's default K
	minFixIntervalSec   = 1.0
	maxTransitTimeDelay = 0.09 // seconds, generous bound on SV range delay
)

// Orchestrator runs the end-to-end receiver pipeline against one sample
// source until Stop is called or the source is exhausted.
type Orchestrator struct {
	cfg      Config
	source   sampleio.Source
	logger   logrus.FieldLogger
	bus      *EventBus
	acquirer *acquire.Acquirer

	ring *sampleio.Ring

	mutex    sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc

	slots map[int]*slot

	acqBuffer    []sampleio.Sample
	acqStartIdx  int64
	nextCandidate int

	klobuchar *navmsg.Klobuchar
	ephemerides map[int]*navmsg.Ephemeris

	lastFixSampleIdx int64
	hadFix           bool

	exitErr error
	done    chan struct{}
}

// New creates an Orchestrator. Validation failures surface
// ErrConfigInvalid immediately rather than at Start.
func New(cfg Config, source sampleio.Source, logger logrus.FieldLogger) (*Orchestrator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Orchestrator{
		cfg:         cfg,
		source:      source,
		logger:      logger,
		bus:         NewEventBus(),
		acquirer:    acquire.New(cfg.SampleRateHz),
		ring:        sampleio.NewRing(ringCapacity),
		slots:       make(map[int]*slot),
		ephemerides: make(map[int]*navmsg.Ephemeris),
		nextCandidate: 1,
		done:        make(chan struct{}),
	}, nil
}

// Events returns a subscription to the orchestrator's event bus, valid
// until ctx is done.
func (o *Orchestrator) Events(ctx context.Context) <-chan Event {
	return o.bus.Subscribe(ctx)
}

// Done is closed once the pipeline's run loop has returned, whether from
// Stop, exhaustion, or a fatal error.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Start begins the pipeline in a background goroutine.
func (o *Orchestrator) Start() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.running {
		return fmt.Errorf("receiver: already running")
	}

	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.running = true
	go o.run()
	return nil
}

// Stop cancels the pipeline and clears the running flag; it does not wait
// for run() to return (Done is closed when it has).
func (o *Orchestrator) Stop() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if !o.running {
		return nil
	}
	o.cancel()
	o.running = false
	return nil
}

// Err returns the fatal error that ended the pipeline, if any, after run
// has returned. nil while running or on a clean stop.
func (o *Orchestrator) Err() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.exitErr
}

func (o *Orchestrator) run() {
	o.logger.WithField("sample_rate_hz", o.cfg.SampleRateHz).Info("receiver pipeline starting")
	defer o.source.Close()
	defer close(o.done)

	for {
		select {
		case <-o.ctx.Done():
			o.logger.Info("receiver pipeline stopped")
			return
		default:
		}

		sample, idx, err := o.source.Next()
		if err != nil {
			if errors.Is(err, sampleio.ErrExhausted) {
				o.finish(fmt.Errorf("%w", ErrSampleSourceExhausted))
			} else {
				o.finish(fmt.Errorf("%w: %v", ErrInternalInvariant, err))
			}
			return
		}

		if overran := o.ring.Push(sample, idx); overran {
			o.bus.Publish(Event{Type: EventOverrun})
			for _, s := range o.slots {
				s.lastState = track.StateUnlocked
			}
		}

		o.feedTrackers(sample, idx)
		o.maybeAcquire(sample, idx)
		o.maybeSolve(idx)
	}
}

func (o *Orchestrator) finish(err error) {
	o.mutex.Lock()
	o.exitErr = err
	o.running = false
	o.mutex.Unlock()
	o.bus.Publish(Event{Type: EventError, Err: err})
}

// feedTrackers advances every active SV's tracker and decoder by one
// sample, publishing state-transition and decode events as they occur.
func (o *Orchestrator) feedTrackers(sample sampleio.Sample, idx int64) {
	for svID, s := range o.slots {
		ps := s.tracker.Feed(sample, idx)
		if ps == nil {
			continue
		}

		if ps.State != s.lastState {
			o.publishStateChange(svID, s.lastState, ps.State)
			s.lastState = ps.State
		}
		if ps.State == track.StateUnlocked {
			continue
		}

		dev := s.decoder.Feed(*ps)
		o.handleDecodeEvent(svID, s, dev)
	}

	for svID, s := range o.slots {
		if s.lastState == track.StateUnlocked {
			delete(o.slots, svID)
			o.logger.WithField("sv_id", svID).Info("dropping SV after lock loss")
		}
	}
}

func (o *Orchestrator) publishStateChange(svID int, from, to track.State) {
	switch to {
	case track.StateLocked:
		o.bus.Publish(Event{Type: EventLocked, SVID: svID})
	case track.StateUnlocked:
		o.bus.Publish(Event{Type: EventUnlocked, SVID: svID, Err: ErrLockLost})
	}
}

func (o *Orchestrator) handleDecodeEvent(svID int, s *slot, dev navmsg.Event) {
	if dev.Err != nil {
		o.bus.Publish(Event{Type: EventError, SVID: svID, Err: fmt.Errorf("%w", ErrParityFailure)})
		return
	}
	if dev.BitSynced {
		o.bus.Publish(Event{Type: EventBitSync, SVID: svID})
	}
	if dev.FrameSynced {
		o.bus.Publish(Event{Type: EventFrameSync, SVID: svID})
		o.bus.Publish(Event{Type: EventSubframe, SVID: svID, SubframeID: dev.SubframeID})
	}
	if dev.Klobuchar != nil {
		o.klobuchar = dev.Klobuchar
	}
	if dev.Ephemeris != nil {
		o.ephemerides[svID] = dev.Ephemeris
		o.bus.Publish(Event{Type: EventEphemeris, SVID: svID})
	} else if s.decoder.Ephemeris().Complete() && !s.decoder.Ephemeris().IODEConsistent() {
		o.bus.Publish(Event{Type: EventError, SVID: svID, Err: ErrEphemerisInconsistent})
	}
}

// maybeAcquire accumulates samples and, when the SV slot table has room,
// opportunistically tries the next untracked SV in round-robin order.
func (o *Orchestrator) maybeAcquire(sample sampleio.Sample, idx int64) {
	if len(o.slots) >= o.cfg.MaxConcurrentTrackedSVs {
		return
	}

	if len(o.acqBuffer) == 0 {
		o.acqStartIdx = idx
	}
	o.acqBuffer = append(o.acqBuffer, sample)

	need := acquisitionBlockMs * o.acquirer.BlockLen()
	if len(o.acqBuffer) < need {
		return
	}

	svID := o.nextUncheckedCandidate()
	cfg := acquire.Config{
		DopplerRangeHz: o.cfg.AcquisitionDopplerRangeHz,
		DopplerStepHz:  o.cfg.AcquisitionDopplerStepHz,
		ThresholdRatio: o.cfg.AcquisitionThresholdRatio,
	}

	res, err := o.acquirer.TryAcquire(svID, o.acqBuffer, o.acqStartIdx, cfg, !o.hadFix)
	o.acqBuffer = nil

	if err != nil {
		o.bus.Publish(Event{Type: EventError, SVID: svID, Err: fmt.Errorf("%w: %v", ErrInternalInvariant, err)})
		return
	}
	if res == nil {
		o.bus.Publish(Event{Type: EventError, SVID: svID, Err: ErrAcquisitionFailed})
		return
	}

	tr, err := track.New(svID, o.cfg.SampleRateHz, res.DopplerHz, res.CodePhaseSamples, track.Config{
		PLLBandwidthHz: o.cfg.PLLBandwidthHz,
		DLLBandwidthHz: o.cfg.DLLBandwidthHz,
	})
	if err != nil {
		o.bus.Publish(Event{Type: EventError, SVID: svID, Err: fmt.Errorf("%w: %v", ErrInternalInvariant, err)})
		return
	}

	o.slots[svID] = newSlot(svID, tr)
	o.bus.Publish(Event{Type: EventAcquired, SVID: svID, DopplerHz: res.DopplerHz, CodePhaseSamples: res.CodePhaseSamples})
}

func (o *Orchestrator) nextUncheckedCandidate() int {
	for i := 0; i < 32; i++ {
		sv := o.nextCandidate
		o.nextCandidate++
		if o.nextCandidate > 32 {
			o.nextCandidate = 1
		}
		if _, tracked := o.slots[sv]; !tracked {
			return sv
		}
	}
	return o.nextCandidate
}

// maybeSolve triggers the PVT solver once at least 4 SVs have complete,
// mutually consistent ephemerides, at most once per second of samples.
func (o *Orchestrator) maybeSolve(idx int64) {
	if float64(idx-o.lastFixSampleIdx)/float64(o.cfg.SampleRateHz) < minFixIntervalSec {
		return
	}

	obs := make([]solver.Observation, 0, len(o.slots))
	var refTow float64
	haveRef := false

	for svID, s := range o.slots {
		eph, ok := o.ephemerides[svID]
		if !ok || !eph.IODEConsistent() {
			continue
		}
		tx, ok := s.decoder.TransmitTime(idx, o.cfg.SampleRateHz)
		if !ok {
			continue
		}
		s.transmitTimeSec = tx
		if !haveRef || tx > refTow {
			refTow = tx
			haveRef = true
		}
	}
	if !haveRef {
		return
	}
	receiveTow := refTow + maxTransitTimeDelay

	for svID, s := range o.slots {
		eph, ok := o.ephemerides[svID]
		if !ok || !eph.IODEConsistent() {
			continue
		}
		pseudorange := (receiveTow - s.transmitTimeSec) * solver.SpeedOfLight
		obs = append(obs, solver.Observation{SVID: svID, Pseudorange: pseudorange, Healthy: eph.SVHealth == 0})
	}

	if len(obs) < 4 {
		return
	}

	fix, err := solver.Solve(obs, o.ephemerides, o.klobuchar, receiveTow, [4]float64{0, 0, 0, 0})
	o.lastFixSampleIdx = idx
	if err != nil {
		if errors.Is(err, solver.ErrGeometrySingular) {
			o.bus.Publish(Event{Type: EventError, Err: ErrGeometrySingular})
			return
		}
		return
	}

	o.hadFix = true
	o.bus.Publish(Event{Type: EventFix, Fix: fix})
}
