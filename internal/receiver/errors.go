package receiver

import "errors"

// Error kinds of the receiver, per spec.md §7. SV-local failures
// (AcquisitionFailed, LockLost, ParityFailure, EphemerisInconsistent) and
// GeometrySingular are routed as events and never stop the pipeline;
// ConfigInvalid is returned from New, and SampleSourceExhausted and
// InternalInvariant can be fatal depending on context.
var (
	ErrConfigInvalid          = errors.New("receiver: invalid configuration")
	ErrSampleSourceExhausted  = errors.New("receiver: sample source exhausted")
	ErrSampleSourceOverrun    = errors.New("receiver: sample source overrun")
	ErrAcquisitionFailed      = errors.New("receiver: acquisition failed")
	ErrLockLost               = errors.New("receiver: tracking lock lost")
	ErrParityFailure          = errors.New("receiver: navigation message parity failure")
	ErrEphemerisInconsistent  = errors.New("receiver: ephemeris subframes inconsistent")
	ErrGeometrySingular       = errors.New("receiver: satellite geometry singular")
	ErrInternalInvariant      = errors.New("receiver: internal invariant violated")
)
