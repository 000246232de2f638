package receiver

import (
	"github.com/bramburn/gpsl1/internal/navmsg"
	"github.com/bramburn/gpsl1/internal/track"
)

// slot is one SV's tracking + decoding state, owned exclusively by the
// Orchestrator's run loop (single-writer discipline, spec.md §5).
type slot struct {
	svID    int
	tracker *track.Tracker
	decoder *navmsg.Decoder

	lastState track.State

	lastPseudorangeValid bool
	transmitTimeSec      float64
	sampleIndex          int64
}

func newSlot(svID int, t *track.Tracker) *slot {
	return &slot{
		svID:      svID,
		tracker:   t,
		decoder:   navmsg.NewDecoder(svID),
		lastState: track.StateAcquired,
	}
}
