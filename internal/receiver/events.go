package receiver

import "github.com/bramburn/gpsl1/internal/solver"

// EventType enumerates the receiver lifecycle events spec.md §4.6 defines.
type EventType string

const (
	EventAcquired   EventType = "ACQUIRED"
	EventLocked     EventType = "LOCKED"
	EventUnlocked   EventType = "UNLOCKED"
	EventBitSync    EventType = "BIT_SYNC"
	EventFrameSync  EventType = "FRAME_SYNC"
	EventSubframe   EventType = "SUBFRAME"
	EventEphemeris  EventType = "EPHEMERIS"
	EventFix        EventType = "FIX"
	EventOverrun    EventType = "OVERRUN"
	EventError      EventType = "ERROR"
)

// Event is published on the receiver's event bus; which payload fields are
// populated depends on Type, and the others are left at their zero values.
type Event struct {
	Type EventType
	SVID int

	DopplerHz        float64
	CodePhaseSamples float64

	SubframeID int

	Fix *solver.Fix

	Err error
}
