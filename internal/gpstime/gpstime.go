// Package gpstime provides GPS time representation and conversions between
// GPS time of week, the Unix epoch and UTC.
package gpstime

import "time"

// Constants for GPS time conversion.
const (
	SecondsInWeek = 604800.0
	SecondsInDay  = 86400.0

	// gpsEpochUnix is 1980-01-06T00:00:00 UTC expressed as a Unix timestamp.
	gpsEpochUnix = 315964800

	// leapSeconds is the fixed GPS-UTC offset used by FromUnix, and by
	// ToUTC when no leap-second override is passed.
	leapSeconds = 18
)

// Time represents an instant in GPS time as a whole-second count since the
// GPS epoch plus a sub-second fraction, mirroring the split representation
// used throughout the receiver for the code/carrier NCOs.
type Time struct {
	Sec   int64   // whole seconds since the GPS epoch
	Frac  float64 // fractional second, 0 <= Frac < 1
}

// FromWeekTow builds a Time from a GPS week number and seconds-of-week.
func FromWeekTow(week int, tow float64) Time {
	total := float64(week)*SecondsInWeek + tow
	whole := int64(total)
	return Time{Sec: whole, Frac: total - float64(whole)}
}

// WeekTow splits t into a GPS week number and seconds-of-week.
func (t Time) WeekTow() (week int, tow float64) {
	total := float64(t.Sec) + t.Frac
	week = int(total / SecondsInWeek)
	tow = total - float64(week)*SecondsInWeek
	return week, tow
}

// Add returns t shifted by sec seconds (may be negative or fractional).
func (t Time) Add(sec float64) Time {
	total := float64(t.Sec) + t.Frac + sec
	whole := int64(total)
	frac := total - float64(whole)
	if frac < 0 {
		whole--
		frac += 1
	}
	return Time{Sec: whole, Frac: frac}
}

// Sub returns t - u in seconds.
func (t Time) Sub(u Time) float64 {
	return float64(t.Sec-u.Sec) + (t.Frac - u.Frac)
}

// FromUnix converts a standard UTC time.Time to GPS time, applying the
// current leap-second offset.
func FromUnix(t time.Time) Time {
	secs := t.Unix() - gpsEpochUnix + leapSeconds
	frac := float64(t.Nanosecond()) / 1e9
	return Time{Sec: secs, Frac: frac}
}

// ToUTC converts GPS time back to a UTC time.Time, undoing the leap-second
// offset. leapOverride is a GPS-UTC leap-second count to use instead of the
// built-in one; pass 0 to use the built-in fallback.
func (t Time) ToUTC(leapOverride int) time.Time {
	ls := leapSeconds
	if leapOverride != 0 {
		ls = leapOverride
	}
	unixSec := t.Sec + gpsEpochUnix - int64(ls)
	return time.Unix(unixSec, int64(t.Frac*1e9)).UTC()
}

// Now returns the current instant as GPS time.
func Now() Time {
	return FromUnix(time.Now())
}
