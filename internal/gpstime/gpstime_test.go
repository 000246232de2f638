package gpstime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromWeekTowRoundTrip(t *testing.T) {
	gt := FromWeekTow(2300, 123456.25)
	week, tow := gt.WeekTow()
	assert.Equal(t, 2300, week)
	assert.InDelta(t, 123456.25, tow, 1e-9)
}

func TestAddWrapsFraction(t *testing.T) {
	gt := Time{Sec: 10, Frac: 0.9}
	gt2 := gt.Add(0.2)
	assert.Equal(t, int64(11), gt2.Sec)
	assert.InDelta(t, 0.1, gt2.Frac, 1e-9)
}

func TestSub(t *testing.T) {
	a := Time{Sec: 100, Frac: 0.5}
	b := Time{Sec: 90, Frac: 0.25}
	assert.InDelta(t, 10.25, a.Sub(b), 1e-9)
}
