// Package deferral computes when a postponed update check may run again.
//
// Deferred checks land in a nine hour window starting at noon UTC of the
// following day. The window is randomised per call so a fleet of
// installations does not hit the update feed at the same moment.
package deferral

import (
	"math/rand"
	"time"
)

const (
	// Day is the length of one calendar day in UTC.
	Day = 24 * time.Hour
	// Offset is how far into the next day the deferral window opens.
	Offset = 12 * time.Hour
	// Window is the width of the jitter window.
	Window = 3 * 3 * time.Hour
)

// Random is the source of jitter. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// Clock supplies the current time and jitter for deferral arithmetic.
type Clock struct {
	now  func() time.Time
	rand Random
}

// New returns a Clock backed by the wall clock and an unseeded random source.
func New() *Clock {
	return &Clock{
		now:  time.Now,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithSource returns a Clock with substituted time and randomness.
// Nil arguments fall back to the defaults of New.
func NewWithSource(now func() time.Time, rnd Random) *Clock {
	c := New()
	if now != nil {
		c.now = now
	}
	if rnd != nil {
		c.rand = rnd
	}
	return c
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return c.now()
}

// NextDeferral returns the instant a deferred check should fire: the start
// of the day after now, plus Offset, plus a uniform jitter in [0, Window).
func (c *Clock) NextDeferral(now time.Time) time.Time {
	return DayStart(now).Add(Day + Offset + time.Duration(c.rand.Float64()*float64(Window)))
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	return t.UTC().Truncate(Day)
}

// TimeUntil returns how long remains until deferUntil. Zero or negative
// means the deferral has elapsed.
func TimeUntil(deferUntil, now time.Time) time.Duration {
	return deferUntil.Sub(now)
}

// Elapsed reports whether a deferral no longer holds. The zero time means
// no deferral is pending.
func Elapsed(deferUntil, now time.Time) bool {
	return deferUntil.IsZero() || !now.Before(deferUntil)
}

// ToMillis converts t to the persisted epoch-millisecond form, mapping the
// zero time to 0.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts a persisted epoch-millisecond value back to a time.
// 0 maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
