// Package clock supplies "now" and "today" in the configured timezone.
package clock

import (
	"sync"
	"time"

	"irrigo/entities"
)

type Clock interface {
	Now() time.Time
	// Today is the calendar day of Now in the clock's location.
	Today() time.Time
}

type wall struct{ loc *time.Location }

// New returns the system clock in loc (UTC when nil).
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return wall{loc: loc}
}

func (w wall) Now() time.Time   { return time.Now().In(w.loc) }
func (w wall) Today() time.Time { return entities.DayOf(w.Now()) }

// Fixed is a settable clock for tests and one-off sweeps.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed { return &Fixed{now: now} }

// At returns a Fixed clock at noon of the given YYYY-MM-DD day. It panics on a malformed day.
func At(day string) *Fixed {
	d, err := entities.ParseDay(day)
	if err != nil {
		panic(err)
	}
	return NewFixed(d.Add(12 * time.Hour))
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Today() time.Time { return entities.DayOf(f.Now()) }

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by whole days.
func (f *Fixed) Advance(days int) {
	f.mu.Lock()
	f.now = f.now.AddDate(0, 0, days)
	f.mu.Unlock()
}
