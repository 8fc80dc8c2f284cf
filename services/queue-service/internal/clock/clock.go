// Package clock isolates wall-time reads so scheduled-instant arithmetic is
// deterministic under test.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// System is the production clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable test clock.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Set(t time.Time) { f.T = t }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
