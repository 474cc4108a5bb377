// Package clock provides the monotonic microsecond time base used during acquisition.
package clock

import "time"

// Clock is a monotonic microsecond counter with a blocking delay.
type Clock interface {
	Micros() uint64
	Sleep(d time.Duration)
}

// System is a Clock backed by the runtime monotonic clock.
type System struct {
	start time.Time
}

var _ Clock = (*System)(nil)

// NewSystem creates a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Micros returns microseconds elapsed since the clock was created.
func (s *System) Micros() uint64 {
	return uint64(time.Since(s.start) / time.Microsecond)
}

// Sleep blocks for d.
func (s *System) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Fake is a manually advanced Clock for tests and simulation.
// Every Micros call advances the clock by Step.
type Fake struct {
	Now  uint64
	Step uint64
}

var _ Clock = (*Fake)(nil)

// Micros returns the current fake time and advances it by Step.
func (f *Fake) Micros() uint64 {
	now := f.Now
	f.Now += f.Step
	return now
}

// Sleep advances the fake time by d without blocking.
func (f *Fake) Sleep(d time.Duration) {
	if d > 0 {
		f.Now += uint64(d / time.Microsecond)
	}
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.Now += uint64(d / time.Microsecond)
}
