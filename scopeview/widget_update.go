package main

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// updateInterval throttles widget updates to ~60 FPS.
const updateInterval = 16 * time.Millisecond

// UpdateWidgetOnMainThread schedules a widget update function to run on the main Fyne thread.
// Fyne widgets cannot be updated directly from the frame loop goroutine.
func UpdateWidgetOnMainThread(callback func()) {
	if callback == nil {
		return
	}
	fyne.Do(callback)
}

// frameThrottle drops frames arriving faster than interval.
type frameThrottle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func newFrameThrottle(interval time.Duration) *frameThrottle {
	return &frameThrottle{interval: interval}
}

// Allow reports whether a frame arriving at now should be shown.
func (t *frameThrottle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
