package sample

import "sync"

// DoubleBuffer hands completed frames from one acquiring goroutine to readers
// without tearing. The writer fills Back and calls Publish; readers call Latest.
type DoubleBuffer struct {
	mu        sync.RWMutex
	back      *Frame
	front     *Frame
	published uint64
}

// NewDoubleBuffer creates a DoubleBuffer for sweeps of n samples.
func NewDoubleBuffer(n int) *DoubleBuffer {
	return &DoubleBuffer{
		back:  NewFrame(n),
		front: NewFrame(n),
	}
}

// Back returns the frame owned by the writer. It must not be retained across Publish.
func (d *DoubleBuffer) Back() *Frame {
	return d.back
}

// Publish makes the back frame visible to readers and recycles the previous front.
func (d *DoubleBuffer) Publish() {
	d.mu.Lock()
	d.back, d.front = d.front, d.back
	d.published++
	d.mu.Unlock()
}

// Latest copies the most recently published frame into dst and returns its sequence number.
// Zero means nothing has been published yet.
func (d *DoubleBuffer) Latest(dst *Frame) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	d.front.CopyTo(dst)
	return d.published
}
