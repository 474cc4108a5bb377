package sampler

// usecPerSecond is the refresh counter latch interval.
const usecPerSecond = 1_000_000

// RefreshCounter counts completed acquisitions per wall-clock second.
type RefreshCounter struct {
	count   uint32 // Acquisitions completed in the current second
	start   uint64 // Microsecond timestamp the current second started at
	rate    uint32 // Count latched at the last second boundary
	started bool
}

// Begin is called before each acquisition, including ones that are later
// abandoned. It opens the first counting second and latches the count once a
// full second has elapsed, so a second without completed acquisitions reads 0.
func (r *RefreshCounter) Begin(now uint64) {
	if !r.started {
		r.start = now
		r.started = true
	}
	if now-r.start >= usecPerSecond {
		r.rate = r.count
		r.count = 0
		r.start = now
	}
}

// Complete records one finished acquisition.
func (r *RefreshCounter) Complete() {
	r.count++
}

// Rate returns the latched refresh rate in Hz.
func (r *RefreshCounter) Rate() uint32 {
	return r.rate
}

// Count returns the acquisitions counted in the current second.
func (r *RefreshCounter) Count() uint32 {
	return r.count
}
