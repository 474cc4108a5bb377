package sample

// Buffer holds one acquisition sweep of raw conversions, each in [0, bit_depth).
type Buffer []uint16

// New allocates a Buffer of n samples.
func New(n int) Buffer {
	return make(Buffer, n)
}

// Frame is a completed sweep plus its acquisition bookkeeping.
type Frame struct {
	Samples         Buffer
	AcquisitionTime uint32 // Microseconds from index 0 to index N-1
	RefreshRate     uint32 // Completed acquisitions during the last full second
	Triggered       bool   // False when the sweep was captured free-running
}

// NewFrame allocates a Frame holding n samples.
func NewFrame(n int) *Frame {
	return &Frame{Samples: New(n)}
}

// CopyTo copies the frame into dst, reusing dst's sample storage when large enough.
func (f *Frame) CopyTo(dst *Frame) {
	if cap(dst.Samples) >= len(f.Samples) {
		dst.Samples = dst.Samples[:len(f.Samples)]
	} else {
		dst.Samples = make(Buffer, len(f.Samples))
	}
	copy(dst.Samples, f.Samples)
	dst.AcquisitionTime = f.AcquisitionTime
	dst.RefreshRate = f.RefreshRate
	dst.Triggered = f.Triggered
}
