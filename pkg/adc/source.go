// Package adc defines the ADC source collaborator and its host-side implementations.
package adc

import "github.com/itohio/goscope/pkg/config"

// Source yields raw conversions from one analog channel.
// Read must return a value in [0, bit_depth) for the configured resolution.
type Source interface {
	Configure(res config.Resolution) error
	Read() uint16
}

// SourceFunc adapts a plain function to a Source. Configure is a no-op.
type SourceFunc func() uint16

var _ Source = SourceFunc(nil)

// Configure implements Source.
func (f SourceFunc) Configure(config.Resolution) error { return nil }

// Read implements Source.
func (f SourceFunc) Read() uint16 { return f() }

// Sequence replays a fixed list of values, repeating the last one once exhausted.
type Sequence struct {
	Values []uint16
	pos    int
	res    config.Resolution
}

var _ Source = (*Sequence)(nil)

// NewSequence creates a Sequence source over values.
func NewSequence(values ...uint16) *Sequence {
	return &Sequence{Values: values}
}

// Configure records the resolution.
func (s *Sequence) Configure(res config.Resolution) error {
	s.res = res
	return nil
}

// Resolution returns the last configured resolution.
func (s *Sequence) Resolution() config.Resolution {
	return s.res
}

// Read returns the next value.
func (s *Sequence) Read() uint16 {
	if len(s.Values) == 0 {
		return 0
	}
	if s.pos >= len(s.Values) {
		return s.Values[len(s.Values)-1]
	}
	v := s.Values[s.pos]
	s.pos++
	return v
}

// Reads returns how many values have been consumed.
func (s *Sequence) Reads() int {
	return s.pos
}
