// Package sampler fills sample buffers from an ADC source using edge-triggered acquisition.
package sampler

import (
	"errors"
	"fmt"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/sample"
)

// ErrTriggerTimeout is returned by Acquire when the trigger search gives up
// and the configured fallback is config.FallbackHold.
var ErrTriggerTimeout = errors.New("trigger timeout")

// State is the acquisition state of a sweep.
type State uint8

const (
	// SeekingTrigger re-reads index 0 until it lands on the trigger level.
	SeekingTrigger State = iota
	// ConfirmingEdge checks the slope of the samples following index 0.
	ConfirmingEdge
	// Filling captures the remaining samples without gating.
	Filling
)

func (s State) String() string {
	switch s {
	case SeekingTrigger:
		return "seeking-trigger"
	case ConfirmingEdge:
		return "confirming-edge"
	case Filling:
		return "filling"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Sampler acquires one sweep per call to Acquire.
type Sampler struct {
	src adc.Source
	clk clock.Clock
	res config.Resolution

	trig  config.TriggerConfig
	level float32 // Trigger level in counts

	refresh RefreshCounter

	attempts  int    // Rejected candidates during the last sweep
	fallbacks uint64 // Sweeps that gave up on the trigger
}

// New creates a Sampler reading from src.
func New(src adc.Source, clk clock.Clock, adcCfg config.ADCConfig, trig config.TriggerConfig) *Sampler {
	s := &Sampler{
		src: src,
		clk: clk,
		res: adcCfg.Resolution(),
	}
	s.SetTrigger(trig)
	return s
}

// SetTrigger replaces the trigger configuration used by subsequent sweeps.
func (s *Sampler) SetTrigger(trig config.TriggerConfig) {
	s.trig = trig
	s.level = float32(trig.Level * float64(s.res.BitDepth()))
}

// Trigger returns the active trigger configuration.
func (s *Sampler) Trigger() config.TriggerConfig {
	return s.trig
}

// Resolution returns the resolution applied before every sweep.
func (s *Sampler) Resolution() config.Resolution {
	return s.res
}

// RefreshRate returns the latched number of sweeps completed per second.
func (s *Sampler) RefreshRate() uint32 {
	return s.refresh.Rate()
}

// Attempts returns how many trigger candidates were rejected during the last sweep.
func (s *Sampler) Attempts() int {
	return s.attempts
}

// Fallbacks returns how many sweeps abandoned the trigger search.
func (s *Sampler) Fallbacks() uint64 {
	return s.fallbacks
}

// Acquire fills f.Samples from the source and records acquisition time and
// refresh rate. The buffer is overwritten wholesale.
func (s *Sampler) Acquire(f *sample.Frame) error {
	s.refresh.Begin(s.clk.Micros())

	if err := s.src.Configure(s.res); err != nil {
		return fmt.Errorf("failed to configure adc: %w", err)
	}
	s.clk.Sleep(s.res.SettleTime)

	buf := f.Samples
	n := len(buf)
	s.attempts = 0

	state := Filling
	if s.trig.Enabled {
		state = SeekingTrigger
	}
	triggered := s.trig.Enabled

	searchStart := s.clk.Micros()
	var start uint64

	for i := 0; i < n; {
		v := s.src.Read()

		switch state {
		case SeekingTrigger:
			if !s.atLevel(v) {
				if s.reject(searchStart) {
					if s.trig.Fallback == config.FallbackHold {
						return ErrTriggerTimeout
					}
					state, triggered = Filling, false
				}
				continue
			}
			buf[0] = v
			start = s.clk.Micros()
			i = 1
			state = ConfirmingEdge
			if s.trig.ConfirmSamples <= 0 {
				state = Filling
			}

		case ConfirmingEdge:
			buf[i] = v
			if !s.edgeMatches(int32(buf[i]) - int32(buf[i-1])) {
				i = 0
				state = SeekingTrigger
				if s.reject(searchStart) {
					if s.trig.Fallback == config.FallbackHold {
						return ErrTriggerTimeout
					}
					state, triggered = Filling, false
				}
				continue
			}
			i++
			if i > s.trig.ConfirmSamples {
				state = Filling
			}

		case Filling:
			if i == 0 {
				start = s.clk.Micros()
			}
			buf[i] = v
			i++
		}
	}

	end := s.clk.Micros()
	s.refresh.Complete()

	f.AcquisitionTime = uint32(end - start)
	f.RefreshRate = s.refresh.Rate()
	f.Triggered = triggered
	return nil
}

// reject counts a failed trigger candidate and reports whether the search is exhausted.
func (s *Sampler) reject(searchStart uint64) bool {
	s.attempts++

	exhausted := s.trig.MaxAttempts > 0 && s.attempts >= s.trig.MaxAttempts
	if !exhausted && s.trig.Timeout > 0 {
		elapsed := s.clk.Micros() - searchStart
		exhausted = elapsed >= uint64(s.trig.Timeout.Microseconds())
	}
	if exhausted {
		s.fallbacks++
	}
	return exhausted
}

// atLevel reports whether the trigger level falls inside the tolerance window around v.
func (s *Sampler) atLevel(v uint16) bool {
	tol := float32(s.trig.Tolerance)
	lo := float32(v) * (1 - tol)
	hi := float32(v) * (1 + tol)
	return s.level >= lo && s.level <= hi
}

// edgeMatches reports whether the slope delta agrees with the configured edge.
func (s *Sampler) edgeMatches(delta int32) bool {
	switch s.trig.Edge {
	case config.EdgeRising:
		return delta > 0
	case config.EdgeFalling:
		return delta <= 0
	default:
		return true
	}
}
