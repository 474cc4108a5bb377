// Package scope runs the acquire, analyze and render pipeline one frame at a time.
package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/analyzer"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/detect"
	"github.com/itohio/goscope/pkg/display"
	"github.com/itohio/goscope/pkg/render"
	"github.com/itohio/goscope/pkg/sample"
	"github.com/itohio/goscope/pkg/sampler"
)

// Event describes one completed frame.
type Event struct {
	Frame        uint64
	Measurements analyzer.Measurements
	Attempts     int  // Rejected trigger candidates
	Held         bool // The trigger timed out and the last good sweep was shown again
	Rendered     bool
}

// Scope owns the sampler, analyzer and renderer for one channel.
type Scope struct {
	src  adc.Source
	clk  clock.Clock
	disp display.Display

	sampler  *sampler.Sampler
	analyzer *analyzer.Analyzer
	renderer *render.Renderer
	detector *detect.Detector

	buffers *sample.DoubleBuffer
	shown   *sample.Frame // Last good sweep, owned by the frame loop
	hasGood bool

	mu       sync.RWMutex
	m        analyzer.Measurements
	ready    bool
	frames   uint64
	trigger  *config.TriggerConfig // Pending, applied at the start of the next frame
	overlays *config.OverlayConfig // Pending, applied at the start of the next frame

	cbMu      sync.RWMutex
	callbacks []func(Event)
}

// New wires a Scope from cfg. cfg must be valid.
func New(cfg *config.Config, src adc.Source, clk clock.Clock, disp display.Display) *Scope {
	res := cfg.ADC.Resolution()
	n := cfg.ADC.Samples

	return &Scope{
		src:      src,
		clk:      clk,
		disp:     disp,
		sampler:  sampler.New(src, clk, cfg.ADC, cfg.Trigger),
		analyzer: analyzer.New(cfg.Analyzer, res.BitDepth()),
		renderer: render.New(cfg.Display, cfg.Overlays, n, res),
		detector: detect.New(cfg.Detect, res),
		buffers:  sample.NewDoubleBuffer(n),
		shown:    sample.NewFrame(n),
	}
}

// Begin runs front-end detection and arms rendering when it succeeds.
func (s *Scope) Begin() (detect.Result, error) {
	s.mu.RLock()
	p2p := s.m.PeakToPeak
	s.mu.RUnlock()

	r, err := s.detector.Detect(s.src, s.clk, p2p)
	if err != nil {
		return r, fmt.Errorf("failed to detect front end: %w", err)
	}
	s.SetReady(r.Ready)
	return r, nil
}

// SetReady overrides the detection outcome.
func (s *Scope) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// Ready reports whether frames are rendered.
func (s *Scope) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SetTrigger schedules a trigger change for the next frame.
func (s *Scope) SetTrigger(t config.TriggerConfig) {
	s.mu.Lock()
	s.trigger = &t
	s.mu.Unlock()
}

// SetOverlays schedules an overlay change for the next frame.
func (s *Scope) SetOverlays(o config.OverlayConfig) {
	s.mu.Lock()
	s.overlays = &o
	s.mu.Unlock()
}

// Measurements returns the measurements of the last good sweep.
func (s *Scope) Measurements() analyzer.Measurements {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m
}

// Frames returns the number of completed frames.
func (s *Scope) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Latest copies the last good sweep into dst. It is safe to call from any goroutine.
func (s *Scope) Latest(dst *sample.Frame) uint64 {
	return s.buffers.Latest(dst)
}

// Sampler exposes the sampler for statistics.
func (s *Scope) Sampler() *sampler.Sampler {
	return s.sampler
}

// OnFrame registers a callback invoked after every frame from the frame loop goroutine.
func (s *Scope) OnFrame(callback func(Event)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// Frame acquires, analyzes and renders one sweep. A trigger timeout with the
// hold fallback re-renders the last good sweep instead of failing.
func (s *Scope) Frame() error {
	s.applyPending()

	ev := Event{}
	err := s.sampler.Acquire(s.buffers.Back())
	ev.Attempts = s.sampler.Attempts()

	switch {
	case errors.Is(err, sampler.ErrTriggerTimeout):
		ev.Held = true
		s.mu.Lock()
		s.m.RefreshRate = s.sampler.RefreshRate()
		s.mu.Unlock()
	case err != nil:
		return fmt.Errorf("failed to acquire: %w", err)
	default:
		m := s.analyzer.Analyze(s.buffers.Back())
		s.buffers.Publish()
		s.buffers.Latest(s.shown)
		s.hasGood = true

		s.mu.Lock()
		s.m = m
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.frames++
	ev.Frame = s.frames
	ev.Measurements = s.m
	ready := s.ready
	s.mu.Unlock()

	if s.hasGood && ready {
		if err := s.renderer.Render(s.disp, s.shown.Samples, ev.Measurements, ready); err != nil {
			return fmt.Errorf("failed to render: %w", err)
		}
		ev.Rendered = true
	}

	s.notify(ev)
	return nil
}

// Run calls Frame until ctx is cancelled or a frame fails.
func (s *Scope) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.Frame(); err != nil {
			return err
		}
	}
}

func (s *Scope) applyPending() {
	s.mu.Lock()
	trig, overlays := s.trigger, s.overlays
	s.trigger, s.overlays = nil, nil
	s.mu.Unlock()

	if trig != nil {
		s.sampler.SetTrigger(*trig)
	}
	if overlays != nil {
		s.renderer.SetOverlays(*overlays)
	}
}

func (s *Scope) notify(ev Event) {
	s.cbMu.RLock()
	callbacks := make([]func(Event), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(ev)
		}
	}
}
