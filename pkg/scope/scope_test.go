package scope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/display"
	"github.com/itohio/goscope/pkg/sample"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ADC.Samples = 64
	cfg.Trigger.Timeout = 0
	return cfg
}

func newFramebuffer(cfg *config.Config) *display.Framebuffer {
	return display.NewFramebuffer(int16(cfg.Display.Width+1), int16(cfg.Display.Height+1), nil)
}

// rampThenGround yields one rising sweep of n samples through mid-scale, then zeros.
func rampThenGround(n int) adc.Source {
	reads := 0
	return adc.SourceFunc(func() uint16 {
		reads++
		if reads <= n {
			return uint16(2048 + reads)
		}
		return 0
	})
}

func TestScope_FrameRenders(t *testing.T) {
	cfg := testConfig()
	clk := &clock.Fake{}
	fb := newFramebuffer(cfg)
	s := New(cfg, adc.NewMock(&cfg.Mock, clk), clk, fb)
	s.SetReady(true)

	var events []Event
	s.OnFrame(func(ev Event) { events = append(events, ev) })

	require.NoError(t, s.Frame())
	assert.Equal(t, uint64(1), fb.Frames())
	assert.Equal(t, uint64(1), s.Frames())
	require.Len(t, events, 1)
	assert.True(t, events[0].Rendered)
	assert.False(t, events[0].Held)

	m := s.Measurements()
	assert.Greater(t, m.PeakMax, m.PeakMin)
	assert.True(t, m.SoundPresent)
	assert.True(t, m.Triggered)
	assert.Greater(t, m.AcquisitionTime, uint32(0))
}

func TestScope_NotReadySkipsRender(t *testing.T) {
	cfg := testConfig()
	clk := &clock.Fake{}
	fb := newFramebuffer(cfg)
	s := New(cfg, adc.NewMock(&cfg.Mock, clk), clk, fb)

	var last Event
	s.OnFrame(func(ev Event) { last = ev })

	require.NoError(t, s.Frame())
	assert.False(t, s.Ready())
	assert.Equal(t, uint64(0), fb.Frames())
	assert.False(t, last.Rendered)
	assert.Equal(t, uint64(1), last.Frame)
}

func TestScope_HoldsLastGoodFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Trigger.MaxAttempts = 10
	cfg.Trigger.Fallback = config.FallbackHold
	fb := newFramebuffer(cfg)
	s := New(cfg, rampThenGround(cfg.ADC.Samples), &clock.Fake{}, fb)
	s.SetReady(true)

	var events []Event
	s.OnFrame(func(ev Event) { events = append(events, ev) })

	require.NoError(t, s.Frame())
	first := s.Measurements()
	assert.Equal(t, uint16(2048+64), first.PeakMax)
	assert.Equal(t, uint16(2049), first.PeakMin)

	require.NoError(t, s.Frame())
	require.Len(t, events, 2)
	assert.True(t, events[1].Held)
	assert.True(t, events[1].Rendered)
	assert.Equal(t, 10, events[1].Attempts)
	assert.Equal(t, first, events[1].Measurements)
	assert.Equal(t, uint64(2), fb.Frames())

	f := sample.NewFrame(0)
	assert.Equal(t, uint64(1), s.Latest(f))
	assert.Equal(t, uint16(2049), f.Samples[0])
}

func TestScope_HeldFramesReportRefreshRate(t *testing.T) {
	cfg := testConfig()
	cfg.Trigger.MaxAttempts = 1000
	cfg.Trigger.Fallback = config.FallbackHold

	dead := false
	reads := 0
	src := adc.SourceFunc(func() uint16 {
		if dead {
			return 100
		}
		reads++
		return 2048 + uint16(reads%256)
	})

	clk := &clock.Fake{}
	fb := newFramebuffer(cfg)
	s := New(cfg, src, clk, fb)
	s.SetReady(true)

	var last Event
	s.OnFrame(func(ev Event) { last = ev })

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Frame())
		clk.Advance(100 * time.Millisecond)
	}
	assert.False(t, last.Held)

	dead = true
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Frame())
		clk.Advance(100 * time.Millisecond)
	}
	assert.True(t, last.Held)
	assert.True(t, last.Rendered)
	assert.Equal(t, uint32(0), last.Measurements.RefreshRate)
	assert.Equal(t, uint32(0), s.Measurements().RefreshRate)
}

func TestScope_HoldWithoutGoodFrame(t *testing.T) {
	cfg := testConfig()
	cfg.Trigger.MaxAttempts = 10
	cfg.Trigger.Fallback = config.FallbackHold
	fb := newFramebuffer(cfg)
	s := New(cfg, adc.SourceFunc(func() uint16 { return 0 }), &clock.Fake{}, fb)
	s.SetReady(true)

	require.NoError(t, s.Frame())
	assert.Equal(t, uint64(0), fb.Frames())
	assert.Equal(t, uint64(1), s.Frames())
}

func TestScope_FreeRunFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Trigger.MaxAttempts = 10
	fb := newFramebuffer(cfg)
	s := New(cfg, adc.SourceFunc(func() uint16 { return 0 }), &clock.Fake{}, fb)
	s.SetReady(true)

	require.NoError(t, s.Frame())
	assert.Equal(t, uint64(1), fb.Frames())
	assert.False(t, s.Measurements().Triggered)
	assert.True(t, s.Measurements().OverdriveNegative)
	assert.Equal(t, uint64(1), s.Sampler().Fallbacks())
}

func TestScope_PendingSettings(t *testing.T) {
	cfg := testConfig()
	clk := &clock.Fake{}
	fb := newFramebuffer(cfg)
	s := New(cfg, adc.NewMock(&cfg.Mock, clk), clk, fb)
	s.SetReady(true)

	require.NoError(t, s.Frame())
	assert.True(t, s.Measurements().Triggered)

	trig := cfg.Trigger
	trig.Enabled = false
	s.SetTrigger(trig)
	s.SetOverlays(config.OverlayConfig{})
	assert.True(t, s.Sampler().Trigger().Enabled)
	require.NoError(t, s.Frame())
	assert.Equal(t, trig, s.Sampler().Trigger())

	assert.False(t, s.Measurements().Triggered)
	img := fb.Image()
	for _, p := range img.Pix {
		require.Equal(t, uint8(0), p)
	}
}

func TestScope_Run(t *testing.T) {
	cfg := testConfig()
	clk := &clock.Fake{}
	s := New(cfg, adc.NewMock(&cfg.Mock, clk), clk, newFramebuffer(cfg))
	s.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.OnFrame(func(ev Event) {
		if ev.Frame == 3 {
			cancel()
		}
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, uint64(3), s.Frames())
}

type failingDisplay struct {
	*display.Framebuffer
}

func (failingDisplay) EndFrame() error { return errors.New("panel gone") }

func TestScope_RenderError(t *testing.T) {
	cfg := testConfig()
	clk := &clock.Fake{}
	s := New(cfg, adc.NewMock(&cfg.Mock, clk), clk, failingDisplay{newFramebuffer(cfg)})
	s.SetReady(true)

	err := s.Frame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panel gone")
	assert.Error(t, s.Run(context.Background()))
}

func TestScope_Begin(t *testing.T) {
	tests := []struct {
		name  string
		value uint16
		ready bool
	}{
		{"bias present", 2048, true},
		{"nothing attached", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			s := New(cfg, adc.NewSequence(tt.value), &clock.Fake{}, newFramebuffer(cfg))

			r, err := s.Begin()
			require.NoError(t, err)
			assert.Equal(t, tt.ready, r.Ready)
			assert.Equal(t, tt.ready, s.Ready())
		})
	}
}
