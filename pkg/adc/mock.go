package adc

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
)

// Mock simulates an analog front end feeding the ADC.
type Mock struct {
	cfg config.MockConfig
	clk clock.Clock

	bitDepth uint32
	reads    uint64
}

var _ Source = (*Mock)(nil)

// NewMock creates a new synthetic source from a copy of cfg, so later edits of
// cfg do not reach a running source. When clk is not nil every Read sleeps one
// sample period on it, pacing acquisition like a real converter.
func NewMock(cfg *config.MockConfig, clk clock.Clock) *Mock {
	c := config.Default().Mock
	if cfg != nil {
		c = *cfg
	}

	return &Mock{
		cfg:      c,
		clk:      clk,
		bitDepth: config.Default().ADC.Resolution().BitDepth(),
	}
}

// Configure sets the output resolution.
func (m *Mock) Configure(res config.Resolution) error {
	m.bitDepth = res.BitDepth()
	return nil
}

// Read generates the next simulated conversion.
func (m *Mock) Read() uint16 {
	if m.clk != nil {
		m.clk.Sleep(m.cfg.SamplePeriod)
	}

	t := float64(m.reads) * m.cfg.SamplePeriod.Seconds()
	m.reads++

	level := m.level(t)

	// Deterministic pseudo noise over a one second window
	ns := float32(math.Mod(t, 1)) * 1e9
	level += (math32.Sin(ns*0.001) + math32.Cos(ns*0.0013)) * float32(m.cfg.Noise) * 0.5

	full := float32(m.bitDepth)
	v := math32.Round(level * full)
	if v < 0 {
		v = 0
	} else if v > full-1 {
		v = full - 1
	}
	return uint16(v)
}

// level returns the noiseless input as a fraction of full scale at time t seconds.
func (m *Mock) level(t float64) float32 {
	bias := float32(m.cfg.Bias)
	amp := float32(m.cfg.Amplitude)

	cycles := m.cfg.Frequency * t
	phase := 2 * math32.Pi * float32(cycles-math.Floor(cycles))

	switch m.cfg.Waveform {
	case config.WaveformFlat:
		return bias
	case config.WaveformSquare:
		if phase < math32.Pi {
			return bias + amp
		}
		return bias - amp
	default:
		return bias + amp*math32.Sin(phase)
	}
}
