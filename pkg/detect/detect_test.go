package detect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
)

func newDetector() *Detector {
	cfg := config.Default()
	return New(cfg.Detect, cfg.ADC.Resolution())
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		settle     uint16
		value      uint16
		peakToPeak uint16
		ready      bool
		bias       bool
		signal     bool
	}{
		{"bias at mid-scale", 0, 2048, 0, true, true, false},
		{"bias at lower tolerance", 0, 1844, 0, true, true, false},
		{"bias at upper tolerance", 0, 2252, 0, true, true, false},
		{"grounded input", 2048, 0, 0, false, false, false},
		{"railed input", 2048, 4095, 0, false, false, false},
		{"off bias with live signal", 0, 500, 200, true, false, true},
		{"off bias with weak signal", 0, 500, 163, false, false, false},
		{"first read discarded", 4095, 2048, 0, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := adc.NewSequence(tt.settle, tt.value)
			d := newDetector()

			r, err := d.Detect(src, &clock.Fake{}, tt.peakToPeak)
			require.NoError(t, err)
			assert.Equal(t, tt.ready, r.Ready)
			assert.Equal(t, tt.bias, r.BiasFound)
			assert.Equal(t, tt.signal, r.SignalFound)
			assert.Equal(t, tt.ready, d.Ready())
		})
	}
}

func TestDetect_Average(t *testing.T) {
	src := adc.NewSequence(0, 2000, 2000, 2000, 2000, 2100, 2100, 2100, 2100)
	d := newDetector()

	r, err := d.Detect(src, &clock.Fake{}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2050, r.Average, 0.001)
	assert.Equal(t, r, d.Last())
	assert.Equal(t, r.Average, d.Average())
}

func TestDetect_Timing(t *testing.T) {
	clk := &clock.Fake{}
	d := newDetector()

	_, err := d.Detect(adc.NewSequence(2048), clk, 0)
	require.NoError(t, err)
	want := 2*500*time.Microsecond + 8*50*time.Microsecond
	assert.Equal(t, uint64(want/time.Microsecond), clk.Now)
}

type failingSource struct{}

func (failingSource) Configure(config.Resolution) error { return errors.New("no adc") }
func (failingSource) Read() uint16                      { return 0 }

func TestDetect_ConfigureError(t *testing.T) {
	d := newDetector()
	_, err := d.Detect(failingSource{}, &clock.Fake{}, 0)
	assert.Error(t, err)
	assert.False(t, d.Ready())
}
