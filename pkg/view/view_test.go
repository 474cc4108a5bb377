package view

import (
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"github.com/itohio/goscope/pkg/analyzer"
)

func TestReadout(t *testing.T) {
	tests := []struct {
		name string
		m    analyzer.Measurements
		want string
	}{
		{
			name: "quiet free-running",
			m:    analyzer.Measurements{PeakMax: 2048, PeakMin: 2048, Average: 2048},
			want: "pk+ 2048  pk- 2048  pk-pk 0 (0.00 Vpp)  avg 2048  0 Hz  0.0 ms  free  no signal",
		},
		{
			name: "overdriven",
			m: analyzer.Measurements{
				PeakMax: 4095, PeakMin: 60, PeakToPeak: 4035, Average: 2050,
				SoundPresent: true, OverdrivePositive: true, OverdriveNegative: true,
				RefreshRate: 42, AcquisitionTime: 3830, Triggered: true, PeakToPeakVolts: 3.3,
			},
			want: "pk+ 4095  pk- 60  pk-pk 4035 (3.30 Vpp)  avg 2050  42 Hz  3.8 ms  trig  overdrive+  overdrive-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Readout(tt.m))
		})
	}
}

func TestColorize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	src.Pix[1] = 0xff
	dst := image.NewRGBA(image.Rect(0, 0, 4, 2))

	colorize(dst, src)
	assert.Equal(t, colorTrace, dst.RGBAAt(1, 0))
	assert.Equal(t, colorBackground, dst.RGBAAt(0, 0))
	assert.Equal(t, colorBackground, dst.RGBAAt(3, 1))
}

func TestScopeWidget_Update(t *testing.T) {
	test.NewTempApp(t)

	w := New(256, 64)
	r := test.WidgetRenderer(w)
	assert.Len(t, r.Objects(), 3)
	assert.Equal(t, float32(512), r.MinSize().Width)

	frame := image.NewGray(image.Rect(0, 0, 256, 64))
	frame.Pix[0] = 0xff
	w.Update(frame, analyzer.Measurements{RefreshRate: 7})

	assert.Equal(t, uint64(1), w.Frames())
	assert.Equal(t, colorTrace, w.screen.RGBAAt(0, 0))
	assert.Contains(t, r.(*scopeRenderer).readout.Text, "7 Hz")
}
