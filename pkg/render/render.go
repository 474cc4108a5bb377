// Package render maps a sample buffer and its measurements onto a Display.
package render

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/itohio/goscope/pkg/analyzer"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/display"
	"github.com/itohio/goscope/pkg/sample"
)

// Renderer draws one frame per call to Render.
type Renderer struct {
	cfg      config.DisplayConfig
	overlays config.OverlayConfig

	samples  int
	bitDepth uint32
	refVolts float32

	hscale float32 // Samples per pixel column
	vgain  float32 // Pixels per count
}

// New creates a Renderer for buffers of n samples taken at resolution res.
func New(cfg config.DisplayConfig, overlays config.OverlayConfig, n int, res config.Resolution) *Renderer {
	bitDepth := res.BitDepth()
	r := &Renderer{
		cfg:      cfg,
		overlays: overlays,
		samples:  n,
		bitDepth: bitDepth,
		refVolts: float32(res.ReferenceMV) / 1000,
	}
	r.hscale = float32(n) / float32(cfg.Width+1)
	vs := float32(cfg.VerticalScale)
	if vs <= 0 {
		vs = 1
	}
	if bitDepth > 0 {
		r.vgain = float32(cfg.Height) / vs / float32(bitDepth)
	}
	return r
}

// SetOverlays replaces the set of enabled overlays.
func (r *Renderer) SetOverlays(o config.OverlayConfig) {
	r.overlays = o
}

// Overlays returns the enabled overlays.
func (r *Renderer) Overlays() config.OverlayConfig {
	return r.overlays
}

// HorizontalScale returns samples per pixel column, N / (width+1).
func (r *Renderer) HorizontalScale() float32 {
	return r.hscale
}

// VoltsPerDivision returns the reference voltage spread over the graticule ticks.
func (r *Renderer) VoltsPerDivision() float32 {
	return r.refVolts / float32(max(r.cfg.Ticks, 1))
}

// TimePerDivision returns milliseconds per horizontal division for a sweep
// that took acquisitionTime microseconds.
func (r *Renderer) TimePerDivision(acquisitionTime uint32) float32 {
	return float32(acquisitionTime) / 1000 / float32(max(r.cfg.HorizontalDivisions, 1))
}

// MapX maps sample index i to a pixel column in [0, width].
func (r *Renderer) MapX(i int) int16 {
	if r.hscale <= 0 {
		return 0
	}
	x := int(math32.Round(float32(i) / r.hscale))
	return int16(clamp(x, 0, r.cfg.Width))
}

// MapY maps a sample value to a height above the bottom edge, before the flip and offset.
func (r *Renderer) MapY(v uint16) int {
	return int(math32.Round(float32(v) * r.vgain))
}

// ScreenY maps a sample value to a screen row in [0, height].
func (r *Renderer) ScreenY(v uint16) int16 {
	return int16(clamp(r.cfg.Height-r.cfg.VerticalOffset-r.MapY(v), 0, r.cfg.Height))
}

// Render draws the frame. It does nothing when ready is false.
func (r *Renderer) Render(d display.Display, buf sample.Buffer, m analyzer.Measurements, ready bool) error {
	if !ready {
		return nil
	}

	d.BeginFrame()

	if r.overlays.Waveform {
		r.drawWaveform(d, buf)
	}
	if r.overlays.Graticule {
		r.drawGraticule(d)
	}
	if r.overlays.HorizontalGraticule {
		r.drawHorizontalGraticule(d)
	}
	if r.overlays.RefreshRate {
		d.DrawText(int16(r.cfg.RefreshX), int16(r.cfg.RefreshY), fmt.Sprintf("%d Hz", m.RefreshRate))
	}
	if r.overlays.AcquisitionTime {
		d.DrawText(2, int16(r.cfg.Height), fmt.Sprintf("%.1f ms", float32(m.AcquisitionTime)/1000))
	}
	if r.overlays.VoltsPerDivision {
		d.DrawText(2, int16(r.cfg.Height-2), fmt.Sprintf("%.2f V/div", r.VoltsPerDivision()))
	}
	if r.overlays.TimePerDivision {
		d.DrawText(int16(r.cfg.TimeDivisionX), int16(r.cfg.Height-2), fmt.Sprintf("%.1f ms/div", r.TimePerDivision(m.AcquisitionTime)))
	}
	if r.overlays.PeakToPeakCounts {
		d.DrawText(int16(r.cfg.PeakCountsX), int16(r.cfg.Height-2), fmt.Sprintf("%d pk-pk", m.PeakToPeak))
	}
	if r.overlays.PeakToPeak {
		d.DrawText(2, 10, fmt.Sprintf("%.2f Vpp", m.PeakToPeakVolts))
	}
	if r.overlays.TopCursor {
		r.drawTopCursor(d, m.PeakMax)
	}
	if r.overlays.BottomCursor {
		y := r.ScreenY(m.PeakMin)
		d.DrawLine(0, y, int16(r.cfg.Width), y)
	}
	if r.overlays.SoundIcon && !m.SoundPresent {
		d.DrawGlyph(int16(r.cfg.IconX), int16(r.cfg.IconTopY), display.GlyphSoundAbsent)
	}
	if r.overlays.OverdriveIcons {
		if m.OverdrivePositive {
			d.DrawGlyph(int16(r.cfg.IconX), int16(r.cfg.IconTopY), display.GlyphOverdrivePositive)
		}
		if m.OverdriveNegative {
			d.DrawGlyph(int16(r.cfg.IconX), int16(r.cfg.IconBottomY), display.GlyphOverdriveNegative)
		}
	}

	return d.EndFrame()
}

func (r *Renderer) drawWaveform(d display.Display, buf sample.Buffer) {
	for i, v := range buf {
		d.DrawPixel(r.MapX(i), r.ScreenY(v))
	}
}

func (r *Renderer) drawGraticule(d display.Display) {
	x := int16(r.cfg.GraticuleX - r.cfg.VerticalOffset)
	h := r.cfg.Height
	d.DrawLine(x, 0, x, int16(h))

	if r.cfg.Ticks <= 0 {
		return
	}
	tw := int16(r.cfg.TickWidth)
	for i := 1; i <= r.cfg.Ticks; i++ {
		y := int16(clamp(i*(h+1)/r.cfg.Ticks, 0, h))
		d.DrawLine(x, y, x+tw, y)
	}
}

func (r *Renderer) drawHorizontalGraticule(d display.Display) {
	w := r.cfg.Width
	y := int16(r.cfg.Height / 2)
	d.DrawLine(0, y, int16(w), y)

	if r.cfg.HorizontalDivisions <= 0 {
		return
	}
	div := w / r.cfg.HorizontalDivisions
	for i := 1; i <= r.cfg.HorizontalDivisions; i++ {
		x := int16(i * div)
		d.DrawLine(x, y-2, x, y+2)
	}
}

// drawTopCursor draws a solid line when the peak sits high on screen and a
// dotted one when it is close to the baseline.
func (r *Renderer) drawTopCursor(d display.Display, peak uint16) {
	yp := r.MapY(peak)
	w := r.cfg.Width

	if yp > r.cfg.DottedBelow {
		y := int16(clamp(r.cfg.Height-r.cfg.VerticalOffset-yp, 0, r.cfg.Height))
		d.DrawLine(0, y, int16(w), y)
		return
	}

	y := int16(clamp(r.cfg.Height-r.cfg.VerticalOffset-yp, 0, r.cfg.Height))
	step := max(r.cfg.DashStep, 1)
	period := step * (1 + max(r.cfg.DashGap, 0))
	for x := 0; x < w; x += period {
		d.DrawLine(int16(x), y, int16(x+step), y)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
