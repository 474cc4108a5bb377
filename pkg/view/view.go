// Package view provides a Fyne widget showing the scope framebuffer and a measurement readout.
package view

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goscope/pkg/analyzer"
)

var (
	colorBackground = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colorTrace      = color.RGBA{R: 80, G: 255, B: 120, A: 255}
	colorReadout    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// ScopeWidget displays the last committed frame, scaled up with square pixels.
type ScopeWidget struct {
	widget.BaseWidget

	mu     sync.RWMutex
	screen *image.RGBA
	m      analyzer.Measurements
	frames uint64
}

// New creates a ScopeWidget for a width x height panel.
func New(width, height int) *ScopeWidget {
	s := &ScopeWidget{
		screen: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// Update replaces the displayed frame. Call it on the Fyne main thread, e.g. via fyne.Do.
func (s *ScopeWidget) Update(frame *image.Gray, m analyzer.Measurements) {
	s.mu.Lock()
	colorize(s.screen, frame)
	s.m = m
	s.frames++
	s.mu.Unlock()

	s.Refresh()
}

// Frames returns how many updates the widget has received.
func (s *ScopeWidget) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// colorize paints lit pixels of src in the trace color onto dst.
func colorize(dst *image.RGBA, src *image.Gray) {
	b := dst.Bounds().Intersect(src.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := colorBackground
			if src.GrayAt(x, y).Y != 0 {
				c = colorTrace
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

// Readout formats measurements as a single status line.
func Readout(m analyzer.Measurements) string {
	trig := "trig"
	if !m.Triggered {
		trig = "free"
	}
	s := fmt.Sprintf("pk+ %d  pk- %d  pk-pk %d (%.2f Vpp)  avg %.0f  %d Hz  %.1f ms  %s",
		m.PeakMax, m.PeakMin, m.PeakToPeak, m.PeakToPeakVolts, m.Average,
		m.RefreshRate, float32(m.AcquisitionTime)/1000, trig)
	if !m.SoundPresent {
		s += "  no signal"
	}
	if m.OverdrivePositive {
		s += "  overdrive+"
	}
	if m.OverdriveNegative {
		s += "  overdrive-"
	}
	return s
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(colorBackground)

	s.mu.RLock()
	raster := canvas.NewImageFromImage(s.screen)
	s.mu.RUnlock()
	raster.ScaleMode = canvas.ImageScalePixels
	raster.FillMode = canvas.ImageFillContain

	readout := canvas.NewText("", colorReadout)
	readout.TextSize = 12
	readout.TextStyle = fyne.TextStyle{Monospace: true}

	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		raster:  raster,
		readout: readout,
		objects: []fyne.CanvasObject{bg, raster, readout},
	}
}
