package view

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

const readoutHeight = 20

// scopeRenderer lays out the scaled framebuffer above the readout line.
type scopeRenderer struct {
	scope *ScopeWidget

	bg      *canvas.Rectangle
	raster  *canvas.Image
	readout *canvas.Text

	objects []fyne.CanvasObject
}

// MinSize is two screen pixels per panel pixel plus the readout.
func (r *scopeRenderer) MinSize() fyne.Size {
	b := r.scope.screen.Bounds()
	return fyne.NewSize(float32(b.Dx()*2), float32(b.Dy()*2+readoutHeight))
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	plot := fyne.NewSize(size.Width, size.Height-readoutHeight)
	r.raster.Move(fyne.NewPos(0, 0))
	r.raster.Resize(plot)

	r.readout.Move(fyne.NewPos(4, plot.Height+2))
	r.readout.Resize(fyne.NewSize(size.Width-8, readoutHeight-4))
}

// Refresh redraws the raster and the readout text.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	m := r.scope.m
	r.scope.mu.RUnlock()

	r.readout.Text = Readout(m)
	r.raster.Refresh()
	r.readout.Refresh()
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}
