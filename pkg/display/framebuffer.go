package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorOff = color.RGBA{A: 0xff}
)

var _ Display = (*Framebuffer)(nil)

// Framebuffer keeps a back plane for drawing and a front plane holding the
// last committed frame. An optional panel receives every committed frame.
type Framebuffer struct {
	width, height int16

	back  []byte
	front []byte
	mu    sync.RWMutex // Guards front and frames

	frames uint64
	font   tinyfont.Fonter
	sink   drivers.Displayer
	plane  *backPlane
}

// NewFramebuffer creates a width x height framebuffer. sink may be nil.
func NewFramebuffer(width, height int16, sink drivers.Displayer) *Framebuffer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	n := (int(width)*int(height) + 7) / 8
	fb := &Framebuffer{
		width:  width,
		height: height,
		back:   make([]byte, n),
		front:  make([]byte, n),
		font:   &proggy.TinySZ8pt7b,
		sink:   sink,
	}
	fb.plane = &backPlane{fb: fb}
	return fb
}

// SetFont replaces the text font.
func (fb *Framebuffer) SetFont(font tinyfont.Fonter) {
	if font != nil {
		fb.font = font
	}
}

// Size returns the surface dimensions.
func (fb *Framebuffer) Size() (width, height int16) {
	return fb.width, fb.height
}

// BeginFrame clears the back plane.
func (fb *Framebuffer) BeginFrame() {
	clear(fb.back)
}

// DrawPixel sets one pixel on the back plane.
func (fb *Framebuffer) DrawPixel(x, y int16) {
	fb.set(x, y, true)
}

// DrawLine draws a one pixel wide line between both endpoints inclusive.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int16) {
	tinydraw.Line(fb.plane, x0, y0, x1, y1, colorOn)
}

// DrawText writes s with its baseline at y.
func (fb *Framebuffer) DrawText(x, y int16, s string) {
	tinyfont.WriteLine(fb.plane, fb.font, x, y, s, colorOn)
}

// DrawGlyph draws a status icon with its bottom row at y. Codepoints without
// a built-in bitmap are looked up in the text font.
func (fb *Framebuffer) DrawGlyph(x, y int16, r rune) {
	bitmap, ok := glyphs[r]
	if !ok {
		tinyfont.DrawChar(fb.plane, fb.font, x, y, r, colorOn)
		return
	}
	top := y - int16(len(bitmap)) + 1
	for row, bits := range bitmap {
		for col := int16(0); col < 8; col++ {
			if bits&(0x80>>col) != 0 {
				fb.set(x+col, top+int16(row), true)
			}
		}
	}
}

// EndFrame publishes the back plane and pushes it to the panel, if any.
func (fb *Framebuffer) EndFrame() error {
	fb.mu.Lock()
	copy(fb.front, fb.back)
	fb.frames++
	fb.mu.Unlock()

	if fb.sink == nil {
		return nil
	}
	w, h := fb.sink.Size()
	w, h = min(w, fb.width), min(h, fb.height)
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			c := colorOff
			if fb.get(fb.back, x, y) {
				c = colorOn
			}
			fb.sink.SetPixel(x, y, c)
		}
	}
	if err := fb.sink.Display(); err != nil {
		return fmt.Errorf("failed to commit frame: %w", err)
	}
	return nil
}

// Frames returns the number of committed frames.
func (fb *Framebuffer) Frames() uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.frames
}

// Pixel reports whether (x, y) is lit in the last committed frame.
func (fb *Framebuffer) Pixel(x, y int16) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.get(fb.front, x, y)
}

// Image returns a grayscale copy of the last committed frame.
func (fb *Framebuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, int(fb.width), int(fb.height)))

	fb.mu.RLock()
	defer fb.mu.RUnlock()
	for y := int16(0); y < fb.height; y++ {
		for x := int16(0); x < fb.width; x++ {
			if fb.get(fb.front, x, y) {
				img.Pix[int(y)*img.Stride+int(x)] = 0xff
			}
		}
	}
	return img
}

func (fb *Framebuffer) index(x, y int16) (int, bool) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return 0, false
	}
	return int(y)*int(fb.width) + int(x), true
}

func (fb *Framebuffer) set(x, y int16, on bool) {
	i, ok := fb.index(x, y)
	if !ok {
		return
	}
	if on {
		fb.back[i/8] |= 0x80 >> (i % 8)
	} else {
		fb.back[i/8] &^= 0x80 >> (i % 8)
	}
}

func (fb *Framebuffer) get(plane []byte, x, y int16) bool {
	i, ok := fb.index(x, y)
	if !ok {
		return false
	}
	return plane[i/8]&(0x80>>(i%8)) != 0
}

// backPlane exposes the back plane to tinyfont and tinydraw.
type backPlane struct {
	fb *Framebuffer
}

var _ drivers.Displayer = (*backPlane)(nil)

func (p *backPlane) Size() (x, y int16) {
	return p.fb.width, p.fb.height
}

func (p *backPlane) SetPixel(x, y int16, c color.RGBA) {
	p.fb.set(x, y, c.R|c.G|c.B != 0)
}

func (p *backPlane) Display() error {
	return nil
}
