// Package display defines the pixel sink the renderer draws into and a
// double-buffered monochrome framebuffer implementing it.
package display

// Display is a monochrome pixel sink with frame scoping. Coordinates have the
// origin at the top-left, x grows right and y grows down. Draws outside the
// surface are clipped. Nothing becomes visible until EndFrame commits the frame.
type Display interface {
	BeginFrame()
	DrawPixel(x, y int16)
	DrawLine(x0, y0, x1, y1 int16)
	DrawText(x, y int16, s string)
	DrawGlyph(x, y int16, r rune)
	EndFrame() error
}

// Glyph codepoints used by the status icons.
const (
	GlyphSoundAbsent       rune = 0x23F9 // Stop square
	GlyphOverdrivePositive rune = 0x25B3 // Hollow up triangle
	GlyphOverdriveNegative rune = 0x25BD // Hollow down triangle
)

// glyphs are 8x8 bitmaps, MSB is the leftmost column. The last row sits on the baseline.
var glyphs = map[rune][8]byte{
	GlyphSoundAbsent:       {0x00, 0x7E, 0x7E, 0x7E, 0x7E, 0x7E, 0x7E, 0x00},
	GlyphOverdrivePositive: {0x10, 0x28, 0x28, 0x44, 0x44, 0x82, 0xFE, 0x00},
	GlyphOverdriveNegative: {0x00, 0xFE, 0x82, 0x44, 0x44, 0x28, 0x28, 0x10},
}
