// Package sprite models 2D sprites cut from source textures and gives the
// mesh generator read-only access to their pixels.
package sprite

import (
	"errors"
	"image"
	"sync"
)

// ErrUnsupportedFormat is returned when a texture's pixels are not stored as
// 8-bit RGBA and therefore cannot be sampled directly.
var ErrUnsupportedFormat = errors.New("texture pixel format is not directly sampleable")

// PixelFormat names the in-memory layout of a decoded texture.
type PixelFormat string

// Known pixel formats.
const (
	FormatRGBA8   PixelFormat = "RGBA8"  // premultiplied 8-bit RGBA
	FormatNRGBA8  PixelFormat = "NRGBA8" // straight 8-bit RGBA
	FormatOther   PixelFormat = "other"
	FormatMissing PixelFormat = "none"
)

// FormatOf classifies a decoded image.
func FormatOf(img image.Image) PixelFormat {
	switch img.(type) {
	case nil:
		return FormatMissing
	case *image.RGBA:
		return FormatRGBA8
	case *image.NRGBA:
		return FormatNRGBA8
	default:
		return FormatOther
	}
}

// IsSampleable reports whether img can be read through a PixelBuffer.
func IsSampleable(img image.Image) bool {
	f := FormatOf(img)
	return f == FormatRGBA8 || f == FormatNRGBA8
}

// Texture is a decoded source image shared by every sprite cut from it.
type Texture struct {
	Name  string
	Image image.Image

	mu sync.RWMutex
}

// NewTexture wraps a decoded image.
func NewTexture(name string, img image.Image) *Texture {
	return &Texture{Name: name, Image: img}
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (int, int) {
	if t == nil || t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Format returns the texture's pixel format.
func (t *Texture) Format() PixelFormat {
	if t == nil {
		return FormatMissing
	}
	return FormatOf(t.Image)
}

// IsSampleable reports whether the texture can be locked for reading.
func (t *Texture) IsSampleable() bool {
	return t != nil && IsSampleable(t.Image)
}

// LockReadOnly takes a shared lock on the texture and returns a view of its
// pixels. The caller must call Unlock on the returned buffer when done.
func (t *Texture) LockReadOnly() (*PixelBuffer, error) {
	if !t.IsSampleable() {
		return nil, ErrUnsupportedFormat
	}
	t.mu.RLock()

	buf := &PixelBuffer{release: t.mu.RUnlock}
	switch img := t.Image.(type) {
	case *image.RGBA:
		buf.Pix, buf.Stride, buf.rect = img.Pix, img.Stride, img.Rect
	case *image.NRGBA:
		buf.Pix, buf.Stride, buf.rect = img.Pix, img.Stride, img.Rect
	}
	buf.Width, buf.Height = buf.rect.Dx(), buf.rect.Dy()
	return buf, nil
}

// PixelBuffer is a read-only view of 4-byte-per-pixel data. Coordinates are
// relative to the texture's top-left corner.
type PixelBuffer struct {
	Pix    []byte
	Stride int
	Width  int
	Height int

	rect    image.Rectangle
	clip    image.Rectangle
	release func()
}

// Alpha returns the alpha value at (x, y). Coordinates outside the buffer,
// or outside the clip rectangle of a Clip view, are clamped to the nearest
// edge pixel.
func (b *PixelBuffer) Alpha(x, y int) uint8 {
	c := b.clipRect()
	x = min(max(x, c.Min.X), c.Max.X-1)
	y = min(max(y, c.Min.Y), c.Max.Y-1)
	return b.Pix[y*b.Stride+x*4+3]
}

// Clip returns a view of b whose reads are clamped to r, so samples never
// leave a sprite's region of a shared atlas. The view shares b's pixels and
// lock; only b must be unlocked.
func (b *PixelBuffer) Clip(r image.Rectangle) *PixelBuffer {
	v := *b
	v.release = nil
	v.clip = r.Intersect(b.clipRect())
	if v.clip.Empty() {
		v.clip = b.clipRect()
	}
	return &v
}

func (b *PixelBuffer) clipRect() image.Rectangle {
	if b.clip.Empty() {
		return image.Rect(0, 0, b.Width, b.Height)
	}
	return b.clip
}

// Unlock releases the texture lock. It is safe to call more than once.
func (b *PixelBuffer) Unlock() {
	if b.release != nil {
		b.release()
		b.release = nil
	}
}
