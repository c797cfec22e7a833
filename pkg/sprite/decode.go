package sprite

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG for image.Decode
	_ "image/png"  // register PNG for image.Decode
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP for image.Decode
	_ "golang.org/x/image/tiff" // register TIFF for image.Decode
	_ "golang.org/x/image/webp" // register WebP for image.Decode
)

// Image decoding errors.
var (
	ErrTruncatedImage   = errors.New("truncated image data")
	ErrUnsupportedImage = errors.New("unsupported image encoding")
	ErrInvalidImageSize = errors.New("invalid image dimensions")
)

// DecodeOptions controls how a source file becomes a texture.
type DecodeOptions struct {
	// ConvertToRGBA re-encodes any decoded format into 8-bit RGBA so the
	// texture becomes sampleable for grid meshing.
	ConvertToRGBA bool
	// ColorKey turns magenta pixels transparent (sprites exported without
	// an alpha channel). Implies ConvertToRGBA.
	ColorKey bool
}

// Decode decodes an image file. The format is picked from the file
// extension for TGA (which has no magic number) and sniffed otherwise.
func Decode(name string, data []byte, opts DecodeOptions) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if errors.Is(err, image.ErrFormat) {
			err = fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Ext(name))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decoding %s: %w", name, ErrInvalidImageSize)
	}

	if opts.ColorKey {
		return ApplyColorKey(ToNRGBA(img)), nil
	}
	if opts.ConvertToRGBA && !IsSampleable(img) {
		return ToNRGBA(img), nil
	}
	return img, nil
}

// ToNRGBA converts any image to straight 8-bit RGBA anchored at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// IsMagentaKey reports whether an RGB color matches the magenta
// transparency key, with tolerance for lossy exports.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyColorKey makes magenta pixels transparent black in place.
func ApplyColorKey(img *image.NRGBA) *image.NRGBA {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if IsMagentaKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
			copy(img.Pix[i:i+4], []byte{0, 0, 0, 0})
		}
	}
	return img
}
