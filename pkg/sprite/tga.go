package sprite

import (
	"fmt"
	"image"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// DecodeTGA decodes an uncompressed or RLE true-color TGA into straight
// (non-premultiplied) RGBA, which keeps the alpha channel exactly as authored.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("%w: TGA header", ErrTruncatedImage)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped TGA", ErrUnsupportedImage)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: TGA type %d", ErrUnsupportedImage, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: TGA bit depth %d", ErrUnsupportedImage, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, width, height)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: TGA id field", ErrTruncatedImage)
	}

	d := tgaDecoder{
		src:         data[offset:],
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src         []byte
	pos         int
	img         *image.NRGBA
	bpp         int
	topToBottom bool
	pixel       int
}

func (d *tgaDecoder) count() int {
	b := d.img.Bounds()
	return b.Dx() * b.Dy()
}

// readColor reads one BGR(A) pixel from the stream.
func (d *tgaDecoder) readColor() ([4]byte, bool) {
	if d.pos+d.bpp > len(d.src) {
		return [4]byte{}, false
	}
	p := d.src[d.pos:]
	c := [4]byte{p[2], p[1], p[0], 255}
	if d.bpp == 4 {
		c[3] = p[3]
	}
	d.pos += d.bpp
	return c, true
}

// put writes c at the next pixel in file order.
func (d *tgaDecoder) put(c [4]byte) {
	w := d.img.Rect.Dx()
	x, y := d.pixel%w, d.pixel/w
	if !d.topToBottom {
		y = d.img.Rect.Dy() - 1 - y
	}
	i := d.img.PixOffset(x, y)
	copy(d.img.Pix[i:i+4], c[:])
	d.pixel++
}

func (d *tgaDecoder) raw() error {
	if len(d.src) < d.count()*d.bpp {
		return fmt.Errorf("%w: TGA pixel data", ErrTruncatedImage)
	}
	for d.pixel < d.count() {
		c, _ := d.readColor()
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.count()
	for d.pixel < total {
		if d.pos >= len(d.src) {
			return fmt.Errorf("%w: TGA RLE stream", ErrTruncatedImage)
		}
		packet := d.src[d.pos]
		d.pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := d.readColor()
			if !ok {
				return fmt.Errorf("%w: TGA RLE packet", ErrTruncatedImage)
			}
			for i := 0; i < n && d.pixel < total; i++ {
				d.put(c)
			}
			continue
		}

		for i := 0; i < n && d.pixel < total; i++ {
			c, ok := d.readColor()
			if !ok {
				return fmt.Errorf("%w: TGA raw packet", ErrTruncatedImage)
			}
			d.put(c)
		}
	}
	return nil
}
