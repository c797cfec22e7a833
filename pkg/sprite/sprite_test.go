package sprite

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// buildTGA creates an uncompressed 32-bit top-to-bottom TGA from BGRA rows.
func buildTGA(w, h int, pixel func(x, y int) [4]byte) []byte {
	header := make([]byte, 18)
	header[2] = TGATypeUncompressed
	header[12], header[13] = byte(w), byte(w>>8)
	header[14], header[15] = byte(h), byte(h>>8)
	header[16] = 32
	header[17] = 0x20

	var buf bytes.Buffer
	buf.Write(header)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := pixel(x, y)
			buf.Write(p[:])
		}
	}
	return buf.Bytes()
}

func TestDecodeTGA_Uncompressed(t *testing.T) {
	data := buildTGA(2, 2, func(x, y int) [4]byte {
		return [4]byte{10, 20, 30, byte(100 + x + y*2)}
	})

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	got := img.NRGBAAt(1, 1)
	want := color.NRGBA{R: 30, G: 20, B: 10, A: 103}
	if got != want {
		t.Errorf("pixel (1,1) = %v, want %v", got, want)
	}
}

func TestDecodeTGA_BottomUp(t *testing.T) {
	data := buildTGA(1, 2, func(x, y int) [4]byte {
		return [4]byte{0, 0, 0, byte(y * 200)}
	})
	data[17] = 0 // bottom-to-top rows

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	if a := img.NRGBAAt(0, 0).A; a != 200 {
		t.Errorf("top pixel alpha = %d, want 200 (rows flipped)", a)
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	header := make([]byte, 18)
	header[2] = TGATypeRLE
	header[12] = 4
	header[14] = 1
	header[16] = 32
	header[17] = 0x20
	// One run packet of 3 pixels, then one raw pixel.
	stream := []byte{0x82, 1, 2, 3, 255, 0x00, 4, 5, 6, 0}
	img, err := DecodeTGA(append(header, stream...))
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	if c := img.NRGBAAt(2, 0); c != (color.NRGBA{R: 3, G: 2, B: 1, A: 255}) {
		t.Errorf("run pixel = %v", c)
	}
	if c := img.NRGBAAt(3, 0); c != (color.NRGBA{R: 6, G: 5, B: 4, A: 0}) {
		t.Errorf("raw pixel = %v", c)
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 2}, ErrTruncatedImage},
		{"color mapped", append([]byte{0, 1, 1}, make([]byte, 15)...), ErrUnsupportedImage},
		{"truncated pixels", buildTGA(4, 4, func(int, int) [4]byte { return [4]byte{} })[:30], ErrTruncatedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	gray := image.NewGray(image.Rect(0, 0, 4, 4))

	img, err := Decode("body.png", encodePNG(t, nrgba), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !IsSampleable(img) {
		t.Errorf("RGBA png should be sampleable, got %s", FormatOf(img))
	}

	img, err = Decode("mask.png", encodePNG(t, gray), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if IsSampleable(img) {
		t.Error("gray png should not be sampleable without conversion")
	}

	img, err = Decode("mask.png", encodePNG(t, gray), DecodeOptions{ConvertToRGBA: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if FormatOf(img) != FormatNRGBA8 {
		t.Errorf("converted format = %s, want %s", FormatOf(img), FormatNRGBA8)
	}

	if _, err := Decode("notes.txt", []byte("hello"), DecodeOptions{}); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("unknown format err = %v, want ErrUnsupportedImage", err)
	}
}

func TestDecode_ColorKey(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{255, 0, 255, 255})
	src.Set(1, 0, color.RGBA{10, 200, 10, 255})

	img, err := Decode("npc.png", encodePNG(t, src), DecodeOptions{ColorKey: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n := img.(*image.NRGBA)
	if a := n.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("magenta alpha = %d, want 0", a)
	}
	if a := n.NRGBAAt(1, 0).A; a != 255 {
		t.Errorf("green alpha = %d, want 255", a)
	}
}

func TestTextureLockReadOnly(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.SetNRGBA(2, 2, color.NRGBA{A: 77})
	tex := NewTexture("t", img)

	buf, err := tex.LockReadOnly()
	if err != nil {
		t.Fatalf("LockReadOnly: %v", err)
	}
	if a := buf.Alpha(2, 2); a != 77 {
		t.Errorf("Alpha(2,2) = %d, want 77", a)
	}
	if a := buf.Alpha(5, 9); a != 77 {
		t.Errorf("clamped Alpha = %d, want 77", a)
	}
	buf.Unlock()
	buf.Unlock()

	gray := NewTexture("g", image.NewGray(image.Rect(0, 0, 2, 2)))
	if _, err := gray.LockReadOnly(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("gray lock err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPixelBufferClip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(2, 0, color.NRGBA{A: 200})
	img.SetNRGBA(1, 1, color.NRGBA{A: 10})
	tex := NewTexture("atlas", img)

	buf, err := tex.LockReadOnly()
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Unlock()

	left := buf.Clip(image.Rect(0, 0, 2, 2))
	tests := []struct {
		x, y int
		want uint8
	}{
		{1, 1, 10},
		{2, 0, 0},  // clamped back to x=1
		{3, 1, 10}, // clamped to (1,1)
		{-1, 5, 0},
	}
	for _, tt := range tests {
		if got := left.Alpha(tt.x, tt.y); got != tt.want {
			t.Errorf("clipped Alpha(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
	if got := buf.Alpha(2, 0); got != 200 {
		t.Errorf("unclipped Alpha(2,0) = %d, want 200", got)
	}

	// Unlocking a view leaves the texture locked by buf.
	left.Unlock()
	if tex.mu.TryLock() {
		t.Error("texture unlocked through a clip view")
		tex.mu.Unlock()
	}
}

func TestNewSprite_TightQuad(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 2; y < 6; y++ {
		for x := 4; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	tex := NewTexture("atlas", img)

	s := New("arm", tex, image.Rectangle{}, RenderTight)
	if s.SourceSize.X != 8 || s.SourceSize.Y != 8 {
		t.Fatalf("source size = %v", s.SourceSize)
	}
	if got := s.OpaqueBounds(); got != image.Rect(4, 2, 6, 6) {
		t.Errorf("OpaqueBounds() = %v", got)
	}
	if len(s.BakedRenderData) != 6 {
		t.Fatalf("baked vertices = %d, want 6", len(s.BakedRenderData))
	}
	tl := s.BakedRenderData[0]
	if tl.X != 0 || tl.Y != 2 || tl.Z != 0.5 || tl.W != 0.25 {
		t.Errorf("top-left baked vertex = %+v", tl)
	}

	full := New("arm", tex, image.Rect(0, 0, 4, 4), RenderFull)
	if full.Region() != image.Rect(0, 0, 4, 4) {
		t.Errorf("Region() = %v", full.Region())
	}
	if v := full.BakedRenderData[5]; v.X != 2 || v.Y != -2 {
		t.Errorf("bottom-right baked vertex = %+v", v)
	}
}
