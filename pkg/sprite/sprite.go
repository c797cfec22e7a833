package sprite

import (
	"image"

	"github.com/Faultbox/character2d/pkg/math"
)

// RenderMode selects how default render triangles are built for a sprite.
type RenderMode string

// Render geometry modes.
const (
	// RenderFull covers the whole source region with one quad.
	RenderFull RenderMode = "full"
	// RenderTight trims fully transparent borders before building the quad.
	RenderTight RenderMode = "tight"
)

// Sprite is a rectangular region of a texture with its pre-baked render
// triangles. Sprites are compared by pointer: two slots that reference the
// same *Sprite share one material.
type Sprite struct {
	Name    string
	Texture *Texture

	// SourceUV is the top-left pixel of the region inside the texture.
	SourceUV math.Vec2
	// SourceSize is the region size in pixels.
	SourceSize math.Vec2

	// BakedRenderData is a triangle list of (x, y, u, v). Positions are in
	// pixels relative to the region center with Y up; UVs are normalized
	// texture coordinates.
	BakedRenderData []math.Vec4
}

// New creates a sprite covering region of tex and bakes its render
// triangles with the given mode. An empty region means the whole texture.
func New(name string, tex *Texture, region image.Rectangle, mode RenderMode) *Sprite {
	w, h := tex.Size()
	full := image.Rect(0, 0, w, h)
	if region.Empty() {
		region = full
	}
	region = region.Intersect(full)

	s := &Sprite{
		Name:       name,
		Texture:    tex,
		SourceUV:   math.Vec2{X: float32(region.Min.X), Y: float32(region.Min.Y)},
		SourceSize: math.Vec2{X: float32(region.Dx()), Y: float32(region.Dy())},
	}

	quad := region
	if mode == RenderTight {
		quad = s.OpaqueBounds()
	}
	if !quad.Empty() {
		s.BakedRenderData = s.quadTriangles(quad)
	}
	return s
}

// Region returns the sprite's source rectangle in texture pixels.
func (s *Sprite) Region() image.Rectangle {
	x, y := int(s.SourceUV.X), int(s.SourceUV.Y)
	return image.Rect(x, y, x+int(s.SourceSize.X), y+int(s.SourceSize.Y))
}

// OpaqueBounds returns the smallest rectangle inside the region that holds
// every pixel with non-zero alpha. Unsampleable textures return the full
// region.
func (s *Sprite) OpaqueBounds() image.Rectangle {
	region := s.Region()
	buf, err := s.Texture.LockReadOnly()
	if err != nil {
		return region
	}
	defer buf.Unlock()

	bounds := image.Rectangle{}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if buf.Alpha(x, y) == 0 {
				continue
			}
			bounds = bounds.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return bounds
}

// quadTriangles builds two triangles covering r, positioned relative to
// the region center with Y flipped upward.
func (s *Sprite) quadTriangles(r image.Rectangle) []math.Vec4 {
	tw, th := s.Texture.Size()
	cx := s.SourceUV.X + s.SourceSize.X*0.5
	cy := s.SourceUV.Y + s.SourceSize.Y*0.5

	corner := func(px, py int) math.Vec4 {
		return math.Vec4{
			X: float32(px) - cx,
			Y: cy - float32(py),
			Z: float32(px) / float32(tw),
			W: float32(py) / float32(th),
		}
	}

	tl := corner(r.Min.X, r.Min.Y)
	tr := corner(r.Max.X, r.Min.Y)
	bl := corner(r.Min.X, r.Max.Y)
	br := corner(r.Max.X, r.Max.Y)

	return []math.Vec4{tl, bl, tr, tr, bl, br}
}
