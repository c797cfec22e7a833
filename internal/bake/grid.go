package bake

import (
	"image"

	"github.com/Faultbox/character2d/pkg/math"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// Attributes shared by every generated instance. The sprite plane faces +Y.
var (
	planeNormal = math.Vec3{X: 0, Y: 1, Z: 0}
	white       = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
)

// GridParams are the per-category grid meshing parameters.
type GridParams struct {
	CellSize       int
	AlphaThreshold uint8
	MeshScale      float32
}

// GenerateGridMesh covers the opaque cells of s with quads and appends them
// to d in group g. offset is the slot placement (X right, Y up, Z depth).
//
// Cells start at every multiple of CellSize inside the sprite region while
// the whole cell fits, so a partial strip at the right or bottom edge is
// never meshed. Vertices are shared between neighbouring cells. It returns
// false when nothing was emitted, either because every cell was at or below
// the alpha threshold or because the texture cannot be sampled.
func GenerateGridMesh(d *Description, s *sprite.Sprite, offset math.Vec3, g GroupID, p GridParams) bool {
	if s == nil || p.CellSize < 1 {
		return false
	}
	buf, err := s.Texture.LockReadOnly()
	if err != nil {
		return false
	}
	defer buf.Unlock()

	region := s.Region()
	// Corner samples on the far edge clamp to the region, not the atlas.
	view := buf.Clip(region)
	srcW, srcH := s.SourceSize.X, s.SourceSize.Y
	texW, texH := s.Texture.Size()
	cell := p.CellSize

	vertices := make(map[image.Point]VertexID)

	position := func(pt image.Point) math.Vec3 {
		localX := float32(pt.X) - s.SourceUV.X
		localY := float32(pt.Y) - s.SourceUV.Y
		flippedY := srcH - localY
		return math.Vec3{
			X: (localX-srcW*0.5)*p.MeshScale + offset.X,
			Y: offset.Z,
			Z: (flippedY-srcH*0.5)*p.MeshScale + offset.Y,
		}
	}

	for y := region.Min.Y; y <= region.Max.Y-cell; y += cell {
		for x := region.Min.X; x <= region.Max.X-cell; x += cell {
			if SampleCellAlpha(view, x, y, cell) <= p.AlphaThreshold {
				continue
			}

			corners := [4]image.Point{
				{x, y},
				{x + cell, y},
				{x, y + cell},
				{x + cell, y + cell},
			}

			var inst [4]InstanceID
			for i, pt := range corners {
				v, ok := vertices[pt]
				if !ok {
					v = d.AppendVertex(position(pt))
					vertices[pt] = v
				}
				uv := math.Vec2{X: float32(pt.X), Y: float32(pt.Y)}.
					Sub(s.SourceUV).
					Div(s.SourceSize).
					Clamp(0, 1)
				uv = regionToTexture(uv, s, texW, texH)
				inst[i] = d.AppendInstance(v, planeNormal, uv, white)
			}

			d.AppendTriangle(inst[0], inst[2], inst[1], g)
			d.AppendTriangle(inst[1], inst[2], inst[3], g)
		}
	}

	return len(vertices) > 0
}

// regionToTexture maps a UV normalized to the sprite region into whole
// texture space, which is what the emitted material samples.
func regionToTexture(uv math.Vec2, s *sprite.Sprite, texW, texH int) math.Vec2 {
	if texW == 0 || texH == 0 {
		return uv
	}
	return math.Vec2{
		X: (s.SourceUV.X + uv.X*s.SourceSize.X) / float32(texW),
		Y: (s.SourceUV.Y + uv.Y*s.SourceSize.Y) / float32(texH),
	}
}
