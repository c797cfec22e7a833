package bake

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/internal/logger"
	"github.com/Faultbox/character2d/pkg/math"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// ErrEmptyMesh is returned when a bake produced no triangles.
var ErrEmptyMesh = errors.New("no geometry generated")

// Result is the output of composing a layer stack.
type Result struct {
	Description *Description
	// UniqueSprites holds one entry per polygon group, in group order.
	UniqueSprites []*sprite.Sprite
	// Textures holds each distinct source texture of a non-empty group
	// once, in group order.
	Textures []*sprite.Texture
	// Pivot is the point subtracted from every vertex by Normalize.
	Pivot  math.Vec3
	Report Report
}

// TextureIndex returns the position of t in Textures, or -1.
func (r *Result) TextureIndex(t *sprite.Texture) int {
	for i, tex := range r.Textures {
		if tex == t {
			return i
		}
	}
	return -1
}

type entry struct {
	category *layers.Category
	slot     *layers.Slot
}

// Compose builds one mesh description from the stack. Categories are
// walked in order, then their slots in order. Every distinct sprite gets
// one polygon group, shared by all slots that reference it. Categories with
// grid meshing derive geometry from the alpha channel; the others reuse the
// sprite's baked render triangles.
//
// Slots that cannot contribute are recorded in the report rather than
// failing the bake. The context is checked between slots.
func Compose(ctx context.Context, stack layers.Stack, opts Options) (*Result, error) {
	log := logger.Named("bake")
	res := &Result{Description: NewDescription()}
	d := res.Description

	var entries []entry
	for _, cat := range stack {
		for _, slot := range cat.Slots {
			switch {
			case !slot.Visible:
				res.Report.skip(cat.Name, slot.Name, spriteName(slot.Sprite), SkipHidden)
			case slot.Sprite == nil || slot.Sprite.Texture == nil:
				res.Report.skip(cat.Name, slot.Name, spriteName(slot.Sprite), SkipNoSprite)
			case cat.UseGridMesh && !slot.Sprite.Texture.IsSampleable():
				res.Report.skip(cat.Name, slot.Name, slot.Sprite.Name, SkipUnsupportedFormat)
			default:
				entries = append(entries, entry{category: cat, slot: slot})
			}
		}
	}

	groups := make(map[*sprite.Sprite]GroupID)
	for _, e := range entries {
		s := e.slot.Sprite
		if _, ok := groups[s]; !ok {
			groups[s] = d.AppendGroup(s.Name, s)
			res.UniqueSprites = append(res.UniqueSprites, s)
		}
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s := e.slot.Sprite
		g := groups[s]
		before := d.PolygonCount()

		if e.category.UseGridMesh {
			ok := GenerateGridMesh(d, s, e.slot.Location, g, GridParams{
				CellSize:       e.category.CellSize,
				AlphaThreshold: e.category.AlphaThreshold,
				MeshScale:      opts.MeshScale,
			})
			if !ok {
				res.Report.skip(e.category.Name, e.slot.Name, s.Name, SkipEmptyGrid)
				continue
			}
		} else if !appendBakedTriangles(d, s, e.slot.Location, g, opts.MeshScale) {
			res.Report.skip(e.category.Name, e.slot.Name, s.Name, SkipNoRenderData)
			continue
		}

		res.Report.Baked++
		log.Debug("slot baked",
			zap.String("category", e.category.Name),
			zap.String("slot", e.slot.Name),
			zap.String("sprite", s.Name),
			zap.Bool("grid", e.category.UseGridMesh),
			zap.Int("triangles", d.PolygonCount()-before))
	}

	// Only textures of groups that received triangles are embedded.
	used := make(map[GroupID]bool, len(d.Groups))
	for _, t := range d.Triangles {
		used[t.Group] = true
	}
	for g, group := range d.Groups {
		if used[GroupID(g)] && res.TextureIndex(group.Sprite.Texture) < 0 {
			res.Textures = append(res.Textures, group.Sprite.Texture)
		}
	}

	for _, s := range res.Report.Skipped {
		if s.Reason == SkipHidden {
			continue
		}
		log.Warn("slot skipped",
			zap.String("category", s.Category),
			zap.String("slot", s.Slot),
			zap.String("sprite", s.Sprite),
			zap.String("reason", string(s.Reason)))
	}

	return res, nil
}

// appendBakedTriangles copies the sprite's render triangles verbatim.
func appendBakedTriangles(d *Description, s *sprite.Sprite, offset math.Vec3, g GroupID, scale float32) bool {
	data := s.BakedRenderData
	if len(data) < 3 {
		return false
	}
	for i := 0; i+2 < len(data); i += 3 {
		var inst [3]InstanceID
		for k := 0; k < 3; k++ {
			xyuv := data[i+k]
			pos := math.Vec3{
				X: xyuv.X*scale + offset.X,
				Y: offset.Z,
				Z: xyuv.Y*scale + offset.Y,
			}
			v := d.AppendVertex(pos)
			inst[k] = d.AppendInstance(v, planeNormal, math.Vec2{X: xyuv.Z, Y: xyuv.W}, white)
		}
		d.AppendTriangle(inst[0], inst[1], inst[2], g)
	}
	return true
}

func spriteName(s *sprite.Sprite) string {
	if s == nil {
		return ""
	}
	return s.Name
}
