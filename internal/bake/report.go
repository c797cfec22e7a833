package bake

import (
	"fmt"
	"strings"
)

// SkipReason explains why a slot contributed no geometry.
type SkipReason string

// Skip reasons.
const (
	SkipHidden            SkipReason = "hidden"
	SkipNoSprite          SkipReason = "no sprite"
	SkipUnsupportedFormat SkipReason = "unsupported pixel format"
	SkipEmptyGrid         SkipReason = "empty grid"
	SkipNoRenderData      SkipReason = "no render data"
)

// Skip records one slot left out of the mesh.
type Skip struct {
	Category string
	Slot     string
	Sprite   string
	Reason   SkipReason
}

func (s Skip) String() string {
	if s.Sprite == "" {
		return fmt.Sprintf("%s/%s: %s", s.Category, s.Slot, s.Reason)
	}
	return fmt.Sprintf("%s/%s (%s): %s", s.Category, s.Slot, s.Sprite, s.Reason)
}

// Report summarizes one composition. A bake with skips is still a success;
// the report lets callers tell a partial result from a complete one.
type Report struct {
	Baked   int
	Skipped []Skip
}

// Partial reports whether any visible slot was dropped.
func (r *Report) Partial() bool {
	for _, s := range r.Skipped {
		if s.Reason != SkipHidden {
			return true
		}
	}
	return false
}

func (r *Report) skip(category, slot, spriteName string, reason SkipReason) {
	r.Skipped = append(r.Skipped, Skip{Category: category, Slot: slot, Sprite: spriteName, Reason: reason})
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d slot(s) baked, %d skipped", r.Baked, len(r.Skipped))
	for _, s := range r.Skipped {
		b.WriteString("\n  ")
		b.WriteString(s.String())
	}
	return b.String()
}
