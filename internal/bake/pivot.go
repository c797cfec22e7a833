package bake

import (
	"context"
	"errors"

	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/pkg/math"
)

// ErrAlreadyNormalized is returned when the pivot is applied twice.
var ErrAlreadyNormalized = errors.New("pivot already applied")

// Normalize moves every vertex so the pivot chosen by p sits at the origin
// and returns the pivot that was subtracted. It must run once, after all
// geometry has been appended; the description is frozen afterwards.
func Normalize(d *Description, p PivotPlacement) (math.Vec3, error) {
	if d.normalized {
		return math.Vec3{}, ErrAlreadyNormalized
	}
	pivot := math.Vec3{}
	if len(d.Positions) > 0 {
		pivot = p.Pivot(d.Bounds())
	}
	for i := range d.Positions {
		d.Positions[i] = d.Positions[i].Sub(pivot)
	}
	d.normalized = true
	return pivot, nil
}

// Bake composes the stack and normalizes the pivot. It fails with
// ErrEmptyMesh when no triangle was produced.
func Bake(ctx context.Context, stack layers.Stack, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	res, err := Compose(ctx, stack, opts)
	if err != nil {
		return nil, err
	}
	if res.Description.PolygonCount() == 0 {
		return res, ErrEmptyMesh
	}
	pivot, err := Normalize(res.Description, opts.Pivot)
	if err != nil {
		return nil, err
	}
	res.Pivot = pivot
	return res, nil
}
