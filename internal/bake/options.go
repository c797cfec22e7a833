// Package bake turns a layer stack of 2D sprites into a single mesh
// description: alpha sampling, grid meshing, layer composition and pivot
// normalization.
package bake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/character2d/pkg/math"
)

// Option errors.
var (
	ErrInvalidScale     = errors.New("mesh scale must be positive")
	ErrInvalidOutput    = errors.New("unknown output kind")
	ErrInvalidPivot     = errors.New("unknown pivot placement")
	ErrMissingAssetName = errors.New("asset name is required")
)

// Scale limits applied to user input.
const (
	MinMeshScale = 0.001
	MaxMeshScale = 10
)

// OutputKind selects the asset type produced by the emitter.
type OutputKind string

// Output kinds.
const (
	OutputStatic   OutputKind = "static"
	OutputSkeletal OutputKind = "skeletal"
)

// ParseOutputKind parses an output kind name.
func ParseOutputKind(s string) (OutputKind, error) {
	switch k := OutputKind(strings.ToLower(s)); k {
	case OutputStatic, OutputSkeletal:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutput, s)
}

// PivotPlacement is the policy for where the mesh origin sits relative to
// its bounding box.
type PivotPlacement string

// Pivot placements.
const (
	PivotOrigin       PivotPlacement = "origin"
	PivotCenter       PivotPlacement = "center"
	PivotBottomCenter PivotPlacement = "bottom_center"
)

// ParsePivotPlacement parses a pivot placement name.
func ParsePivotPlacement(s string) (PivotPlacement, error) {
	switch p := PivotPlacement(strings.ReplaceAll(strings.ToLower(s), "-", "_")); p {
	case PivotOrigin, PivotCenter, PivotBottomCenter:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPivot, s)
}

// Pivot returns the point of b selected by the policy.
func (p PivotPlacement) Pivot(b math.Box3) math.Vec3 {
	switch p {
	case PivotCenter:
		return b.Center()
	case PivotBottomCenter:
		c := b.Center()
		return math.Vec3{X: c.X, Y: c.Y, Z: b.Min.Z}
	default:
		return math.Vec3{}
	}
}

// Options are the global mesh generation parameters.
type Options struct {
	Output    OutputKind
	Pivot     PivotPlacement
	MeshScale float32
	AssetName string
	SavePath  string
}

// DefaultOptions returns the generator defaults.
func DefaultOptions() Options {
	return Options{
		Output:    OutputSkeletal,
		Pivot:     PivotOrigin,
		MeshScale: 1,
		AssetName: "GeneratedMesh",
		SavePath:  "Generated",
	}
}

// Validate checks the option invariants.
func (o Options) Validate() error {
	if !(o.MeshScale > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, o.MeshScale)
	}
	if _, err := ParseOutputKind(string(o.Output)); err != nil {
		return err
	}
	if _, err := ParsePivotPlacement(string(o.Pivot)); err != nil {
		return err
	}
	if strings.TrimSpace(o.AssetName) == "" {
		return ErrMissingAssetName
	}
	return nil
}

// ClampScale limits a user-entered scale to the supported range.
func ClampScale(s float32) float32 {
	return math.Clamp(s, MinMeshScale, MaxMeshScale)
}
