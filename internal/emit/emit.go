package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/character2d/internal/assets"
	"github.com/Faultbox/character2d/internal/bake"
	"github.com/Faultbox/character2d/internal/logger"
	"github.com/Faultbox/character2d/pkg/math"
)

// Asset name suffixes of skeletal output.
const (
	SkeletalMeshSuffix = "_SKM"
	SkeletonSuffix     = "_Skeleton"
)

// File extensions of emitted assets.
const (
	MeshExt     = ".glb"
	SkeletonExt = ".yaml"
)

// ErrNilResult is returned when Emit is called without a bake result.
var ErrNilResult = errors.New("no bake result")

// Output lists what one Emit call created.
type Output struct {
	Dir      string
	Mesh     assets.Entry
	Skeleton *assets.Entry
	Vertices int
	Polygons int
}

// Files returns the paths of every written asset.
func (o *Output) Files() []string {
	files := []string{filepath.Join(o.Dir, o.Mesh.Path)}
	if o.Skeleton != nil {
		files = append(files, filepath.Join(o.Dir, o.Skeleton.Path))
	}
	return files
}

// SkeletonDoc is the reference skeleton written next to a skeletal mesh.
type SkeletonDoc struct {
	Name  string    `yaml:"name"`
	Mesh  string    `yaml:"mesh"`
	Pivot string    `yaml:"pivot"`
	Bones []BoneDoc `yaml:"bones"`
}

// BoneDoc is one bone of a reference skeleton. Parent is -1 for the root.
// Translation is in mesh space (X right, Y depth, Z up).
type BoneDoc struct {
	Name        string     `yaml:"name"`
	Parent      int        `yaml:"parent"`
	Translation [3]float32 `yaml:"translation,flow"`
}

// Emit writes the bake result into the registry directory as a static or
// skeletal asset, registers the created assets and saves the manifest.
// Names that collide with existing assets get a numeric suffix. When any
// step fails, files written by this call are removed and the registry is
// left unchanged.
func Emit(res *bake.Result, opts bake.Options, reg *assets.Registry) (*Output, error) {
	if res == nil || res.Description == nil {
		return nil, ErrNilResult
	}
	if res.Description.PolygonCount() == 0 {
		return nil, bake.ErrEmptyMesh
	}
	if err := os.MkdirAll(reg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	log := logger.Named("emit")
	tx := &transaction{reg: reg}

	out, err := emit(tx, res, opts)
	if err != nil {
		tx.rollback()
		log.Error("emit failed", zap.String("asset", opts.AssetName), zap.Error(err))
		return nil, err
	}
	if err := reg.Save(); err != nil {
		tx.rollback()
		log.Error("saving registry failed", zap.Error(err))
		return nil, err
	}

	for _, f := range out.Files() {
		log.Info("asset written", zap.String("path", f))
	}
	return out, nil
}

func emit(tx *transaction, res *bake.Result, opts bake.Options) (*Output, error) {
	d := res.Description
	out := &Output{Dir: tx.reg.Dir, Vertices: len(d.Positions), Polygons: d.PolygonCount()}

	if opts.Output != bake.OutputSkeletal {
		name := tx.reg.UniqueName(opts.AssetName, MeshExt)
		doc, err := buildDocument(name, res, nil)
		if err != nil {
			return nil, err
		}
		entry, err := tx.writeMesh(doc, assets.KindStaticMesh, name)
		if err != nil {
			return nil, err
		}
		out.Mesh = entry
		return out, nil
	}

	// Skeleton first: the mesh is useless without it.
	root := RootLocation(d.Bounds(), opts.Pivot)
	skelName := tx.reg.UniqueName(opts.AssetName+SkeletonSuffix, SkeletonExt)
	meshName := tx.reg.UniqueName(opts.AssetName+SkeletalMeshSuffix, MeshExt)

	skel, err := tx.writeSkeleton(SkeletonDoc{
		Name:  skelName,
		Mesh:  meshName + MeshExt,
		Pivot: string(opts.Pivot),
		Bones: []BoneDoc{{Name: RootBoneName, Parent: -1, Translation: root.Array()}},
	})
	if err != nil {
		return nil, err
	}
	out.Skeleton = &skel

	doc, err := buildDocument(meshName, res, &skin{root: root})
	if err != nil {
		return nil, err
	}
	mesh, err := tx.writeMesh(doc, assets.KindSkeletalMesh, meshName)
	if err != nil {
		return nil, err
	}
	out.Mesh = mesh
	return out, nil
}

// transaction tracks files and registry entries created by one Emit call.
type transaction struct {
	reg     *assets.Registry
	files   []string
	entries []assets.Entry
}

func (tx *transaction) writeMesh(doc *gltf.Document, kind, name string) (assets.Entry, error) {
	file := name + MeshExt
	path := filepath.Join(tx.reg.Dir, file)
	tx.files = append(tx.files, path)
	if err := gltf.SaveBinary(doc, path); err != nil {
		return assets.Entry{}, fmt.Errorf("writing %s: %w", file, err)
	}
	return tx.register(kind, name, file), nil
}

func (tx *transaction) writeSkeleton(s SkeletonDoc) (assets.Entry, error) {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return assets.Entry{}, fmt.Errorf("marshaling skeleton: %w", err)
	}
	file := s.Name + SkeletonExt
	path := filepath.Join(tx.reg.Dir, file)
	tx.files = append(tx.files, path)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return assets.Entry{}, fmt.Errorf("writing %s: %w", file, err)
	}
	return tx.register(assets.KindSkeleton, s.Name, file), nil
}

func (tx *transaction) register(kind, name, file string) assets.Entry {
	e := tx.reg.Register(kind, name, file)
	tx.entries = append(tx.entries, e)
	return e
}

func (tx *transaction) rollback() {
	for _, f := range tx.files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("rollback: removing file", zap.String("path", f), zap.Error(err))
		}
	}
	for _, e := range tx.entries {
		tx.reg.Remove(e.GUID)
	}
}

// LoadSkeleton reads a skeleton sidecar file.
func LoadSkeleton(path string) (*SkeletonDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skeleton: %w", err)
	}
	var s SkeletonDoc
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing skeleton: %w", err)
	}
	return &s, nil
}

// RootTranslation returns the root bone translation of s.
func (s *SkeletonDoc) RootTranslation() math.Vec3 {
	for _, b := range s.Bones {
		if b.Parent < 0 {
			return math.Vec3{X: b.Translation[0], Y: b.Translation[1], Z: b.Translation[2]}
		}
	}
	return math.Vec3{}
}
