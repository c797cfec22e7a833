// Package emit writes baked mesh descriptions as glTF 2.0 binary assets.
package emit

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/character2d/internal/bake"
	"github.com/Faultbox/character2d/pkg/math"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// RootBoneName is the single joint of generated skeletons.
const RootBoneName = "Root"

const defaultMaterialName = "DefaultMaterial"

// toGLTF maps description space (X right, Y depth, Z up) to glTF space
// (X right, Y up, Z toward the viewer). The axis swap also flips the
// winding, so triangles keep their index order and face +Z.
func toGLTF(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Z, v.Y}
}

// RootLocation places the root joint for a pivot policy. Center and bottom
// center are relative to the mesh bounds; origin is the absolute origin.
func RootLocation(b math.Box3, p bake.PivotPlacement) math.Vec3 {
	if !b.IsValid() {
		return math.Vec3{}
	}
	switch p {
	case bake.PivotCenter:
		return b.Relative(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
	case bake.PivotBottomCenter:
		return b.Relative(math.Vec3{X: 0.5, Y: 0.5, Z: 0})
	default:
		return math.Vec3{}
	}
}

// skin describes the joint binding of a skeletal mesh.
type skin struct {
	root math.Vec3
}

// buildDocument converts a bake result into a glTF document. With a
// non-nil skin every vertex is bound to the root joint with full weight.
func buildDocument(name string, res *bake.Result, sk *skin) (*gltf.Document, error) {
	d := res.Description
	if d.PolygonCount() == 0 {
		return nil, bake.ErrEmptyMesh
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "c2dbake"

	textures, err := writeTextures(doc, res.Textures)
	if err != nil {
		return nil, err
	}

	mesh := &gltf.Mesh{Name: name}
	defaultMaterial := -1

	for g, group := range d.Groups {
		tris := d.GroupTriangles(bake.GroupID(g))
		if len(tris) == 0 {
			continue
		}

		prim := writePrimitive(doc, d, tris, sk != nil)

		material := -1
		if group.Sprite != nil && group.Sprite.Texture != nil {
			if idx := res.TextureIndex(group.Sprite.Texture); idx >= 0 {
				material = len(doc.Materials)
				doc.Materials = append(doc.Materials, spriteMaterial(group.Name, textures[idx]))
			}
		}
		if material < 0 {
			if defaultMaterial < 0 {
				defaultMaterial = len(doc.Materials)
				doc.Materials = append(doc.Materials, &gltf.Material{
					Name:        defaultMaterialName,
					DoubleSided: true,
					PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
						MetallicFactor:  gltf.Float(0),
						RoughnessFactor: gltf.Float(1),
					},
				})
			}
			material = defaultMaterial
		}
		prim.Material = gltf.Index(uint32(material))
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	doc.Meshes = []*gltf.Mesh{mesh}
	meshNode := &gltf.Node{
		Name:     name,
		Mesh:     gltf.Index(0),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	doc.Nodes = []*gltf.Node{meshNode}
	doc.Scenes[0].Nodes = []uint32{0}

	if sk != nil {
		rootNode := &gltf.Node{
			Name:        RootBoneName,
			Translation: toGLTF(sk.root),
			Rotation:    [4]float32{0, 0, 0, 1},
			Scale:       [3]float32{1, 1, 1},
		}
		doc.Nodes = append(doc.Nodes, rootNode)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 1)

		// The joint translation is in glTF space, so the inverse bind
		// matrix is built from the mapped location.
		t := toGLTF(sk.root)
		bind := math.Translate(math.Vec3{X: -t[0], Y: -t[1], Z: -t[2]})
		ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{bind.Columns()})

		doc.Skins = []*gltf.Skin{{
			Name:                name,
			InverseBindMatrices: gltf.Index(uint32(ibm)),
			Skeleton:            gltf.Index(1),
			Joints:              []uint32{1},
		}}
		meshNode.Skin = gltf.Index(0)
	}

	return doc, nil
}

// writePrimitive writes one primitive for a polygon group. Each distinct
// instance used by the group becomes one glTF vertex.
func writePrimitive(doc *gltf.Document, d *bake.Description, tris []bake.Triangle, skinned bool) *gltf.Primitive {
	local := make(map[bake.InstanceID]uint32)
	var (
		positions [][3]float32
		normals   [][3]float32
		uvs       [][2]float32
		colors    [][4]float32
		indices   []uint32
	)

	for _, t := range tris {
		for _, id := range t.Corners {
			idx, ok := local[id]
			if !ok {
				inst := d.Instances[id]
				idx = uint32(len(positions))
				local[id] = idx
				positions = append(positions, toGLTF(d.Positions[inst.Vertex]))
				normals = append(normals, toGLTF(inst.Normal))
				uvs = append(uvs, [2]float32{inst.UV.X, inst.UV.Y})
				colors = append(colors, inst.Color.Array())
			}
			indices = append(indices, idx)
		}
	}

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION:   uint32(modeler.WritePosition(doc, positions)),
			gltf.NORMAL:     uint32(modeler.WriteNormal(doc, normals)),
			gltf.TEXCOORD_0: uint32(modeler.WriteTextureCoord(doc, uvs)),
			gltf.COLOR_0:    uint32(modeler.WriteColor(doc, colors)),
		},
		Indices: gltf.Index(uint32(modeler.WriteIndices(doc, indices))),
	}

	if skinned {
		joints := make([][4]uint8, len(positions))
		weights := make([][4]float32, len(positions))
		for i := range weights {
			weights[i] = [4]float32{1, 0, 0, 0}
		}
		prim.Attributes[gltf.JOINTS_0] = uint32(modeler.WriteJoints(doc, joints))
		prim.Attributes[gltf.WEIGHTS_0] = uint32(modeler.WriteWeights(doc, weights))
	}
	return prim
}

// writeTextures embeds every texture as PNG and returns the glTF texture
// index of each, in input order.
func writeTextures(doc *gltf.Document, textures []*sprite.Texture) ([]uint32, error) {
	if len(textures) == 0 {
		return nil, nil
	}

	// Pixel art: nearest filtering, no wrap bleeding between atlas regions.
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearest,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	})
	sampler := uint32(len(doc.Samplers) - 1)

	out := make([]uint32, len(textures))
	for i, tex := range textures {
		var buf bytes.Buffer
		if err := png.Encode(&buf, tex.Image); err != nil {
			return nil, fmt.Errorf("encoding texture %s: %w", tex.Name, err)
		}
		img, err := modeler.WriteImage(doc, tex.Name, "image/png", &buf)
		if err != nil {
			return nil, fmt.Errorf("embedding texture %s: %w", tex.Name, err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Sampler: gltf.Index(sampler),
			Source:  gltf.Index(uint32(img)),
		})
		out[i] = uint32(len(doc.Textures) - 1)
	}
	return out, nil
}

// spriteMaterial is an unlit-looking, alpha-tested material sampling the
// sprite's texture.
func spriteMaterial(name string, texture uint32) *gltf.Material {
	return &gltf.Material{
		Name:        name,
		DoubleSided: true,
		AlphaMode:   gltf.AlphaMask,
		AlphaCutoff: gltf.Float(0.5),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: texture},
			MetallicFactor:   gltf.Float(0),
			RoughnessFactor:  gltf.Float(1),
		},
	}
}
