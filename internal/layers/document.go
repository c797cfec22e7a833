package layers

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/character2d/internal/logger"
	"github.com/Faultbox/character2d/pkg/math"
	"github.com/Faultbox/character2d/pkg/sprite"
)

// Document is the on-disk form of a character layer stack. It can be
// written as YAML or TOML.
type Document struct {
	Name       string               `yaml:"name" toml:"name"`
	Options    OptionsDoc           `yaml:"options,omitempty" toml:"options,omitempty"`
	Sprites    map[string]SpriteDoc `yaml:"sprites,omitempty" toml:"sprites,omitempty"`
	Categories []CategoryDoc        `yaml:"categories" toml:"categories"`
}

// OptionsDoc carries per-character overrides of the bake options.
type OptionsDoc struct {
	Output    string  `yaml:"output,omitempty" toml:"output,omitempty"`
	Pivot     string  `yaml:"pivot,omitempty" toml:"pivot,omitempty"`
	Scale     float32 `yaml:"scale,omitempty" toml:"scale,omitempty"`
	AssetName string  `yaml:"asset_name,omitempty" toml:"asset_name,omitempty"`
	SavePath  string  `yaml:"save_path,omitempty" toml:"save_path,omitempty"`
}

// SpriteDoc names a region of a texture file.
type SpriteDoc struct {
	Texture  string `yaml:"texture" toml:"texture"`
	Region   []int  `yaml:"region,omitempty" toml:"region,omitempty"` // x, y, w, h
	Render   string `yaml:"render,omitempty" toml:"render,omitempty"`
	Convert  bool   `yaml:"convert,omitempty" toml:"convert,omitempty"`
	ColorKey bool   `yaml:"color_key,omitempty" toml:"color_key,omitempty"`
}

// CategoryDoc is one category entry. Unset fields take the defaults.
type CategoryDoc struct {
	Name           string    `yaml:"name" toml:"name"`
	GridMesh       *bool     `yaml:"grid_mesh,omitempty" toml:"grid_mesh,omitempty"`
	CellSize       *int      `yaml:"cell_size,omitempty" toml:"cell_size,omitempty"`
	AlphaThreshold *int      `yaml:"alpha_threshold,omitempty" toml:"alpha_threshold,omitempty"`
	Slots          []SlotDoc `yaml:"slots" toml:"slots"`
}

// SlotDoc is one slot entry. Sprite is either a key of Document.Sprites or
// a texture path used whole.
type SlotDoc struct {
	Name     string     `yaml:"name,omitempty" toml:"name,omitempty"`
	Sprite   string     `yaml:"sprite" toml:"sprite"`
	Location [3]float32 `yaml:"location,omitempty" toml:"location,omitempty"`
	Visible  *bool      `yaml:"visible,omitempty" toml:"visible,omitempty"`
}

// SpriteDef is a resolved sprite reference handed to a SpriteResolver.
type SpriteDef struct {
	Key     string
	Texture string
	Region  image.Rectangle
	Render  sprite.RenderMode
	Decode  sprite.DecodeOptions
}

// SpriteResolver turns sprite definitions into loaded sprites. The same key
// must yield the same *sprite.Sprite so that slots share materials.
type SpriteResolver interface {
	ResolveSprite(def SpriteDef) (*sprite.Sprite, error)
}

// LoadFile reads a document, choosing TOML for .toml files and YAML
// otherwise.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layer document: %w", err)
	}

	doc := &Document{}
	if isTOML(path) {
		err = toml.Unmarshal(data, doc)
	} else {
		err = yaml.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// SaveFile writes the document in the format implied by the extension.
func (d *Document) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(d)
	} else {
		data, err = yaml.Marshal(d)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Def returns the sprite definition for a slot reference.
func (d *Document) Def(ref string) (SpriteDef, error) {
	sd, ok := d.Sprites[ref]
	if !ok {
		return SpriteDef{Key: ref, Texture: ref, Render: sprite.RenderTight}, nil
	}

	def := SpriteDef{
		Key:     ref,
		Texture: sd.Texture,
		Render:  sprite.RenderMode(sd.Render),
		Decode:  sprite.DecodeOptions{ConvertToRGBA: sd.Convert, ColorKey: sd.ColorKey},
	}
	if def.Render == "" {
		def.Render = sprite.RenderTight
	}
	switch len(sd.Region) {
	case 0:
	case 4:
		x, y, w, h := sd.Region[0], sd.Region[1], sd.Region[2], sd.Region[3]
		def.Region = image.Rect(x, y, x+w, y+h)
	default:
		return SpriteDef{}, fmt.Errorf("sprite %q: region needs 4 values, got %d", ref, len(sd.Region))
	}
	return def, nil
}

// Resolve builds the runtime stack. Slots whose sprite cannot be loaded are
// kept with a nil sprite and logged; the bake reports them as skipped.
func (d *Document) Resolve(r SpriteResolver) (Stack, error) {
	stack := make(Stack, 0, len(d.Categories))
	for _, cd := range d.Categories {
		cat := NewCategory(cd.Name)
		if cd.GridMesh != nil {
			cat.UseGridMesh = *cd.GridMesh
		}
		if cd.CellSize != nil {
			cat.CellSize = *cd.CellSize
		}
		if cd.AlphaThreshold != nil {
			if *cd.AlphaThreshold < 0 || *cd.AlphaThreshold > 255 {
				return nil, fmt.Errorf("category %q: %w (got %d)", cd.Name, ErrInvalidThreshold, *cd.AlphaThreshold)
			}
			cat.AlphaThreshold = uint8(*cd.AlphaThreshold)
		}

		for i, sd := range cd.Slots {
			name := sd.Name
			if name == "" {
				name = fmt.Sprintf("%s_%d", cd.Name, i)
			}
			loc := math.Vec3{X: sd.Location[0], Y: sd.Location[1], Z: sd.Location[2]}
			slot := cat.AddSlot(name, nil, loc)
			if sd.Visible != nil {
				slot.Visible = *sd.Visible
			}
			if sd.Sprite == "" {
				continue
			}

			def, err := d.Def(sd.Sprite)
			if err != nil {
				return nil, err
			}
			s, err := r.ResolveSprite(def)
			if err != nil {
				logger.Warn("sprite not resolved",
					zap.String("category", cd.Name),
					zap.String("slot", name),
					zap.String("sprite", sd.Sprite),
					zap.Error(err))
				continue
			}
			slot.Sprite = s
		}
		stack = append(stack, cat)
	}

	if err := stack.Validate(); err != nil {
		return nil, err
	}
	return stack, nil
}
