package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/pkg/sprite"
)

func writePNG(t *testing.T, path string, fill color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestManager_RootPriority(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(low, "body.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(high, "body.png"), color.NRGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(low, "only_low.png"), color.NRGBA{A: 255})

	m := NewManager()
	if err := m.AddRoot(low); err != nil {
		t.Fatal(err)
	}
	if err := m.AddRoot(high); err != nil {
		t.Fatal(err)
	}

	got, err := m.Find("body.png")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(high, "body.png") {
		t.Errorf("Find = %s, want the last added root", got)
	}
	if _, err := m.Find("only_low.png"); err != nil {
		t.Errorf("fallback to earlier root failed: %v", err)
	}
	if _, err := m.Find("nope.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := m.AddRoot(filepath.Join(low, "body.png")); err == nil {
		t.Error("expected error adding a file as root")
	}
}

func TestManager_TextureCache(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "arm.png"), color.NRGBA{B: 255, A: 128})

	m := NewManager()
	if err := m.AddRoot(dir); err != nil {
		t.Fatal(err)
	}

	a, err := m.Texture("arm.png", sprite.DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Texture("arm.png", sprite.DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same path returned different textures")
	}
	c, err := m.Texture("arm.png", sprite.DecodeOptions{ColorKey: true})
	if err != nil {
		t.Fatal(err)
	}
	if c == a {
		t.Error("different decode options should not share a texture")
	}

	hits, misses := m.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("stats = %d hits, %d misses; want 1, 2", hits, misses)
	}

	m.Close()
	if hits, misses := m.Stats(); hits != 0 || misses != 0 {
		t.Error("Close should reset the cache")
	}
}

func TestManager_ResolveSprite(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "atlas", "head.png"), color.NRGBA{A: 255})

	m := NewManager()
	if err := m.AddRoot(dir); err != nil {
		t.Fatal(err)
	}

	def := layers.SpriteDef{
		Key:     "head_left",
		Texture: "atlas/head.png",
		Region:  image.Rect(0, 0, 4, 4),
		Render:  sprite.RenderFull,
	}
	s1, err := m.ResolveSprite(def)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := m.ResolveSprite(def)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Error("same key must resolve to the same sprite")
	}
	if s1.Name != "head_left" || s1.SourceSize.X != 4 {
		t.Errorf("sprite = %s %v", s1.Name, s1.SourceSize)
	}

	right := def
	right.Key = "head_right"
	right.Region = image.Rect(4, 0, 8, 4)
	s3, err := m.ResolveSprite(right)
	if err != nil {
		t.Fatal(err)
	}
	if s3 == s1 || s3.Texture != s1.Texture {
		t.Error("regions of one atlas should be distinct sprites over one texture")
	}

	if _, err := m.ResolveSprite(layers.SpriteDef{Key: "x", Texture: "missing.png"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestManager_Sources(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sprites", "body.png"), color.NRGBA{A: 255})
	writePNG(t, filepath.Join(dir, "head.png"), color.NRGBA{A: 255})

	m := NewManager()
	if err := m.AddRoot(dir); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"sprites/body.png", "head.png", "head.png"} {
		if _, err := m.Texture(p, sprite.DecodeOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Texture("missing.png", sprite.DecodeOptions{}); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	want := []string{filepath.Join(dir, "head.png"), filepath.Join(dir, "sprites", "body.png")}
	got := m.Sources()
	if len(got) != len(want) {
		t.Fatalf("Sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sources[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	m.Close()
	if n := len(m.Sources()); n != 0 {
		t.Errorf("Sources after Close = %d, want 0", n)
	}
}

func TestSpriteName(t *testing.T) {
	tests := map[string]string{
		"body":              "body",
		"sprites/arm_l.png": "arm_l",
		"a/b/c.d/eyes.tga":  "eyes",
		"mouth_open":        "mouth_open",
	}
	for in, want := range tests {
		if got := SpriteName(in); got != want {
			t.Errorf("SpriteName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegistry_UniqueNameAndManifest(t *testing.T) {
	dir := t.TempDir()
	r, err := OpenRegistry(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Entries) != 0 {
		t.Fatal("expected empty registry")
	}

	if got := r.UniqueName("Hero_SKM", ".glb"); got != "Hero_SKM" {
		t.Errorf("first name = %s", got)
	}
	e := r.Register(KindSkeletalMesh, "Hero_SKM", "Hero_SKM.glb")
	if got := r.UniqueName("Hero_SKM", ".glb"); got != "Hero_SKM_1" {
		t.Errorf("second name = %s, want Hero_SKM_1", got)
	}

	// An unregistered file on disk also blocks the name.
	if err := os.WriteFile(filepath.Join(dir, "Hero_SKM_1.glb"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := r.UniqueName("Hero_SKM", ".glb"); got != "Hero_SKM_2" {
		t.Errorf("third name = %s, want Hero_SKM_2", got)
	}

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := OpenRegistry(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := loaded.Lookup("Hero_SKM")
	if !ok {
		t.Fatal("entry lost in manifest round trip")
	}
	if got.GUID != e.GUID || got.Kind != KindSkeletalMesh || !got.Created.Equal(e.Created) {
		t.Errorf("loaded %+v, want %+v", got, e)
	}

	if !loaded.Remove(e.GUID) || loaded.Remove(e.GUID) {
		t.Error("Remove should succeed exactly once")
	}
}
