package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/Faultbox/character2d/internal/assets"
	"github.com/Faultbox/character2d/internal/config"
	"github.com/Faultbox/character2d/pkg/sprite"
)

const heroDoc = `name: hero
categories:
  - name: body
    cell_size: 16
    slots:
      - sprite: body.png
  - name: hat
    slots:
      - sprite: body.png
        visible: false
`

// writeOpaquePNG writes a w×h image whose left half is opaque.
func writeOpaquePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.Pix[y*img.Stride+x*4+3] = 255
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeDoc(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	writeOpaquePNG(t, filepath.Join(dir, "body.png"), 64, 64)
	doc := filepath.Join(dir, "hero.yaml")
	if err := os.WriteFile(doc, []byte(heroDoc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Sprites.Roots = nil
	cfg.Bake.SavePath = filepath.Join(dir, "out")
	return doc, cfg
}

func TestRunBake(t *testing.T) {
	doc, cfg := writeDoc(t)

	run, err := runBake(context.Background(), cfg, nil, doc)
	if err != nil {
		t.Fatalf("runBake: %v", err)
	}
	out := run.Output
	if len(run.Sources) != 1 || filepath.Base(run.Sources[0]) != "body.png" {
		t.Errorf("sources = %v", run.Sources)
	}
	// Two opaque columns of four 16px cells, two triangles each.
	if out.Polygons != 16 {
		t.Errorf("polygons = %d, want 16", out.Polygons)
	}
	if out.Mesh.Name != "hero_SKM" || out.Skeleton == nil {
		t.Errorf("mesh = %+v, skeleton = %+v", out.Mesh, out.Skeleton)
	}
	for _, f := range out.Files() {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}

	reg, err := assets.OpenRegistry(cfg.Bake.SavePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(reg.Entries) != 2 {
		t.Errorf("registry has %d entries, want 2", len(reg.Entries))
	}

	again, err := runBake(context.Background(), cfg, nil, doc)
	if err != nil {
		t.Fatal(err)
	}
	if again.Output.Mesh.Name != "hero_SKM_1" {
		t.Errorf("second bake named %q, want hero_SKM_1", again.Output.Mesh.Name)
	}
}

func TestRunBake_FlagsOverrideDocument(t *testing.T) {
	doc, cfg := writeDoc(t)

	fs := flag.NewFlagSet("bake", flag.ContinueOnError)
	cf := config.RegisterFlags(fs)
	if err := fs.Parse([]string{"-output", "static", "-name", "Villager"}); err != nil {
		t.Fatal(err)
	}

	run, err := runBake(context.Background(), cfg, cf, doc)
	if err != nil {
		t.Fatal(err)
	}
	out := run.Output
	if out.Mesh.Name != "Villager" || out.Skeleton != nil {
		t.Errorf("mesh = %+v, skeleton = %+v", out.Mesh, out.Skeleton)
	}
	if cfg.Bake.AssetName != config.Default().Bake.AssetName {
		t.Error("runBake modified the base config")
	}
}

func TestRunBake_SourcesInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sprites"), 0755); err != nil {
		t.Fatal(err)
	}
	writeOpaquePNG(t, filepath.Join(dir, "sprites", "body.png"), 64, 64)
	doc := filepath.Join(dir, "hero.yaml")
	body := strings.ReplaceAll(heroDoc, "sprite: body.png", "sprite: sprites/body.png")
	if err := os.WriteFile(doc, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Sprites.Roots = nil
	cfg.Bake.SavePath = filepath.Join(dir, "out")

	run, err := runBake(context.Background(), cfg, nil, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Sources) != 1 || filepath.Dir(run.Sources[0]) != filepath.Join(dir, "sprites") {
		t.Errorf("sources = %v, want one file under sprites/", run.Sources)
	}

	// Sources are reported even when the bake itself fails.
	if err := os.WriteFile(doc, []byte(body+"options:\n  pivot: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run, err = runBake(context.Background(), cfg, nil, doc)
	if err == nil {
		t.Fatal("expected an invalid pivot error")
	}
	if run != nil {
		t.Errorf("options error should fail before sprites load, got %+v", run)
	}
}

type recordingAdder struct {
	added []string
	fail  map[string]bool
}

func (r *recordingAdder) Add(name string) error {
	if r.fail[name] {
		return os.ErrNotExist
	}
	r.added = append(r.added, name)
	return nil
}

func TestWatchSet(t *testing.T) {
	dir := t.TempDir()
	sprites := filepath.Join(dir, "sprites")
	missing := filepath.Join(dir, "missing")
	rec := &recordingAdder{fail: map[string]bool{missing: true}}
	set := newWatchSet(rec)

	tests := []struct {
		dir  string
		want bool
	}{
		{dir, true},
		{sprites, true},
		{sprites, false},
		{filepath.Join(sprites, ".."), false},
		{missing, false},
		{missing, false},
	}
	for _, tt := range tests {
		if got := set.add(tt.dir); got != tt.want {
			t.Errorf("add(%s) = %v, want %v", tt.dir, got, tt.want)
		}
	}
	if len(rec.added) != 2 || rec.added[0] != dir || rec.added[1] != sprites {
		t.Errorf("watched = %v", rec.added)
	}
}

func TestRunBake_Cancelled(t *testing.T) {
	doc, cfg := writeDoc(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runBake(ctx, cfg, nil, doc); err == nil {
		t.Fatal("expected an error from a cancelled bake")
	}
	if _, err := os.Stat(cfg.Bake.SavePath); !os.IsNotExist(err) {
		t.Errorf("output dir created by a cancelled bake: %v", err)
	}
}

func TestRunBake_MissingDocument(t *testing.T) {
	cfg := config.Default()
	if _, err := runBake(context.Background(), cfg, nil, filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAlphaGrid(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			img.Pix[y*img.Stride+x*4+3] = 255
		}
	}
	grid, opaque, total := alphaGrid(sprite.NewTexture("t", img), 16, 64)

	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
	if opaque != 2 {
		t.Errorf("opaque = %d, want 2\n%s", opaque, grid)
	}
	if grid != "#...\n#...\n" {
		t.Errorf("grid =\n%s", grid)
	}
}

func TestRelevant(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"sprite written", fsnotify.Event{Name: filepath.Join(src, "body.png"), Op: fsnotify.Write}, true},
		{"document created", fsnotify.Event{Name: filepath.Join(src, "hero.yaml"), Op: fsnotify.Create}, true},
		{"sprite removed", fsnotify.Event{Name: filepath.Join(src, "body.png"), Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(src, "body.png"), Op: fsnotify.Chmod}, false},
		{"swap file", fsnotify.Event{Name: filepath.Join(src, ".hero.yaml.swp"), Op: fsnotify.Write}, false},
		{"backup file", fsnotify.Event{Name: filepath.Join(src, "hero.yaml~"), Op: fsnotify.Write}, false},
		{"manifest", fsnotify.Event{Name: filepath.Join(src, assets.ManifestFile), Op: fsnotify.Write}, false},
		{"own output", fsnotify.Event{Name: filepath.Join(out, "hero_SKM.glb"), Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.ev, out); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestUsageListsCommands(t *testing.T) {
	// printUsage writes to stdout; capture it through a pipe.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	printUsage()
	w.Close()
	os.Stdout = stdout

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	usage := string(buf[:n])
	for _, cmd := range []string{"bake", "watch", "inspect", "simulate", "registry"} {
		if !strings.Contains(usage, cmd) {
			t.Errorf("usage does not mention %q", cmd)
		}
	}
}
