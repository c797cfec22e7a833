package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/character2d/internal/bake"
	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/pkg/sprite"
)

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	cell := fs.Int("cell", layers.DefaultCellSize, "Grid cell size in pixels")
	threshold := fs.Int("threshold", layers.DefaultAlphaThreshold, "Alpha threshold (0-255)")
	convert := fs.Bool("convert", false, "Convert to RGBA before sampling")
	colorKey := fs.Bool("colorkey", false, "Treat magenta as transparent")
	if _, _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: c2dbake inspect [-cell N] [-threshold N] <image>")
		os.Exit(1)
	}
	if *cell < 1 {
		return fmt.Errorf("%w (got %d)", layers.ErrInvalidCellSize, *cell)
	}
	if *threshold < 0 || *threshold > 255 {
		return fmt.Errorf("%w (got %d)", layers.ErrInvalidThreshold, *threshold)
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	img, err := sprite.Decode(path, data, sprite.DecodeOptions{ConvertToRGBA: *convert, ColorKey: *colorKey})
	if err != nil {
		return err
	}
	tex := sprite.NewTexture(filepath.Base(path), img)
	w, h := tex.Size()

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Size:       %dx%d\n", w, h)
	fmt.Printf("Format:     %s\n", tex.Format())
	fmt.Printf("Sampleable: %v\n", tex.IsSampleable())
	if !tex.IsSampleable() {
		fmt.Println("\nGrid meshing needs 8-bit RGBA; rerun with -convert to preview.")
		return nil
	}

	grid, opaque, total := alphaGrid(tex, *cell, uint8(*threshold))
	fmt.Printf("\nAlpha grid (cell %d, threshold %d): %d/%d cells opaque, %d triangles\n\n",
		*cell, *threshold, opaque, total, opaque*2)
	fmt.Print(grid)
	return nil
}

// alphaGrid renders one character per grid cell: '#' for cells that would
// be meshed, '.' for the rest.
func alphaGrid(tex *sprite.Texture, cell int, threshold uint8) (string, int, int) {
	buf, err := tex.LockReadOnly()
	if err != nil {
		return "", 0, 0
	}
	defer buf.Unlock()

	var (
		b             strings.Builder
		opaque, total int
	)
	for y := 0; y <= buf.Height-cell; y += cell {
		for x := 0; x <= buf.Width-cell; x += cell {
			total++
			if bake.SampleCellAlpha(buf, x, y, cell) > threshold {
				opaque++
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), opaque, total
}
