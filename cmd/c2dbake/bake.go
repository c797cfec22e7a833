package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/character2d/internal/assets"
	"github.com/Faultbox/character2d/internal/bake"
	"github.com/Faultbox/character2d/internal/config"
	"github.com/Faultbox/character2d/internal/emit"
	"github.com/Faultbox/character2d/internal/layers"
	"github.com/Faultbox/character2d/internal/logger"
)

func cmdBake(args []string) error {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	cfg, cf, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: c2dbake bake [options] <character.yaml|character.toml>")
		os.Exit(1)
	}

	run, err := runBake(context.Background(), cfg, cf, fs.Arg(0))
	if err != nil {
		return err
	}
	printOutput(run.Output)
	return nil
}

// bakeRun is what one runBake call produced and read.
type bakeRun struct {
	Output *emit.Output
	// Sources are the sprite files the bake decoded.
	Sources []string
}

// runBake loads the document, merges its options between the config file
// and the command line, bakes and writes the result. Once sprites have been
// resolved the returned run is non-nil, even alongside an error, so callers
// can still see which files the bake depends on.
func runBake(ctx context.Context, base *config.Config, cf *config.Flags, docPath string) (*bakeRun, error) {
	doc, err := layers.LoadFile(docPath)
	if err != nil {
		return nil, err
	}

	cfg := *base
	cfg.Sprites.Roots = append([]string(nil), base.Sprites.Roots...)
	cfg.ApplyDocument(doc.Options)
	cf.Apply(&cfg)
	if doc.Options.AssetName == "" && cfg.Bake.AssetName == config.Default().Bake.AssetName {
		cfg.Bake.AssetName = doc.Name
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	mgr := assets.NewManager()
	defer mgr.Close()
	for _, root := range cfg.Sprites.Roots {
		if err := mgr.AddRoot(root); err != nil {
			logger.Warn("skipping sprite root", zap.String("root", root), zap.Error(err))
		}
	}
	// The document's own directory wins over configured roots.
	if err := mgr.AddRoot(filepath.Dir(docPath)); err != nil {
		return nil, err
	}

	stack, err := doc.Resolve(mgr)
	run := &bakeRun{Sources: mgr.Sources()}
	if err != nil {
		return run, err
	}

	logger.Info("baking",
		zap.String("document", docPath),
		zap.String("asset", opts.AssetName),
		zap.String("output", string(opts.Output)),
		zap.String("pivot", string(opts.Pivot)),
		zap.Float32("scale", opts.MeshScale))

	res, err := bake.Bake(ctx, stack, opts)
	if res != nil {
		fmt.Println(res.Report.String())
	}
	if err != nil {
		return run, fmt.Errorf("baking %s: %w", docPath, err)
	}

	reg, err := assets.OpenRegistry(opts.SavePath)
	if err != nil {
		return run, err
	}
	run.Output, err = emit.Emit(res, opts, reg)
	return run, err
}

func printOutput(out *emit.Output) {
	fmt.Printf("Generated %s (%d vertices, %d polygons)\n", out.Mesh.Name, out.Vertices, out.Polygons)
	for _, f := range out.Files() {
		fmt.Printf("  %s\n", f)
	}
}
