package main

import (
	"flag"
	"fmt"

	"github.com/Faultbox/character2d/internal/assets"
	"github.com/Faultbox/character2d/internal/emit"
)

func cmdRegistry(args []string) error {
	fs := flag.NewFlagSet("registry", flag.ExitOnError)
	kind := fs.String("kind", "", "Only list this kind (static_mesh, skeletal_mesh, skeleton)")
	cfg, _, err := setup(fs, args)
	if err != nil {
		return err
	}

	dir := cfg.Bake.SavePath
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	reg, err := assets.OpenRegistry(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Registry: %s (%d assets)\n\n", dir, len(reg.Entries))
	for _, e := range reg.Entries {
		if *kind != "" && e.Kind != *kind {
			continue
		}
		fmt.Printf("%s  %-14s %-24s %s  %s\n",
			e.GUID, e.Kind, e.Name, e.Created.Local().Format("2006-01-02 15:04"), e.Path)
		if e.Kind == assets.KindSkeleton {
			if sk, err := emit.LoadSkeleton(reg.PathOf(e)); err == nil {
				r := sk.RootTranslation()
				fmt.Printf("    root (%.2f, %.2f, %.2f) pivot %s\n", r.X, r.Y, r.Z, sk.Pivot)
			}
		}
	}
	return nil
}
