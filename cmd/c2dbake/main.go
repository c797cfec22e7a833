// c2dbake bakes layered 2D character sprites into glTF meshes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/character2d/internal/config"
	"github.com/Faultbox/character2d/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "bake":
		err = cmdBake(args)
	case "watch":
		err = cmdWatch(args)
	case "inspect":
		err = cmdInspect(args)
	case "simulate", "sim":
		err = cmdSimulate(args)
	case "registry", "ls":
		err = cmdRegistry(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`c2dbake - layered 2D character mesh baker

Usage:
  c2dbake <command> [options]

Commands:
  bake <character.yaml>          Bake a character document into a mesh asset
  watch <character.yaml>         Re-bake whenever the document or its sprites change
  inspect <image> [cell] [alpha] Show sprite format and its alpha grid
  simulate <asset.yaml>          Step an actor through a transition or emotion
  registry [dir]                 List generated assets

Common options:
  -config <file>   Config file (default ./c2dbake.yaml or user config dir)
  -debug           Enable debug logging
  -output, -pivot, -scale, -name, -out-dir, -roots
                   Override bake settings

Examples:
  c2dbake bake -pivot bottom_center hero.yaml
  c2dbake watch -output static hero.toml
  c2dbake inspect body.png 16 64
  c2dbake simulate -transition slide_in_left -duration 2 hero_actor.yaml`)
}

// setup parses the shared flags plus whatever the command registered on
// fs, loads the config and starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *config.Flags, error) {
	cf := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(cf)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, cf, nil
}
