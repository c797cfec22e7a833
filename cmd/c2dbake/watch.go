package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/character2d/internal/assets"
	"github.com/Faultbox/character2d/internal/config"
	"github.com/Faultbox/character2d/internal/logger"
)

// settle is how long the watcher waits for a burst of writes to end.
const settle = 250 * time.Millisecond

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg, cf, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: c2dbake watch [options] <character.yaml|character.toml>")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return watch(ctx, cfg, cf, fs.Arg(0))
}

// watch bakes once, then again after every change to the document or to a
// file in its directory, the sprite roots, or the directory of any sprite
// the last bake decoded. A change arriving while a bake runs cancels that
// bake.
func watch(ctx context.Context, cfg *config.Config, cf *config.Flags, docPath string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	outDir, _ := filepath.Abs(cfg.Bake.SavePath)
	dirs := newWatchSet(w)
	dirs.add(filepath.Dir(docPath))
	for _, root := range cfg.Sprites.Roots {
		dirs.add(root)
	}

	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc = func() {}
	)
	rebake := func(reason string) {
		cancel()
		wg.Wait()

		var bakeCtx context.Context
		bakeCtx, cancel = context.WithCancel(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("rebuilding", zap.String("reason", reason))
			run, err := runBake(bakeCtx, cfg, cf, docPath)
			if run != nil {
				// fsnotify is not recursive: sprites in subdirectories
				// need their own watch.
				for _, src := range run.Sources {
					dirs.add(filepath.Dir(src))
				}
			}
			switch {
			case errors.Is(err, context.Canceled):
				logger.Debug("bake superseded")
			case err != nil:
				logger.Error("bake failed", zap.Error(err))
			default:
				printOutput(run.Output)
			}
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	rebake("initial")

	timer := time.NewTimer(settle)
	timer.Stop()
	var pending string

	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(e, outDir) {
				continue
			}
			logger.Debug("file event", zap.String("file", e.Name), zap.Stringer("op", e.Op))
			pending = e.Name
			timer.Reset(settle)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			rebake(pending)

		case <-ctx.Done():
			return nil
		}
	}
}

// dirAdder is the part of *fsnotify.Watcher a watchSet needs.
type dirAdder interface {
	Add(name string) error
}

// watchSet adds each directory to the watcher once. It is safe for use
// from the bake goroutine and the event loop.
type watchSet struct {
	w    dirAdder
	mu   sync.Mutex
	dirs map[string]bool
}

func newWatchSet(w dirAdder) *watchSet {
	return &watchSet{w: w, dirs: make(map[string]bool)}
}

// add watches dir unless it is already watched. It reports whether a new
// watch was installed.
func (s *watchSet) add(dir string) bool {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirs[dir] {
		return false
	}
	if err := s.w.Add(dir); err != nil {
		logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return false
	}
	s.dirs[dir] = true
	logger.Debug("watching", zap.String("dir", dir))
	return true
}

// relevant filters out events that cannot change the bake: chmod-only
// events, editor swap files and anything written into the output
// directory or its registry.
func relevant(e fsnotify.Event, outDir string) bool {
	if !e.Op.Has(fsnotify.Create) && !e.Op.Has(fsnotify.Write) &&
		!e.Op.Has(fsnotify.Remove) && !e.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(e.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || base == assets.ManifestFile {
		return false
	}
	if abs, err := filepath.Abs(e.Name); err == nil && outDir != "" {
		if rel, err := filepath.Rel(outDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return false
		}
	}
	return true
}
