package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"cmdforge/internal/emit"
)

// DebounceDelay collapses a burst of file events into one run.
var DebounceDelay = 200 * time.Millisecond

// Watch runs req once and again after every relevant change until ctx is
// done. Each run starts from a fresh Environment. onResult sees every
// outcome; watcher failures end Watch with an error.
func Watch(ctx context.Context, req Request, onResult func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirs(req)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	onResult(Run(ctx, req))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(req, event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create && req.Recursive {
				// новый каталог тоже нужно слушать
				_ = watcher.Add(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(DebounceDelay)
			} else {
				timer.Reset(DebounceDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onResult(Run(ctx, req))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func watchDirs(req Request) ([]string, error) {
	if req.Manifest != "" {
		return []string{filepath.Dir(req.Manifest)}, nil
	}
	root := req.Dir
	if root == "" {
		root = "."
	}
	if !req.Recursive {
		return []string{root}, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "testdata" || d.Name() == "vendor") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// relevant filters out our own output and unrelated files.
func relevant(req Request, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if req.Manifest != "" {
		return filepath.Clean(ev.Name) == filepath.Clean(req.Manifest)
	}
	suffix := req.Config.Emit.Suffix
	if suffix == "" {
		suffix = emit.DefaultSuffix
	}
	name := ev.Name
	if strings.HasSuffix(name, suffix) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create && req.Recursive && filepath.Ext(name) == "" {
		return true
	}
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
