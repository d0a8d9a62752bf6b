package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/resource"
)

// DebounceDelay is the quiet period after the last file event before a
// batch of changes is reported.
const DebounceDelay = 300 * time.Millisecond

// Change is one debounced batch of file events. Paths are relative to the
// root.
type Change struct {
	Modified []string
	Removed  []string
	// SchemasChanged is set when a file in a schema directory or the
	// configuration changed; the project has been reloaded before fn runs.
	SchemasChanged bool
}

// Watch reports batches of changed files to fn until ctx is done. The
// resource index follows the changes before fn is called. fn runs on the
// watching goroutine.
func (p *Project) Watch(ctx context.Context, fn func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err := p.addDirs(w, p.Root); err != nil {
		return err
	}
	for _, dir := range p.schemaDirs() {
		if _, err := os.Stat(dir); err == nil {
			if err := p.addDirs(w, dir); err != nil {
				return err
			}
		}
	}

	var (
		timer    *time.Timer
		timerC   <-chan time.Time
		modified = make(map[string]struct{})
		removed  = make(map[string]struct{})
		schemas  bool
		settings bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := p.addDirs(w, event.Name); err != nil {
						p.logger.Warn("cannot watch directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !p.relevant(event.Name) || !event.Has(fsnotify.Remove|fsnotify.Rename|fsnotify.Write|fsnotify.Create) {
				continue
			}
			rel := p.Rel(event.Name)
			if filepath.Base(event.Name) == config.FileName {
				settings = true
			}
			if _, ok := p.schemaKey(event.Name); ok || settings {
				schemas = true
			}
			switch {
			case !Supported(event.Name):
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				delete(modified, rel)
				removed[rel] = struct{}{}
			default:
				delete(removed, rel)
				modified[rel] = struct{}{}
			}
			if timer == nil {
				timer = time.NewTimer(DebounceDelay)
			} else {
				timer.Reset(DebounceDelay)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			change := Change{
				Modified:       sortedKeys(modified),
				Removed:        sortedKeys(removed),
				SchemasChanged: schemas,
			}
			clear(modified)
			clear(removed)
			schemas = false
			if settings {
				settings = false
				if cfg, err := config.Load(filepath.Join(p.Root, config.FileName)); err != nil {
					p.logger.Error("config reload failed", "error", err)
				} else {
					p.Config = cfg
				}
			}
			if change.SchemasChanged {
				if err := p.Reload(); err != nil {
					p.logger.Error("reload failed", "error", err)
				}
			} else {
				p.applyToIndex(change)
			}
			fn(change)

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			p.logger.Warn("watcher error", "error", err)
		}
	}
}

func (p *Project) relevant(file string) bool {
	base := filepath.Base(file)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return Supported(file) || base == config.FileName
}

func (p *Project) applyToIndex(c Change) {
	for _, rel := range c.Removed {
		p.Index.RemoveSource(rel)
	}
	for _, rel := range c.Modified {
		if e, ok := resource.EntryForPath(rel); ok {
			p.Index.RemoveSource(rel)
			p.Index.Add(e)
		}
	}
}

func (p *Project) addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(dir string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if dir != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		return nil
	})
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
