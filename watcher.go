package tgscreenshots

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports image files created under a directory tree.
type Watcher struct {
	dir    string
	settle time.Duration
}

// NewWatcher watches dir recursively. A path is reported once no event
// for it was seen during settle, so half-written files are not read.
func NewWatcher(dir string, settle time.Duration) *Watcher {
	return &Watcher{dir: dir, settle: settle}
}

// Run delivers image paths to onFile until ctx is cancelled. onFile is
// called from timer goroutines and may be called more than once for the
// same path; callers dedup by content.
//
// If ready is non-nil, a value is sent once every directory is watched,
// allowing callers to synchronize without time.Sleep.
func (w *Watcher) Run(ctx context.Context, onFile func(path string), ready chan<- struct{}) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.dir); err != nil {
		return err
	}

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(w.settle)
			return
		}
		pending[path] = time.AfterFunc(w.settle, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			if ctx.Err() == nil {
				onFile(path)
			}
		})
	}

	if ready != nil {
		ready <- struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !hidden(filepath.Base(event.Name)) {
						if err := w.addTree(fsw, event.Name); err != nil {
							LogWarn("%v", err)
						}
						// A directory moved in already holds its files.
						images, _ := ListImages(event.Name)
						for _, p := range images {
							schedule(p)
						}
					}
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !IsImage(event.Name) {
				continue
			}
			schedule(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			LogWarn("watch %s: %v", w.dir, err)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
