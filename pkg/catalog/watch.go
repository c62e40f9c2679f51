package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"irrigo/pkg/logx"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the catalog whenever one of paths changes, until ctx is done.
// A file that fails to parse leaves the previous table in place.
func (c *Catalog) Watch(ctx context.Context, paths ...string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		watched[filepath.Base(p)] = true
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		// Watch the directory: editors often replace files by rename.
		if err := w.Add(d); err != nil {
			return err
		}
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			if err := c.LoadFiles(paths...); err != nil {
				c.log.Warn("catalog reload failed; keeping previous table", logx.Err(err))
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if watched[filepath.Base(ev.Name)] && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				c.log.Debug("catalog change detected", logx.String("file", ev.Name))
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("catalog watch error", logx.Err(err))
		}
	}
}
