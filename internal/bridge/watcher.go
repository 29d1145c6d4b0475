package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// downloadWatcher waits for the external editor to finish writing an
// exported file into a watched directory. Filesystem events wake the
// check early; a ticker backstops platforms and editors whose writes
// do not surface as events.
type downloadWatcher struct {
	dir      string
	interval time.Duration
	log      *zap.Logger
}

func newDownloadWatcher(dir string, interval time.Duration, log *zap.Logger) *downloadWatcher {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &downloadWatcher{dir: dir, interval: interval, log: log}
}

// snapshot records the files present before an export is triggered, so
// only new arrivals count.
func (w *downloadWatcher) snapshot() (map[string]bool, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read download dir: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name()] = true
	}
	return seen, nil
}

// wait blocks until a new file matching suffix reaches minSize, or the
// deadline passes. Partial downloads (.crdownload) never match.
func (w *downloadWatcher) wait(ctx context.Context, before map[string]bool, suffix string, minSize int64, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var events chan fsnotify.Event
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		defer fsw.Close()
		if err := fsw.Add(w.dir); err == nil {
			events = make(chan fsnotify.Event, 16)
			go func() {
				for {
					select {
					case ev, ok := <-fsw.Events:
						if !ok {
							return
						}
						select {
						case events <- ev:
						default:
						}
					case <-fsw.Errors:
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	} else {
		w.log.Debug("fsnotify unavailable, polling only", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if name, ok := w.scan(before, suffix, minSize); ok {
			return name, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		case <-events:
		}
	}
}

func (w *downloadWatcher) scan(before map[string]bool, suffix string, minSize int64) (string, bool) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if before[name] || e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".crdownload") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		if suffix != "" && !strings.HasSuffix(strings.ToLower(name), suffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() < minSize {
			continue
		}
		return filepath.Join(w.dir, name), true
	}
	return "", false
}
