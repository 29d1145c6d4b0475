// Package bridge drives a long-lived external diagram editor session:
// it imports a synthesized diagram, lets the user edit out-of-band,
// and pulls the edited markup (or a raster) back on demand. The
// session can fail, time out, or be abandoned at any point, so every
// transition is explicit.
package bridge

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State of the editor session.
type State string

const (
	StateClosed    State = "closed"
	StateOpening   State = "opening"
	StateActive    State = "active"
	StateExporting State = "exporting"
	StateLost      State = "lost"
)

var (
	// ErrExportTimeout reports that both export attempts exhausted
	// their retries. The session itself is presumed still usable.
	ErrExportTimeout = errors.New("editor export timed out")

	// ErrSessionLost reports that the liveness probe failed: the
	// session handle is dead, the window is gone, or the editor
	// navigated away. Only a fresh Open recovers.
	ErrSessionLost = errors.New("editor session lost")

	// ErrNoSession reports an export against a bridge never opened.
	ErrNoSession = errors.New("no editor session open")
)

// minXMLExport and minPNGExport are the completed-file size floors for
// the UI-driven export flow; anything smaller is a partial write.
const (
	minXMLExport = 2048
	minPNGExport = 1024
)

// minMarkup is the floor for markup pulled straight out of the live
// session.
const minMarkup = 100

// Session is one live connection to the external editor.
// Implementations drive a real browser; tests script one.
type Session interface {
	// Insert imports diagram source into a freshly opened editor.
	Insert(ctx context.Context, code string) error
	// GraphXML extracts the current canvas markup without touching
	// the UI.
	GraphXML(ctx context.Context) (string, error)
	// TriggerExport runs the menu-driven export flow for "xml" or
	// "png"; the editor writes the result to the download directory.
	TriggerExport(ctx context.Context, format string) error
	// Alive probes whether the session still points at the editor.
	Alive(ctx context.Context) bool
	// Screenshot captures an arbitrary URL at the given viewport.
	Screenshot(ctx context.Context, url string, width, height int) ([]byte, error)
	Close() error
}

// SessionFactory opens a new editor session.
type SessionFactory func(ctx context.Context) (Session, error)

// Bridge owns at most one session at a time. Export operations must be
// serialized by the caller; the bridge only dedupes rapid repeats.
type Bridge struct {
	factory SessionFactory
	watcher *downloadWatcher
	log     *zap.Logger

	cooldown      time.Duration
	exportTimeout time.Duration
	retryPause    time.Duration

	group singleflight.Group

	mu         sync.Mutex
	state      State
	session    Session
	lastExport time.Time
	lastMarkup string
}

// Config for a Bridge. Zero durations fall back to defaults.
type Config struct {
	DownloadDir   string
	Cooldown      time.Duration
	ExportTimeout time.Duration
	PollInterval  time.Duration
	RetryPause    time.Duration
}

// New builds a closed bridge.
func New(factory SessionFactory, cfg Config, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 3 * time.Second
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 20 * time.Second
	}
	if cfg.RetryPause <= 0 {
		cfg.RetryPause = 1500 * time.Millisecond
	}
	return &Bridge{
		factory:       factory,
		watcher:       newDownloadWatcher(cfg.DownloadDir, cfg.PollInterval, log),
		cooldown:      cfg.Cooldown,
		exportTimeout: cfg.ExportTimeout,
		retryPause:    cfg.RetryPause,
		state:         StateClosed,
		log:           log,
	}
}

// State reports the current session state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Open launches a session and imports the diagram. An existing session
// is torn down first; there is never more than one.
func (b *Bridge) Open(ctx context.Context, code string) error {
	b.mu.Lock()
	if b.session != nil {
		_ = b.session.Close()
		b.session = nil
	}
	b.state = StateOpening
	b.lastMarkup = ""
	b.lastExport = time.Time{}
	b.mu.Unlock()

	session, err := b.factory(ctx)
	if err != nil {
		b.setState(StateClosed)
		return err
	}
	if err := session.Insert(ctx, code); err != nil {
		_ = session.Close()
		b.setState(StateClosed)
		return err
	}

	b.mu.Lock()
	b.session = session
	b.state = StateActive
	b.mu.Unlock()
	b.log.Info("editor session active")
	return nil
}

// Export pulls the user's current diagram markup. Within the cooldown
// window the previous markup is served again instead of disturbing the
// session. On exhausted retries the session stays Active and
// ErrExportTimeout is returned.
func (b *Bridge) Export(ctx context.Context) (string, error) {
	b.mu.Lock()
	session := b.session
	if session == nil || b.state == StateClosed {
		b.mu.Unlock()
		return "", ErrNoSession
	}
	if b.state == StateLost {
		b.mu.Unlock()
		return "", ErrSessionLost
	}
	if b.lastMarkup != "" && time.Since(b.lastExport) < b.cooldown {
		markup := b.lastMarkup
		b.mu.Unlock()
		b.log.Debug("export within cooldown, serving cached markup")
		return markup, nil
	}
	b.mu.Unlock()

	v, err, _ := b.group.Do("export", func() (any, error) {
		return b.export(ctx, session)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *Bridge) export(ctx context.Context, session Session) (string, error) {
	if !session.Alive(ctx) {
		b.setState(StateLost)
		return "", ErrSessionLost
	}
	b.setState(StateExporting)

	// Fast path: read the canvas model directly, no UI interaction.
	if xml, err := session.GraphXML(ctx); err == nil && validMarkup(xml) {
		b.finishExport(xml)
		return xml, nil
	} else if err != nil {
		b.log.Debug("direct markup extraction unavailable", zap.Error(err))
	}

	// UI-driven export into the watched download directory, one
	// retry on timeout.
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.retryPause):
			case <-ctx.Done():
				b.setState(StateActive)
				return "", ctx.Err()
			}
		}
		xml, err := b.exportViaUI(ctx, session, "xml", ".xml", minXMLExport)
		if err != nil {
			b.log.Warn("ui export attempt failed",
				zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if validMarkup(xml) {
			b.finishExport(xml)
			return xml, nil
		}
	}

	b.setState(StateActive)
	return "", ErrExportTimeout
}

func (b *Bridge) exportViaUI(ctx context.Context, session Session, format, suffix string, minSize int64) (string, error) {
	before, err := b.watcher.snapshot()
	if err != nil {
		return "", err
	}
	if err := session.TriggerExport(ctx, format); err != nil {
		return "", err
	}
	path, err := b.watcher.wait(ctx, before, suffix, minSize, b.exportTimeout)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CapturePNG returns a raster of the user's current diagram: the
// menu-driven image export when it completes, otherwise a screenshot
// of the read-only viewer rendering the last exported markup.
func (b *Bridge) CapturePNG(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	session := b.session
	markup := b.lastMarkup
	state := b.state
	b.mu.Unlock()
	if session == nil || state == StateClosed {
		return nil, ErrNoSession
	}
	if state == StateLost {
		return nil, ErrSessionLost
	}

	if png, err := b.exportViaUI(ctx, session, "png", ".png", minPNGExport); err == nil && len(png) >= minPNGExport {
		return []byte(png), nil
	} else if err != nil {
		b.log.Debug("png export flow failed, falling back to viewer screenshot", zap.Error(err))
	}

	if markup == "" {
		var err error
		markup, err = b.Export(ctx)
		if err != nil {
			return nil, err
		}
	}
	url, err := ViewerURL(markup)
	if err != nil {
		return nil, err
	}
	return session.Screenshot(ctx, url, 1920, 1200)
}

// Close tears the session down. Terminal for this session; a new Open
// starts fresh.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.session != nil {
		err = b.session.Close()
		b.session = nil
	}
	b.state = StateClosed
	return err
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bridge) finishExport(markup string) {
	b.mu.Lock()
	b.lastMarkup = markup
	b.lastExport = time.Now()
	b.state = StateActive
	b.mu.Unlock()
}

// validMarkup accepts only real editor model XML, not error pages or
// truncated writes.
func validMarkup(xml string) bool {
	if len(xml) <= minMarkup {
		return false
	}
	return strings.Contains(xml, "<mxfile") || strings.Contains(xml, "<mxGraphModel")
}
