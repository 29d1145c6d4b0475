package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// editorURL opens the editor without the splash screen; leftover
// dialogs are dismissed with Escape anyway.
const editorURL = "https://app.diagrams.net/?splash=0"

// graphXMLScript reads the live canvas model through the editor's own
// API, avoiding the UI entirely.
const graphXMLScript = `() => {
	const app = (window.App && window.App.main) ? window.App.main : null;
	const ui = window.ui || app;
	if (!ui || !window.mxUtils || !ui.editor) {
		throw new Error("editor api unavailable");
	}
	return mxUtils.getXml(ui.editor.getGraphXml());
}`

// drawioSession drives app.diagrams.net through a headless browser.
// Every control is located by its visible text, not by position, so
// minor UI rearrangements do not break the flow.
type drawioSession struct {
	browser *rod.Browser
	page    *rod.Page
	uiWait  time.Duration
	log     *zap.Logger
}

// NewRodFactory returns a SessionFactory that launches a browser,
// routes downloads into downloadDir, and opens the editor.
func NewRodFactory(bin, downloadDir string, headless bool, log *zap.Logger) SessionFactory {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context) (Session, error) {
		launch := launcher.New().Headless(headless)
		if bin != "" {
			launch = launch.Bin(bin)
		}
		controlURL, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			return nil, fmt.Errorf("connect browser: %w", err)
		}
		if downloadDir != "" {
			err := proto.BrowserSetDownloadBehavior{
				Behavior:     proto.BrowserSetDownloadBehaviorBehaviorAllow,
				DownloadPath: downloadDir,
			}.Call(browser)
			if err != nil {
				_ = browser.Close()
				return nil, fmt.Errorf("route downloads: %w", err)
			}
		}
		page, err := browser.Page(proto.TargetCreateTarget{URL: editorURL})
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("open editor: %w", err)
		}
		if err := page.Context(ctx).WaitLoad(); err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("editor did not load: %w", err)
		}
		return &drawioSession{
			browser: browser,
			page:    page,
			uiWait:  10 * time.Second,
			log:     log,
		}, nil
	}
}

// Insert imports Mermaid source through the editor's insert dialog.
func (s *drawioSession) Insert(ctx context.Context, code string) error {
	page := s.page.Context(ctx)
	s.dismissDialogs(page)

	for _, label := range []string{"Insert", "Advanced", "Mermaid"} {
		if err := s.clickText(page, label); err != nil {
			return err
		}
	}

	area, err := page.Timeout(s.uiWait).Element("textarea")
	if err != nil {
		return fmt.Errorf("locate diagram input: %w", err)
	}
	if err := area.SelectAllText(); err != nil {
		return fmt.Errorf("clear diagram input: %w", err)
	}
	if err := area.Input(code); err != nil {
		return fmt.Errorf("paste diagram source: %w", err)
	}
	if err := s.clickButton(page, "Insert"); err != nil {
		return err
	}
	s.log.Debug("diagram imported into editor")
	return nil
}

// GraphXML pulls the canvas model directly.
func (s *drawioSession) GraphXML(ctx context.Context) (string, error) {
	result, err := s.page.Context(ctx).Eval(graphXMLScript)
	if err != nil {
		return "", fmt.Errorf("extract graph model: %w", err)
	}
	return result.Value.Str(), nil
}

// TriggerExport walks the menu-driven export flow. The browser writes
// the result into the download directory configured at launch.
func (s *drawioSession) TriggerExport(ctx context.Context, format string) error {
	page := s.page.Context(ctx)
	s.dismissDialogs(page)

	item := "XML"
	if format == "png" {
		item = "PNG"
	}
	for _, label := range []string{"File", "Export as", item} {
		if err := s.clickText(page, label); err != nil {
			return err
		}
	}
	// The export dialog confirms twice: options, then destination.
	if err := s.clickButton(page, "Export"); err != nil {
		return err
	}
	if err := s.clickButton(page, "Download"); err != nil {
		return err
	}
	return nil
}

// Alive checks both the session handle and that the page still points
// at the editor.
func (s *drawioSession) Alive(ctx context.Context) bool {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return false
	}
	url := strings.ToLower(info.URL)
	return strings.Contains(url, "diagrams.net") || strings.Contains(url, "draw.io")
}

// Screenshot renders an arbitrary URL in a throwaway page at the given
// viewport.
func (s *drawioSession) Screenshot(ctx context.Context, url string, width, height int) ([]byte, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open viewer page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("viewer did not load: %w", err)
	}
	if err := page.WaitIdle(5 * time.Second); err != nil {
		s.log.Debug("viewer idle wait ended early", zap.Error(err))
	}
	return page.Screenshot(true, nil)
}

func (s *drawioSession) Close() error {
	return s.browser.Close()
}

// dismissDialogs presses Escape a couple of times to clear splash and
// leftover modal dialogs before menu navigation.
func (s *drawioSession) dismissDialogs(page *rod.Page) {
	for i := 0; i < 2; i++ {
		if err := page.Keyboard.Press(input.Escape); err != nil {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// clickText finds a menu item or toolbar control by its visible text.
func (s *drawioSession) clickText(page *rod.Page, text string) error {
	el, err := page.Timeout(s.uiWait).ElementR("a, td, div, span", "/^"+regexp.QuoteMeta(text)+"/")
	if err != nil {
		return fmt.Errorf("locate %q control: %w", text, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q control: %w", text, err)
	}
	return nil
}

// clickButton finds a dialog button by its label.
func (s *drawioSession) clickButton(page *rod.Page, label string) error {
	el, err := page.Timeout(s.uiWait).ElementR("button, .geBtn", "/^"+regexp.QuoteMeta(label)+"$/")
	if err != nil {
		return fmt.Errorf("locate %q button: %w", label, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q button: %w", label, err)
	}
	return nil
}
