package render

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// renderPage embeds the diagram source in a minimal page that loads the
// Mermaid runtime from a CDN and renders client-side.
const renderPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
<style>body { background: white; margin: 24px; }</style>
</head>
<body>
<pre class="mermaid">%s</pre>
<script>mermaid.initialize({ startOnLoad: true, theme: "default" });</script>
</body>
</html>`

// ChromeStrategy is the last-resort renderer: it loads the diagram in a
// headless browser and screenshots the drawn SVG. It shares one
// browser across calls and reconnects when the running instance has
// died.
type ChromeStrategy struct {
	mu      sync.Mutex
	browser *rod.Browser
	bin     string
	wait    time.Duration
	log     *zap.Logger

	connect  func() (*rod.Browser, error)
	alive    func(*rod.Browser) bool
	shutdown func(*rod.Browser) error
}

// NewChromeStrategy builds the browser strategy. bin may be empty to
// use the launcher's discovered Chrome.
func NewChromeStrategy(bin string, log *zap.Logger) *ChromeStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	c := &ChromeStrategy{bin: bin, wait: 3 * time.Second, log: log}
	c.connect = c.launchBrowser
	c.alive = func(b *rod.Browser) bool {
		_, err := b.Version()
		return err == nil
	}
	c.shutdown = (*rod.Browser).Close
	return c
}

func (c *ChromeStrategy) Name() string { return "chrome" }

// Render screenshots the client-side rendered diagram.
func (c *ChromeStrategy) Render(ctx context.Context, code string) ([]byte, error) {
	browser, err := c.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()
	page = page.Context(ctx)

	if err := page.SetDocumentContent(fmt.Sprintf(renderPage, html.EscapeString(code))); err != nil {
		return nil, fmt.Errorf("load render page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for page load: %w", err)
	}

	// Mermaid replaces the <pre> with an <svg> once rendering is done.
	el, err := page.Timeout(c.wait).Element(".mermaid svg")
	if err != nil {
		return nil, fmt.Errorf("diagram did not render: %w", err)
	}
	shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot diagram: %w", err)
	}
	return shot, nil
}

// Close shuts the shared browser down.
func (c *ChromeStrategy) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil {
		return nil
	}
	err := c.shutdown(c.browser)
	c.browser = nil
	return err
}

// ensureBrowser hands back the shared browser, relaunching when the
// running instance has died. The browser is deliberately not bound to
// any render call's context: it must outlive the call, and callers
// scope their context to the page instead.
func (c *ChromeStrategy) ensureBrowser() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if c.alive(c.browser) {
			return c.browser, nil
		}
		c.log.Warn("stale browser connection, relaunching")
		_ = c.shutdown(c.browser)
		c.browser = nil
	}

	browser, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.browser = browser
	return browser, nil
}

func (c *ChromeStrategy) launchBrowser() (*rod.Browser, error) {
	launch := launcher.New().Headless(true)
	if c.bin != "" {
		launch = launch.Bin(c.bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return browser, nil
}
