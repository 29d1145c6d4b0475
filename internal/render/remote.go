package render

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultKrokiURL is used when no private Kroki deployment is
// configured.
const DefaultKrokiURL = "https://kroki.io"

const inkBase = "https://mermaid.ink"

// httpDoer lets tests substitute the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// krokiStrategy posts raw Mermaid source to a Kroki server and reads
// back the rendered image.
type krokiStrategy struct {
	base   string
	format string
	client httpDoer
}

// NewKrokiPNG renders through Kroki's PNG endpoint.
func NewKrokiPNG(base string) Strategy {
	return newKroki(base, "png")
}

// NewKrokiSVG renders through Kroki's SVG endpoint and rasterises the
// result locally.
func NewKrokiSVG(base string) Strategy {
	return newKroki(base, "svg")
}

func newKroki(base, format string) *krokiStrategy {
	if base == "" {
		base = DefaultKrokiURL
	}
	return &krokiStrategy{
		base:   strings.TrimRight(base, "/"),
		format: format,
		client: http.DefaultClient,
	}
}

func (k *krokiStrategy) Name() string { return "kroki-" + k.format }

func (k *krokiStrategy) Render(ctx context.Context, code string) ([]byte, error) {
	url := fmt.Sprintf("%s/mermaid/%s", k.base, k.format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(code))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	body, err := fetch(k.client, req)
	if err != nil {
		return nil, err
	}
	if k.format == "svg" {
		return rasterizeSVG(body)
	}
	return body, nil
}

// inkStrategy fetches from the public mermaid.ink service, which takes
// the diagram source zlib-compressed and URL-safe base64 encoded in the
// path.
type inkStrategy struct {
	base   string
	format string
	client httpDoer
}

// NewInkPNG renders through mermaid.ink's image endpoint.
func NewInkPNG() Strategy {
	return &inkStrategy{base: inkBase, format: "img", client: http.DefaultClient}
}

// NewInkSVG renders through mermaid.ink's SVG endpoint and rasterises
// locally.
func NewInkSVG() Strategy {
	return &inkStrategy{base: inkBase, format: "svg", client: http.DefaultClient}
}

func (s *inkStrategy) Name() string {
	if s.format == "img" {
		return "mermaid.ink-png"
	}
	return "mermaid.ink-svg"
}

func (s *inkStrategy) Render(ctx context.Context, code string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", s.base, s.format, inkEncode(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	body, err := fetch(s.client, req)
	if err != nil {
		return nil, err
	}
	if s.format == "svg" {
		return rasterizeSVG(body)
	}
	return body, nil
}

// inkEncode compresses diagram source with zlib and encodes it with
// the URL-safe base64 alphabet, the framing mermaid.ink expects.
func inkEncode(code string) string {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write([]byte(code))
	_ = zw.Close()
	return base64.URLEncoding.EncodeToString(buf.Bytes())
}

func fetch(client httpDoer, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s %s: empty response body", req.Method, req.URL)
	}
	return body, nil
}
