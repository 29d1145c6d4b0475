// Package render converts Mermaid diagram source into raster artifacts
// through an ordered chain of independent strategies, and normalises the
// result for document embedding.
package render

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Artifact is a rendered diagram image. It is produced on demand and
// never mutated, only replaced wholesale.
type Artifact struct {
	PNG      []byte
	Width    int
	Height   int
	Strategy string
}

// Strategy is one way of turning Mermaid source into image bytes. A
// strategy reports failure through its error; the chain treats any
// failure as "skip to the next".
type Strategy interface {
	Name() string
	Render(ctx context.Context, code string) ([]byte, error)
}

// Renderer tries strategies strictly in order and accepts the first
// whose output survives validation and normalisation. Later strategies
// are never probed once an earlier one succeeds.
type Renderer struct {
	strategies []Strategy
	timeout    time.Duration
	log        *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout sets the per-strategy timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) { r.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

// NewRenderer builds a renderer over an explicit strategy order.
func NewRenderer(strategies []Strategy, opts ...Option) *Renderer {
	r := &Renderer{
		strategies: strategies,
		timeout:    25 * time.Second,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultChain is the production strategy order: Kroki raster, Kroki
// vector locally rasterised, mermaid.ink raster, mermaid.ink vector,
// then a headless-browser screenshot.
func DefaultChain(krokiBase string, chrome *ChromeStrategy) []Strategy {
	chain := []Strategy{
		NewKrokiPNG(krokiBase),
		NewKrokiSVG(krokiBase),
		NewInkPNG(),
		NewInkSVG(),
	}
	if chrome != nil {
		chain = append(chain, chrome)
	}
	return chain
}

// Render walks the chain. A nil artifact with a nil error means every
// strategy failed; the caller decides how to degrade (typically by
// showing the raw diagram source instead).
func (r *Renderer) Render(ctx context.Context, code string) (*Artifact, error) {
	if code == "" {
		return nil, nil
	}
	for _, s := range r.strategies {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		raw, err := s.Render(sctx, code)
		cancel()
		if err != nil {
			r.log.Debug("render strategy failed",
				zap.String("strategy", s.Name()), zap.Error(err))
			continue
		}
		norm, err := Normalize(raw)
		if err != nil {
			r.log.Debug("render strategy produced unusable image",
				zap.String("strategy", s.Name()), zap.Error(err))
			continue
		}
		r.log.Info("diagram rendered",
			zap.String("strategy", s.Name()),
			zap.Int("width", norm.Width), zap.Int("height", norm.Height))
		return &Artifact{
			PNG:      norm.PNG,
			Width:    norm.Width,
			Height:   norm.Height,
			Strategy: s.Name(),
		}, nil
	}
	r.log.Warn("all render strategies failed")
	return nil, nil
}
