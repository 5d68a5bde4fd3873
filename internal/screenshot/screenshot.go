// Package screenshot describes the external "render a DOM subtree to an
// image" capability and the options the aggregator passes through to it.
package screenshot

import (
	"context"
	"math"
)

// Defaults applied when a Config leaves a value unset.
const (
	DefaultImageType    = "image/png"
	DefaultCompression  = 0.5
	DefaultBackground   = "white"
	DefaultImageTimeout = 1500 // milliseconds
)

// Config is the caller-facing screenshot request. The zero value renders the
// whole body at device pixel ratio as PNG.
type Config struct {
	// Selector picks the element to render; empty renders the document body.
	Selector    string  `json:"elementToRenderSelector,omitempty"`
	MaxWidth    float64 `json:"maxWidth,omitempty"`
	MaxHeight   float64 `json:"maxHeight,omitempty"`
	ImageType   string  `json:"imageType,omitempty"`
	Compression float64 `json:"compression,omitempty"`
}

// Options is what a Renderer receives once the target element is measured.
type Options struct {
	Background   string
	Width        float64 // scroll width of the target element
	Height       float64 // scroll height of the target element
	Scale        float64
	ImageType    string
	Compression  float64
	ImageTimeout int
	Logging      bool
}

// Renderer rasterises a DOM subtree. Implementations measure the element
// matched by selector (the body when empty), then call Resolve to turn the
// caller's Config into concrete Options.
type Renderer interface {
	Render(ctx context.Context, cfg *Config) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, cfg *Config) ([]byte, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, cfg *Config) ([]byte, error) {
	return f(ctx, cfg)
}

// Scale computes the render scale. Each given maximum contributes
// max/actual; a missing maximum contributes the device pixel ratio. The
// smaller of the two wins.
func Scale(cfg *Config, screenWidth, screenHeight, pixelRatio float64) float64 {
	fromWidth := pixelRatio
	fromHeight := pixelRatio
	if cfg != nil && cfg.MaxWidth > 0 && screenWidth > 0 {
		fromWidth = cfg.MaxWidth / screenWidth
	}
	if cfg != nil && cfg.MaxHeight > 0 && screenHeight > 0 {
		fromHeight = cfg.MaxHeight / screenHeight
	}
	return math.Min(fromWidth, fromHeight)
}

// Resolve fills Options for an element of the given size on a screen of the
// given size.
func Resolve(cfg *Config, elemWidth, elemHeight, screenWidth, screenHeight, pixelRatio float64) Options {
	opts := Options{
		Background:   DefaultBackground,
		Width:        elemWidth,
		Height:       elemHeight,
		Scale:        Scale(cfg, screenWidth, screenHeight, pixelRatio),
		ImageType:    DefaultImageType,
		Compression:  DefaultCompression,
		ImageTimeout: DefaultImageTimeout,
	}
	if cfg != nil && cfg.ImageType != "" {
		opts.ImageType = cfg.ImageType
	}
	if cfg != nil && cfg.Compression > 0 {
		opts.Compression = cfg.Compression
	}
	return opts
}

// SelectorOrBody returns the configured selector, or "body".
func SelectorOrBody(cfg *Config) string {
	if cfg != nil && cfg.Selector != "" {
		return cfg.Selector
	}
	return "body"
}
