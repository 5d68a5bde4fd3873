package headless

import (
	"context"
	"fmt"
	"math"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
)

var _ screenshot.Renderer = (*Page)(nil)

type box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Render captures the element selected by cfg (the body by default) at the
// scale computed by screenshot.Resolve.
func (p *Page) Render(ctx context.Context, cfg *screenshot.Config) ([]byte, error) {
	selector := screenshot.SelectorOrBody(cfg)

	var b box
	if err := p.eval(ctx, fmt.Sprintf(measureScript, quote(selector)), &b); err != nil {
		return nil, errors.Wrapf(err, "measure %s", selector)
	}

	screen := p.Screen()
	opts := screenshot.Resolve(cfg, b.Width, b.Height, float64(screen.Width), float64(screen.Height), screen.PixelRatio)

	params := page.CaptureScreenshot().
		WithFormat(captureFormat(opts.ImageType)).
		WithCaptureBeyondViewport(true).
		WithClip(&page.Viewport{
			X:      b.X,
			Y:      b.Y,
			Width:  opts.Width,
			Height: opts.Height,
			Scale:  opts.Scale,
		})
	if opts.ImageType != "image/png" {
		params = params.WithQuality(int64(math.Round(opts.Compression * 100)))
	}

	var buf []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = params.Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.Wrap(err, "capture screenshot")
	}
	p.logger.Debugw("Screenshot captured", "selector", selector, "scale", opts.Scale, "bytes", len(buf))
	return buf, nil
}

func captureFormat(imageType string) page.CaptureScreenshotFormat {
	switch imageType {
	case "image/jpeg", "image/jpg":
		return page.CaptureScreenshotFormatJpeg
	case "image/webp":
		return page.CaptureScreenshotFormatWebp
	default:
		return page.CaptureScreenshotFormatPng
	}
}
