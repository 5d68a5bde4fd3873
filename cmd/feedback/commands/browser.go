package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/console"
	"github.com/bluefermion/feedback-capture/internal/headless"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
	"github.com/bluefermion/feedback-capture/internal/snapshot"
)

// session is one loaded page with console capture.
type session struct {
	page   *headless.Page
	logs   *console.Buffer
	cancel context.CancelFunc
}

func addBrowserFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("headful", false, "Show the browser window")
	f.String("selector", "", "CSS selector of the element to capture (default body)")
	f.Float64("max-width", 0, "Maximum screenshot width in pixels")
	f.Float64("max-height", 0, "Maximum screenshot height in pixels")
	f.String("image-type", screenshot.DefaultImageType, "Screenshot MIME type")
	f.Float64("compression", screenshot.DefaultCompression, "Screenshot quality for lossy formats (0-1)")
	f.Bool("query-params", false, "Keep query strings in logged URLs")
}

func screenshotConfig(cmd *cobra.Command) *screenshot.Config {
	f := cmd.Flags()
	cfg := &screenshot.Config{}
	cfg.Selector, _ = f.GetString("selector")
	cfg.MaxWidth, _ = f.GetFloat64("max-width")
	cfg.MaxHeight, _ = f.GetFloat64("max-height")
	cfg.ImageType, _ = f.GetString("image-type")
	cfg.Compression, _ = f.GetFloat64("compression")
	return cfg
}

func openPage(cmd *cobra.Command, url string, logCfg config.LogConfig, log *zap.SugaredLogger) (*session, error) {
	headful, _ := cmd.Flags().GetBool("headful")
	ctx, cancel := headless.NewBrowser(cmd.Context(), !headful, log)

	logs := console.NewBuffer(logCfg)
	headless.CaptureConsole(ctx, logs)

	page, err := headless.Navigate(ctx, url, log)
	if err != nil {
		cancel()
		return nil, err
	}
	return &session{page: page, logs: logs, cancel: cancel}, nil
}

func (s *session) collector(log *zap.SugaredLogger) *snapshot.Collector {
	return snapshot.NewCollector(s.page, s.page, snapshot.WithLogs(s.logs), snapshot.WithLogger(log))
}
