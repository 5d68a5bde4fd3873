// Package snapshot collects the environment telemetry attached to a feedback
// submission once the user has agreed to share it.
package snapshot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/console"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/incognito"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/probe"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
)

// Snapshot is the merged result of every environment probe.
type Snapshot struct {
	Navigator      *model.NavigatorSnapshot  `json:"navigator"`
	ServiceWorkers []model.ServiceWorkerInfo `json:"serviceWorkers"`
	Canvas         []byte                    `json:"canvas"`
	URL            string                    `json:"url"`
	Cookies        map[string]string         `json:"cookies"`
	Display        *model.ScreenInfo         `json:"display"`
	Logs           []model.LogEntry          `json:"logs"`
}

// Collector runs the probes against one environment.
type Collector struct {
	env      browser.Environment
	renderer screenshot.Renderer
	logs     console.Reader
	detector *incognito.Detector
	logger   *zap.SugaredLogger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogs attaches the console log buffer. Without it, Logs is empty.
func WithLogs(r console.Reader) Option {
	return func(c *Collector) { c.logs = r }
}

// WithDetector replaces the default incognito strategy list.
func WithDetector(d *incognito.Detector) Option {
	return func(c *Collector) { c.detector = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Collector) { c.logger = l }
}

// NewCollector builds a Collector. The renderer is required: the screenshot
// is part of every snapshot.
func NewCollector(env browser.Environment, renderer screenshot.Renderer, opts ...Option) *Collector {
	c := &Collector{env: env, renderer: renderer}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrNop(c.logger)
	if c.detector == nil {
		c.detector = &incognito.Detector{Logger: c.logger}
	}
	return c
}

// Collect renders the screenshot, aggregates the navigator and lists service
// workers concurrently, then reads the synchronous values.
//
// Telemetry is all or nothing: if any of the three branches fails, Collect
// returns the first error and no snapshot. Failures isolated inside a branch
// (a single permission query, an unsupported capability) do not count.
func (c *Collector) Collect(ctx context.Context, cfg *screenshot.Config) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{}

	var g errgroup.Group
	g.Go(func() error {
		canvas, err := c.renderer.Render(ctx, cfg)
		if err != nil {
			return errors.Wrap(err, "render screenshot")
		}
		snap.Canvas = canvas
		return nil
	})
	g.Go(func() error {
		nav, err := c.Navigator(ctx)
		if err != nil {
			return err
		}
		snap.Navigator = nav
		return nil
	})
	g.Go(func() error {
		workers, err := probe.ServiceWorkers(ctx, c.env)
		if err != nil {
			return err
		}
		snap.ServiceWorkers = workers
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.Warnw("Environment snapshot failed", logger.FieldError, err)
		return nil, err
	}

	display := probe.Screen(c.env)
	snap.URL = probe.URL(c.env)
	snap.Cookies = probe.Cookies(c.env)
	snap.Display = &display
	snap.Logs = []model.LogEntry{}
	if c.logs != nil {
		snap.Logs = c.logs.ReadAll()
	}

	c.logger.Debugw("Environment snapshot collected",
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		logger.FieldSize, len(snap.Canvas),
		logger.FieldCount, len(snap.Logs))
	return snap, nil
}

// Navigator runs permissions, storage and incognito detection concurrently,
// then reads the synchronous navigator properties.
func (c *Collector) Navigator(ctx context.Context) (*model.NavigatorSnapshot, error) {
	var (
		permissions map[model.PermissionName]model.PermissionState
		storage     model.StorageEstimate
		private     bool
	)

	var g errgroup.Group
	g.Go(func() error {
		permissions = probe.Permissions(ctx, c.env)
		return nil
	})
	g.Go(func() error {
		var err error
		storage, err = probe.Storage(ctx, c.env)
		return err
	})
	g.Go(func() error {
		private = c.detector.Detect(ctx, c.env)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nav := c.env.Navigator()
	return &model.NavigatorSnapshot{
		CookieEnabled:           nav.CookieEnabled(),
		ServiceWorkersSupported: probe.ServiceWorkersSupported(c.env),
		UserAgent:               nav.UserAgent(),
		Platform:                nav.Platform(),
		Language:                nav.Language(),
		PrivateMode:             private,
		Permissions:             permissions,
		Network:                 probe.Network(c.env),
		Storage:                 storage,
		Plugins:                 probe.Plugins(c.env),
	}, nil
}
