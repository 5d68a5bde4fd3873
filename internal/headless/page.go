// Package headless drives a real Chrome tab over the DevTools protocol and
// exposes it as a browser.Environment and screenshot.Renderer.
//
// It lets the CLI take the same environment snapshot a widget embedded in
// the page would, without a human in front of the browser.
package headless

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// NewBrowser starts a Chrome allocator and returns a tab context. Cancel it
// to close the browser.
func NewBrowser(ctx context.Context, headless bool, l *zap.SugaredLogger) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	l = logger.OrNop(l)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.Debugf), chromedp.WithErrorf(l.Errorf))
	return tabCtx, func() {
		cancelTab()
		cancelAlloc()
	}
}

type facts struct {
	Href          string           `json:"href"`
	Cookie        string           `json:"cookie"`
	Screen        model.ScreenInfo `json:"screen"`
	CookieEnabled bool             `json:"cookieEnabled"`
	UserAgent     string           `json:"userAgent"`
	Platform      string           `json:"platform"`
	Language      string           `json:"language"`
	Permissions   bool             `json:"permissions"`
	Storage       bool             `json:"storage"`
	Connection    *model.Network   `json:"connection"`
	Plugins       []string         `json:"plugins"`
	ServiceWorker bool             `json:"serviceWorker"`
	HTMLElement   string           `json:"htmlElement"`
}

// Page is one loaded tab. Synchronous reads come from the facts captured by
// Attach; asynchronous capabilities evaluate in the tab on every call.
type Page struct {
	ctx    context.Context
	facts  facts
	logger *zap.SugaredLogger
}

var _ browser.Environment = (*Page)(nil)

// Navigate loads url in the tab and attaches to it.
func Navigate(ctx context.Context, url string, l *zap.SugaredLogger) (*Page, error) {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return nil, errors.Wrapf(err, "navigate to %s", url)
	}
	return Attach(ctx, l)
}

// Attach reads the current state of the tab in ctx.
func Attach(ctx context.Context, l *zap.SugaredLogger) (*Page, error) {
	p := &Page{ctx: ctx, logger: logger.OrNop(l)}
	if err := chromedp.Run(ctx, chromedp.Evaluate(factsScript, &p.facts)); err != nil {
		return nil, errors.Wrap(err, "read page facts")
	}
	p.logger.Debugw("Attached to page", "href", p.facts.Href, "user_agent", p.facts.UserAgent)
	return p, nil
}

// Refresh re-reads the synchronous values, e.g. after the page navigated.
func (p *Page) Refresh() error {
	var f facts
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(factsScript, &f)); err != nil {
		return errors.Wrap(err, "read page facts")
	}
	p.facts = f
	return nil
}

func awaitPromise(params *runtime.EvaluateParams) *runtime.EvaluateParams {
	return params.WithAwaitPromise(true)
}

// eval runs expr in the tab. Promises are awaited and rejections become
// errors.
func (p *Page) eval(ctx context.Context, expr string, res any) error {
	return chromedp.Run(ctx, chromedp.Evaluate(expr, res, awaitPromise))
}

// evalBool is for synchronous reads; failures read as false.
func (p *Page) evalBool(expr string) bool {
	var ok bool
	if err := p.eval(p.ctx, expr, &ok); err != nil {
		p.logger.Debugw("Page evaluation failed", "expr", expr, logger.FieldError, err)
		return false
	}
	return ok
}

func (p *Page) Navigator() browser.Navigator { return navigator{p} }
func (p *Page) Document() browser.Document   { return document{p} }
func (p *Page) Location() string             { return p.facts.Href }
func (p *Page) Screen() model.ScreenInfo     { return p.facts.Screen }
func (p *Page) Features() browser.Features   { return features{p} }

type navigator struct{ p *Page }

func (n navigator) CookieEnabled() bool { return n.p.facts.CookieEnabled }
func (n navigator) UserAgent() string   { return n.p.facts.UserAgent }
func (n navigator) Platform() string    { return n.p.facts.Platform }
func (n navigator) Language() string    { return n.p.facts.Language }

func (n navigator) Permissions() (browser.Permissions, bool) {
	if !n.p.facts.Permissions {
		return nil, false
	}
	return permissions{n.p}, true
}

func (n navigator) Storage() (browser.StorageManager, bool) {
	if !n.p.facts.Storage {
		return nil, false
	}
	return storageManager{n.p}, true
}

func (n navigator) Connection() (model.Network, bool) {
	if n.p.facts.Connection == nil {
		return model.Network{}, false
	}
	return *n.p.facts.Connection, true
}

func (n navigator) Plugins() ([]string, bool) {
	if n.p.facts.Plugins == nil {
		return nil, false
	}
	return n.p.facts.Plugins, true
}

func (n navigator) ServiceWorker() (browser.ServiceWorkerContainer, bool) {
	if !n.p.facts.ServiceWorker {
		return nil, false
	}
	return serviceWorkers{n.p}, true
}

type permissions struct{ p *Page }

func (q permissions) Query(ctx context.Context, name model.PermissionName) (model.PermissionState, error) {
	var state string
	if err := q.p.eval(ctx, permissionScript(string(name)), &state); err != nil {
		return "", err
	}
	return model.PermissionState(state), nil
}

type storageManager struct{ p *Page }

func (s storageManager) Estimate(ctx context.Context) (float64, float64, error) {
	var est struct {
		Quota float64 `json:"quota"`
		Usage float64 `json:"usage"`
	}
	if err := s.p.eval(ctx, storageEstimateScript, &est); err != nil {
		return 0, 0, err
	}
	return est.Quota, est.Usage, nil
}

type serviceWorkers struct{ p *Page }

func (s serviceWorkers) Registrations(ctx context.Context) ([]browser.Registration, error) {
	var regs []struct {
		Scope      string          `json:"scope"`
		Waiting    *browser.Worker `json:"waiting"`
		Installing *browser.Worker `json:"installing"`
		Active     *browser.Worker `json:"active"`
	}
	if err := s.p.eval(ctx, registrationsScript, &regs); err != nil {
		return nil, err
	}
	out := make([]browser.Registration, 0, len(regs))
	for _, r := range regs {
		out = append(out, browser.Registration{
			Scope:      r.Scope,
			Waiting:    r.Waiting,
			Installing: r.Installing,
			Active:     r.Active,
		})
	}
	return out, nil
}

type document struct{ p *Page }

func (d document) Cookie() string { return d.p.facts.Cookie }

func (d document) HasStyleProperty(name string) bool {
	return d.p.evalBool(hasStylePropertyScript(name))
}

type features struct{ p *Page }

func (f features) LegacyFileSystem() (browser.FileSystemRequester, bool) {
	if !f.HasGlobal("webkitRequestFileSystem") {
		return nil, false
	}
	return fileSystem{f.p}, true
}

func (f features) IndexedDB() (browser.IndexedDB, bool) {
	if !f.HasGlobal("indexedDB") {
		return nil, false
	}
	return indexedDB{f.p}, true
}

func (f features) LocalStorage() (browser.LocalStorage, bool) {
	if !f.HasGlobal("localStorage") {
		return nil, false
	}
	return localStorage{f.p}, true
}

func (f features) HasGlobal(name string) bool {
	return f.p.evalBool(hasGlobalScript(name))
}

func (f features) HTMLElementString() string { return f.p.facts.HTMLElement }

type fileSystem struct{ p *Page }

func (fs fileSystem) RequestFileSystem(ctx context.Context, size int64) error {
	var ok bool
	return fs.p.eval(ctx, fmt.Sprintf(fileSystemScript, size), &ok)
}

type indexedDB struct{ p *Page }

func (db indexedDB) Open(ctx context.Context, name string) error {
	var ok bool
	return db.p.eval(ctx, fmt.Sprintf(indexedDBOpenScript, quote(name)), &ok)
}

type localStorage struct{ p *Page }

func (s localStorage) Len() int {
	var n int
	if err := s.p.eval(s.p.ctx, localStorageLengthScript, &n); err != nil {
		return 0
	}
	return n
}

func (s localStorage) SetItem(key, value string) error {
	var ok bool
	return s.p.eval(s.p.ctx, setItemScript(key, value), &ok)
}

func (s localStorage) RemoveItem(key string) error {
	var ok bool
	return s.p.eval(s.p.ctx, removeItemScript(key), &ok)
}
