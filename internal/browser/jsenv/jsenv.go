//go:build js && wasm

// Package jsenv implements browser.Environment on top of syscall/js for the
// WebAssembly build that runs inside the page.
package jsenv

import (
	"context"
	"encoding/base64"
	"strings"
	"syscall/js"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
)

// Env is the current window.
type Env struct {
	window js.Value
}

var _ browser.Environment = (*Env)(nil)

// New wraps the global window.
func New() *Env {
	return &Env{window: js.Global()}
}

// Await blocks until promise settles. A rejection is returned as an error
// carrying the JavaScript message.
func Await(ctx context.Context, promise js.Value) (js.Value, error) {
	type settled struct {
		value js.Value
		err   error
	}
	done := make(chan settled, 1)

	var onResolve, onReject js.Func
	onResolve = js.FuncOf(func(this js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		done <- settled{value: v}
		onResolve.Release()
		onReject.Release()
		return nil
	})
	onReject = js.FuncOf(func(this js.Value, args []js.Value) any {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		done <- settled{err: jsError(reason)}
		onResolve.Release()
		onReject.Release()
		return nil
	})
	promise.Call("then", onResolve, onReject)

	select {
	case s := <-done:
		return s.value, s.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

// call invokes fn and turns a thrown JavaScript exception into an error.
func call(fn func() js.Value) (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = errors.New(jsErr.Error())
				return
			}
			panic(r)
		}
	}()
	return fn(), nil
}

// newPromise runs executor synchronously inside new Promise(...).
func newPromise(executor func(resolve, reject js.Value)) js.Value {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		executor(args[0], args[1])
		return nil
	})
	defer fn.Release()
	return js.Global().Get("Promise").New(fn)
}

func jsError(v js.Value) error {
	if v.Type() == js.TypeObject && v.Get("message").Type() == js.TypeString {
		return errors.New(v.Get("message").String())
	}
	if v.Type() == js.TypeUndefined {
		return errors.New("promise rejected")
	}
	return errors.New(js.Global().Call("String", v).String())
}

func (e *Env) Navigator() browser.Navigator { return navigator{e.window.Get("navigator")} }
func (e *Env) Document() browser.Document   { return document{e.window.Get("document")} }
func (e *Env) Location() string             { return e.window.Get("location").Get("href").String() }
func (e *Env) Features() browser.Features   { return features{e.window} }

func (e *Env) Screen() model.ScreenInfo {
	screen := e.window.Get("screen")
	ratio := 1.0
	if dpr := e.window.Get("devicePixelRatio"); dpr.Truthy() {
		ratio = dpr.Float()
	}
	return model.ScreenInfo{
		Height:     screen.Get("height").Int(),
		Width:      screen.Get("width").Int(),
		PixelRatio: ratio,
	}
}

func str(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

type navigator struct{ v js.Value }

func (n navigator) CookieEnabled() bool { return n.v.Get("cookieEnabled").Truthy() }
func (n navigator) UserAgent() string   { return str(n.v.Get("userAgent")) }
func (n navigator) Platform() string    { return str(n.v.Get("platform")) }
func (n navigator) Language() string    { return str(n.v.Get("language")) }

func (n navigator) Permissions() (browser.Permissions, bool) {
	p := n.v.Get("permissions")
	if !p.Truthy() || !p.Get("query").Truthy() {
		return nil, false
	}
	return permissions{p}, true
}

func (n navigator) Storage() (browser.StorageManager, bool) {
	s := n.v.Get("storage")
	if !s.Truthy() || !s.Get("estimate").Truthy() {
		return nil, false
	}
	return storageManager{s}, true
}

func (n navigator) Connection() (model.Network, bool) {
	c := n.v.Get("connection")
	if !c.Truthy() {
		return model.Network{}, false
	}
	var downlink float64
	if d := c.Get("downlink"); d.Type() == js.TypeNumber {
		downlink = d.Float()
	}
	return model.Network{
		Downlink:      downlink,
		EffectiveType: str(c.Get("effectiveType")),
		Type:          str(c.Get("type")),
	}, true
}

func (n navigator) Plugins() ([]string, bool) {
	plugins := n.v.Get("plugins")
	if !plugins.Truthy() {
		return nil, false
	}
	names := make([]string, 0, plugins.Length())
	for i := 0; i < plugins.Length(); i++ {
		names = append(names, str(plugins.Index(i).Get("name")))
	}
	return names, true
}

func (n navigator) ServiceWorker() (browser.ServiceWorkerContainer, bool) {
	sw := n.v.Get("serviceWorker")
	if sw.IsUndefined() {
		return nil, false
	}
	return serviceWorkers{sw}, true
}

type permissions struct{ v js.Value }

func (p permissions) Query(ctx context.Context, name model.PermissionName) (model.PermissionState, error) {
	promise, err := call(func() js.Value {
		return p.v.Call("query", map[string]any{"name": string(name)})
	})
	if err != nil {
		return "", err
	}
	status, err := Await(ctx, promise)
	if err != nil {
		return "", err
	}
	return model.PermissionState(str(status.Get("state"))), nil
}

type storageManager struct{ v js.Value }

func (s storageManager) Estimate(ctx context.Context) (float64, float64, error) {
	promise, err := call(func() js.Value { return s.v.Call("estimate") })
	if err != nil {
		return 0, 0, err
	}
	est, err := Await(ctx, promise)
	if err != nil {
		return 0, 0, err
	}
	num := func(v js.Value) float64 {
		if v.Type() != js.TypeNumber {
			return 0
		}
		return v.Float()
	}
	return num(est.Get("quota")), num(est.Get("usage")), nil
}

type serviceWorkers struct{ v js.Value }

func (s serviceWorkers) Registrations(ctx context.Context) ([]browser.Registration, error) {
	promise, err := call(func() js.Value { return s.v.Call("getRegistrations") })
	if err != nil {
		return nil, err
	}
	regs, err := Await(ctx, promise)
	if err != nil {
		return nil, err
	}

	slot := func(w js.Value) *browser.Worker {
		if !w.Truthy() {
			return nil
		}
		return &browser.Worker{State: str(w.Get("state"))}
	}
	out := make([]browser.Registration, 0, regs.Length())
	for i := 0; i < regs.Length(); i++ {
		r := regs.Index(i)
		out = append(out, browser.Registration{
			Scope:      str(r.Get("scope")),
			Waiting:    slot(r.Get("waiting")),
			Installing: slot(r.Get("installing")),
			Active:     slot(r.Get("active")),
		})
	}
	return out, nil
}

type document struct{ v js.Value }

func (d document) Cookie() string { return str(d.v.Get("cookie")) }

func (d document) HasStyleProperty(name string) bool {
	style := d.v.Get("documentElement").Get("style")
	return js.Global().Get("Reflect").Call("has", style, name).Bool()
}

type features struct{ window js.Value }

func (f features) LegacyFileSystem() (browser.FileSystemRequester, bool) {
	fn := f.window.Get("RequestFileSystem")
	if !fn.Truthy() {
		fn = f.window.Get("webkitRequestFileSystem")
	}
	if !fn.Truthy() {
		return nil, false
	}
	return fileSystem{window: f.window, fn: fn}, true
}

func (f features) IndexedDB() (browser.IndexedDB, bool) {
	db := f.window.Get("indexedDB")
	if !db.Truthy() {
		return nil, false
	}
	return indexedDB{db}, true
}

func (f features) LocalStorage() (browser.LocalStorage, bool) {
	// Reading window.localStorage itself throws when storage is blocked.
	s, err := call(func() js.Value { return f.window.Get("localStorage") })
	if err != nil || !s.Truthy() {
		return nil, false
	}
	return localStorage{s}, true
}

func (f features) HasGlobal(name string) bool { return f.window.Get(name).Truthy() }

func (f features) HTMLElementString() string {
	return js.Global().Call("String", f.window.Get("HTMLElement")).String()
}

type fileSystem struct {
	window js.Value
	fn     js.Value
}

func (fs fileSystem) RequestFileSystem(ctx context.Context, size int64) error {
	promise := newPromise(func(resolve, reject js.Value) {
		fs.fn.Invoke(fs.window.Get("TEMPORARY"), size, resolve, reject)
	})
	_, err := Await(ctx, promise)
	return err
}

type indexedDB struct{ v js.Value }

func (db indexedDB) Open(ctx context.Context, name string) error {
	promise := newPromise(func(resolve, reject js.Value) {
		req := db.v.Call("open", name)
		req.Set("onsuccess", resolve)
		req.Set("onerror", reject)
	})
	_, err := Await(ctx, promise)
	return err
}

type localStorage struct{ v js.Value }

func (s localStorage) Len() int { return s.v.Get("length").Int() }

func (s localStorage) SetItem(key, value string) error {
	_, err := call(func() js.Value { return s.v.Call("setItem", key, value) })
	return err
}

func (s localStorage) RemoveItem(key string) error {
	_, err := call(func() js.Value { return s.v.Call("removeItem", key) })
	return err
}

// Renderer calls the page's html2canvas global.
type Renderer struct {
	Env *Env
}

var _ screenshot.Renderer = Renderer{}

// Render rasterises the selected element and returns the encoded image.
func (r Renderer) Render(ctx context.Context, cfg *screenshot.Config) ([]byte, error) {
	html2canvas := r.Env.window.Get("html2canvas")
	if !html2canvas.Truthy() {
		return nil, errors.New("html2canvas is not loaded")
	}

	selector := screenshot.SelectorOrBody(cfg)
	doc := r.Env.window.Get("document")
	el := doc.Call("querySelector", selector)
	if !el.Truthy() {
		el = doc.Get("body")
	}

	screen := r.Env.Screen()
	opts := screenshot.Resolve(cfg,
		el.Get("scrollWidth").Float(), el.Get("scrollHeight").Float(),
		float64(screen.Width), float64(screen.Height), screen.PixelRatio)

	promise, err := call(func() js.Value {
		return html2canvas.Invoke(el, map[string]any{
			"backgroundColor": opts.Background,
			"width":           opts.Width,
			"height":          opts.Height,
			"scale":           opts.Scale,
			"imageTimeout":    opts.ImageTimeout,
			"logging":         opts.Logging,
		})
	})
	if err != nil {
		return nil, err
	}
	canvas, err := Await(ctx, promise)
	if err != nil {
		return nil, errors.Wrap(err, "html2canvas")
	}

	dataURL, err := call(func() js.Value {
		return canvas.Call("toDataURL", opts.ImageType, opts.Compression)
	})
	if err != nil {
		return nil, err
	}
	_, encoded, ok := strings.Cut(dataURL.String(), ",")
	if !ok {
		return nil, errors.Newf("unexpected data URL prefix from canvas")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
