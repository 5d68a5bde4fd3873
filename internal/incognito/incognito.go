// Package incognito guesses whether the page runs in a private browsing
// window.
//
// There is no standard API for this, so each browser family is recognised by
// a feature signature and probed its own way. Strategies are tried in order
// and the first one that applies decides. When none applies the page is
// assumed not to be private.
package incognito

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/browser"
)

// Verdict is the outcome of one strategy.
type Verdict int

const (
	// NotApplicable means the strategy does not recognise this browser.
	NotApplicable Verdict = iota
	Private
	NotPrivate
)

func (v Verdict) String() string {
	switch v {
	case Private:
		return "private"
	case NotPrivate:
		return "not-private"
	default:
		return "not-applicable"
	}
}

// Strategy recognises one browser family and probes it.
type Strategy struct {
	Name   string
	Detect func(ctx context.Context, env browser.Environment) Verdict
}

// DefaultStrategies is the detection order used by Detect.
var DefaultStrategies = []Strategy{
	{Name: "legacy-filesystem", Detect: legacyFileSystem},
	{Name: "firefox-indexeddb", Detect: firefoxIndexedDB},
	{Name: "safari-localstorage", Detect: safariLocalStorage},
	{Name: "legacy-edge", Detect: legacyEdge},
}

// Detector runs a strategy list.
type Detector struct {
	Strategies []Strategy
	Logger     *zap.SugaredLogger
}

// Detect runs DefaultStrategies against env.
func Detect(ctx context.Context, env browser.Environment) bool {
	return (&Detector{}).Detect(ctx, env)
}

// Detect returns true when the first applicable strategy reports private
// browsing. Nothing is cached: every call probes again.
func (d *Detector) Detect(ctx context.Context, env browser.Environment) bool {
	strategies := d.Strategies
	if strategies == nil {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		verdict := s.Detect(ctx, env)
		if verdict == NotApplicable {
			continue
		}
		if d.Logger != nil {
			d.Logger.Debugw("Incognito detection decided", "strategy", s.Name, "verdict", verdict.String())
		}
		return verdict == Private
	}
	return false
}

// legacyFileSystem: older Chromium and Opera refuse a temporary filesystem in
// private windows.
func legacyFileSystem(ctx context.Context, env browser.Environment) Verdict {
	fs, ok := env.Features().LegacyFileSystem()
	if !ok {
		return NotApplicable
	}
	if err := fs.RequestFileSystem(ctx, 0); err != nil {
		return Private
	}
	return NotPrivate
}

// firefoxIndexedDB: Firefox private windows cannot open IndexedDB.
func firefoxIndexedDB(ctx context.Context, env browser.Environment) Verdict {
	if !env.Document().HasStyleProperty("MozAppearance") {
		return NotApplicable
	}
	db, ok := env.Features().IndexedDB()
	if !ok {
		return Private
	}
	if err := db.Open(ctx, "test"); err != nil {
		return Private
	}
	return NotPrivate
}

var safariSignature = regexp.MustCompile(`(?i)constructor`)

// safariLocalStorage: Safari stringifies HTMLElement as "[object
// HTMLElementConstructor]" and rejects localStorage writes when storage is
// locked down.
func safariLocalStorage(ctx context.Context, env browser.Environment) Verdict {
	if !safariSignature.MatchString(env.Features().HTMLElementString()) {
		return NotApplicable
	}

	writeFailed := func() Verdict {
		if env.Navigator().CookieEnabled() {
			return NotPrivate
		}
		return Private
	}

	storage, ok := env.Features().LocalStorage()
	if !ok {
		return writeFailed()
	}
	if storage.Len() > 0 {
		return NotPrivate
	}
	if err := storage.SetItem("x", "1"); err != nil {
		return writeFailed()
	}
	if err := storage.RemoveItem("x"); err != nil {
		return writeFailed()
	}
	return NotPrivate
}

// legacyEdge: IE10+ and legacy Edge hide IndexedDB in InPrivate windows but
// still expose pointer events.
func legacyEdge(ctx context.Context, env browser.Environment) Verdict {
	f := env.Features()
	if f.HasGlobal("indexedDB") || f.HasGlobal("msIndexedDB") {
		return NotApplicable
	}
	if f.HasGlobal("PointerEvent") || f.HasGlobal("MSPointerEvent") {
		return Private
	}
	return NotApplicable
}
