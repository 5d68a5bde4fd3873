// Package browser defines the surface of a web page that the capability
// probes read from.
//
// Environment is the Go rendition of window, navigator and document. Every
// optional capability is exposed with a comma-ok accessor so probes feature
// detect instead of handling errors: ok == false means "this browser does not
// have it". Methods that talk to the page asynchronously take a context and
// may fail; synchronous reads never fail.
//
// Implementations: the js/wasm build of this package (running inside the
// page), package headless (a Chrome tab driven over the DevTools protocol) and
// package browsertest (in-memory, for tests).
package browser

import (
	"context"

	"github.com/bluefermion/feedback-capture/internal/model"
)

// Environment is one page of one browser.
type Environment interface {
	Navigator() Navigator
	Document() Document
	// Location returns window.location.href.
	Location() string
	Screen() model.ScreenInfo
	Features() Features
}

// Navigator mirrors window.navigator.
type Navigator interface {
	CookieEnabled() bool
	UserAgent() string
	Platform() string
	Language() string

	Permissions() (Permissions, bool)
	Storage() (StorageManager, bool)
	Connection() (model.Network, bool)
	Plugins() ([]string, bool)
	ServiceWorker() (ServiceWorkerContainer, bool)
}

// Document mirrors window.document.
type Document interface {
	// Cookie returns document.cookie.
	Cookie() string
	// HasStyleProperty reports whether name is a property of
	// document.documentElement.style.
	HasStyleProperty(name string) bool
}

// Permissions mirrors navigator.permissions.
type Permissions interface {
	Query(ctx context.Context, name model.PermissionName) (model.PermissionState, error)
}

// StorageManager mirrors navigator.storage.
type StorageManager interface {
	// Estimate returns quota and usage in bytes; zero means "not reported".
	Estimate(ctx context.Context) (quota, usage float64, err error)
}

// Worker is a single service worker in a registration slot.
type Worker struct {
	State string
}

// Registration mirrors ServiceWorkerRegistration. Empty slots are nil.
type Registration struct {
	Scope      string
	Waiting    *Worker
	Installing *Worker
	Active     *Worker
}

// ServiceWorkerContainer mirrors navigator.serviceWorker.
type ServiceWorkerContainer interface {
	Registrations(ctx context.Context) ([]Registration, error)
}

// FileSystemRequester mirrors the legacy window.webkitRequestFileSystem.
type FileSystemRequester interface {
	// RequestFileSystem asks for a temporary filesystem of size bytes. It
	// fails in private browsing.
	RequestFileSystem(ctx context.Context, size int64) error
}

// IndexedDB mirrors window.indexedDB.
type IndexedDB interface {
	// Open opens (or creates) a database and reports its error event.
	Open(ctx context.Context, name string) error
}

// LocalStorage mirrors window.localStorage.
type LocalStorage interface {
	Len() int
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Features exposes the globals used to tell browser families apart.
type Features interface {
	LegacyFileSystem() (FileSystemRequester, bool)
	IndexedDB() (IndexedDB, bool)
	LocalStorage() (LocalStorage, bool)
	// HasGlobal reports whether window[name] is defined and truthy.
	HasGlobal(name string) bool
	// HTMLElementString returns String(window.HTMLElement).
	HTMLElementString() string
}
