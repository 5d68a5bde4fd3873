// Package browsertest provides an in-memory browser.Environment for tests.
//
// Every capability is described by a plain field; nil means unsupported.
// Fields may be changed between calls, but not concurrently with a probe.
package browsertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// Env is a configurable fake browser.
type Env struct {
	Href      string
	CookieStr string
	Display   model.ScreenInfo

	CookiesOn bool
	UA        string
	Plat      string
	Lang      string

	// PermissionStates answers permission queries; names missing from the
	// map fail as unsupported. Nil disables the Permissions API.
	PermissionStates map[model.PermissionName]model.PermissionState
	// PermissionErrors forces specific queries to fail.
	PermissionErrors map[model.PermissionName]error

	// StorageEstimate answers storage estimates. Nil disables the Storage API.
	StorageEstimate *Estimate
	Network         *model.Network
	PluginNames     []string // nil disables navigator.plugins

	// ServiceWorkers answers getRegistrations. Nil disables the API.
	ServiceWorkers *Registrations

	StyleProps      map[string]bool
	Globals         map[string]bool
	HTMLElementRepr string

	// FileSystemErr is returned by the legacy filesystem request. The API is
	// present only when FileSystem is true.
	FileSystem    bool
	FileSystemErr error
	// IDB enables window.indexedDB; IDBErr is its open error.
	IDB    bool
	IDBErr error
	// Storage enables window.localStorage.
	Storage *Storage

	queries atomic.Int64
}

// Estimate is a canned storage estimate.
type Estimate struct {
	Quota, Usage float64
	Err          error
}

// Registrations is a canned service worker listing.
type Registrations struct {
	List []browser.Registration
	Err  error
}

// Storage is a fake localStorage.
type Storage struct {
	mu       sync.Mutex
	Items    map[string]string
	WriteErr error
}

// New returns a desktop Chrome-like environment with every capability off.
func New() *Env {
	return &Env{
		Href:            "https://example.test/page",
		Display:         model.ScreenInfo{Width: 1920, Height: 1080, PixelRatio: 2},
		CookiesOn:       true,
		UA:              "Mozilla/5.0 (browsertest)",
		Plat:            "Linux x86_64",
		Lang:            "en-US",
		HTMLElementRepr: "function HTMLElement() { [native code] }",
	}
}

// Queries returns the number of permission queries issued so far.
func (e *Env) Queries() int64 { return e.queries.Load() }

var _ browser.Environment = (*Env)(nil)

func (e *Env) Navigator() browser.Navigator { return navigator{e} }
func (e *Env) Document() browser.Document   { return document{e} }
func (e *Env) Location() string             { return e.Href }
func (e *Env) Screen() model.ScreenInfo     { return e.Display }
func (e *Env) Features() browser.Features   { return features{e} }

type navigator struct{ e *Env }

func (n navigator) CookieEnabled() bool { return n.e.CookiesOn }
func (n navigator) UserAgent() string   { return n.e.UA }
func (n navigator) Platform() string    { return n.e.Plat }
func (n navigator) Language() string    { return n.e.Lang }

func (n navigator) Permissions() (browser.Permissions, bool) {
	if n.e.PermissionStates == nil {
		return nil, false
	}
	return permissions{n.e}, true
}

func (n navigator) Storage() (browser.StorageManager, bool) {
	if n.e.StorageEstimate == nil {
		return nil, false
	}
	return storageManager{n.e.StorageEstimate}, true
}

func (n navigator) Connection() (model.Network, bool) {
	if n.e.Network == nil {
		return model.Network{}, false
	}
	return *n.e.Network, true
}

func (n navigator) Plugins() ([]string, bool) {
	if n.e.PluginNames == nil {
		return nil, false
	}
	return n.e.PluginNames, true
}

func (n navigator) ServiceWorker() (browser.ServiceWorkerContainer, bool) {
	if n.e.ServiceWorkers == nil {
		return nil, false
	}
	return swContainer{n.e.ServiceWorkers}, true
}

type permissions struct{ e *Env }

func (p permissions) Query(ctx context.Context, name model.PermissionName) (model.PermissionState, error) {
	p.e.queries.Add(1)
	if err := p.e.PermissionErrors[name]; err != nil {
		return "", err
	}
	state, ok := p.e.PermissionStates[name]
	if !ok {
		return "", errUnsupported(name)
	}
	return state, nil
}

type errUnsupported model.PermissionName

func (e errUnsupported) Error() string {
	return "TypeError: '" + string(e) + "' is not a valid value for enumeration PermissionName"
}

type storageManager struct{ est *Estimate }

func (s storageManager) Estimate(ctx context.Context) (float64, float64, error) {
	if s.est.Err != nil {
		return 0, 0, s.est.Err
	}
	return s.est.Quota, s.est.Usage, nil
}

type swContainer struct{ regs *Registrations }

func (c swContainer) Registrations(ctx context.Context) ([]browser.Registration, error) {
	if c.regs.Err != nil {
		return nil, c.regs.Err
	}
	return c.regs.List, nil
}

type document struct{ e *Env }

func (d document) Cookie() string { return d.e.CookieStr }

func (d document) HasStyleProperty(name string) bool { return d.e.StyleProps[name] }

type features struct{ e *Env }

func (f features) LegacyFileSystem() (browser.FileSystemRequester, bool) {
	if !f.e.FileSystem {
		return nil, false
	}
	return fileSystem{f.e.FileSystemErr}, true
}

func (f features) IndexedDB() (browser.IndexedDB, bool) {
	if !f.e.IDB {
		return nil, false
	}
	return indexedDB{f.e.IDBErr}, true
}

func (f features) LocalStorage() (browser.LocalStorage, bool) {
	if f.e.Storage == nil {
		return nil, false
	}
	return f.e.Storage, true
}

func (f features) HasGlobal(name string) bool {
	switch name {
	case "indexedDB":
		if f.e.IDB {
			return true
		}
	case "localStorage":
		if f.e.Storage != nil {
			return true
		}
	case "webkitRequestFileSystem":
		if f.e.FileSystem {
			return true
		}
	}
	return f.e.Globals[name]
}

func (f features) HTMLElementString() string { return f.e.HTMLElementRepr }

type fileSystem struct{ err error }

func (fs fileSystem) RequestFileSystem(ctx context.Context, size int64) error { return fs.err }

type indexedDB struct{ err error }

func (db indexedDB) Open(ctx context.Context, name string) error { return db.err }

// Len implements browser.LocalStorage.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Items)
}

// SetItem implements browser.LocalStorage.
func (s *Storage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if s.Items == nil {
		s.Items = make(map[string]string)
	}
	s.Items[key] = value
	return nil
}

// RemoveItem implements browser.LocalStorage.
func (s *Storage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Items, key)
	return nil
}
