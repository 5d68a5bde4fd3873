// Package probe reads individual browser capabilities.
//
// Every probe is best effort: an unsupported capability resolves to a
// neutral value (nil, an empty map, an empty storage estimate) and is never
// reported as an error. A supported capability whose call fails returns an
// error marked with ErrProbe, and the caller decides what to abort.
package probe

import (
	"strings"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// ErrProbe marks failures of a supported capability.
var ErrProbe = errors.New("probe failed")

func failed(err error, probe string) error {
	return errors.Mark(errors.Wrap(err, probe), ErrProbe)
}

// Cookies parses document.cookie into a map. Only well-formed name=value
// pairs are kept, and names starting with "_" are skipped as internal.
func Cookies(env browser.Environment) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(env.Document().Cookie(), "; ") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 || parts[0] == "" || parts[0][0] == '_' {
			continue
		}
		cookies[parts[0]] = parts[1]
	}
	return cookies
}

// URL returns the current location.
func URL(env browser.Environment) string {
	return env.Location()
}

// Screen returns the display metrics.
func Screen(env browser.Environment) model.ScreenInfo {
	return env.Screen()
}

// Plugins lists installed plugin names, or nil when navigator.plugins is
// unavailable.
func Plugins(env browser.Environment) []string {
	names, ok := env.Navigator().Plugins()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Network reads navigator.connection, or nil when it is unavailable.
func Network(env browser.Environment) *model.Network {
	conn, ok := env.Navigator().Connection()
	if !ok {
		return nil
	}
	return &conn
}

// ServiceWorkersSupported reports whether navigator.serviceWorker exists.
func ServiceWorkersSupported(env browser.Environment) bool {
	_, ok := env.Navigator().ServiceWorker()
	return ok
}
