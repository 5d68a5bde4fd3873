package incognito

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/browser/browsertest"
)

const safariHTMLElement = "[object HTMLElementConstructor]"

func TestDetect(t *testing.T) {
	denied := errors.New("denied")

	tests := []struct {
		name  string
		setup func(env *browsertest.Env)
		want  bool
	}{
		{
			name:  "no signature defaults to not private",
			setup: func(env *browsertest.Env) {},
			want:  false,
		},
		{
			name:  "legacy filesystem granted",
			setup: func(env *browsertest.Env) { env.FileSystem = true },
			want:  false,
		},
		{
			name: "legacy filesystem refused",
			setup: func(env *browsertest.Env) {
				env.FileSystem = true
				env.FileSystemErr = denied
			},
			want: true,
		},
		{
			name: "firefox indexeddb opens",
			setup: func(env *browsertest.Env) {
				env.StyleProps = map[string]bool{"MozAppearance": true}
				env.IDB = true
			},
			want: false,
		},
		{
			name: "firefox indexeddb fails",
			setup: func(env *browsertest.Env) {
				env.StyleProps = map[string]bool{"MozAppearance": true}
				env.IDB = true
				env.IDBErr = denied
			},
			want: true,
		},
		{
			name: "firefox without indexeddb",
			setup: func(env *browsertest.Env) {
				env.StyleProps = map[string]bool{"MozAppearance": true}
			},
			want: true,
		},
		{
			name: "safari with stored items",
			setup: func(env *browsertest.Env) {
				env.HTMLElementRepr = safariHTMLElement
				env.Storage = &browsertest.Storage{Items: map[string]string{"k": "v"}, WriteErr: denied}
				env.CookiesOn = false
			},
			want: false,
		},
		{
			name: "safari scratch write succeeds",
			setup: func(env *browsertest.Env) {
				env.HTMLElementRepr = safariHTMLElement
				env.Storage = &browsertest.Storage{}
			},
			want: false,
		},
		{
			name: "safari write fails with cookies disabled",
			setup: func(env *browsertest.Env) {
				env.HTMLElementRepr = safariHTMLElement
				env.Storage = &browsertest.Storage{WriteErr: denied}
				env.CookiesOn = false
			},
			want: true,
		},
		{
			name: "safari write fails with cookies enabled",
			setup: func(env *browsertest.Env) {
				env.HTMLElementRepr = safariHTMLElement
				env.Storage = &browsertest.Storage{WriteErr: denied}
				env.CookiesOn = true
			},
			want: false,
		},
		{
			name: "legacy edge without indexeddb",
			setup: func(env *browsertest.Env) {
				env.Globals = map[string]bool{"PointerEvent": true}
			},
			want: true,
		},
		{
			name: "legacy edge with ms pointer events",
			setup: func(env *browsertest.Env) {
				env.Globals = map[string]bool{"MSPointerEvent": true}
			},
			want: true,
		},
		{
			name: "modern browser with indexeddb and pointer events",
			setup: func(env *browsertest.Env) {
				env.IDB = true
				env.Globals = map[string]bool{"PointerEvent": true}
			},
			want: false,
		},
		{
			name: "filesystem wins over firefox signature",
			setup: func(env *browsertest.Env) {
				env.FileSystem = true
				env.StyleProps = map[string]bool{"MozAppearance": true}
				env.IDB = true
				env.IDBErr = denied
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := browsertest.New()
			tt.setup(env)
			assert.Equal(t, tt.want, Detect(context.Background(), env))
		})
	}
}

func TestSafariScratchWriteIsRemoved(t *testing.T) {
	env := browsertest.New()
	env.HTMLElementRepr = safariHTMLElement
	env.Storage = &browsertest.Storage{}

	Detect(context.Background(), env)
	assert.Zero(t, env.Storage.Len())
}

func TestDetectorFirstApplicableWins(t *testing.T) {
	var calls []string
	strategy := func(name string, v Verdict) Strategy {
		return Strategy{Name: name, Detect: func(context.Context, browser.Environment) Verdict {
			calls = append(calls, name)
			return v
		}}
	}

	d := &Detector{Strategies: []Strategy{
		strategy("skip", NotApplicable),
		strategy("decide", Private),
		strategy("never", NotPrivate),
	}}
	assert.True(t, d.Detect(context.Background(), browsertest.New()))
	assert.Equal(t, []string{"skip", "decide"}, calls)
}

func TestDetectorRecomputes(t *testing.T) {
	env := browsertest.New()
	env.FileSystem = true

	assert.False(t, Detect(context.Background(), env))
	env.FileSystemErr = errors.New("denied")
	assert.True(t, Detect(context.Background(), env))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "private", Private.String())
	assert.Equal(t, "not-private", NotPrivate.String())
	assert.Equal(t, "not-applicable", NotApplicable.String())
}
