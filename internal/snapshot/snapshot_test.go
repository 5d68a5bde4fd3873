package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/browser/browsertest"
	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/console"
	crdb "github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/incognito"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/probe"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
)

var png = []byte("\x89PNG\r\n\x1a\nfake")

func staticRenderer(img []byte) screenshot.Renderer {
	return screenshot.RendererFunc(func(context.Context, *screenshot.Config) ([]byte, error) {
		return img, nil
	})
}

func richEnv() *browsertest.Env {
	env := browsertest.New()
	env.CookieStr = "session=abc; _internal=1"
	env.PermissionStates = map[model.PermissionName]model.PermissionState{
		model.PermissionCamera:      model.PermissionGranted,
		model.PermissionGeolocation: model.PermissionPrompt,
	}
	env.StorageEstimate = &browsertest.Estimate{Quota: 2048, Usage: 512}
	env.Network = &model.Network{Downlink: 10, EffectiveType: "4g", Type: "wifi"}
	env.PluginNames = []string{"PDF Viewer"}
	env.ServiceWorkers = &browsertest.Registrations{List: []browser.Registration{
		{Scope: "https://example.test/", Active: &browser.Worker{State: "activated"}},
	}}
	return env
}

func TestCollect(t *testing.T) {
	env := richEnv()
	logs := console.NewBuffer(config.LogConfig{})
	logs.Append(model.LogLevelError, "boom")

	var gotCfg *screenshot.Config
	renderer := screenshot.RendererFunc(func(_ context.Context, cfg *screenshot.Config) ([]byte, error) {
		gotCfg = cfg
		return png, nil
	})
	shot := &screenshot.Config{Selector: "#app", MaxWidth: 800}

	snap, err := NewCollector(env, renderer, WithLogs(logs)).Collect(context.Background(), shot)
	require.NoError(t, err)

	assert.Same(t, shot, gotCfg)
	assert.Equal(t, png, snap.Canvas)
	assert.Equal(t, "https://example.test/page", snap.URL)
	assert.Equal(t, map[string]string{"session": "abc"}, snap.Cookies)
	assert.Equal(t, &model.ScreenInfo{Width: 1920, Height: 1080, PixelRatio: 2}, snap.Display)
	require.Len(t, snap.Logs, 1)
	assert.Equal(t, model.LogLevelError, snap.Logs[0].Type)
	require.Len(t, snap.ServiceWorkers, 1)

	nav := snap.Navigator
	require.NotNil(t, nav)
	assert.True(t, nav.CookieEnabled)
	assert.True(t, nav.ServiceWorkersSupported)
	assert.Equal(t, "Mozilla/5.0 (browsertest)", nav.UserAgent)
	assert.Equal(t, "Linux x86_64", nav.Platform)
	assert.Equal(t, "en-US", nav.Language)
	assert.False(t, nav.PrivateMode)
	assert.Equal(t, map[model.PermissionName]model.PermissionState{model.PermissionCamera: model.PermissionGranted}, nav.Permissions)
	assert.Equal(t, env.Network, nav.Network)
	require.NotNil(t, nav.Storage.Quota)
	assert.Equal(t, 2048.0, *nav.Storage.Quota)
	assert.Equal(t, []string{"PDF Viewer"}, nav.Plugins)
}

func TestCollectMinimalEnvironment(t *testing.T) {
	snap, err := NewCollector(browsertest.New(), staticRenderer(png)).Collect(context.Background(), nil)
	require.NoError(t, err)

	assert.NotNil(t, snap.Logs, "logs are an empty list without a buffer")
	assert.Empty(t, snap.Logs)
	assert.Nil(t, snap.ServiceWorkers)
	assert.Empty(t, snap.Navigator.Permissions)
	assert.Nil(t, snap.Navigator.Storage.Quota)
	assert.Nil(t, snap.Navigator.Storage.Usage)
	assert.Nil(t, snap.Navigator.Network)
	assert.Nil(t, snap.Navigator.Plugins)
	assert.False(t, snap.Navigator.ServiceWorkersSupported)
}

func TestCollectFailsWhenStorageFails(t *testing.T) {
	env := richEnv()
	env.StorageEstimate = &browsertest.Estimate{Err: errors.New("quota exceeded")}

	snap, err := NewCollector(env, staticRenderer(png)).Collect(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, crdb.Is(err, probe.ErrProbe))
}

func TestCollectFailsWhenServiceWorkersFail(t *testing.T) {
	env := richEnv()
	env.ServiceWorkers = &browsertest.Registrations{Err: errors.New("InvalidStateError")}

	snap, err := NewCollector(env, staticRenderer(png)).Collect(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, snap)
}

func TestCollectFailsWhenRenderFails(t *testing.T) {
	renderer := screenshot.RendererFunc(func(context.Context, *screenshot.Config) ([]byte, error) {
		return nil, errors.New("tainted canvas")
	})

	snap, err := NewCollector(richEnv(), renderer).Collect(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "render screenshot")
	assert.Contains(t, err.Error(), "tainted canvas")
}

func TestCollectToleratesPermissionFailures(t *testing.T) {
	env := richEnv()
	env.PermissionErrors = map[model.PermissionName]error{model.PermissionCamera: errors.New("nope")}

	snap, err := NewCollector(env, staticRenderer(png)).Collect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Navigator.Permissions)
}

func TestNavigatorUsesDetector(t *testing.T) {
	always := &incognito.Detector{Strategies: []incognito.Strategy{{
		Name:   "always",
		Detect: func(context.Context, browser.Environment) incognito.Verdict { return incognito.Private },
	}}}

	nav, err := NewCollector(browsertest.New(), staticRenderer(png), WithDetector(always)).Navigator(context.Background())
	require.NoError(t, err)
	assert.True(t, nav.PrivateMode)
}
