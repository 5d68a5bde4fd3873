package headless

import (
	"testing"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"

	"github.com/bluefermion/feedback-capture/internal/model"
)

func TestConsoleLevel(t *testing.T) {
	tests := map[runtime.APIType]model.LogLevel{
		runtime.APITypeLog:     model.LogLevelLog,
		runtime.APITypeDebug:   model.LogLevelDebug,
		runtime.APITypeInfo:    model.LogLevelInfo,
		runtime.APITypeWarning: model.LogLevelWarn,
		runtime.APITypeError:   model.LogLevelError,
		runtime.APITypeAssert:  model.LogLevelError,
		runtime.APITypeTable:   model.LogLevelLog,
	}
	for in, want := range tests {
		assert.Equal(t, want, consoleLevel(in), string(in))
	}
}

func TestRemoteValue(t *testing.T) {
	assert.Nil(t, remoteValue(nil))
	assert.Equal(t, "hi", remoteValue(&runtime.RemoteObject{Type: runtime.TypeString, Value: []byte(`"hi"`)}))
	assert.Equal(t, 42.0, remoteValue(&runtime.RemoteObject{Type: runtime.TypeNumber, Value: []byte(`42`)}))
	assert.Equal(t, "NaN", remoteValue(&runtime.RemoteObject{Type: runtime.TypeNumber, UnserializableValue: "NaN"}))
	assert.Equal(t, "HTMLDivElement", remoteValue(&runtime.RemoteObject{Type: runtime.TypeObject, Description: "HTMLDivElement"}))
	assert.Equal(t, "undefined", remoteValue(&runtime.RemoteObject{Type: runtime.TypeUndefined}))
}

func TestCaptureFormat(t *testing.T) {
	assert.Equal(t, page.CaptureScreenshotFormatPng, captureFormat(""))
	assert.Equal(t, page.CaptureScreenshotFormatPng, captureFormat("image/png"))
	assert.Equal(t, page.CaptureScreenshotFormatJpeg, captureFormat("image/jpeg"))
	assert.Equal(t, page.CaptureScreenshotFormatWebp, captureFormat("image/webp"))
}

func TestScriptsQuoteArguments(t *testing.T) {
	assert.Equal(t, `navigator.permissions.query({ name: "camera" }).then((s) => s.state)`, permissionScript("camera"))
	assert.Equal(t, `!!window["indexedDB"]`, hasGlobalScript("indexedDB"))
	assert.Equal(t, `"MozAppearance" in document.documentElement.style`, hasStylePropertyScript("MozAppearance"))
	assert.Equal(t, `(() => { window.localStorage.removeItem("x"); return true; })()`, removeItemScript("x"))

	evil := `"); alert(1); ("`
	assert.Equal(t, `!!window["\"); alert(1); (\""]`, hasGlobalScript(evil))
	assert.Contains(t, setItemScript("k", "a\nb"), `"a\nb"`)
}
