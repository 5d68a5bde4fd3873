package headless

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/bluefermion/feedback-capture/internal/console"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// CaptureConsole records console calls, uncaught exceptions and top-level
// navigations of the tab in ctx into buf. Call it before Navigate.
func CaptureConsole(ctx context.Context, buf *console.Buffer) {
	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			args := make([]any, 0, len(e.Args))
			for _, arg := range e.Args {
				args = append(args, remoteValue(arg))
			}
			buf.Append(consoleLevel(e.Type), args...)
		case *runtime.EventExceptionThrown:
			if e.ExceptionDetails != nil {
				buf.Append(model.LogLevelError, e.ExceptionDetails.Text)
			}
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				buf.LogURL(e.Frame.URL)
			}
		case *page.EventNavigatedWithinDocument:
			buf.LogURL(e.URL)
		}
	})
}

func consoleLevel(t runtime.APIType) model.LogLevel {
	switch t {
	case runtime.APITypeDebug:
		return model.LogLevelDebug
	case runtime.APITypeInfo:
		return model.LogLevelInfo
	case runtime.APITypeWarning:
		return model.LogLevelWarn
	case runtime.APITypeError, runtime.APITypeAssert:
		return model.LogLevelError
	default:
		return model.LogLevelLog
	}
}

// remoteValue turns a console argument into a JSON-friendly value.
func remoteValue(o *runtime.RemoteObject) any {
	if o == nil {
		return nil
	}
	if len(o.Value) > 0 {
		var v any
		if err := json.Unmarshal([]byte(o.Value), &v); err == nil {
			return v
		}
	}
	if o.UnserializableValue != "" {
		return string(o.UnserializableValue)
	}
	if o.Description != "" {
		return o.Description
	}
	return string(o.Type)
}
