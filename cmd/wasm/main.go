//go:build js && wasm

// Command wasm is the in-page build of the capture client. It installs
// console capture and exposes window.Bruit with init, sendFeedback,
// sendFeedbackFromModal and sendError, each returning a Promise.
package main

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"syscall/js"

	"github.com/bluefermion/feedback-capture/internal/browser/jsenv"
	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/console"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/feedback"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
	"github.com/bluefermion/feedback-capture/internal/snapshot"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// scriptPattern finds the tag that loaded the client and carries its
// configuration in the query string.
var scriptPattern = regexp.MustCompile(`/feedback[^/?]*\.(js|wasm)\?`)

var (
	mu     sync.RWMutex
	client *feedback.Client
	logs   *console.Buffer
	env    = jsenv.New()
)

func main() {
	api := map[string]any{
		"init":                  js.FuncOf(jsInit),
		"sendFeedback":          js.FuncOf(jsSendFeedback),
		"sendFeedbackFromModal": js.FuncOf(jsSendFeedbackFromModal),
		"sendError":             js.FuncOf(jsSendError),
	}
	js.Global().Set("Bruit", js.ValueOf(api))

	if query, ok := scriptQuery(); ok {
		partial, err := config.FromScriptQuery(query)
		if err == nil {
			err = initialize(partial)
		}
		if err != nil {
			js.Global().Get("console").Call("error", "FEEDBACK ERROR :", err.Error())
		}
	}

	select {}
}

func scriptQuery() (string, bool) {
	scripts := js.Global().Get("document").Call("getElementsByTagName", "script")
	for i := 0; i < scripts.Length(); i++ {
		src := scripts.Index(i).Get("src")
		if src.Type() != js.TypeString {
			continue
		}
		if loc := scriptPattern.FindStringIndex(src.String()); loc != nil {
			return src.String()[loc[1]:], true
		}
	}
	return "", false
}

func initialize(partial config.Config) error {
	cfg := config.New(partial)
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	buf := console.NewBuffer(cfg.Log)
	c, err := feedback.NewClient(cfg, func() feedback.SnapshotCollector {
		return snapshot.NewCollector(env, jsenv.Renderer{Env: env}, snapshot.WithLogs(buf))
	}, transport.NewHTTP(nil, nil), nil)
	if err != nil {
		return err
	}

	mu.Lock()
	first := logs == nil
	client, logs = c, buf
	mu.Unlock()

	if first {
		installConsole()
	}
	return nil
}

// installConsole wraps the console methods and records clicks and hash
// navigations into the current buffer.
func installConsole() {
	con := js.Global().Get("console")
	for _, level := range []model.LogLevel{
		model.LogLevelLog, model.LogLevelDebug, model.LogLevelInfo, model.LogLevelWarn, model.LogLevelError,
	} {
		level := level
		original := con.Get(string(level))
		if original.Type() != js.TypeFunction {
			continue
		}
		con.Set(string(level), js.FuncOf(func(this js.Value, args []js.Value) any {
			buffer().Append(level, goValues(args)...)
			return original.Call("apply", con, toArray(args))
		}))
	}

	js.Global().Call("addEventListener", "hashchange", js.FuncOf(func(this js.Value, args []js.Value) any {
		buffer().LogURL(env.Location())
		return nil
	}))
	js.Global().Get("document").Call("addEventListener", "click", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			if target := args[0].Get("target"); target.Truthy() {
				buffer().Append(model.LogLevelClick, describe(target))
			}
		}
		return nil
	}), true)

	buffer().LogURL(env.Location())
}

func buffer() *console.Buffer {
	mu.RLock()
	defer mu.RUnlock()
	return logs
}

func current() (*feedback.Client, error) {
	mu.RLock()
	defer mu.RUnlock()
	if client == nil {
		return nil, &config.ValidationError{Code: config.CodeMissingConfig, Text: "Bruit.init was not called"}
	}
	return client, nil
}

func describe(el js.Value) string {
	desc := el.Get("tagName").String()
	if id := el.Get("id"); id.Type() == js.TypeString && id.String() != "" {
		desc += "#" + id.String()
	}
	if cls := el.Get("className"); cls.Type() == js.TypeString && cls.String() != "" {
		desc += "." + cls.String()
	}
	return desc
}

func toArray(args []js.Value) js.Value {
	arr := js.Global().Get("Array").New(len(args))
	for i, a := range args {
		arr.SetIndex(i, a)
	}
	return arr
}

func goValues(args []js.Value) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		var v any
		if err := decode(a, &v); err != nil {
			v = js.Global().Call("String", a).String()
		}
		out = append(out, v)
	}
	return out
}

// decode converts a JavaScript value through JSON.
func decode(v js.Value, dst any) (err error) {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("value is not serializable: %v", r)
		}
	}()
	text := js.Global().Get("JSON").Call("stringify", v)
	if text.Type() != js.TypeString {
		return errors.New("value is not serializable")
	}
	return json.Unmarshal([]byte(text.String()), dst)
}

// promise runs fn off the JavaScript event loop and settles a Promise with
// its JSON-encoded result.
func promise(fn func(ctx context.Context) (any, error)) js.Value {
	executor := js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			result, err := fn(context.Background())
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			encoded, err := json.Marshal(result)
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(js.Global().Get("JSON").Call("parse", string(encoded)))
		}()
		return nil
	})
	defer executor.Release()
	return js.Global().Get("Promise").New(executor)
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

// producer maps the optional data argument onto the two producer shapes:
// a function is called at submission, a thenable is only awaited.
func producer(v js.Value) feedback.DataProducer {
	switch {
	case v.Type() == js.TypeFunction:
		return feedback.FromFunc(func(ctx context.Context) ([]model.DataItem, error) {
			return awaitItems(ctx, v.Invoke())
		})
	case v.Type() == js.TypeObject && v.Get("then").Type() == js.TypeFunction:
		return feedback.Async(context.Background(), func(ctx context.Context) ([]model.DataItem, error) {
			return awaitItems(ctx, v)
		})
	default:
		return nil
	}
}

func awaitItems(ctx context.Context, v js.Value) ([]model.DataItem, error) {
	if v.Type() == js.TypeObject && v.Get("then").Type() == js.TypeFunction {
		var err error
		if v, err = jsenv.Await(ctx, v); err != nil {
			return nil, err
		}
	}
	var items []model.DataItem
	if err := decode(v, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func jsInit(this js.Value, args []js.Value) any {
	var raw struct {
		APIKey  string `json:"apiKey"`
		APIURL  string `json:"apiUrl"`
		Version string `json:"version"`
		Log     struct {
			LogCacheLength      map[model.LogLevel]int `json:"logCacheLength"`
			AddQueryParamsToLog bool                   `json:"addQueryParamsToLog"`
		} `json:"log"`
	}
	err := decode(arg(args, 0), &raw)
	if err == nil {
		err = initialize(config.Config{
			APIKey:  raw.APIKey,
			APIURL:  raw.APIURL,
			Version: raw.Version,
			Log: config.LogConfig{
				CacheLength:         raw.Log.LogCacheLength,
				AddQueryParamsToLog: raw.Log.AddQueryParamsToLog,
			},
		})
	}
	if err != nil {
		js.Global().Get("console").Call("error", "FEEDBACK ERROR :", err.Error())
		// A Go callback cannot throw; hand the error back instead.
		return js.Global().Get("Error").New("FEEDBACK ERROR :" + err.Error())
	}
	return nil
}

// sendFeedback(data = [], dataFn?, agreement = false, screenshotConfig?)
func jsSendFeedback(this js.Value, args []js.Value) any {
	var data []model.DataItem
	var shot *screenshot.Config
	decodeErr := decode(arg(args, 0), &data)
	if decodeErr == nil {
		decodeErr = decodeShot(arg(args, 3), &shot)
	}
	dataFn := producer(arg(args, 1))
	agreement := arg(args, 2).Truthy()

	return promise(func(ctx context.Context) (any, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}
		c, err := current()
		if err != nil {
			return nil, err
		}
		return c.SendFeedback(ctx, data, dataFn, agreement, shot)
	})
}

// sendFeedbackFromModal(formFields, data = [], dataFn?, screenshotConfig?)
func jsSendFeedbackFromModal(this js.Value, args []js.Value) any {
	var fields []model.FormField
	var data []model.DataItem
	var shot *screenshot.Config
	decodeErr := decode(arg(args, 0), &fields)
	if decodeErr == nil {
		decodeErr = decode(arg(args, 1), &data)
	}
	if decodeErr == nil {
		decodeErr = decodeShot(arg(args, 3), &shot)
	}
	dataFn := producer(arg(args, 2))

	return promise(func(ctx context.Context) (any, error) {
		if decodeErr != nil {
			return nil, decodeErr
		}
		c, err := current()
		if err != nil {
			return nil, err
		}
		return c.SendFeedbackFromModal(ctx, fields, data, dataFn, shot)
	})
}

// sendError(message)
func jsSendError(this js.Value, args []js.Value) any {
	message := js.Global().Call("String", arg(args, 0)).String()
	return promise(func(ctx context.Context) (any, error) {
		c, err := current()
		if err != nil {
			return nil, err
		}
		return c.SendError(ctx, message)
	})
}

func decodeShot(v js.Value, dst **screenshot.Config) error {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	*dst = &screenshot.Config{}
	return decode(v, *dst)
}
