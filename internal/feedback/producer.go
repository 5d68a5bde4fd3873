package feedback

import (
	"context"

	"github.com/bluefermion/feedback-capture/internal/model"
)

// DataProducer supplies data computed at submission time. It is one of two
// shapes, chosen where it is built:
//
//   - FromFunc: a function the aggregator calls, then waits for.
//   - FromAwaitable / Async: work already running; the aggregator only waits.
type DataProducer interface {
	produce(ctx context.Context) ([]model.DataItem, error)
}

// Produced is the outcome of work started before submission.
type Produced struct {
	Items []model.DataItem
	Err   error
}

type funcProducer func(ctx context.Context) ([]model.DataItem, error)

func (f funcProducer) produce(ctx context.Context) ([]model.DataItem, error) {
	return f(ctx)
}

type awaitableProducer <-chan Produced

func (ch awaitableProducer) produce(ctx context.Context) ([]model.DataItem, error) {
	select {
	case p, ok := <-ch:
		if !ok {
			return nil, nil
		}
		return p.Items, p.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FromFunc wraps a function invoked during submission.
func FromFunc(fn func(ctx context.Context) ([]model.DataItem, error)) DataProducer {
	return funcProducer(fn)
}

// FromItems wraps a fixed list. It is FromFunc for callers with nothing to
// compute.
func FromItems(items ...model.DataItem) DataProducer {
	return funcProducer(func(context.Context) ([]model.DataItem, error) {
		return items, nil
	})
}

// FromAwaitable waits for a value delivered on ch. A closed channel with no
// value yields no data.
func FromAwaitable(ch <-chan Produced) DataProducer {
	return awaitableProducer(ch)
}

// Async starts fn immediately in its own goroutine and returns a producer
// that waits for it.
func Async(ctx context.Context, fn func(ctx context.Context) ([]model.DataItem, error)) DataProducer {
	ch := make(chan Produced, 1)
	go func() {
		defer close(ch)
		items, err := fn(ctx)
		ch <- Produced{Items: items, Err: err}
	}()
	return awaitableProducer(ch)
}

func resolve(ctx context.Context, p DataProducer) ([]model.DataItem, error) {
	if p == nil {
		return []model.DataItem{}, nil
	}
	items, err := p.produce(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.DataItem{}
	}
	return items, nil
}
