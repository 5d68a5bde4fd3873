package probe

import (
	"context"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// ServiceWorkers lists registrations with the state of each worker slot. It
// returns nil when service workers are unsupported and an error when listing
// fails.
func ServiceWorkers(ctx context.Context, env browser.Environment) ([]model.ServiceWorkerInfo, error) {
	container, ok := env.Navigator().ServiceWorker()
	if !ok {
		return nil, nil
	}

	registrations, err := container.Registrations(ctx)
	if err != nil {
		return nil, failed(err, "service worker registrations")
	}

	infos := make([]model.ServiceWorkerInfo, 0, len(registrations))
	for _, r := range registrations {
		infos = append(infos, model.ServiceWorkerInfo{
			Scope: r.Scope,
			State: model.ServiceWorkerState{
				Waiting:    workerState(r.Waiting),
				Installing: workerState(r.Installing),
				Active:     workerState(r.Active),
			},
		})
	}
	return infos, nil
}

func workerState(w *browser.Worker) *string {
	if w == nil {
		return nil
	}
	state := w.State
	return &state
}
