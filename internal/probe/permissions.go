package probe

import (
	"context"
	"sync"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// Permissions queries every name independently and returns the decided ones.
//
// A query that fails is treated as unsupported and dropped, as is any
// permission still in the prompt state. The probe itself never fails: without
// the Permissions API the result is an empty map. With no names given,
// model.KnownPermissions is queried.
func Permissions(ctx context.Context, env browser.Environment, names ...model.PermissionName) map[model.PermissionName]model.PermissionState {
	result := make(map[model.PermissionName]model.PermissionState)

	api, ok := env.Navigator().Permissions()
	if !ok {
		return result
	}
	if len(names) == 0 {
		names = model.KnownPermissions
	}

	type status struct {
		name        model.PermissionName
		state       model.PermissionState
		unsupported bool
	}

	statuses := make([]status, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name model.PermissionName) {
			defer wg.Done()
			state, err := api.Query(ctx, name)
			statuses[i] = status{name: name, state: state, unsupported: err != nil}
		}(i, name)
	}
	wg.Wait()

	for _, s := range statuses {
		if s.unsupported || s.state == model.PermissionPrompt {
			continue
		}
		result[s.name] = s.state
	}
	return result
}
