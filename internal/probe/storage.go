package probe

import (
	"context"

	"github.com/bluefermion/feedback-capture/internal/browser"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// Storage estimates quota and usage. Unreported values are nil; without the
// Storage API both are nil. A failing estimate is returned as an error.
func Storage(ctx context.Context, env browser.Environment) (model.StorageEstimate, error) {
	manager, ok := env.Navigator().Storage()
	if !ok {
		return model.StorageEstimate{}, nil
	}

	quota, usage, err := manager.Estimate(ctx)
	if err != nil {
		return model.StorageEstimate{}, failed(err, "storage estimate")
	}
	return model.StorageEstimate{Quota: nonZero(quota), Usage: nonZero(usage)}, nil
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
