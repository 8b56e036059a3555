package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrModelUnavailable = errors.New("temperature model unavailable")

// ModelLoader provides the regression model shared by every prediction pass
type ModelLoader interface {
	Load(ctx context.Context) (Regressor, error)
}

// CachedLoader loads the model once and hands out the same read-only instance afterwards.
// Concurrent first calls share a single load; failed loads are retried on the next call
type CachedLoader struct {
	load  func() (Regressor, error)
	group singleflight.Group

	mu        sync.RWMutex
	regressor Regressor
}

func NewCachedLoader(load func() (Regressor, error)) *CachedLoader {
	return &CachedLoader{load: load}
}

// NewFileLoader caches the forest stored at path
func NewFileLoader(path string) *CachedLoader {
	return NewCachedLoader(func() (Regressor, error) {
		if path == "" {
			return nil, errors.New("no model path configured")
		}
		return LoadForest(path)
	})
}

func (loader *CachedLoader) Load(ctx context.Context) (Regressor, error) {
	loader.mu.RLock()
	regressor := loader.regressor
	loader.mu.RUnlock()
	if regressor != nil {
		return regressor, nil
	}

	result := loader.group.DoChan("model", func() (any, error) {
		regressor, err := loader.load()
		if err != nil {
			return nil, err
		}
		loader.mu.Lock()
		loader.regressor = regressor
		loader.mu.Unlock()
		return regressor, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, ctx.Err())
	case outcome := <-result:
		if outcome.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, outcome.Err)
		}
		return outcome.Val.(Regressor), nil
	}
}
