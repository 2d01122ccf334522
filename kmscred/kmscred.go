// Package kmscred resolves secrets by name from a cloud secrets manager.
// Vendors register themselves from init; import them for side effects.
package kmscred

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Client interface {
	GetSecretValue(ctx context.Context, secretName string) (string, error)
}

type Factory func(cfg Config) (Client, error)

var (
	mu       sync.RWMutex
	registry = map[Vendor]Factory{}
)

func Register(v Vendor, f Factory) {
	if f == nil {
		panic("kmscred: Register factory is nil")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[v]; ok {
		panic(fmt.Sprintf("kmscred: Register called twice for vendor %q", v))
	}
	registry[v] = f
}

func New(cfg Config) (Client, error) {
	if cfg.Vendor == "" {
		return nil, errors.New("kmscred: vendor is required")
	}
	if cfg.Mode == "" {
		return nil, errors.New("kmscred: mode is required")
	}
	mu.RLock()
	f, ok := registry[cfg.Vendor]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kmscred: unsupported vendor %q", cfg.Vendor)
	}
	return f(cfg)
}
