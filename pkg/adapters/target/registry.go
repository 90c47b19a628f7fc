package target

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Info describes a registered target adapter.
type Info struct {
	Name        string // registry key, e.g. "oracle"
	DisplayName string // "Oracle Database"
	Description string
}

// Registration contains adapter info plus the factory for opening
// connections from a generic config map.
type Registration struct {
	Info    Info
	Factory func(ctx context.Context, config map[string]any, logger *zap.Logger) (Conn, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Name] = reg
}

// Registered returns info for all registered adapters.
func Registered() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Info, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// Open creates a connection for a registered dialect name.
func Open(ctx context.Context, name string, config map[string]any, logger *zap.Logger) (Conn, error) {
	registryMu.RLock()
	reg, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown target dialect %q", name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return reg.Factory(ctx, config, logger)
}
