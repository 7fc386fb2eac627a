package process

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor creates a fresh processor for a single invocation.
type Constructor func() Processor

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register makes a processor available under id. It panics when id is empty,
// ctor is nil or id is already registered.
func Register(id string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if id == "" || ctor == nil {
		panic("process: Register requires an id and a constructor")
	}
	if _, dup := registry[id]; dup {
		panic("process: Register called twice for " + id)
	}
	registry[id] = ctor
}

// IsRegistered reports whether id names a registered processor.
func IsRegistered(id string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[id]
	return ok
}

// Lookup creates the processor registered under id.
func Lookup(id string) (Processor, error) {
	registryMu.RLock()
	ctor, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown processor %q", id)
	}
	return ctor(), nil
}

// Registered returns the sorted identifiers of all registered processors.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func unregister(id string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, id)
}

func init() {
	Register(TimestampNeutralizerID, func() Processor { return &TimestampNeutralizer{} })
}
