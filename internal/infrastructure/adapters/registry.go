// Package adapters provides the concrete PlatformAdapter implementations:
// the corporate directory connector, the vCard-based mobile connector and
// the generic OAuth CRM connector. Transport clients are injected so the
// adapters stay testable without live remote systems.
package adapters

import (
	"sort"

	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// Registry is a static adapter registry built at composition time
type Registry struct {
	adapters map[syncdomain.PlatformCode]syncdomain.PlatformAdapter
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...syncdomain.PlatformAdapter) *Registry {
	r := &Registry{
		adapters: make(map[syncdomain.PlatformCode]syncdomain.PlatformAdapter, len(adapters)),
	}
	for _, adapter := range adapters {
		r.adapters[adapter.Platform()] = adapter
	}
	return r
}

// Get returns the adapter for the specified platform code
func (r *Registry) Get(platform syncdomain.PlatformCode) (syncdomain.PlatformAdapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, syncdomain.ErrPlatformNotRegistered
	}
	return adapter, nil
}

// List returns all registered adapters ordered by platform code
func (r *Registry) List() []syncdomain.PlatformAdapter {
	codes := make([]string, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	listed := make([]syncdomain.PlatformAdapter, 0, len(codes))
	for _, code := range codes {
		listed = append(listed, r.adapters[syncdomain.PlatformCode(code)])
	}
	return listed
}

// Ensure Registry implements AdapterRegistry
var _ syncdomain.AdapterRegistry = (*Registry)(nil)
