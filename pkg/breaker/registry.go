// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package breaker

import (
	"sort"
	"sync"

	"github.com/AMD-AGI/voyant/pkg/idgen"
)

// Registry hands out one breaker per collaborator name.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	configs  map[string]Config
	defaults Config
	clock    idgen.Clock
}

func NewRegistry(defaults Config, clock idgen.Clock) *Registry {
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Registry{
		breakers: map[string]*Breaker{},
		configs:  map[string]Config{},
		defaults: defaults,
		clock:    clock,
	}
}

// Configure sets a per-name config. It only affects breakers created
// after the call.
func (r *Registry) Configure(name string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[name] = cfg
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	cfg, ok := r.configs[name]
	if !ok {
		cfg = r.defaults
	}
	b := New(name, cfg, r.clock)
	r.breakers[name] = b
	return b
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetAll force-closes every breaker; the manual operator override.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.breakers {
		b.Reset()
	}
}
