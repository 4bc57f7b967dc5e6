// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package activity

import (
	"sort"
	"sync"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Registry holds activity definitions. Registration happens at
// startup before the queue is served.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{definitions: map[string]*Definition{}}
}

func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return errors.NewValidationError("activity definition requires a name")
	}
	if def.Fn == nil {
		return errors.NewValidationError("activity " + def.Name + " has no body")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Name]; exists {
		return errors.WrapMessage("activity "+def.Name+" already registered", errors.CodeConflict)
	}
	r.definitions[def.Name] = def
	return nil
}

func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	if !ok {
		return nil, errors.NewNotFoundError("activity", name)
	}
	return def, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
