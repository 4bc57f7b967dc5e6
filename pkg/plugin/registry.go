// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package plugin

import (
	"reflect"
	"sort"
	"sync"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{plugins: map[string]*Descriptor{}}
}

// Register installs a descriptor. Registration is idempotent by name:
// re-registering the same factory is a no-op, a different factory for
// an existing name fails with DuplicatePlugin.
func (r *Registry) Register(d *Descriptor) error {
	if err := validate(d); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.plugins[d.Name]; ok {
		if factoryPointer(existing) == factoryPointer(d) {
			return nil
		}
		return errors.WrapMessage("plugin "+d.Name+" already registered with a different factory", errors.CodeDuplicatePlugin)
	}
	r.plugins[d.Name] = d
	return nil
}

func validate(d *Descriptor) error {
	if d == nil || d.Name == "" {
		return errors.NewValidationError("plugin descriptor requires a name")
	}
	switch d.Kind {
	case KindGenerator:
		if d.Generator == nil || d.Analyzer != nil {
			return errors.NewValidationError("generator plugin " + d.Name + " must set exactly the Generator factory")
		}
	case KindAnalyzer:
		if d.Analyzer == nil || d.Generator != nil {
			return errors.NewValidationError("analyzer plugin " + d.Name + " must set exactly the Analyzer factory")
		}
	default:
		return errors.NewValidationError("plugin " + d.Name + " has unknown kind " + string(d.Kind))
	}
	for _, key := range d.Outputs {
		if err := CheckArtifactKey(key); err != nil {
			return err
		}
	}
	return nil
}

func factoryPointer(d *Descriptor) uintptr {
	if d.Generator != nil {
		return reflect.ValueOf(d.Generator).Pointer()
	}
	return reflect.ValueOf(d.Analyzer).Pointer()
}

func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.plugins[name]
	if !ok {
		return nil, errors.NewNotFoundError("plugin", name)
	}
	return d, nil
}

// Generators returns generator descriptors ordered by (order, name).
func (r *Registry) Generators() []*Descriptor {
	return r.byKind(KindGenerator)
}

// Analyzers returns analyzer descriptors ordered by (order, name).
func (r *Registry) Analyzers() []*Descriptor {
	return r.byKind(KindAnalyzer)
}

func (r *Registry) byKind(kind Kind) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Descriptor
	for _, d := range r.plugins {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry is the process-wide registry production wires at
// startup. Tests build their own with NewRegistry.
var defaultRegistry = NewRegistry()

func Default() *Registry {
	return defaultRegistry
}
