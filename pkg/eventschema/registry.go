// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package eventschema

import (
	"fmt"
	"sync"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Result reports one validation pass. Warnings never block an event.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

type Registry struct {
	mu      sync.RWMutex
	schemas map[string]map[string]*Schema
	current map[string]string
	retired map[string]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]map[string]*Schema{},
		current: map[string]string{},
		retired: map[string]map[string]bool{},
	}
}

// Register adds a schema version. The highest non-retired version
// becomes current.
func (r *Registry) Register(schema *Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	newVersion, err := parseVersion(schema.Version)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.schemas[schema.Name]
	if !ok {
		versions = map[string]*Schema{}
		r.schemas[schema.Name] = versions
	}
	if _, exists := versions[schema.Version]; exists {
		return errors.WrapMessage(
			fmt.Sprintf("schema %s version %s already registered", schema.Name, schema.Version),
			errors.CodeConflict)
	}
	versions[schema.Version] = schema

	currentVersion, hasCurrent := r.current[schema.Name]
	if !hasCurrent {
		r.current[schema.Name] = schema.Version
		return nil
	}
	cur, _ := parseVersion(currentVersion)
	if cur.less(newVersion) {
		r.current[schema.Name] = schema.Version
	}
	return nil
}

func (r *Registry) Get(name, version string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.schemas[name]
	if !ok {
		return nil, errors.NewNotFoundError("schema", name)
	}
	schema, ok := versions[version]
	if !ok {
		return nil, errors.NewNotFoundError("schema version", name+"@"+version)
	}
	return schema, nil
}

func (r *Registry) Current(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	version, ok := r.current[name]
	if !ok {
		return nil, errors.NewNotFoundError("schema", name)
	}
	return r.schemas[name][version], nil
}

// Retire marks a version unusable. If it was current, the highest
// remaining version takes over.
func (r *Registry) Retire(name, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.schemas[name]
	if !ok {
		return errors.NewNotFoundError("schema", name)
	}
	if _, ok := versions[version]; !ok {
		return errors.NewNotFoundError("schema version", name+"@"+version)
	}
	if r.retired[name] == nil {
		r.retired[name] = map[string]bool{}
	}
	r.retired[name][version] = true
	if r.current[name] != version {
		return nil
	}
	delete(r.current, name)
	var best string
	for v := range versions {
		if r.retired[name][v] {
			continue
		}
		if best == "" {
			best = v
			continue
		}
		bv, _ := parseVersion(best)
		cv, _ := parseVersion(v)
		if bv.less(cv) {
			best = v
		}
	}
	if best != "" {
		r.current[name] = best
	}
	return nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}

// ValidatePayload checks a payload against the current schema for the
// event type. Unknown event types are invalid; unknown payload fields
// are warnings when the schema allows additional properties, errors
// otherwise. Defaults for absent optional fields are filled in place.
func (r *Registry) ValidatePayload(eventType string, payload map[string]interface{}) Result {
	schema, err := r.Current(eventType)
	if err != nil {
		return Result{Valid: false, Errors: []string{fmt.Sprintf("no schema registered for event type %q", eventType)}}
	}
	result := Result{Valid: true}
	known := map[string]bool{}
	for _, field := range schema.Fields {
		known[field.Name] = true
		value, present := payload[field.Name]
		if !present || value == nil {
			if field.Default != nil {
				payload[field.Name] = field.Default
				continue
			}
			if field.Required {
				result.Errors = append(result.Errors, fmt.Sprintf("missing required field %q", field.Name))
			}
			continue
		}
		if err := checkValue(field, value); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	for name := range payload {
		if known[name] {
			continue
		}
		msg := fmt.Sprintf("unknown field %q", name)
		if schema.AdditionalProperties {
			result.Warnings = append(result.Warnings, msg)
		} else {
			result.Errors = append(result.Errors, msg)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}
