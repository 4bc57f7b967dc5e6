// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package eventschema holds the versioned schemas that every event
// payload is validated against before it reaches the bus.
package eventschema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInt      FieldType = "int"
	TypeFloat    FieldType = "float"
	TypeBool     FieldType = "bool"
	TypeDatetime FieldType = "datetime"
	TypeArray    FieldType = "array"
	TypeObject   FieldType = "object"
)

type Field struct {
	Name     string      `json:"name"`
	Type     FieldType   `json:"type"`
	Required bool        `json:"required"`
	Enum     []string    `json:"enum,omitempty"`
	Default  interface{} `json:"default,omitempty"`
}

type Schema struct {
	Name                 string  `json:"name"`
	Version              string  `json:"version"`
	Fields               []Field `json:"fields"`
	AdditionalProperties bool    `json:"additional_properties"`
}

func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.WrapMessage("schema name is required", errors.CodeInvalidSchema)
	}
	if _, err := parseVersion(s.Version); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, field := range s.Fields {
		if field.Name == "" {
			return errors.WrapMessage("schema field name is required", errors.CodeInvalidSchema)
		}
		if seen[field.Name] {
			return errors.WrapMessage(fmt.Sprintf("duplicate field %q", field.Name), errors.CodeInvalidSchema)
		}
		seen[field.Name] = true
		switch field.Type {
		case TypeString, TypeInt, TypeFloat, TypeBool, TypeDatetime, TypeArray, TypeObject:
		default:
			return errors.WrapMessage(fmt.Sprintf("field %q has unknown type %q", field.Name, field.Type), errors.CodeInvalidSchema)
		}
		if len(field.Enum) > 0 && field.Type != TypeString {
			return errors.WrapMessage(fmt.Sprintf("field %q: enum only applies to string fields", field.Name), errors.CodeInvalidSchema)
		}
	}
	return nil
}

// Marshal serializes the schema for storage or transport.
func (s *Schema) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func Unmarshal(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.WrapError(err, "decode schema", errors.CodeInvalidSchema)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type version struct {
	major, minor, patch int
}

func parseVersion(s string) (version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return version{}, errors.WrapMessage(fmt.Sprintf("version %q is not MAJOR.MINOR.PATCH", s), errors.CodeInvalidSchema)
	}
	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return version{}, errors.WrapMessage(fmt.Sprintf("version %q is not MAJOR.MINOR.PATCH", s), errors.CodeInvalidSchema)
		}
		nums[i] = n
	}
	return version{nums[0], nums[1], nums[2]}, nil
}

func (v version) less(o version) bool {
	if v.major != o.major {
		return v.major < o.major
	}
	if v.minor != o.minor {
		return v.minor < o.minor
	}
	return v.patch < o.patch
}

// checkValue verifies one payload value against the field definition.
// JSON decoding hands ints over as float64, so integral floats count
// as ints.
func checkValue(field Field, value interface{}) error {
	switch field.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q: expected string", field.Name)
		}
		if len(field.Enum) > 0 {
			for _, allowed := range field.Enum {
				if s == allowed {
					return nil
				}
			}
			return fmt.Errorf("field %q: value %q not in enum %v", field.Name, s, field.Enum)
		}
	case TypeInt:
		switch n := value.(type) {
		case int, int32, int64:
		case float64:
			if n != float64(int64(n)) {
				return fmt.Errorf("field %q: expected int", field.Name)
			}
		default:
			return fmt.Errorf("field %q: expected int", field.Name)
		}
	case TypeFloat:
		switch value.(type) {
		case float32, float64, int, int32, int64:
		default:
			return fmt.Errorf("field %q: expected float", field.Name)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q: expected bool", field.Name)
		}
	case TypeDatetime:
		switch ts := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				return fmt.Errorf("field %q: expected RFC3339 datetime", field.Name)
			}
		default:
			return fmt.Errorf("field %q: expected datetime", field.Name)
		}
	case TypeArray:
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("field %q: expected array", field.Name)
		}
	case TypeObject:
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("field %q: expected object", field.Name)
		}
	}
	return nil
}
