// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package artifact persists generator outputs behind a pluggable
// store and keeps the artifacts table and tenant byte counters in
// step with what is stored.
package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Store is the byte backend. Keys are slash-separated
// tenant/job/artifact paths; the returned URI is opaque to callers
// and resolvable only by the store that minted it.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
	Delete(ctx context.Context, uri string) error
}

// LocalStore keeps artifacts on the local filesystem. Single-node
// deployments and tests use it instead of S3.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapError(err, "create artifact dir "+dir, errors.CodeInitializeError)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.WrapError(err, "create artifact path", errors.CodeInternalError)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.WrapError(err, "write artifact "+key, errors.CodeInternalError)
	}
	return "file://" + path, nil
}

func (s *LocalStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return nil, errors.NewValidationError("not a local artifact uri: " + uri)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("artifact", uri)
		}
		return nil, errors.WrapError(err, "read artifact", errors.CodeInternalError)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, uri string) error {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return errors.NewValidationError("not a local artifact uri: " + uri)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WrapError(err, "delete artifact", errors.CodeInternalError)
	}
	return nil
}
