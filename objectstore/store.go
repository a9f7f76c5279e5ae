// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package objectstore persists document snapshots under stable,
// hierarchical paths. Three backends share one path convention, so the
// backend can be swapped through configuration without data migration
// concerns inside a single deployment.
package objectstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no object exists at the given path.
	ErrNotFound = errors.New("objectstore: object not found")
	// ErrTooLarge is returned before any backend I/O when the payload
	// exceeds the configured snapshot size cap.
	ErrTooLarge = errors.New("objectstore: object exceeds size limit")
)

// Backend is a flat blob store keyed by path. Implementations must treat
// paths as opaque except for the "/" separator used by DeletePrefix.
type Backend interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Store wraps a backend with the size cap and the per-operation timeout.
type Store struct {
	backend  Backend
	maxBytes int64
	timeout  time.Duration
}

func NewStore(backend Backend, maxBytes int64, timeout time.Duration) *Store {
	return &Store{backend: backend, maxBytes: maxBytes, timeout: timeout}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Put stores data at path. The size cap is checked before any backend
// call, so an oversized payload never touches storage.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return ErrTooLarge
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.Put(ctx, path, data)
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.Get(ctx, path)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.Delete(ctx, path)
}

// DeletePrefix removes every object below prefix and reports how many
// were deleted.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.DeletePrefix(ctx, prefix)
}

// Copy reads the object at src and writes it to dst. The read and the
// write each get their own timeout.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	data, err := s.Get(ctx, src)
	if err != nil {
		return err
	}
	return s.Put(ctx, dst, data)
}
