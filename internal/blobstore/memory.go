package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory keeps blobs in process memory.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ BlobStore = (*Memory)(nil)

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Put buffers r fully before publishing it under key.
func (m *Memory) Put(ctx context.Context, key string, r io.Reader) (BlobPutResult, error) {
	var zero BlobPutResult
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return zero, fmt.Errorf("blob key is required")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}
	sum := sha256.Sum256(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return BlobPutResult{Key: key, SHA256: hex.EncodeToString(sum[:]), SizeBytes: int64(len(data))}, nil
}

// Open returns a reader over a copy of the stored bytes.
func (m *Memory) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[strings.TrimSpace(key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes key. Missing keys are ignored.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, strings.TrimSpace(key))
	return nil
}

// Exists reports whether key is stored.
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[strings.TrimSpace(key)]
	return ok, nil
}

// Keys lists stored keys in lexical order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.blobs))
	for key := range m.blobs {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
