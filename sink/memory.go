package sink

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Sink implementation for testing.
// It stores units in a map without any filesystem dependency.
// Thread-safe for concurrent reads and writes.
type Memory struct {
	mu    sync.RWMutex
	units map[string][]byte
}

// NewMemory creates a new in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		units: make(map[string][]byte),
	}
}

// EnsureDir is a no-op, the map namespace has no directories.
func (m *Memory) EnsureDir(_ context.Context, _ string) error {
	return nil
}

// Create opens a unit that is committed to the map on Close.
func (m *Memory) Create(_ context.Context, name string) (Unit, error) {
	return &memoryUnit{sink: m, name: name}, nil
}

// Put writes a whole unit.
func (m *Memory) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.units[name] = copied
	return nil
}

// Open opens a unit for reading.
func (m *Memory) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.units[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy to keep later writes out of the reader
	copied := make([]byte, len(data))
	copy(copied, data)

	return io.NopCloser(bytes.NewReader(copied)), nil
}

// Delete removes a unit.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.units, name)
	return nil
}

// List returns all unit names starting with prefix, sorted.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.units {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// Rename moves a unit to a new name.
func (m *Memory) Rename(_ context.Context, oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.units[oldname]
	if !ok {
		return ErrNotFound
	}

	m.units[newname] = data
	delete(m.units, oldname)
	return nil
}

// Len returns the number of stored units.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.units)
}

// memoryUnit implements Unit for in-memory writes.
type memoryUnit struct {
	sink *Memory
	name string
	buf  bytes.Buffer
}

func (u *memoryUnit) Write(p []byte) (int, error) {
	return u.buf.Write(p)
}

func (u *memoryUnit) Sync() error {
	return nil
}

func (u *memoryUnit) Close() error {
	u.sink.mu.Lock()
	defer u.sink.mu.Unlock()

	data := make([]byte, u.buf.Len())
	copy(data, u.buf.Bytes())
	u.sink.units[u.name] = data
	return nil
}
