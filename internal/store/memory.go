package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory keeps records in process memory. Values are still stored encoded so
// callers never share mutable state with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := decode(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matchKeys(m.data, prefix), nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.data = make(map[string]json.RawMessage)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func matchKeys(data map[string]json.RawMessage, prefix string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
