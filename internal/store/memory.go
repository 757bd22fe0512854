package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process store with the same atomicity guarantees as the
// Redis implementation, scoped to a single process. It exists so tests can
// run without a Redis server; production always uses RedisStore.
type Memory struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

// expired must be called with mu held.
func (m *Memory) expired(key string) bool {
	deadline, ok := m.expires[key]
	if !ok {
		return false
	}
	if time.Now().Before(deadline) {
		return false
	}
	delete(m.values, key)
	delete(m.expires, key)
	return true
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return "", false, nil
	}
	val, ok := m.values[key]
	return val, ok, nil
}

func (m *Memory) GetInt64(ctx context.Context, key string) (int64, error) {
	val, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Memory) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.expired(key) {
		if _, ok := m.values[key]; ok {
			return false, nil
		}
	}
	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return true, nil
}

func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired(key)
	current := int64(0)
	if val, ok := m.values[key]; ok {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, err
		}
		current = n
	}
	current += delta
	m.values[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	delete(m.expires, key)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.expires, key)
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok && ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	}
	return nil
}
