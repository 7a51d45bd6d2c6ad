package kv

import (
	"context"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

const memoryShards = 32

type entry struct {
	value     []byte
	expiresAt time.Time
}

type shard struct {
	mu   sync.Mutex
	data map[string]entry
}

// Memory is an in-process Store for single-instance deployments and tests.
// Keys are spread over independently locked shards by murmur3 hash, so
// subjects hitting different keys do not contend on one mutex.
type Memory struct {
	mu     sync.RWMutex
	now    func() time.Time
	fault  error
	shards [memoryShards]*shard
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	for i := range m.shards {
		m.shards[i] = &shard{data: make(map[string]entry)}
	}
	return m
}

// WithClock replaces the time source used for expiry.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// Fail makes every subsequent call return err wrapped in ErrUnavailable; nil restores service.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = err
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	now, err := m.check(ctx)
	if err != nil {
		return nil, false, err
	}
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		delete(s.data, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now, err := m.check(ctx)
	if err != nil {
		return err
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	s := m.shardFor(key)
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

// TTL returns the remaining lifetime of key, or 0 if it is absent or has no expiry.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.RLock()
	now := m.now()
	m.mu.RUnlock()

	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok || e.expiresAt.IsZero() {
		return 0
	}
	return e.expiresAt.Sub(now)
}

func (m *Memory) shardFor(key string) *shard {
	return m.shards[murmur3.Sum32([]byte(key))%memoryShards]
}

// check returns the current time, or the injected fault or context error.
func (m *Memory) check(ctx context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fault != nil {
		return time.Time{}, errorf(m.fault)
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, errorf(err)
	}
	return m.now(), nil
}
