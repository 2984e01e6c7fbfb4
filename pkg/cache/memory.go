package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memEntry struct {
	key     string
	raw     []byte
	expires time.Time
}

// Memory is a bounded LRU store. Expired entries are dropped when read or
// when they reach the cold end of the list.
type Memory struct {
	mu    sync.Mutex
	max   int
	lru   *list.List
	items map[string]*list.Element
	now   func() time.Time
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Memory{
		max:   maxEntries,
		lru:   list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	return getJSON(ctx, m, key, dest)
}

func (m *Memory) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	return setJSON(ctx, m, key, v, ttl)
}

func (m *Memory) Close() error { return nil }

// Len counts stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	e := el.Value.(*memEntry)
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.remove(el)
		return nil, ErrMiss
	}
	m.lru.MoveToFront(el)
	return e.raw, nil
}

func (m *Memory) save(_ context.Context, key string, raw []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		el.Value = &memEntry{key: key, raw: raw, expires: expires}
		m.lru.MoveToFront(el)
		return nil
	}
	m.items[key] = m.lru.PushFront(&memEntry{key: key, raw: raw, expires: expires})
	for m.lru.Len() > m.max {
		m.remove(m.lru.Back())
	}
	return nil
}

func (m *Memory) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*memEntry).key)
}
