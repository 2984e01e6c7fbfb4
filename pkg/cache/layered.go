package cache

import (
	"context"
	"time"
)

// Layered fronts a shared store with a process-local LRU. Writes go
// through to both; L1 entries live at most l1TTL so replicas converge.
type Layered struct {
	l1    *Memory
	l2    backend
	close func() error
	l1TTL time.Duration
}

func NewLayered(l2 *Redis, l1Size int, l1TTL time.Duration) *Layered {
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}
	return &Layered{l1: NewMemory(l1Size), l2: l2, close: l2.Close, l1TTL: l1TTL}
}

func (c *Layered) Get(ctx context.Context, key string, dest interface{}) error {
	return getJSON(ctx, c, key, dest)
}

func (c *Layered) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	return setJSON(ctx, c, key, v, ttl)
}

func (c *Layered) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func (c *Layered) load(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.l1.load(ctx, key)
	if err == nil {
		return raw, nil
	}
	raw, err = c.l2.load(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = c.l1.save(ctx, key, raw, c.l1TTL)
	return raw, nil
}

func (c *Layered) save(ctx context.Context, key string, raw []byte, ttl time.Duration) error {
	if err := c.l2.save(ctx, key, raw, ttl); err != nil {
		return err
	}
	return c.l1.save(ctx, key, raw, c.localTTL(ttl))
}

func (c *Layered) localTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < c.l1TTL {
		return ttl
	}
	return c.l1TTL
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*Layered)(nil)
)
