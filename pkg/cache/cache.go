package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMiss = errors.New("cache: miss")

// Store keeps JSON encoded values. A zero ttl means no expiry.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Close() error
}

// Key joins parts with ':'.
func Key(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

// backend moves encoded bytes; every Store is a thin JSON layer over one.
type backend interface {
	load(ctx context.Context, key string) ([]byte, error)
	save(ctx context.Context, key string, b []byte, ttl time.Duration) error
}

func getJSON(ctx context.Context, b backend, key string, dest interface{}) error {
	raw, err := b.load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, b backend, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return b.save(ctx, key, raw, ttl)
}
