package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "costcast:oracle:st37:24".
	Prefix string
}

// Redis is the shared store used when several replicas serve estimates.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects and pings within ctx.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, prefix: cfg.Prefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) error {
	return getJSON(ctx, r, key, dest)
}

func (r *Redis) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	return setJSON(ctx, r, key, v, ttl)
}

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) load(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

func (r *Redis) save(ctx context.Context, key string, raw []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(key), raw, ttl).Err()
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}
