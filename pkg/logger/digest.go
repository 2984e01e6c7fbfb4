package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Publisher ships a digest batch; *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, v interface{}) error
}

type DigestConfig struct {
	// Interval between two flushes.
	Interval time.Duration
	// MaxEntries distinct errors trigger an early flush.
	MaxEntries int
	Topic      string
	Publisher  Publisher
}

// DigestEntry is one distinct error, identified by message and call site.
// Fields are those of the latest occurrence.
type DigestEntry struct {
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// DigestBatch is the message published on every flush.
type DigestBatch struct {
	Service string        `json:"service"`
	Flushed time.Time     `json:"flushed"`
	Entries []DigestEntry `json:"entries"`
}

// Digest folds repeated error logs so a failing dependency produces one
// counted entry per flush instead of one message per request.
type Digest struct {
	cfg DigestConfig

	mu      sync.Mutex
	entries map[string]*DigestEntry
	order   []string

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewDigest(cfg DigestConfig) *Digest {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100
	}
	d := &Digest{
		cfg:     cfg,
		entries: make(map[string]*DigestEntry),
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Digest) add(msg, at string, fields []Field) {
	now := time.Now().UTC()
	key := at + "|" + msg

	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok {
		e = &DigestEntry{Message: msg, Caller: at, FirstSeen: now}
		d.entries[key] = e
		d.order = append(d.order, key)
	}
	e.Count++
	e.LastSeen = now
	if len(fields) > 0 {
		e.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			e.Fields[f.Key] = f.plain()
		}
	}
	full := len(d.entries) >= d.cfg.MaxEntries
	d.mu.Unlock()

	if full {
		select {
		case d.kick <- struct{}{}:
		default:
		}
	}
}

func (d *Digest) loop() {
	defer close(d.done)
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-d.kick:
		case <-d.stop:
			d.flush()
			return
		}
		d.flush()
	}
}

func (d *Digest) take() []DigestEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.order) == 0 {
		return nil
	}
	out := make([]DigestEntry, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, *d.entries[k])
	}
	d.entries = make(map[string]*DigestEntry)
	d.order = nil
	return out
}

func (d *Digest) flush() {
	entries := d.take()
	if entries == nil || d.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	batch := DigestBatch{Service: "costcast", Flushed: time.Now().UTC(), Entries: entries}
	if err := d.cfg.Publisher.Publish(ctx, d.cfg.Topic, nil, batch); err != nil {
		// Logging here would feed the digest itself.
		fmt.Fprintf(os.Stderr, "log digest: publish %d entries: %v\n", len(entries), err)
	}
}

// Close publishes what is pending and stops the flush loop.
func (d *Digest) Close() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	<-d.done
}

// caller renders the frame skip levels up the stack as "dir/file.go:line";
// caller(0) is caller itself.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s/%s:%d", filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
}
