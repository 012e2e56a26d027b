// Package cache memoizes parse results for hosts that re-parse the same
// buffer many times, such as a REPL highlighter running on every keypress.
package cache

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/nuparse/core/invariant"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/runtime/parser"
)

// DefaultSize is the entry limit used when New is given a size <= 0.
const DefaultSize = 256

// Key identifies one parse: the source text under one registry generation.
type Key [blake2b.Size256]byte

// KeyFor hashes src together with the registry generation, so publishing
// new signatures invalidates every earlier entry.
func KeyFor(src string, generation uint64) Key {
	h, _ := blake2b.New256(nil)
	var gen [8]byte
	binary.LittleEndian.PutUint64(gen[:], generation)
	h.Write(gen[:])
	h.Write([]byte(src))

	var k Key
	h.Sum(k[:0])
	return k
}

// Registry is a signature lookup that knows its generation.
type Registry interface {
	signature.Lookup
	Generation() uint64
}

// Stats counts cache traffic.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Cache is a bounded LRU of parse trees, safe for concurrent use. Cached
// trees are shared between callers and must be treated as read-only. Parser
// options are not part of the key; use one option set per cache.
type Cache struct {
	entries *lru.Cache
	opts    []parser.ParserOpt
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithParserOptions sets the options every cached parse runs with.
func WithParserOptions(opts ...parser.ParserOpt) Option {
	return func(c *Cache) {
		c.opts = append(c.opts, opts...)
	}
}

// WithLogger logs evictions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New returns a cache holding at most size trees.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c := &Cache{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}

	entries, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		k := key.(Key)
		c.logger.Debug("parse cache eviction", "key", fmt.Sprintf("%x", k[:6]))
	})
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Parse returns the cached tree for src under reg, parsing on a miss.
func (c *Cache) Parse(src string, reg Registry) *parser.ParseTree {
	invariant.NotNil(reg, "registry")
	key := KeyFor(src, reg.Generation())
	if v, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return v.(*parser.ParseTree)
	}
	c.misses.Add(1)

	tree := parser.Parse(src, reg, c.opts...)
	c.entries.Add(key, tree)
	return tree
}

// Stats reports hits, misses and the current entry count.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
	}
}

// Purge drops every entry. The counters are kept.
func (c *Cache) Purge() {
	c.entries.Purge()
}
