package paracord

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Aidin1998/paracord/internal/fingerprint"
	"github.com/Aidin1998/paracord/internal/shardindex"
)

// Option configures a new Interner or StringInterner.
type Option func(*config)

type config struct {
	shardCount      int
	initialCapacity int
	hasher          fingerprint.Hasher
	logger          *zap.Logger
	registerer      prometheus.Registerer
}

func defaultConfig() config {
	return config{
		shardCount:      defaultShardCount(),
		initialCapacity: 16,
		hasher:          fingerprint.Default,
		logger:          zap.NewNop(),
		registerer:      nil,
	}
}

// defaultShardCount scales with available parallelism: the next power of
// two at least 4x GOMAXPROCS, capped so a single-process build on a huge
// machine doesn't allocate thousands of mostly-empty shards.
func defaultShardCount() int {
	n := runtime.GOMAXPROCS(0) * 4
	const cap = 256
	if n > cap {
		n = cap
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// WithShardCount overrides the number of index shards. It is rounded up to
// the next power of two by the underlying shard index.
func WithShardCount(n int) Option {
	return func(c *config) { c.shardCount = n }
}

// WithInitialShardCapacity pre-sizes every shard's hash table, useful when
// the approximate final vocabulary size is known ahead of time.
func WithInitialShardCapacity(n int) Option {
	return func(c *config) { c.initialCapacity = n }
}

// WithHasher overrides the fingerprint hash used to place and compare
// entries. The default is xxhash.
func WithHasher(h fingerprint.Hasher) Option {
	return func(c *config) { c.hasher = h }
}

// WithLogger attaches a zap logger. Interning failures and poison events are
// logged at Warn/Error; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsRegisterer enables Prometheus instrumentation of the Intern
// path, registering collectors against reg. Metrics are disabled by default
// since a library shouldn't register into prometheus.DefaultRegisterer
// unasked.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

func (c config) shardIndexOptions() []shardindex.Option {
	return []shardindex.Option{
		shardindex.WithShardCount(c.shardCount),
		shardindex.WithInitialCapacity(c.initialCapacity),
		shardindex.WithHasher(c.hasher),
	}
}
