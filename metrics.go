package paracord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics instruments the mutating path of an Interner, the way
// internal/accounts/shard_manager.go's ShardMetrics instruments the
// teacher's account shard manager: a small promauto-registered bundle
// created once in the constructor and updated inline. TryGet, Resolve, Len,
// and IsEmpty stay uninstrumented: they are meant to remain pure,
// allocation-free reads on the hot path.
type metrics struct {
	internTotal      prometheus.Counter
	internNewTotal   prometheus.Counter
	internErrors     *prometheus.CounterVec
	internDuration   prometheus.Histogram
	collisionsTotal  prometheus.Counter
	shardResizeTotal prometheus.Counter
	entries          prometheus.GaugeFunc
}

func newMetrics(reg prometheus.Registerer, lenFn func() float64) *metrics {
	f := promauto.With(reg)
	return &metrics{
		internTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "paracord_intern_total",
			Help: "Total number of Intern calls, hit or miss.",
		}),
		internNewTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "paracord_intern_new_total",
			Help: "Total number of Intern calls that allocated a new slot.",
		}),
		internErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paracord_intern_errors_total",
			Help: "Total number of Intern calls that returned an error, by category.",
		}, []string{"reason"}),
		internDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "paracord_intern_duration_seconds",
			Help:    "Latency of Intern calls, covering both hits and new-slot inserts.",
			Buckets: prometheus.DefBuckets,
		}),
		collisionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "paracord_fingerprint_collisions_total",
			Help: "Total number of probes where two distinct byte-strings shared a fingerprint within a shard.",
		}),
		shardResizeTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "paracord_shard_resize_total",
			Help: "Total number of shard table resizes across all shards.",
		}),
		entries: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "paracord_entries",
			Help: "Current number of distinct interned byte-strings.",
		}, lenFn),
	}
}
