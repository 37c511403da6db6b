package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"silenthope/pkg/cache"
	"silenthope/pkg/protocol"
)

// CodecMetrics counts frames through the call codec. It implements
// protocol.Recorder.
type CodecMetrics struct {
	encoded    *prometheus.CounterVec
	decoded    *prometheus.CounterVec
	wireBytes  *prometheus.CounterVec
	compressed prometheus.Counter
	rejected   *prometheus.CounterVec
}

var _ protocol.Recorder = (*CodecMetrics)(nil)

// NewCodecMetrics creates the codec counters and registers them with reg.
func NewCodecMetrics(reg prometheus.Registerer, namespace string) (*CodecMetrics, error) {
	m := &CodecMetrics{
		encoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "encoded_messages_total",
				Help:      "Messages encoded, by kind.",
			},
			[]string{"kind"},
		),
		decoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "decoded_messages_total",
				Help:      "Messages decoded, by kind.",
			},
			[]string{"kind"},
		),
		wireBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "wire_bytes_total",
				Help:      "Framed bytes produced or consumed.",
			},
			[]string{"direction"},
		),
		compressed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "compressed_messages_total",
				Help:      "Encoded messages whose payload was compressed.",
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "rejected_messages_total",
				Help:      "Decodes that failed, by reason.",
			},
			[]string{"reason"},
		),
	}
	for _, c := range []prometheus.Collector{m.encoded, m.decoded, m.wireBytes, m.compressed, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CodecMetrics) Encoded(kind protocol.Kind, wireBytes int, compressed bool) {
	m.encoded.WithLabelValues(kind.String()).Inc()
	m.wireBytes.WithLabelValues("out").Add(float64(wireBytes))
	if compressed {
		m.compressed.Inc()
	}
}

func (m *CodecMetrics) Decoded(kind protocol.Kind, wireBytes int) {
	m.decoded.WithLabelValues(kind.String()).Inc()
	m.wireBytes.WithLabelValues("in").Add(float64(wireBytes))
}

func (m *CodecMetrics) Rejected(err error) {
	m.rejected.WithLabelValues(protocol.RejectReason(err)).Inc()
}

// RegisterCacheGauges exposes c's counters as gauges read at scrape time.
func RegisterCacheGauges(reg prometheus.Registerer, namespace string, c *cache.Cache) error {
	gauge := func(name, help string, read func(cache.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "cache", Name: name, Help: help},
			func() float64 { return read(c.Stats()) },
		)
	}
	for _, g := range []prometheus.Collector{
		gauge("entries", "Live cache entries.", func(s cache.Stats) float64 { return float64(s.Entries) }),
		gauge("bytes", "Encoded bytes held by the cache.", func(s cache.Stats) float64 { return float64(s.Bytes) }),
		gauge("hits", "Cache lookups that found a value.", func(s cache.Stats) float64 { return float64(s.Hits) }),
		gauge("misses", "Cache lookups that found nothing.", func(s cache.Stats) float64 { return float64(s.Misses) }),
		gauge("hit_ratio", "Hits over lookups.", func(s cache.Stats) float64 { return s.HitRate() }),
	} {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
