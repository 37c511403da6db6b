package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"silenthope/pkg/cache"
	"silenthope/pkg/chain"
	"silenthope/pkg/config"
	"silenthope/pkg/observability"
	"silenthope/pkg/protocol"
	"silenthope/pkg/protocol/codec"
)

// app holds the components every subcommand works with.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	comp  *protocol.Compressor
	calls *protocol.CallCodec
	cache *cache.Cache
	chain *chain.Resolver

	// registry is nil unless metrics are enabled
	registry *prometheus.Registry
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	reg, err := codec.NewRegistry()
	if err != nil {
		return nil, err
	}
	ser, err := reg.Lookup(cfg.Protocol.Serializer)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg: cfg,
		log: log,
		comp: &protocol.Compressor{
			Level:           cfg.Protocol.CompressionLevel,
			MaxDecompressed: int64(cfg.Protocol.MaxPayloadBytes),
			MinBytes:        cfg.Protocol.CompressMinBytes,
		},
	}

	var rec protocol.Recorder
	if cfg.Metrics.Enable {
		a.registry = prometheus.NewRegistry()
		m, err := observability.NewCodecMetrics(a.registry, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("codec metrics: %w", err)
		}
		rec = m
	}

	a.calls, err = protocol.NewCallCodec(protocol.CallOptions{
		Serializer:    ser,
		Compressor:    a.comp,
		CompressAbove: cfg.Protocol.CallCompressBytes,
		Logger:        log.Named("codec"),
		Recorder:      rec,
	})
	if err != nil {
		return nil, err
	}

	a.cache, err = cache.New(cache.Options{
		Shards:   cfg.Cache.Shards,
		MaxBytes: cfg.Cache.MaxBytes,
		TTL:      cfg.Cache.TTL,
		Codec:    ser,
		Logger:   log.Named("cache"),
	})
	if err != nil {
		return nil, err
	}
	if a.registry != nil {
		if err := observability.RegisterCacheGauges(a.registry, cfg.Metrics.Namespace, a.cache); err != nil {
			a.cache.Close()
			return nil, fmt.Errorf("cache metrics: %w", err)
		}
	}
	a.chain = chain.New(a.cache, chain.Options{Logger: log.Named("chain")})

	log.Debug("app ready",
		zap.String("serializer", ser.ContentType()),
		zap.Int("compression_level", cfg.Protocol.CompressionLevel),
		zap.Bool("metrics", cfg.Metrics.Enable))
	return a, nil
}

func (a *app) Close() {
	a.cache.Close()
	_ = a.log.Sync()
}
