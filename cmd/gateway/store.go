package main

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AdmissionGate/pkg/config"
	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/breaker"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/cache"
	infraRateLimit "github.com/NeuralTrust/AdmissionGate/pkg/infra/ratelimit"
	"github.com/sirupsen/logrus"
)

// buildStore returns the single counter store shared by every request.
func buildStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.CounterStore, func(), error) {
	switch cfg.RateLimit.Store {
	case config.StoreRedis:
		redisClient, err := cache.NewClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		var store domain.CounterStore = infraRateLimit.NewRedisWindowStore(redisClient, nil)
		store = infraRateLimit.NewBreakerStore(store, breaker.NewCircuitBreaker(
			"redis-counter-store",
			cfg.RateLimit.BreakerTimeout,
			cfg.RateLimit.BreakerMaxFailures,
		))
		store = infraRateLimit.NewInstrumentedStore(store, config.StoreRedis)
		return store, func() { _ = redisClient.Close() }, nil

	case config.StoreMemory:
		memory := infraRateLimit.NewMemoryWindowStore(nil)
		memory.StartJanitor(ctx, cfg.RateLimit.JanitorInterval)
		logger.Warn("using in-process counter store: limits are not shared between instances")
		return infraRateLimit.NewInstrumentedStore(memory, config.StoreMemory), func() {}, nil

	case config.StoreMemoryFixed:
		fixed := infraRateLimit.NewFixedWindowStore(nil)
		fixed.StartJanitor(ctx, cfg.RateLimit.JanitorInterval)
		logger.Warn("using in-process fixed window store: limits are not shared between instances")
		return infraRateLimit.NewInstrumentedStore(fixed, config.StoreMemoryFixed), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown counter store '%s'", cfg.RateLimit.Store)
}
