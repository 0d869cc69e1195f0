package cache

import (
	"context"
	"time"

	"ventamax/backend/internal/domain"
)

type RateCache interface {
	Get(ctx context.Context, key string) (*domain.ExchangeRate, bool, error)
	Set(ctx context.Context, key string, value *domain.ExchangeRate, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type NoopRateCache struct{}

func (NoopRateCache) Get(_ context.Context, _ string) (*domain.ExchangeRate, bool, error) {
	return nil, false, nil
}

func (NoopRateCache) Set(_ context.Context, _ string, _ *domain.ExchangeRate, _ time.Duration) error {
	return nil
}

func (NoopRateCache) Delete(_ context.Context, _ string) error {
	return nil
}
