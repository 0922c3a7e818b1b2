package cache

import (
	"context"
	"time"
)

// ProjectionCache stores JSON-encoded report projections per tenant.
type ProjectionCache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type NoopProjectionCache struct{}

func (NoopProjectionCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopProjectionCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopProjectionCache) Delete(_ context.Context, _ ...string) error {
	return nil
}

// DashboardKey is the cache key of a tenant's dashboard for one day.
func DashboardKey(tenant string, day string) string {
	return "dashboard:" + tenant + ":" + day
}

// DashboardPattern matches every cached dashboard day of a tenant.
func DashboardPattern(tenant string) string {
	return "dashboard:" + tenant + ":*"
}
