package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// Exporter produces a tenant snapshot.
type Exporter interface {
	Export(ctx context.Context, tenant string) (snapshot.Snapshot, error)
}

type Options struct {
	Cache          cache.ProjectionCache
	Locker         cache.Locker
	Exporter       Exporter
	Logger         *zap.Logger
	ReportCacheTTL time.Duration
	ExportLockTTL  time.Duration
	Clock          func() time.Time
}

type Service struct {
	repo           store.Repository
	cache          cache.ProjectionCache
	locker         cache.Locker
	exporter       Exporter
	logger         *zap.Logger
	reportCacheTTL time.Duration
	exportLockTTL  time.Duration
	now            func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NoopProjectionCache{}
	}
	if opts.Locker == nil {
		opts.Locker = cache.NewMemoryLocker()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 15 * time.Second
	}
	if opts.ExportLockTTL <= 0 {
		opts.ExportLockTTL = 2 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Service{
		repo:           repo,
		cache:          opts.Cache,
		locker:         opts.Locker,
		exporter:       opts.Exporter,
		logger:         opts.Logger,
		reportCacheTTL: opts.ReportCacheTTL,
		exportLockTTL:  opts.ExportLockTTL,
		now:            opts.Clock,
	}
}

// committed runs after a successful engine write: the tenant's cached
// projections are dropped and the event is logged.
func (s *Service) committed(ctx context.Context, tenant string, event string, fields ...zap.Field) {
	if err := s.cache.Delete(ctx, cache.DashboardPattern(tenant)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("tenant", tenant), zap.Error(err))
	}
	s.logger.Info(event, append([]zap.Field{zap.String("tenant", tenant)}, fields...)...)
}
