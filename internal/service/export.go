package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
)

// ErrExportDisabled is returned when no exporter is configured.
var ErrExportDisabled = errors.New("snapshot export is not configured")

// ExportSnapshot builds the tenant snapshot. Only one export per tenant runs
// at a time; a concurrent call fails with cache.ErrLocked.
func (s *Service) ExportSnapshot(ctx context.Context, tenant string) (snapshot.Snapshot, error) {
	if s.exporter == nil {
		return snapshot.Snapshot{}, ErrExportDisabled
	}

	release, err := s.locker.Obtain(ctx, cache.ExportLockKey(tenant), s.exportLockTTL)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release export lock", zap.String("tenant", tenant), zap.Error(err))
		}
	}()

	snap, err := s.exporter.Export(ctx, tenant)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	s.logger.Info("snapshot exported",
		zap.String("tenant", tenant),
		zap.Int("tables", len(snap.Manifest.TablesExported)),
		zap.Int64("size_bytes", snap.Manifest.SizeBytes),
	)
	return snap, nil
}
