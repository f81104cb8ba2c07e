package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/humna-mustafa/pakuni-api/internal/models"
	appErrors "github.com/humna-mustafa/pakuni-api/pkg/errors"
)

const statisticsCacheKey = "moderation:statistics"

type statisticsStore interface {
	Statistics(ctx context.Context) (*models.ModerationStatistics, error)
}

// StatisticsService serves pipeline statistics to the admin dashboard,
// caching the aggregate for a short TTL.
type StatisticsService struct {
	repo   statisticsStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatisticsService constructs the service.
func NewStatisticsService(repo statisticsStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &StatisticsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Get returns moderation statistics and whether the cache served them.
func (s *StatisticsService) Get(ctx context.Context) (*models.ModerationStatistics, bool, error) {
	var cached models.ModerationStatistics
	if hit, err := s.cache.Get(ctx, statisticsCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	if err := s.cache.Set(ctx, statisticsCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache statistics", zap.Error(err))
	}
	return stats, false, nil
}

// InvalidateCache drops the cached aggregate after a review decision so the
// dashboard converges quickly.
func (s *StatisticsService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statisticsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.Error(err))
	}
}
