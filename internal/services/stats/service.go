package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/rules"
)

const defaultCacheTTL = 30 * time.Second

type Counter interface {
	CountMatchedBetween(ctx context.Context, from, to time.Time) (int, error)
}

type Cache interface {
	GetInt(ctx context.Context, key string) (int, bool, error)
	SetInt(ctx context.Context, key string, value int, ttl time.Duration) error
}

type Config struct {
	Location *time.Location
	CacheTTL time.Duration
}

type Today struct {
	Date         string
	MatchedPairs int
}

type Service struct {
	counter Counter
	cache   Cache
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(counter Counter, cache Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		counter: counter,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Today counts pairs formed since local midnight. Each pair is one entry, so a matched or
// confirmed entry counts once. The cache is best effort.
func (s *Service) Today(ctx context.Context) (Today, error) {
	if s.counter == nil {
		return Today{}, fmt.Errorf("stats counter is nil")
	}

	now := s.now()
	day := rules.DayKey(now, s.cfg.Location)
	cacheKey := "stats:matched_pairs:" + day

	if s.cache != nil {
		value, ok, err := s.cache.GetInt(ctx, cacheKey)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			return Today{Date: day, MatchedPairs: value}, nil
		}
	}

	count, err := s.counter.CountMatchedBetween(ctx, rules.DayStart(now, s.cfg.Location), rules.NextResetAt(now, s.cfg.Location))
	if err != nil {
		return Today{}, fmt.Errorf("count today's pairs: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetInt(ctx, cacheKey, count, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}

	return Today{Date: day, MatchedPairs: count}, nil
}
