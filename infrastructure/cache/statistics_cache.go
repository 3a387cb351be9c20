package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
)

// Config holds cache settings.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RedisStatisticsCache caches computed statistics rollups with a short TTL.
// A missing or unreadable key is reported as a nil result, never an error
// the caller has to distinguish.
type RedisStatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatisticsCache creates the cache.
func NewRedisStatisticsCache(client *redis.Client, ttl time.Duration) *RedisStatisticsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStatisticsCache{client: client, ttl: ttl}
}

func assessmentKey(id uuid.UUID) string {
	return "stats:assessment:" + id.String()
}

func threatModelKey(id uuid.UUID) string {
	return "stats:threat_model:" + id.String()
}

func (c *RedisStatisticsCache) GetAssessment(ctx context.Context, id uuid.UUID) (*service.AssessmentStatistics, error) {
	data, err := c.client.Get(ctx, assessmentKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get")
	}
	var stats service.AssessmentStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, nil
	}
	return &stats, nil
}

func (c *RedisStatisticsCache) SetAssessment(ctx context.Context, stats *service.AssessmentStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "cache marshal")
	}
	return c.client.Set(ctx, assessmentKey(stats.AssessmentID), data, c.ttl).Err()
}

func (c *RedisStatisticsCache) InvalidateAssessment(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, assessmentKey(id)).Err()
}

func (c *RedisStatisticsCache) GetThreatModel(ctx context.Context, id uuid.UUID) (*service.ThreatModelStatistics, error) {
	data, err := c.client.Get(ctx, threatModelKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get")
	}
	var stats service.ThreatModelStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, nil
	}
	return &stats, nil
}

func (c *RedisStatisticsCache) SetThreatModel(ctx context.Context, stats *service.ThreatModelStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "cache marshal")
	}
	return c.client.Set(ctx, threatModelKey(stats.ModelID), data, c.ttl).Err()
}

func (c *RedisStatisticsCache) InvalidateThreatModel(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, threatModelKey(id)).Err()
}
