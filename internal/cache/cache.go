// Package cache holds participant stat-card values between recomputations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

// ErrMiss is returned by Get when nothing is cached for the participant.
var ErrMiss = errors.New("cache miss")

type StatsCache interface {
	Get(ctx context.Context, participantID int) (model.AttendanceStats, error)
	Set(ctx context.Context, stats model.AttendanceStats) error
	Invalidate(ctx context.Context, participantID int) error
}

func statsKey(participantID int) string {
	return "stats:participant:" + strconv.Itoa(participantID)
}

// RedisStatsCache stores stats as JSON with a fixed TTL.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context, participantID int) (model.AttendanceStats, error) {
	var stats model.AttendanceStats
	raw, err := c.rdb.Get(ctx, statsKey(participantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats, ErrMiss
	}
	if err != nil {
		return stats, fmt.Errorf("redis get stats: %w", err)
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		log.Warn().Err(err).Int("participant_id", participantID).Msg("discarding undecodable stats cache entry")
		return model.AttendanceStats{}, ErrMiss
	}
	return stats, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats model.AttendanceStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, statsKey(stats.ParticipantID), raw, c.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", statsKey(stats.ParticipantID)).Msg("failed to add stats to redis")
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, participantID int) error {
	if err := c.rdb.Del(ctx, statsKey(participantID)).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}
	return nil
}

// NopStatsCache never stores anything; every Get is a miss.
type NopStatsCache struct{}

func (NopStatsCache) Get(context.Context, int) (model.AttendanceStats, error) {
	return model.AttendanceStats{}, ErrMiss
}

func (NopStatsCache) Set(context.Context, model.AttendanceStats) error { return nil }

func (NopStatsCache) Invalidate(context.Context, int) error { return nil }
