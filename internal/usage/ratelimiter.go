package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	burstKeyPrefix = "usage:minute:"
	windowDuration = 60 * time.Second
	keyTTL         = 90 * time.Second
)

// BurstLimiter implements a Redis sorted-set sliding window limiting how many
// generations a user may start per minute, on top of the daily quota.
type BurstLimiter struct {
	rdb redis.Cmdable
}

func NewBurstLimiter(rdb redis.Cmdable) *BurstLimiter {
	return &BurstLimiter{rdb: rdb}
}

// CheckAndIncrement checks whether the user is under the per-minute limit.
// If under limit, it increments the counter and returns true (allowed).
func (bl *BurstLimiter) CheckAndIncrement(ctx context.Context, userID uuid.UUID, maxPerMinute int) (bool, error) {
	key := burstKeyPrefix + userID.String()
	now := time.Now()
	nowMs := float64(now.UnixMilli())
	windowStart := float64(now.Add(-windowDuration).UnixMilli())

	pipe := bl.rdb.Pipeline()

	// Remove entries older than the window
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatFloat(windowStart, 'f', 0, 64))

	// Count current entries in the window
	countCmd := pipe.ZCard(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("burst limiter pipeline (clean+count): %w", err)
	}

	count := countCmd.Val()
	if count >= int64(maxPerMinute) {
		return false, nil
	}

	// Under limit: add new entry and set TTL
	pipe2 := bl.rdb.Pipeline()
	member := fmt.Sprintf("%d:%d", now.UnixNano(), count)
	pipe2.ZAdd(ctx, key, redis.Z{Score: nowMs, Member: member})
	pipe2.Expire(ctx, key, keyTTL)

	_, err = pipe2.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("burst limiter pipeline (add): %w", err)
	}

	return true, nil
}

// MinuteUsage returns the current number of generations in the sliding window.
func (bl *BurstLimiter) MinuteUsage(ctx context.Context, userID uuid.UUID) (int, error) {
	key := burstKeyPrefix + userID.String()
	now := time.Now()
	windowStart := float64(now.Add(-windowDuration).UnixMilli())
	nowMs := float64(now.UnixMilli())

	count, err := bl.rdb.ZCount(ctx, key, strconv.FormatFloat(windowStart, 'f', 0, 64), strconv.FormatFloat(nowMs, 'f', 0, 64)).Result()
	if err != nil {
		return 0, fmt.Errorf("getting minute usage: %w", err)
	}
	return int(count), nil
}
