package conversion

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docfoxhq/DocFox/internal/pkg/cache"
)

const (
	jobStatusKeyFormat    = "conversion:status:%d:%s" // owner id + job uuid
	jobStatusTTL          = 24 * time.Hour
	processingDeadlineKey = "conversion:processing:deadlines"
)

// StatusMirror is the fast-path status store consulted by polling clients
// before falling back to the database, plus the deadline index the timeout
// sweeper scans. Status keys are scoped by owner so a mirror hit never
// crosses user boundaries.
type StatusMirror interface {
	SetJobStatus(ctx context.Context, userID uint, jobUUID, status string) error
	GetJobStatus(ctx context.Context, userID uint, jobUUID string) (string, error)
	AddProcessingDeadline(ctx context.Context, jobUUID string, deadline time.Time) error
	RemoveProcessingDeadline(ctx context.Context, jobUUID string) error
	DueProcessingJobs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// RedisStatusMirror stores job status strings with a TTL and keeps a sorted
// set of processing deadlines scored by unix time.
type RedisStatusMirror struct {
	client *redis.Client
}

func NewRedisStatusMirror() *RedisStatusMirror {
	return &RedisStatusMirror{client: cache.GetClient()}
}

func (m *RedisStatusMirror) SetJobStatus(ctx context.Context, userID uint, jobUUID, status string) error {
	key := fmt.Sprintf(jobStatusKeyFormat, userID, jobUUID)
	return m.client.Set(ctx, key, status, jobStatusTTL).Err()
}

// GetJobStatus returns "" without error when no mirror entry exists
func (m *RedisStatusMirror) GetJobStatus(ctx context.Context, userID uint, jobUUID string) (string, error) {
	key := fmt.Sprintf(jobStatusKeyFormat, userID, jobUUID)
	status, err := m.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func (m *RedisStatusMirror) AddProcessingDeadline(ctx context.Context, jobUUID string, deadline time.Time) error {
	return m.client.ZAdd(ctx, processingDeadlineKey, redis.Z{
		Score:  float64(deadline.Unix()),
		Member: jobUUID,
	}).Err()
}

func (m *RedisStatusMirror) RemoveProcessingDeadline(ctx context.Context, jobUUID string) error {
	return m.client.ZRem(ctx, processingDeadlineKey, jobUUID).Err()
}

// DueProcessingJobs returns jobs whose processing deadline has passed
func (m *RedisStatusMirror) DueProcessingJobs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return m.client.ZRangeByScore(ctx, processingDeadlineKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.Unix()),
		Count: int64(limit),
	}).Result()
}
