package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"poise/internal/domain/session"
	"poise/pkg/errors"
)

// ReportRepository persists final session reports in Redis with a
// retention TTL. Reports are immutable once written.
type ReportRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportRepository creates a new report repository
func NewReportRepository(client *redis.Client, ttl time.Duration) *ReportRepository {
	return &ReportRepository{
		client: client,
		ttl:    ttl,
	}
}

// SaveReport stores a session report under its session id
func (r *ReportRepository) SaveReport(ctx context.Context, report session.Report) error {
	key := r.getKey(report.SessionID)

	data, err := json.Marshal(report)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report: session_id=%s", report.SessionID)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save report to redis: session_id=%s", report.SessionID)
	}

	return nil
}

// GetReport retrieves a session report by session id
func (r *ReportRepository) GetReport(ctx context.Context, sessionID string) (*session.Report, error) {
	key := r.getKey(sessionID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "report not found: session_id=%s", sessionID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get report from redis: session_id=%s", sessionID)
	}

	var report session.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal report: session_id=%s", sessionID)
	}

	return &report, nil
}

// DeleteReport removes a stored report
func (r *ReportRepository) DeleteReport(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getKey(sessionID)).Err()
}

func (r *ReportRepository) getKey(sessionID string) string {
	return fmt.Sprintf("report:%s", sessionID)
}
