package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"poise/internal/domain/session"
	"poise/internal/metrics"
	ch "poise/pkg/clickhouse"
	"poise/pkg/errors"
)

// FeedbackRow is one analysis pass flattened for the analysis_frames
// table, partitioned by day and ordered by (session_id, ts).
type FeedbackRow struct {
	SessionID  string
	Timestamp  time.Time
	Body       float64
	Vocal      float64
	Content    float64
	Overall    float64
	Confidence float64
	Engagement float64
	TipCount   uint8
}

// FeedbackRepository streams per-pass feedback rows into ClickHouse for
// offline analytics. Writes are buffered; a slow ClickHouse never stalls
// an analysis pass.
type FeedbackRepository struct {
	conn   driver.Conn
	writer *ch.BatchWriter
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(conn driver.Conn) *FeedbackRepository {
	r := &FeedbackRepository{conn: conn}
	r.writer = ch.NewBatchWriter(ch.BatchWriterConfig{
		Table:     "analysis_frames",
		FlushFunc: r.flush,
	})
	return r
}

// Start begins background flushing
func (r *FeedbackRepository) Start(ctx context.Context) {
	r.writer.Start(ctx)
}

// Stop flushes remaining rows
func (r *FeedbackRepository) Stop(ctx context.Context) error {
	return r.writer.Stop(ctx)
}

// Health pings the backing connection
func (r *FeedbackRepository) Health(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

// WriteFeedback buffers one live feedback frame for insertion
func (r *FeedbackRepository) WriteFeedback(fb session.LiveFeedback) error {
	return r.writer.Add(context.Background(), FeedbackRow{
		SessionID:  fb.SessionID,
		Timestamp:  fb.Timestamp,
		Body:       fb.BodyLanguageScore,
		Vocal:      fb.VocalDeliveryScore,
		Content:    fb.ContentQualityScore,
		Overall:    fb.OverallScore,
		Confidence: fb.OverallConfidence,
		Engagement: fb.EngagementScore,
		TipCount:   uint8(len(fb.LiveTips)),
	})
}

func (r *FeedbackRepository) flush(ctx context.Context, batch []interface{}) error {
	start := time.Now()

	prepared, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_frames (
			session_id, ts, body_score, vocal_score, content_score,
			overall_score, confidence, engagement, tip_count
		)
	`)
	if err != nil {
		metrics.RecordSinkWrite("clickhouse", time.Since(start), err)
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, item := range batch {
		row, ok := item.(FeedbackRow)
		if !ok {
			continue
		}
		err := prepared.Append(
			row.SessionID, row.Timestamp, row.Body, row.Vocal, row.Content,
			row.Overall, row.Confidence, row.Engagement, row.TipCount,
		)
		if err != nil {
			metrics.RecordSinkWrite("clickhouse", time.Since(start), err)
			return errors.Wrap(err, "failed to append row")
		}
	}

	err = prepared.Send()
	metrics.RecordSinkWrite("clickhouse", time.Since(start), err)
	return err
}
