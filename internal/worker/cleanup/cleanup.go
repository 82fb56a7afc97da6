// Package cleanup はアップロードされた検査ファイルの自動削除ジョブを提供する。
// 解析に使われた一時ファイルは保持期間（デフォルト24時間）を超えると削除される。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exammine/exammine/internal/metrics"
	"github.com/exammine/exammine/internal/upload"
)

const (
	// DefaultRetention はアップロードの保持期間のデフォルト値。
	DefaultRetention = 24 * time.Hour
	// DefaultInterval は削除ジョブの実行間隔のデフォルト値。
	DefaultInterval = time.Hour
)

// CleanupJob は保持期間を超過したアップロードの削除ジョブ。
// 削除対象がなくてもエラーにならない。
type CleanupJob struct {
	store     upload.Store
	logger    *slog.Logger
	metrics   metrics.MetricsCollector
	Retention time.Duration
	now       func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionが0以下の場合はDefaultRetentionを使い、cutoffが現在時刻より未来にならないようにする。
func NewCleanupJob(store upload.Store, retention time.Duration, collector metrics.MetricsCollector, logger *slog.Logger) *CleanupJob {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &CleanupJob{
		store:     store,
		logger:    logger,
		metrics:   collector,
		Retention: retention,
		now:       time.Now,
	}
}

// Run は保持期間を超過したアップロードを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.Retention)

	deleted, err := j.store.PurgeOlderThan(ctx, cutoff)
	if deleted > 0 {
		j.metrics.RecordUploadsPurged(deleted)
	}
	if err != nil {
		j.logger.Error("アップロードのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("deleted_count", deleted),
			slog.Duration("retention", j.Retention),
		)
		return fmt.Errorf("アップロードのクリーンアップに失敗: %w", err)
	}

	j.logger.Info("アップロードのクリーンアップが完了しました",
		slog.Int("deleted_count", deleted),
		slog.Duration("retention", j.Retention),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、以降はintervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。intervalが0以下の場合はDefaultIntervalを使う。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("retention", j.Retention),
	)

	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
