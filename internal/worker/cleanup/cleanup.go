// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 有効期限を過ぎたsessionsレコードを定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPurger は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れセッションの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionPurger
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		logger:   logger,
	}
}

// Run は期限切れセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunPeriodically は指定間隔でRunを繰り返し実行する。
// コンテキストのキャンセルで停止する。サーバー起動時にゴルーチンとして呼ばれる。
func (j *CleanupJob) RunPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				// 次回のtickで再試行する
				j.logger.Warn("セッションクリーンアップをスキップしました",
					slog.String("error", err.Error()),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}
