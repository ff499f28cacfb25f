// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// セッションは参照時にも失効判定されるため、このジョブは
// 長時間参照されないセッションがメモリに残り続けるのを防ぐためのもの。
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Purger は期限切れエントリを削除し、削除件数を返すインターフェース。
// *session.Registry が満たす。
type Purger interface {
	PurgeExpired() int
}

// SessionSweepJob は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合も正常終了する。
type SessionSweepJob struct {
	sessions Purger
	logger   *slog.Logger
}

// NewSessionSweepJob は新しいSessionSweepJobを生成する。
func NewSessionSweepJob(sessions Purger, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{
		sessions: sessions,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除し、削除件数を返す。
func (j *SessionSweepJob) Run() int {
	start := time.Now()

	purged := j.sessions.PurgeExpired()

	duration := time.Since(start)
	j.logger.Info("期限切れセッションの削除が完了しました",
		slog.Int("purged_count", purged),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return purged
}

// Start は起動直後に1回実行し、その後interval間隔で実行を繰り返す。
// コンテキストがキャンセルされるまでブロックする。
func (j *SessionSweepJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッション削除ジョブを開始しました",
		slog.Duration("interval", interval),
	)

	j.Run()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッション削除ジョブを停止しました")
			return
		case <-ticker.C:
			j.Run()
		}
	}
}
