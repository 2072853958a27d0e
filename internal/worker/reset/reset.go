// Package reset は日次進捗のリセットジョブを提供する。
// 全ユーザーのtoday_progressを設定された時刻（デフォルト0時）に0へ戻す。
// ストリークや累積カウンターには一切影響しない。
package reset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/signage/internal/repository"
)

// DailyResetJob は日次進捗のリセットジョブ。
// 日次実行のバッチジョブとして設計されており、冪等なリセット処理を保証する。
type DailyResetJob struct {
	progressRepo repository.ProgressRepository
	logger       *slog.Logger
	ResetHour    int // リセット実行時刻（0〜23、デフォルト: 0）
}

// NewDailyResetJob は新しいDailyResetJobを生成する。
// デフォルトのリセット時刻は0時。
func NewDailyResetJob(progressRepo repository.ProgressRepository, logger *slog.Logger) *DailyResetJob {
	return &DailyResetJob{
		progressRepo: progressRepo,
		logger:       logger,
		ResetHour:    0,
	}
}

// Run は全ユーザーのtoday_progressを0に戻す。
// 冪等: 既に0のレコードがあってもエラーにならない。
func (j *DailyResetJob) Run(ctx context.Context) error {
	start := time.Now()

	resetCount, err := j.progressRepo.ResetTodayProgressAll(ctx)
	if err != nil {
		j.logger.Error("日次進捗リセットジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("日次進捗リセットの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("日次進捗リセットジョブが完了しました",
		slog.Int64("reset_count", resetCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// NextRun は現在時刻から次のリセット実行時刻を算出する。
// 本日のResetHourを過ぎている場合は翌日のResetHourを返す。
func (j *DailyResetJob) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), j.ResetHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
