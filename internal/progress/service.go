// Package progress は学習進捗とストリークのドメインロジックを提供する。
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/signage/internal/metrics"
	"github.com/hitoshi/signage/internal/model"
	"github.com/hitoshi/signage/internal/repository"
)

// Service は学習進捗のサービス層。
// レッスン完了、ストリーク、日次進捗、練習時間のビジネスロジックを提供する。
type Service struct {
	progressRepo repository.ProgressRepository
	collector    metrics.MetricsCollector
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// nowには通常time.Nowを渡す。テストでは固定クロックを注入する。
// collectorはnilでもよい（メトリクス収集なしで動作する）。
func NewService(
	progressRepo repository.ProgressRepository,
	collector metrics.MetricsCollector,
	now func() time.Time,
) *Service {
	return &Service{
		progressRepo: progressRepo,
		collector:    collector,
		now:          now,
	}
}

// GetProgress は指定ユーザーの進捗レコード全体を取得する。
func (s *Service) GetProgress(ctx context.Context, userID string) (*model.Progress, error) {
	progress, err := s.progressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}
	if progress == nil {
		return nil, model.NewUserNotFoundError()
	}
	return progress, nil
}

// CompletedLessons は完了済みレッスンIDの一覧を取得する。
// 進捗レコードが存在しない場合はエラーではなく空のスライスを返す。
func (s *Service) CompletedLessons(ctx context.Context, userID string) ([]string, error) {
	progress, err := s.progressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}
	if progress == nil || progress.CompletedLessons == nil {
		return []string{}, nil
	}
	return progress.CompletedLessons, nil
}

// CompleteLesson はレッスン完了を記録する。
// 同一レッスンの2回目以降の報告は何も変更しない（冪等）。
// カウンター加算とストリーク再計算は単一トランザクションで適用される。
func (s *Service) CompleteLesson(ctx context.Context, userID, lessonID string, score, stars, signsLearned int) (*model.LessonCompletionResult, error) {
	if lessonID == "" {
		return nil, model.NewInvalidInputError("lessonIdは必須です")
	}
	if score < 0 || stars < 0 || signsLearned < 0 {
		return nil, model.NewInvalidInputError("score/stars/signsLearnedは0以上である必要があります")
	}

	result, err := s.progressRepo.CompleteLesson(ctx, userID, lessonID, score, stars, signsLearned, s.now())
	if err != nil {
		return nil, fmt.Errorf("レッスン完了の記録に失敗しました: %w", err)
	}
	if result == nil {
		return nil, model.NewUserNotFoundError()
	}

	if result.AlreadyCompleted {
		if s.collector != nil {
			s.collector.RecordLessonReplayed(lessonID)
		}
		slog.Info("完了済みレッスンへの報告を受理しました",
			slog.String("user_id", userID),
			slog.String("lesson_id", lessonID),
		)
		return result, nil
	}

	if s.collector != nil {
		s.collector.RecordLessonCompleted(lessonID)
	}
	slog.Info("レッスン完了を記録しました",
		slog.String("user_id", userID),
		slog.String("lesson_id", lessonID),
		slog.Int("streak", result.Streak),
	)

	return result, nil
}

// UpdateStreak はストリークを再計算して永続化する。
// 最終練習日との日差に応じて継続・延長・リセットが決まる。
func (s *Service) UpdateStreak(ctx context.Context, userID string) (*model.StreakResult, error) {
	result, err := s.progressRepo.UpdateStreak(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("ストリークの更新に失敗しました: %w", err)
	}
	if result == nil {
		return nil, model.NewUserNotFoundError()
	}

	if s.collector != nil {
		s.collector.RecordStreakUpdated()
		if result.Streak == 1 {
			s.collector.RecordStreakReset()
		}
	}

	slog.Info("ストリークを更新しました",
		slog.String("user_id", userID),
		slog.Int("streak", result.Streak),
		slog.Int("longest_streak", result.LongestStreak),
	)

	return result, nil
}

// GetStreak はストリーク情報を取得する。
// 進捗レコードが存在しない場合はエラーではなくゼロ値を返す。
func (s *Service) GetStreak(ctx context.Context, userID string) (*model.StreakInfo, error) {
	progress, err := s.progressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}
	if progress == nil {
		return &model.StreakInfo{}, nil
	}
	return &model.StreakInfo{
		Streak:           progress.Streak,
		LongestStreak:    progress.LongestStreak,
		LastPracticeDate: progress.LastPracticeDate,
	}, nil
}

// UpdateTodayProgress は本日の進捗率を設定する。
// 値は0〜100の範囲にクランプされる。
func (s *Service) UpdateTodayProgress(ctx context.Context, userID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	found, err := s.progressRepo.SetTodayProgress(ctx, userID, percent, s.now())
	if err != nil {
		return fmt.Errorf("本日の進捗の更新に失敗しました: %w", err)
	}
	if !found {
		return model.NewUserNotFoundError()
	}

	return nil
}

// AddPracticeTime は練習時間（分）を加算し、練習セッション数を1増やす。
// 負の値は入力エラーとなる。
func (s *Service) AddPracticeTime(ctx context.Context, userID string, minutes int) error {
	if minutes < 0 {
		return model.NewInvalidInputError("minutesは0以上である必要があります")
	}

	found, err := s.progressRepo.AddPracticeTime(ctx, userID, minutes, s.now())
	if err != nil {
		return fmt.Errorf("練習時間の記録に失敗しました: %w", err)
	}
	if !found {
		return model.NewUserNotFoundError()
	}

	if s.collector != nil {
		s.collector.RecordPracticeMinutes(minutes)
	}

	return nil
}
