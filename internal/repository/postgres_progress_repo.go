package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/signage/internal/model"
)

// PostgresProgressRepo はPostgreSQLを使用した学習進捗リポジトリ。
type PostgresProgressRepo struct {
	db *sql.DB
}

// NewPostgresProgressRepo はPostgresProgressRepoを生成する。
func NewPostgresProgressRepo(db *sql.DB) *PostgresProgressRepo {
	return &PostgresProgressRepo{db: db}
}

// FindByUserID は指定ユーザーの進捗レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresProgressRepo) FindByUserID(ctx context.Context, userID string) (*model.Progress, error) {
	p := &model.Progress{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, completed_lessons, current_lesson, in_progress_lessons,
		        total_score, total_stars, streak, longest_streak, today_progress,
		        last_practice_date, total_practice_time, lessons_completed,
		        signs_learned, practice_sessions_count, average_accuracy,
		        best_accuracy, updated_at
		 FROM user_progress WHERE user_id = $1`,
		userID,
	).Scan(
		&p.UserID, pq.Array(&p.CompletedLessons), &p.CurrentLesson, pq.Array(&p.InProgressLessons),
		&p.TotalScore, &p.TotalStars, &p.Streak, &p.LongestStreak, &p.TodayProgress,
		&p.LastPracticeDate, &p.TotalPracticeTime, &p.LessonsCompleted,
		&p.SignsLearned, &p.PracticeSessionsCount, &p.AverageAccuracy,
		&p.BestAccuracy, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find progress by user ID: %w", err)
	}

	return p, nil
}

// CompleteLesson はレッスン完了を単一トランザクションで記録する。
// カウンター加算とストリーク更新を1コミットで適用し、部分適用の窓を作らない。
func (r *PostgresProgressRepo) CompleteLesson(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		completedLessons []string
		streak           int
		longestStreak    int
		lastPractice     *time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT completed_lessons, streak, longest_streak, last_practice_date
		 FROM user_progress WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(pq.Array(&completedLessons), &streak, &longestStreak, &lastPractice)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock progress row: %w", err)
	}

	// 完了済みレッスンの再送は冪等: カウンターもストリークも変更しない
	for _, id := range completedLessons {
		if id == lessonID {
			return &model.LessonCompletionResult{
				AlreadyCompleted: true,
				Streak:           streak,
				LongestStreak:    longestStreak,
			}, nil
		}
	}

	newStreak := model.NextStreak(lastPractice, now, streak)
	newLongest := model.NextLongestStreak(newStreak, longestStreak)

	_, err = tx.ExecContext(ctx,
		`UPDATE user_progress
		 SET completed_lessons = array_append(completed_lessons, $2),
		     total_score = total_score + $3,
		     total_stars = total_stars + $4,
		     lessons_completed = lessons_completed + 1,
		     signs_learned = signs_learned + $5,
		     streak = $6,
		     longest_streak = $7,
		     last_practice_date = $8,
		     updated_at = $8
		 WHERE user_id = $1`,
		userID, lessonID, score, stars, signsLearned, newStreak, newLongest, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply lesson completion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &model.LessonCompletionResult{
		AlreadyCompleted: false,
		Streak:           newStreak,
		LongestStreak:    newLongest,
	}, nil
}

// UpdateStreak はストリークを再計算して永続化する。
// last_practice_dateには切り詰めない現在時刻を保存する。次回呼び出しの
// 日単位比較はこの時刻から計算される。
func (r *PostgresProgressRepo) UpdateStreak(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		streak        int
		longestStreak int
		lastPractice  *time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT streak, longest_streak, last_practice_date
		 FROM user_progress WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&streak, &longestStreak, &lastPractice)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock progress row: %w", err)
	}

	newStreak := model.NextStreak(lastPractice, now, streak)
	newLongest := model.NextLongestStreak(newStreak, longestStreak)

	_, err = tx.ExecContext(ctx,
		`UPDATE user_progress
		 SET streak = $2, longest_streak = $3, last_practice_date = $4, updated_at = $4
		 WHERE user_id = $1`,
		userID, newStreak, newLongest, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &model.StreakResult{Streak: newStreak, LongestStreak: newLongest}, nil
}

// SetTodayProgress は本日の進捗率を設定する。対象レコードが存在しない場合はfalseを返す。
func (r *PostgresProgressRepo) SetTodayProgress(ctx context.Context, userID string, percent int, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_progress SET today_progress = $2, updated_at = $3 WHERE user_id = $1`,
		userID, percent, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set today progress: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AddPracticeTime は練習時間（分）を加算し、練習セッション数を1増やす。
// 加算はSQL側の式で行い、同時リクエストでも更新を失わない。
func (r *PostgresProgressRepo) AddPracticeTime(ctx context.Context, userID string, minutes int, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_progress
		 SET total_practice_time = total_practice_time + $2,
		     practice_sessions_count = practice_sessions_count + 1,
		     updated_at = $3
		 WHERE user_id = $1`,
		userID, minutes, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add practice time: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ResetTodayProgressAll は全ユーザーのtoday_progressを0に戻す。
func (r *PostgresProgressRepo) ResetTodayProgressAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_progress SET today_progress = 0, updated_at = now() WHERE today_progress <> 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset today progress: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ ProgressRepository = (*PostgresProgressRepo)(nil)
