package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/signage/internal/model"
)

// PostgresSettingsRepo はPostgreSQLを使用したユーザー設定リポジトリ。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
func (r *PostgresSettingsRepo) FindByUserID(ctx context.Context, userID string) (*model.Settings, error) {
	s := &model.Settings{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, practice_reminders, achievement_notifications, sound_enabled,
		        music_enabled, haptic_enabled, theme, language, daily_goal,
		        difficulty_level, updated_at
		 FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(
		&s.UserID, &s.PracticeReminders, &s.AchievementNotifications, &s.SoundEnabled,
		&s.MusicEnabled, &s.HapticEnabled, &s.Theme, &s.Language, &s.DailyGoal,
		&s.DifficultyLevel, &s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find settings by user ID: %w", err)
	}

	return s, nil
}

// ApplyPatch は設定の部分更新を適用する。nilフィールドは既存値を維持する。
// SET句は指定されたフィールドからのみ組み立てる。
func (r *PostgresSettingsRepo) ApplyPatch(ctx context.Context, userID string, patch *model.SettingsPatch, now time.Time) (bool, error) {
	query := `UPDATE user_settings SET updated_at = $2`
	args := []any{userID, now}

	appendSet := func(column string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(", %s = $%d", column, len(args))
	}

	if patch.PracticeReminders != nil {
		appendSet("practice_reminders", *patch.PracticeReminders)
	}
	if patch.AchievementNotifications != nil {
		appendSet("achievement_notifications", *patch.AchievementNotifications)
	}
	if patch.SoundEnabled != nil {
		appendSet("sound_enabled", *patch.SoundEnabled)
	}
	if patch.MusicEnabled != nil {
		appendSet("music_enabled", *patch.MusicEnabled)
	}
	if patch.HapticEnabled != nil {
		appendSet("haptic_enabled", *patch.HapticEnabled)
	}
	if patch.Theme != nil {
		appendSet("theme", *patch.Theme)
	}
	if patch.Language != nil {
		appendSet("language", *patch.Language)
	}
	if patch.DailyGoal != nil {
		appendSet("daily_goal", *patch.DailyGoal)
	}
	if patch.DifficultyLevel != nil {
		appendSet("difficulty_level", *patch.DifficultyLevel)
	}

	query += ` WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to apply settings patch: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
