// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/signage/internal/model"
)

// UserRepository はユーザードキュメントの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithDefaults はユーザーと進捗・設定の初期レコードを同一トランザクションで作成する。
	// 進捗と設定はスキーマのデフォルト値で初期化される。
	CreateWithDefaults(ctx context.Context, user *model.User) error

	// TouchLogin は最終ログイン日時と更新日時のみを更新する。
	// 再登録時に進捗を保持したままログイン時刻を更新するために使用する。
	TouchLogin(ctx context.Context, id string, now time.Time) error

	// UpdateProfile はdisplayName/photoURLの部分更新を行う。nilフィールドは変更しない。
	UpdateProfile(ctx context.Context, id string, displayName, photoURL *string, now time.Time) error
}

// SettingsRepository はユーザー設定の永続化インターフェース。
type SettingsRepository interface {
	// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Settings, error)

	// ApplyPatch は設定の部分更新を適用する。nilフィールドは既存値を維持する。
	// 対象レコードが存在しない場合はfalseを返す。
	ApplyPatch(ctx context.Context, userID string, patch *model.SettingsPatch, now time.Time) (bool, error)
}

// ProgressRepository は学習進捗レコードの永続化インターフェース。
// カウンター更新はすべてSQLの加算式で行い、読み出し値に依存した上書きをしない。
type ProgressRepository interface {
	// FindByUserID は指定ユーザーの進捗レコードを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Progress, error)

	// CompleteLesson はレッスン完了を単一トランザクションで記録する。
	// 進捗行をFOR UPDATEでロックし、完了済み判定・カウンター加算・
	// ストリーク再計算・last_practice_date更新を1コミットで適用する。
	// 同一レッスンが完了済みの場合は何も変更せずAlreadyCompleted=trueを返す。
	// ユーザーが存在しない場合はnilを返す。
	CompleteLesson(ctx context.Context, userID, lessonID string, score, stars, signsLearned int, now time.Time) (*model.LessonCompletionResult, error)

	// UpdateStreak はストリークを再計算して永続化する。
	// 進捗行をFOR UPDATEでロックし、last_practice_dateとの日差から新しい
	// ストリーク値を算出、last_practice_dateを現在時刻（切り詰めなし）に更新する。
	// ユーザーが存在しない場合はnilを返す。
	UpdateStreak(ctx context.Context, userID string, now time.Time) (*model.StreakResult, error)

	// SetTodayProgress は本日の進捗率を設定する。
	// 対象レコードが存在しない場合はfalseを返す。
	SetTodayProgress(ctx context.Context, userID string, percent int, now time.Time) (bool, error)

	// AddPracticeTime は練習時間（分）を加算し、練習セッション数を1増やす。
	// 対象レコードが存在しない場合はfalseを返す。
	AddPracticeTime(ctx context.Context, userID string, minutes int, now time.Time) (bool, error)

	// ResetTodayProgressAll は全ユーザーのtoday_progressを0に戻す。
	// 日次リセットワーカーから呼び出される。リセットした行数を返す。
	ResetTodayProgressAll(ctx context.Context) (int64, error)
}
