// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/signage/internal/auth"
	"github.com/hitoshi/signage/internal/model"
	"github.com/hitoshi/signage/internal/repository"
	"github.com/hitoshi/signage/internal/security"
)

// Service はユーザー管理のサービス層。
// 登録、プロフィール、設定のビジネスロジックを提供する。
type Service struct {
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
	sanitizer    security.ProfileSanitizerService
	avatarGuard  security.AvatarGuardService
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// nowには通常time.Nowを渡す。テストでは固定クロックを注入する。
func NewService(
	userRepo repository.UserRepository,
	settingsRepo repository.SettingsRepository,
	sanitizer security.ProfileSanitizerService,
	avatarGuard security.AvatarGuardService,
	now func() time.Time,
) *Service {
	return &Service{
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		sanitizer:    sanitizer,
		avatarGuard:  avatarGuard,
		now:          now,
	}
}

// Register は認証済みユーザーを登録する。
// 既存ユーザーの場合は進捗・設定を保持したまま最終ログイン日時のみ更新する（冪等）。
// 新規ユーザーの場合はユーザー・進捗・設定の初期レコードを作成する。
// 戻り値のboolは新規作成されたかどうかを示す。
func (s *Service) Register(ctx context.Context, identity *auth.Identity) (*model.User, bool, error) {
	existing, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	now := s.now()

	if existing != nil {
		if err := s.userRepo.TouchLogin(ctx, identity.UserID, now); err != nil {
			return nil, false, fmt.Errorf("ログイン日時の更新に失敗しました: %w", err)
		}
		existing.LastLoginAt = now
		existing.UpdatedAt = now

		slog.Info("既存ユーザーのログインを記録しました",
			slog.String("user_id", identity.UserID),
		)
		return existing, false, nil
	}

	displayName := s.sanitizer.SanitizeDisplayName(identity.Name)
	if displayName == "" {
		displayName = identity.Email
	}

	newUser := &model.User{
		ID:          identity.UserID,
		Email:       identity.Email,
		DisplayName: displayName,
		AccountType: "email",
		CreatedAt:   now,
		LastLoginAt: now,
		UpdatedAt:   now,
	}

	if err := s.userRepo.CreateWithDefaults(ctx, newUser); err != nil {
		return nil, false, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("新規ユーザーを登録しました",
		slog.String("user_id", identity.UserID),
	)

	return newUser, true, nil
}

// GetProfile は指定ユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はプロフィールの部分更新を行う。
// displayNameはHTMLタグを除去した上で保存される。
// photoURLはSSRF検証と画像確認を通過した場合のみ保存される。空文字列は画像の削除を意味する。
// 両方がnilの場合は入力エラーを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error) {
	if displayName == nil && photoURL == nil {
		return nil, model.NewInvalidInputError("更新対象のフィールドがありません")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if displayName != nil {
		cleaned := s.sanitizer.SanitizeDisplayName(*displayName)
		if cleaned == "" {
			return nil, model.NewInvalidInputError("表示名が空です")
		}
		displayName = &cleaned
	}

	if photoURL != nil && *photoURL != "" {
		if err := s.avatarGuard.ValidateURL(*photoURL); err != nil {
			return nil, model.NewInvalidPhotoURLError(err.Error())
		}
		if err := s.avatarGuard.VerifyImageURL(ctx, *photoURL); err != nil {
			return nil, model.NewInvalidPhotoURLError(err.Error())
		}
	}

	now := s.now()
	if err := s.userRepo.UpdateProfile(ctx, userID, displayName, photoURL, now); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	if displayName != nil {
		user.DisplayName = *displayName
	}
	if photoURL != nil {
		user.PhotoURL = *photoURL
	}
	user.UpdatedAt = now

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
	)

	return user, nil
}

// GetSettings は指定ユーザーの設定を取得する。
func (s *Service) GetSettings(ctx context.Context, userID string) (*model.Settings, error) {
	settings, err := s.settingsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("設定の取得に失敗しました: %w", err)
	}
	if settings == nil {
		return nil, model.NewUserNotFoundError()
	}
	return settings, nil
}

// UpdateSettings は設定の部分更新を適用する。
// パッチが空の場合は入力エラー、対象ユーザーの設定が存在しない場合は未登録エラーを返す。
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, model.NewInvalidInputError("更新対象の設定がありません")
	}

	found, err := s.settingsRepo.ApplyPatch(ctx, userID, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("設定の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewUserNotFoundError()
	}

	settings, err := s.settingsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("設定の取得に失敗しました: %w", err)
	}
	if settings == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("設定を更新しました",
		slog.String("user_id", userID),
	)

	return settings, nil
}
