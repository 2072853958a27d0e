package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/signage/internal/auth"
	"github.com/hitoshi/signage/internal/middleware"
	"github.com/hitoshi/signage/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register はユーザーを登録する。既存ユーザーの場合は最終ログイン日時のみ更新する。
	Register(ctx context.Context, identity *auth.Identity) (*model.User, bool, error)
	// GetProfile はプロフィールを取得する。
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile はプロフィールの部分更新を行う。
	UpdateProfile(ctx context.Context, userID string, displayName, photoURL *string) (*model.User, error)
	// GetSettings はユーザー設定を取得する。
	GetSettings(ctx context.Context, userID string) (*model.Settings, error)
	// UpdateSettings は設定の部分更新を適用する。
	UpdateSettings(ctx context.Context, userID string, patch *model.SettingsPatch) (*model.Settings, error)
}

// AuthHandler はユーザー登録・プロフィール・設定のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	DisplayName string `json:"displayName"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

// userResponse はユーザープロフィールのAPIレスポンス。
type userResponse struct {
	UserID          string     `json:"userId"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"displayName"`
	PhotoURL        string     `json:"photoURL"`
	AccountType     string     `json:"accountType"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsPremium       bool       `json:"isPremium"`
	PremiumUntil    *time.Time `json:"premiumUntil"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     time.Time  `json:"lastLoginAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// settingsResponse はユーザー設定のAPIレスポンス。
type settingsResponse struct {
	PracticeReminders        bool   `json:"practiceReminders"`
	AchievementNotifications bool   `json:"achievementNotifications"`
	SoundEnabled             bool   `json:"soundEnabled"`
	MusicEnabled             bool   `json:"musicEnabled"`
	HapticEnabled            bool   `json:"hapticEnabled"`
	Theme                    string `json:"theme"`
	Language                 string `json:"language"`
	DailyGoal                int    `json:"dailyGoal"`
	DifficultyLevel          string `json:"difficultyLevel"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
// 既存ユーザーの再登録は進捗を保持したまま200を返す（冪等）。新規作成時は201。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	// ボディは省略可能。displayNameが指定された場合はトークンのnameより優先する。
	var req registerRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeBadRequestJSON(w)
			return
		}
	}
	if req.DisplayName != "" {
		identity = &auth.Identity{
			UserID: identity.UserID,
			Email:  identity.Email,
			Name:   req.DisplayName,
		}
	}

	user, created, err := h.service.Register(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	statusCode := http.StatusOK
	message := "ログインを記録しました。"
	if created {
		statusCode = http.StatusCreated
		message = "ユーザーを登録しました。"
	}

	writeSuccess(w, statusCode, map[string]any{
		"message": message,
		"data":    toUserResponse(user),
	})
}

// GetProfile はプロフィール取得を処理する。
// GET /auth/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data": toUserResponse(user),
	})
}

// UpdateProfile はプロフィール更新を処理する。
// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestJSON(w)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.DisplayName, req.PhotoURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data": toUserResponse(user),
	})
}

// GetSettings は設定取得を処理する。
// GET /auth/settings
func (h *AuthHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	settings, err := h.service.GetSettings(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data": toSettingsResponse(settings),
	})
}

// UpdateSettings は設定更新を処理する。
// PUT /auth/settings
// 許可された設定キー以外を含むリクエストは400で拒否する。
func (h *AuthHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var patch model.SettingsPatch
	if err := decoder.Decode(&patch); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			writeError(w, http.StatusBadRequest, "許可されていない設定キーが含まれています。")
			return
		}
		writeBadRequestJSON(w)
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), userID, &patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data": toSettingsResponse(settings),
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		UserID:          user.ID,
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		PhotoURL:        user.PhotoURL,
		AccountType:     user.AccountType,
		IsEmailVerified: user.IsEmailVerified,
		IsPremium:       user.IsPremium,
		PremiumUntil:    user.PremiumUntil,
		CreatedAt:       user.CreatedAt,
		LastLoginAt:     user.LastLoginAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// toSettingsResponse はmodel.SettingsからAPIレスポンスに変換する。
func toSettingsResponse(settings *model.Settings) settingsResponse {
	return settingsResponse{
		PracticeReminders:        settings.PracticeReminders,
		AchievementNotifications: settings.AchievementNotifications,
		SoundEnabled:             settings.SoundEnabled,
		MusicEnabled:             settings.MusicEnabled,
		HapticEnabled:            settings.HapticEnabled,
		Theme:                    settings.Theme,
		Language:                 settings.Language,
		DailyGoal:                settings.DailyGoal,
		DifficultyLevel:          settings.DifficultyLevel,
	}
}
