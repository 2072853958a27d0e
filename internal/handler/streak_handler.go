package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/signage/internal/middleware"
	"github.com/hitoshi/signage/internal/model"
)

// StreakServiceInterface はストリークハンドラーが必要とするサービスインターフェース。
type StreakServiceInterface interface {
	// GetStreak はストリーク情報を取得する。レコードが無い場合はゼロ値を返す。
	GetStreak(ctx context.Context, userID string) (*model.StreakInfo, error)
	// UpdateStreak はストリークを再計算して永続化する。
	UpdateStreak(ctx context.Context, userID string) (*model.StreakResult, error)
}

// StreakHandler はストリークのHTTPハンドラー。
type StreakHandler struct {
	service StreakServiceInterface
}

// NewStreakHandler はStreakHandlerを生成する。
func NewStreakHandler(service StreakServiceInterface) *StreakHandler {
	return &StreakHandler{service: service}
}

// GetStreak はストリーク照会を処理する。
// GET /streak
// 進捗レコードが無いユーザーにはゼロ値で200を返す。
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	info, err := h.service.GetStreak(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"streak":           info.Streak,
		"longestStreak":    info.LongestStreak,
		"lastPracticeDate": info.LastPracticeDate,
	})
}

// UpdateStreak はストリーク更新を処理する。
// POST /streak/update
func (h *StreakHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	result, err := h.service.UpdateStreak(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"streak":        result.Streak,
		"longestStreak": result.LongestStreak,
	})
}
