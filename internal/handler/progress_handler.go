package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/signage/internal/middleware"
	"github.com/hitoshi/signage/internal/model"
)

// ProgressServiceInterface は進捗ハンドラーが必要とするサービスインターフェース。
type ProgressServiceInterface interface {
	// GetProgress は進捗レコード全体を取得する。
	GetProgress(ctx context.Context, userID string) (*model.Progress, error)
	// CompletedLessons は完了済みレッスンIDの一覧を取得する。
	CompletedLessons(ctx context.Context, userID string) ([]string, error)
	// CompleteLesson はレッスン完了を記録する。
	CompleteLesson(ctx context.Context, userID, lessonID string, score, stars, signsLearned int) (*model.LessonCompletionResult, error)
	// UpdateTodayProgress は本日の進捗率を設定する。
	UpdateTodayProgress(ctx context.Context, userID string, percent int) error
	// AddPracticeTime は練習時間を加算する。
	AddPracticeTime(ctx context.Context, userID string, minutes int) error
}

// ProgressHandler は学習進捗のHTTPハンドラー。
type ProgressHandler struct {
	service ProgressServiceInterface
}

// NewProgressHandler はProgressHandlerを生成する。
func NewProgressHandler(service ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// completeLessonRequest はレッスン完了リクエストのボディ。
// score/stars/signsLearnedは省略時0として扱う。
type completeLessonRequest struct {
	LessonID     string `json:"lessonId"`
	Score        int    `json:"score"`
	Stars        int    `json:"stars"`
	SignsLearned int    `json:"signsLearned"`
}

// todayProgressRequest は本日の進捗更新リクエストのボディ。
// progressが数値でない・欠けているリクエストは400で拒否する。
type todayProgressRequest struct {
	Progress *float64 `json:"progress"`
}

// practiceTimeRequest は練習時間記録リクエストのボディ。
type practiceTimeRequest struct {
	Minutes *float64 `json:"minutes"`
}

// progressResponse は進捗レコードのAPIレスポンス。
type progressResponse struct {
	CompletedLessons      []string   `json:"completedLessons"`
	CurrentLesson         string     `json:"currentLesson"`
	InProgressLessons     []string   `json:"inProgressLessons"`
	TotalScore            int        `json:"totalScore"`
	TotalStars            int        `json:"totalStars"`
	Streak                int        `json:"streak"`
	LongestStreak         int        `json:"longestStreak"`
	TodayProgress         int        `json:"todayProgress"`
	LastPracticeDate      *time.Time `json:"lastPracticeDate"`
	TotalPracticeTime     int        `json:"totalPracticeTime"`
	LessonsCompleted      int        `json:"lessonsCompleted"`
	SignsLearned          int        `json:"signsLearned"`
	PracticeSessionsCount int        `json:"practiceSessionsCount"`
	AverageAccuracy       float64    `json:"averageAccuracy"`
	BestAccuracy          float64    `json:"bestAccuracy"`
}

// GetProgress は進捗取得を処理する。
// GET /progress
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"data": toProgressResponse(progress),
	})
}

// CompletedLessons は完了済みレッスン一覧の取得を処理する。
// GET /progress/completed-lessons
// 進捗レコードが無い場合も空配列で200を返す。内部エラー時もlessonsキーは必ず含める。
func (h *ProgressHandler) CompletedLessons(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	lessons, err := h.service.CompletedLessons(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list completed lessons",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"lessons": []string{},
		})
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"lessons": lessons,
	})
}

// CompleteLesson はレッスン完了報告を処理する。
// POST /progress/lesson
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req completeLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestJSON(w)
		return
	}

	if req.LessonID == "" {
		writeError(w, http.StatusBadRequest, "lessonIdは必須です。")
		return
	}

	result, err := h.service.CompleteLesson(r.Context(), userID, req.LessonID, req.Score, req.Stars, req.SignsLearned)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"alreadyCompleted": result.AlreadyCompleted,
		"streak":           result.Streak,
		"longestStreak":    result.LongestStreak,
	})
}

// UpdateTodayProgress は本日の進捗更新を処理する。
// PUT /progress/today
func (h *ProgressHandler) UpdateTodayProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req todayProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "progressは数値である必要があります。")
		return
	}
	if req.Progress == nil {
		writeError(w, http.StatusBadRequest, "progressは数値である必要があります。")
		return
	}

	if err := h.service.UpdateTodayProgress(r.Context(), userID, int(*req.Progress)); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil)
}

// AddPracticeTime は練習時間の記録を処理する。
// POST /progress/practice-time
func (h *ProgressHandler) AddPracticeTime(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req practiceTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "minutesは0以上の数値である必要があります。")
		return
	}
	if req.Minutes == nil || *req.Minutes < 0 {
		writeError(w, http.StatusBadRequest, "minutesは0以上の数値である必要があります。")
		return
	}

	if err := h.service.AddPracticeTime(r.Context(), userID, int(*req.Minutes)); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, nil)
}

// toProgressResponse はmodel.ProgressからAPIレスポンスに変換する。
// スライスがnilの場合は空配列としてシリアライズする。
func toProgressResponse(progress *model.Progress) progressResponse {
	completed := progress.CompletedLessons
	if completed == nil {
		completed = []string{}
	}
	inProgress := progress.InProgressLessons
	if inProgress == nil {
		inProgress = []string{}
	}
	return progressResponse{
		CompletedLessons:      completed,
		CurrentLesson:         progress.CurrentLesson,
		InProgressLessons:     inProgress,
		TotalScore:            progress.TotalScore,
		TotalStars:            progress.TotalStars,
		Streak:                progress.Streak,
		LongestStreak:         progress.LongestStreak,
		TodayProgress:         progress.TodayProgress,
		LastPracticeDate:      progress.LastPracticeDate,
		TotalPracticeTime:     progress.TotalPracticeTime,
		LessonsCompleted:      progress.LessonsCompleted,
		SignsLearned:          progress.SignsLearned,
		PracticeSessionsCount: progress.PracticeSessionsCount,
		AverageAccuracy:       progress.AverageAccuracy,
		BestAccuracy:          progress.BestAccuracy,
	}
}
