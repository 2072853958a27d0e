package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/signage/internal/auth"
	"github.com/hitoshi/signage/internal/metrics"
	"github.com/hitoshi/signage/internal/middleware"
)

// HealthPinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type HealthPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     auth.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService     AuthServiceInterface
	ProgressService ProgressServiceInterface
	StreakService   StreakServiceInterface

	// 運用系
	HealthPinger    HealthPinger
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → RecoveryMiddleware → LoggingMiddleware → AuthMiddleware → RateLimitMiddleware(General)
//
// /health と /metrics は認証不要のルートとしてチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS とリカバリは最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	progressHandler := NewProgressHandler(deps.ProgressService)
	streakHandler := NewStreakHandler(deps.StreakService)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthPinger))

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー登録・プロフィール・設定
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Get("/profile", authHandler.GetProfile)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Get("/settings", authHandler.GetSettings)
			r.Put("/settings", authHandler.UpdateSettings)
		})

		// 学習進捗
		r.Route("/progress", func(r chi.Router) {
			r.Get("/", progressHandler.GetProgress)
			r.Get("/completed-lessons", progressHandler.CompletedLessons)

			// POST /progress/lesson - レッスン完了報告（専用レート制限を追加）
			r.With(deps.RateLimiter.LessonCompleteMiddleware()).Post("/lesson", progressHandler.CompleteLesson)

			r.Put("/today", progressHandler.UpdateTodayProgress)
			r.Post("/practice-time", progressHandler.AddPracticeTime)
		})

		// ストリーク
		r.Route("/streak", func(r chi.Router) {
			r.Get("/", streakHandler.GetStreak)
			r.Post("/update", streakHandler.UpdateStreak)
		})
	})

	return r
}

// newHealthHandler はliveness + DB疎通確認のヘルスチェックハンドラーを返す。
func newHealthHandler(pinger HealthPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
		})
	}
}
