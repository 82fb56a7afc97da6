// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/exammine/exammine/internal/agent"
	"github.com/exammine/exammine/internal/metrics"
	"github.com/exammine/exammine/internal/middleware"
	"github.com/exammine/exammine/internal/model"
	"github.com/exammine/exammine/internal/upload"
)

// HistoryService は履歴の記録と参照をまとめたインターフェース。
type HistoryService interface {
	HistoryRecorder
	HistoryLister
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilの場合はレート制限を行わない
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// エージェント
	Strategy       agent.Strategy
	Uploads        upload.Store
	MaxUploadBytes int64

	// 履歴
	History HistoryService

	// ヘルスチェック
	HealthChecker Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (ルートグループ) Auth → RateLimit
//
// /agents/* は /api/agents/* にも同じ構成でマウントする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
			Code:   model.ErrCodeValidation,
			Detail: "Method Not Allowed",
		})
	})

	agentHandler := NewAgentHandler(deps.Strategy, deps.History, deps.Uploads, deps.Metrics, deps.MaxUploadBytes)
	historyHandler := NewHistoryHandler(deps.History)

	// --- 認証不要のルート ---
	r.Get("/", Root)
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	requireAuth := middleware.NewRequireAuthMiddleware(deps.Authenticator)
	optionalAuth := middleware.NewOptionalAuthMiddleware(deps.Authenticator)

	agentRoutes := func(r chi.Router) {
		// 検査関連は認証必須
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.With(deps.RateLimiter.UploadMiddleware()).Post("/analyze-exam", agentHandler.AnalyzeExam)
			r.Post("/exam-question", agentHandler.ExamQuestion)
		})

		// 匿名でも利用可能。トークンが送られた場合のみ検証し履歴を記録する
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Post("/medication-info", agentHandler.MedicationInfo)
			r.Post("/medication-prices", agentHandler.MedicationPrices)
			r.Post("/general-question", agentHandler.GeneralQuestion)
		})
	}
	r.Route("/agents", agentRoutes)
	r.Route("/api/agents", agentRoutes)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/history", historyHandler.ListHistory)
	})

	return r
}
