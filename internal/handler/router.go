package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/enrique7mc/MvcCms/internal/middleware"
	"github.com/enrique7mc/MvcCms/internal/model"
)

// HealthChecker はヘルスチェックで使用するDB疎通確認のインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	HTTPMetrics    middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 記事（管理側）
	PostService PostServiceInterface

	// 記事（公開側）
	PublicPostService PublicPostServiceInterface
	DefaultPageSize   int
	MaxPageSize       int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → [Session → RateLimit(General) → CSRF]
//
// 認証ルート（/auth/*）、公開読み取りルート（/api/published*）、
// 運用ルート（/health, /metrics）は認証チェーンの外に配置する。
// 記事の削除ルートは admin / editor ロールに限定する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService)
	publicHandler := NewPublicHandler(deps.PublicPostService, deps.DefaultPageSize, deps.MaxPageSize)

	// --- 認証不要のルート ---

	// 運用エンドポイント
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 公開済み記事の読み取り
	r.Route("/api/published", func(r chi.Router) {
		r.Get("/", publicHandler.ListPublished)
		r.Get("/page", publicHandler.PageOfPublished)
		r.Get("/tag/{tag}", publicHandler.ListByTag)
	})

	// --- 認証が必要な管理ルート ---
	// ミドルウェアスタック: Session → RateLimit(General) → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		mutation := deps.RateLimiter.MutationMiddleware()
		deleteRole := middleware.NewRequireRoleMiddleware(model.RoleAdmin, model.RoleEditor)

		r.Route("/post", func(r chi.Router) {
			// 一覧（author ロールのみのユーザーには自分の記事だけが返る）
			r.Get("/", postHandler.List)

			// 作成
			r.Get("/create", postHandler.New)
			r.With(mutation).Post("/create", postHandler.Create)

			// 編集
			r.Get("/edit/{id}", postHandler.GetForEdit)
			r.With(mutation).Post("/edit/{id}", postHandler.Edit)

			// 削除（admin / editor のみ）
			r.With(deleteRole).Get("/delete/{id}", postHandler.GetForDelete)
			r.With(deleteRole, mutation).Post("/delete/{id}", postHandler.Delete)
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
