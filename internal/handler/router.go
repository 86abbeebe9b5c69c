package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ledgerman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	AccountFinder     middleware.AccountFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 送金台帳
	LedgerService LedgerServiceInterface

	// アカウントディレクトリ
	DirectoryService DirectoryServiceInterface

	// Prometheusメトリクス（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler

	// リクエストログに付随するHTTPメトリクス（省略可）
	HTTPMetrics middleware.HTTPMetricsRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → Logging → Recovery → [CSRF → Session → RateLimit(General)]
//
// 認証ルート（/auth/*）とヘルスチェックはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), deps.HTTPMetrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	transferHandler := NewTransferHandler(deps.LedgerService)
	accountHandler := NewAccountHandler(deps.DirectoryService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// Prometheusメトリクス
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: CSRF → Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.AccountFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 送金台帳
		r.Route("/api/transfers", func(r chi.Router) {
			r.Get("/", transferHandler.ListTransfers)

			// POST /api/transfers - 送金作成（作成専用レート制限を追加）
			r.With(deps.RateLimiter.TransferCreationMiddleware()).Post("/", transferHandler.CreateTransfer)

			// モデレーションはマネージャー専用
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.NewManagerGuardMiddleware())
				r.Patch("/", transferHandler.UpdateTransfer)
				r.Delete("/", transferHandler.DeleteTransfer)
			})
		})

		// アカウントディレクトリ
		r.Route("/api/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.ListAccounts)

			// プロフィール編集はマネージャー専用
			r.With(middleware.NewManagerGuardMiddleware()).Patch("/{id}", accountHandler.UpdateProfile)
		})
	})

	return r
}
