package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/ratelimit"
)

// FormLimiters はフォーム送信エンドポイントごとの固定ウィンドウ制限。
// エンドポイント間でカウンタは共有しない。nilの場合は制限しない。
type FormLimiters struct {
	Contact     *ratelimit.FixedWindow
	Subscribe   *ratelimit.FixedWindow
	Unsubscribe *ratelimit.FixedWindow
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	// TrustProxyHeaders がtrueの場合、プロキシヘッダーのクライアントIPでRemoteAddrを置き換える
	TrustProxyHeaders bool
	RateLimiter       *middleware.RateLimiter
	FormLimiters      FormLimiters
	RequestRecorder   middleware.RequestRecorder
	RejectionRecorder middleware.RejectionRecorder

	// コンテンツ
	ContentResolver ContentResolverInterface

	// 購読・お問い合わせ
	SubscriptionService SubscriptionServiceInterface
	ContactService      ContactServiceInterface

	// 通知
	Notifier NotifierInterface
	Webhook  WebhookConfig

	// システム
	DB             Pinger
	Feed           FeedWriter
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	(RealIP) → RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  → (/api/*) RateLimit(General) → (フォームPOST) RateLimit(FixedWindow)
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.RequestRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	contentHandler := NewContentHandler(deps.ContentResolver)
	subHandler := NewSubscriberHandler(deps.SubscriptionService)
	contactHandler := NewContactHandler(deps.ContactService)
	notifyHandler := NewNotifyHandler(deps.Notifier)
	webhookHandler := NewWebhookHandler(deps.Notifier, deps.Webhook, logger)
	systemHandler := NewSystemHandler(deps.DB, deps.Feed)

	// --- システム ---
	r.Get("/health", systemHandler.Health)
	r.Get("/feed.xml", systemHandler.Feed)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// コンテンツ
		r.Get("/posts", contentHandler.ListPosts)
		r.Get("/posts/{slug}", contentHandler.GetPost)
		r.Get("/projects", contentHandler.ListProjects)
		r.Get("/projects/{slug}", contentHandler.GetProject)
		r.Get("/profile", contentHandler.GetProfile)

		// お問い合わせ
		r.With(formLimit(deps.FormLimiters.Contact, "contact", deps.RejectionRecorder)...).
			Post("/contact", contactHandler.Submit)

		// 購読
		r.With(formLimit(deps.FormLimiters.Subscribe, "subscribe", deps.RejectionRecorder)...).
			Post("/subscribe", subHandler.Subscribe)
		r.Get("/subscribe", subHandler.ListSubscribers)

		r.With(formLimit(deps.FormLimiters.Unsubscribe, "unsubscribe", deps.RejectionRecorder)...).
			Post("/unsubscribe", subHandler.Unsubscribe)
		r.Get("/unsubscribe", subHandler.UnsubscribeLink)

		// 通知
		r.Post("/notify-subscribers", notifyHandler.Notify)
		r.Get("/notify-subscribers", notifyHandler.MethodNotAllowed)

		r.Post("/webhooks/sanity", webhookHandler.Receive)
		r.Get("/webhooks/sanity", webhookHandler.MethodNotAllowed)
	})

	return r
}

// formLimit はFixedWindowが設定されていればその制限ミドルウェアを返す。
func formLimit(fw *ratelimit.FixedWindow, scope string, recorder middleware.RejectionRecorder) []func(http.Handler) http.Handler {
	if fw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{middleware.NewFixedWindowMiddleware(fw, scope, recorder)}
}
