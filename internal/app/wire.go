package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/portfolio/internal/config"
	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/content"
	"github.com/hitoshi/portfolio/internal/feed"
	"github.com/hitoshi/portfolio/internal/handler"
	"github.com/hitoshi/portfolio/internal/mail"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/notify"
	"github.com/hitoshi/portfolio/internal/ratelimit"
	"github.com/hitoshi/portfolio/internal/repository"
	"github.com/hitoshi/portfolio/internal/sanity"
	"github.com/hitoshi/portfolio/internal/security"
	"github.com/hitoshi/portfolio/internal/subscription"
)

// newsletterDescription はプロフィールのニュースレター欄の説明文。
const newsletterDescription = "thoughts on building, future tech, and staying human in the process"

// feedLanguage はRSSフィードの言語。
const feedLanguage = "en"

// Wiring はserveモードで組み立てた依存関係。
// Closeでバックグラウンド処理を停止する。
type Wiring struct {
	Handler  http.Handler
	Resolver *content.Resolver
	limiter  *middleware.RateLimiter
}

// Close はレートリミッターのクリーンアップを停止する。
func (w *Wiring) Close() {
	w.limiter.Stop()
}

// Wire は設定とDB接続から全コンポーネントを生成し、ルーターを構築する。
// regにはアプリケーションのメトリクスとGo/プロセスのメトリクスを登録する。
func Wire(cfg *config.Config, db *sql.DB, logger *slog.Logger, reg *prometheus.Registry) *Wiring {
	// 1. メトリクス
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	// 2. コンテンツ
	renderer := content.NewRenderer(security.NewArticleSanitizer())
	local := content.NewLocalStoreFromDir(cfg.ContentDir, renderer, logger)

	// 未設定時はインターフェースとしてnilを渡す
	var remote content.RemoteProvider
	if cfg.SanityConfigured() {
		remote = sanity.NewClient(sanity.Config{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			APIVersion: cfg.SanityAPIVersion,
			UseCDN:     cfg.SanityUseCDN,
			Token:      cfg.SanityToken,
		}, httpClient, logger)
	}
	resolver := content.NewResolver(remote, local, SiteProfile(cfg.Site), logger, collector)

	// 3. メール送信
	sender := mail.NewSender(cfg.ResendAPIKey, httpClient, logger)

	// 4. リポジトリとサービス
	subRepo := repository.NewSQLSubscriberRepo(db)
	contactRepo := repository.NewSQLContactRepo(db)

	subService := subscription.NewService(subRepo, sender, subscription.Settings{
		From:    cfg.MailFrom,
		SiteURL: cfg.SiteURL,
	}, logger, collector)
	contactService := contact.NewService(contactRepo, sender, contact.Settings{
		From:    cfg.MailFrom,
		To:      cfg.ContactTo,
		SiteURL: cfg.SiteURL,
	}, logger)
	dispatcher := notify.NewDispatcher(subRepo, sender, notify.Settings{
		APIKey:        cfg.NotifyAPIKey,
		From:          cfg.MailFrom,
		SiteURL:       cfg.SiteURL,
		DefaultAuthor: cfg.Site.Author,
	}, logger, collector)

	feedBuilder := feed.NewBuilder(resolver, feed.Channel{
		Title:       cfg.Site.Name,
		SiteURL:     cfg.SiteURL,
		Description: newsletterDescription,
		Language:    feedLanguage,
	})

	// 5. レート制限
	// フォーム系はエンドポイントごとに独立したカウンタを持つ
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral), collector)
	formLimiters := handler.FormLimiters{
		Contact:     ratelimit.NewFixedWindow(cfg.FormRateLimitMax, cfg.FormRateLimitWindow),
		Subscribe:   ratelimit.NewFixedWindow(cfg.FormRateLimitMax, cfg.FormRateLimitWindow),
		Unsubscribe: ratelimit.NewFixedWindow(cfg.FormRateLimitMax, cfg.FormRateLimitWindow),
	}

	// 6. ルーター
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		RateLimiter:       rateLimiter,
		FormLimiters:      formLimiters,
		RequestRecorder:   collector,
		RejectionRecorder: collector,

		ContentResolver:     resolver,
		SubscriptionService: subService,
		ContactService:      contactService,
		Notifier:            dispatcher,
		Webhook: handler.WebhookConfig{
			Secret:        cfg.WebhookSecret,
			NotifyAPIKey:  cfg.NotifyAPIKey,
			DefaultAuthor: cfg.Site.Author,
		},

		DB:             db,
		Feed:           feedBuilder,
		MetricsHandler: metrics.Handler(reg),
	})

	return &Wiring{
		Handler:  router,
		Resolver: resolver,
		limiter:  rateLimiter,
	}
}

// SiteProfile は静的なサイト設定からプロフィールを生成する。
// CMSが未設定または取得に失敗した場合の最終フォールバックとなる。
func SiteProfile(site config.SiteConfig) model.Profile {
	return model.Profile{
		Source:      model.SourceLocal,
		Name:        site.Name,
		Headline:    site.Headline,
		Location:    site.Location,
		BioFormal:   site.Bio,
		EmailPublic: site.Email,
		Socials: model.Socials{
			GitHub:   site.GitHub,
			LinkedIn: site.LinkedIn,
			Twitter:  site.Twitter,
			Substack: site.Substack,
		},
		ResumeURL: site.ResumeURL,
		Newsletter: model.Newsletter{
			Provider:    site.NewsletterProvider,
			EmbedURL:    site.Substack,
			Description: newsletterDescription,
		},
	}
}
