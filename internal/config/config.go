package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/database"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 必須の環境変数はなく、未設定の機能はローカル動作またはdev modeに縮退する。
type Config struct {
	// Database
	DatabaseURL string
	AutoMigrate bool

	// Server
	ServerPort string
	SiteURL    string

	// Site はCMS未設定時のプロフィールと通知メールの署名に使用する。
	Site SiteConfig

	// Content
	ContentDir string

	// Sanity
	SanityProjectID  string
	SanityDataset    string
	SanityAPIVersion string
	SanityUseCDN     bool
	SanityToken      string
	WebhookSecret    string

	// Mail
	ResendAPIKey string
	MailFrom     string
	ContactTo    string

	// Notification
	NotifyAPIKey string

	// Outbound HTTP
	HTTPClientTimeout time.Duration

	// Rate Limit
	FormRateLimitMax    int
	FormRateLimitWindow time.Duration
	RateLimitGeneral    int

	// CORS
	CORSAllowedOrigin string

	// TrustProxyHeaders がtrueの場合のみX-Forwarded-For等からクライアントIPを取る。
	// リバースプロキシの背後でのみ有効にすること。
	TrustProxyHeaders bool

	// Logging
	LogLevel string
}

// SiteConfig はサイト所有者の静的プロフィール。
type SiteConfig struct {
	Name               string
	Headline           string
	Location           string
	Bio                string
	Email              string
	Author             string
	ResumeURL          string
	GitHub             string
	LinkedIn           string
	Twitter            string
	Substack           string
	NewsletterProvider string
}

// Load は環境変数からConfigを読み込む。
// 値の形式が不正でデフォルトにも戻せない場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = getEnvString("DATABASE_URL", "sqlite://data/portfolio.db")
	if _, err := database.DialectOf(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", true)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.SiteURL = strings.TrimRight(
		getEnvString("SITE_URL", getEnvString("NEXT_PUBLIC_SITE_URL", "http://localhost:8080")),
		"/",
	)

	cfg.Site = SiteConfig{
		Name:               getEnvString("SITE_NAME", "chukwudike"),
		Headline:           getEnvString("SITE_HEADLINE", "software engineer · future theorist · reality carver"),
		Location:           getEnvString("SITE_LOCATION", "lagos, ng"),
		Bio:                getEnvString("SITE_BIO", "software engineer (by practice) and medical doctor (by training). i build calm, sharp tools."),
		Email:              getEnvString("SITE_EMAIL", "ikeagudike@gmail.com"),
		Author:             getEnvString("SITE_AUTHOR", "Chukwudike"),
		ResumeURL:          getEnvString("SITE_RESUME_URL", "/resume.pdf"),
		GitHub:             getEnvString("SOCIAL_GITHUB", "https://github.com/psychemist"),
		LinkedIn:           getEnvString("SOCIAL_LINKEDIN", "https://www.linkedin.com/in/chukwu-dike"),
		Twitter:            getEnvString("SOCIAL_TWITTER", "https://twitter.com/internetingbot"),
		Substack:           getEnvString("SOCIAL_SUBSTACK", "https://substack.com/@psychemist"),
		NewsletterProvider: getEnvString("NEWSLETTER_PROVIDER", "substack"),
	}

	cfg.ContentDir = getEnvString("CONTENT_DIR", "content")

	cfg.SanityProjectID = os.Getenv("SANITY_STUDIO_PROJECT_ID")
	cfg.SanityDataset = os.Getenv("SANITY_STUDIO_DATASET")
	cfg.SanityAPIVersion = strings.TrimPrefix(getEnvString("SANITY_API_VERSION", "2023-12-01"), "v")
	cfg.SanityUseCDN = getEnvBool("SANITY_USE_CDN", false)
	cfg.SanityToken = os.Getenv("SANITY_TOKEN")
	cfg.WebhookSecret = os.Getenv("SANITY_WEBHOOK_SECRET")

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.MailFrom = getEnvString("CONTACT_FROM_EMAIL", "newsletter@psychemist.dev")
	cfg.ContactTo = getEnvString("CONTACT_TO_EMAIL", cfg.Site.Email)

	cfg.NotifyAPIKey = os.Getenv("BLOG_NOTIFY_API_KEY")

	cfg.HTTPClientTimeout = getEnvDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second)

	cfg.FormRateLimitMax = getEnvInt("RATE_LIMIT_FORM_MAX", 5)
	cfg.FormRateLimitWindow = getEnvDuration("RATE_LIMIT_FORM_WINDOW", 15*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// SanityConfigured はリモートCMSの利用に必要な設定が揃っているかを返す。
// プロジェクトIDとデータセットの両方が必要。
func (c *Config) SanityConfigured() bool {
	return c.SanityProjectID != "" && c.SanityDataset != ""
}

// MailConfigured はメール送信プロバイダーの認証情報が設定されているかを返す。
// falseの場合はdev modeとして送信内容をログに出力する。
func (c *Config) MailConfigured() bool {
	return c.ResendAPIKey != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
