package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/portfolio/internal/config"
	"github.com/hitoshi/portfolio/internal/database"
	"github.com/hitoshi/portfolio/internal/logger"
)

// shutdownTimeout は処理中リクエストの完了を待つ上限。
const shutdownTimeout = 30 * time.Second

// Init は設定を読み込み、wに出力するJSONロガーをグローバルに設定する。
// 設定の読み込み中もログを出せるよう、先にINFOで初期化してからLOG_LEVELで差し替える。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はos.Args[1:]を受け取り、サブコマンドを実行する。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheckはコンテナ内から頻繁に呼ばれるため設定の読み込みもしない
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandNotify:
		return runNotify(w, cfg, args[1:])
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// runServe はDBを準備して依存関係を組み立て、ctxが終了するまでAPIサーバーを動かす。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.AutoMigrate {
		if err := runMigrate(cfg); err != nil {
			return err
		}
	}

	wiring := Wire(cfg, db, slog.Default(), prometheus.NewRegistry())
	defer wiring.Close()

	slog.Info("starting application",
		slog.String("port", cfg.ServerPort),
		slog.String("site_url", cfg.SiteURL),
		slog.String("content_provider", wiring.Resolver.Provider()),
		slog.Bool("mail_configured", cfg.MailConfigured()),
	)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           wiring.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return serve(ctx, server)
}

// serve はserverを起動し、ctxの終了でグレースフルシャットダウンする。
// 起動に失敗した場合はそのエラーを返す。
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("API server stopped")
	return nil
}

// runMigrate は未適用のマイグレーションをすべて適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// SQLiteの場合はOpenが親ディレクトリを作る
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はローカルの /health を叩き、200以外ならエラーを返す。
// distrolessイメージにはcurlがないため、DockerのHEALTHCHECKはこのサブコマンドを使う。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get("http://localhost:" + port + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL はログ出力用にパスワードを伏せたURLを返す。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
