// Command portfolio はポートフォリオサイトのコンテンツ・購読者APIサーバー。
//
// 使い方:
//
//	portfolio [serve|migrate|healthcheck|notify]
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/portfolio/internal/app"
)

func main() {
	// .envは任意。存在しない場合は環境変数のみを使う
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
