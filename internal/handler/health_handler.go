package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// healthTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthTimeout = 2 * time.Second

// Pinger はDB疎通確認のインターフェース。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// FeedWriter はRSSフィードを書き出すインターフェース。
type FeedWriter interface {
	Write(ctx context.Context, w io.Writer) error
}

// SystemHandler はヘルスチェックとRSSフィードのHTTPハンドラー。
type SystemHandler struct {
	db   Pinger
	feed FeedWriter
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(db Pinger, feed FeedWriter) *SystemHandler {
	return &SystemHandler{db: db, feed: feed}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health はDBに疎通できれば200、できなければ503を返す。
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Feed は記事一覧のRSS 2.0フィードを返す。
// GET /feed.xml
func (h *SystemHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.feed.Write(r.Context(), &buf); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
