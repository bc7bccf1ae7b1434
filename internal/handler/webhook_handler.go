package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/sanity"
)

// maxWebhookBytes はWebhookボディの上限。
const maxWebhookBytes = 1 << 20

// webhookExcerptPreview はレスポンスに含める抜粋の文字数。
const webhookExcerptPreview = 100

// WebhookConfig はWebhookハンドラーの設定。
type WebhookConfig struct {
	Secret        string // 署名検証の共有シークレット。空の場合は全リクエストを500で拒否する
	NotifyAPIKey  string // 通知処理に渡すAPIキー
	DefaultAuthor string
}

// WebhookHandler はCMSの公開Webhookを受け取り、購読者通知に転送するHTTPハンドラー。
type WebhookHandler struct {
	notifier NotifierInterface
	config   WebhookConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(notifier NotifierInterface, config WebhookConfig, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// webhookIgnoredResponse は通知対象外のドキュメントへの応答。
type webhookIgnoredResponse struct {
	Message     string `json:"message"`
	Received    string `json:"received,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type webhookPostSummary struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	PublishedAt string `json:"publishedAt"`
	Excerpt     string `json:"excerpt"`
}

type webhookNotificationSummary struct {
	SentTo    int    `json:"sentTo"`
	MessageID string `json:"messageId,omitempty"`
}

// webhookResponse は通知を実行した場合の応答。
type webhookResponse struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	Post         webhookPostSummary         `json:"post"`
	Notification webhookNotificationSummary `json:"notification"`
}

// Receive は署名を検証し、公開済みの記事であれば購読者に通知する。
//
// 判定順は 署名ヘッダー → シークレット設定 → 署名 → ドキュメント種別 → 公開日時 → 必須項目。
// 記事以外、未公開、予約公開のドキュメントは200で応答して無視する。
// POST /api/webhooks/sanity
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	header := r.Header.Get(sanity.SignatureHeader)
	if header == "" {
		h.logger.WarnContext(r.Context(), "webhook rejected: no signature header")
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingSignatureError())
		return
	}

	if h.config.Secret == "" {
		h.logger.ErrorContext(r.Context(), "Webhookシークレットが設定されていません")
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewWebhookNotConfiguredError())
		return
	}

	if err := sanity.VerifySignature(h.config.Secret, header, body); err != nil {
		h.logger.WarnContext(r.Context(), "webhook rejected: invalid signature",
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidSignatureError())
		return
	}

	payload, err := sanity.ParseWebhook(body)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	h.logger.InfoContext(r.Context(), "sanity webhook received",
		slog.String("type", payload.Type),
		slog.String("document_id", payload.ID),
		slog.Bool("has_published_at", payload.PublishedAt != ""),
		slog.Bool("has_excerpt", payload.Excerpt != ""),
	)

	if payload.Type != "post" {
		writeJSON(w, http.StatusOK, webhookIgnoredResponse{
			Message:  "Not a post, ignoring",
			Received: payload.Type,
		})
		return
	}

	if payload.PublishedAt == "" {
		writeJSON(w, http.StatusOK, webhookIgnoredResponse{Message: "Post not published yet, ignoring"})
		return
	}

	publishedAt, ok := parseTimestamp(payload.PublishedAt)
	if ok && publishedAt.After(h.now()) {
		writeJSON(w, http.StatusOK, webhookIgnoredResponse{
			Message:     "Post scheduled for future, ignoring",
			PublishedAt: payload.PublishedAt,
		})
		return
	}

	slug := payload.SlugValue()
	if payload.Title == "" || slug == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeValidationFailed,
			Message:  "Missing required fields (title or slug)",
			Category: model.CategoryValidation,
		})
		return
	}

	excerpt := sanity.ExtractExcerpt(payload.Body, payload.Excerpt)
	post := model.PostNotification{
		Title:   payload.Title,
		Slug:    slug,
		Excerpt: excerpt,
		Author:  payload.AuthorName(h.config.DefaultAuthor),
	}
	if ok {
		post.PublishedAt = &publishedAt
	}

	result, err := h.notifier.NotifySubscribers(r.Context(), post, h.config.NotifyAPIKey)
	if err != nil {
		h.handleNotifyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Success: true,
		Message: "Webhook processed successfully",
		Post: webhookPostSummary{
			Title:       payload.Title,
			Slug:        slug,
			PublishedAt: payload.PublishedAt,
			Excerpt:     previewExcerpt(excerpt),
		},
		Notification: webhookNotificationSummary{
			SentTo:    result.SentTo,
			MessageID: result.MessageID,
		},
	})
}

// handleNotifyError は通知処理の失敗を500で返す。
// 通知APIキーの不一致はサーバー側の設定不備のため、401ではなく500とする。
func (h *WebhookHandler) handleNotifyError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && mapAPIErrorToHTTPStatus(apiErr) < http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Webhookからの通知処理に失敗しました",
			slog.String("code", apiErr.Code),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	handleServiceError(w, r, err)
}

// MethodNotAllowed はPOST以外のリクエストに405を返す。
// GET /api/webhooks/sanity
func (h *WebhookHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusMethodNotAllowed,
		model.NewMethodNotAllowedError("This webhook endpoint only accepts POST requests from Sanity."))
}

func previewExcerpt(excerpt string) string {
	if utf8.RuneCountInString(excerpt) <= webhookExcerptPreview {
		return excerpt
	}
	return string([]rune(excerpt)[:webhookExcerptPreview]) + "..."
}
