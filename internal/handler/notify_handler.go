package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/portfolio/internal/model"
)

// NotifierInterface は公開記事の購読者通知を行うインターフェース。
type NotifierInterface interface {
	NotifySubscribers(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error)
}

// NotifyHandler は購読者通知のHTTPハンドラー。
type NotifyHandler struct {
	notifier NotifierInterface
}

// NewNotifyHandler はNotifyHandlerを生成する。
func NewNotifyHandler(notifier NotifierInterface) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

// deliveryData はメール送信サービスが返した送信ID。
type deliveryData struct {
	ID string `json:"id"`
}

// notifyResponse は通知結果のレスポンス。
type notifyResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	SentTo  int           `json:"sentTo"`
	Data    *deliveryData `json:"data,omitempty"`
}

// Notify は記事の公開を有効な購読者全員に通知する。
// 同じ記事を再送すると再度全員に送信する。
// POST /api/notify-subscribers
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.notifier.NotifySubscribers(r.Context(), model.PostNotification{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		PublishedAt: req.publishedTime(),
		Author:      req.Author,
	}, req.APIKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newNotifyResponse(result))
}

// MethodNotAllowed はPOST以外のリクエストに405を返す。
// GET /api/notify-subscribers
func (h *NotifyHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusMethodNotAllowed,
		model.NewMethodNotAllowedError("This endpoint only accepts POST requests."))
}

func newNotifyResponse(result *model.NotificationResult) notifyResponse {
	resp := notifyResponse{
		Success: true,
		Message: result.Message,
		SentTo:  result.SentTo,
	}
	if result.MessageID != "" {
		resp.Data = &deliveryData{ID: result.MessageID}
	}
	return resp
}
