package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/portfolio/internal/contact"
)

// ContactServiceInterface はお問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, in contact.Input) (*contact.Result, error)
}

// ContactHandler はお問い合わせフォームのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit はお問い合わせを受け付ける。
// 入力検証はストアやメール送信より前に行う。
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Submit(r.Context(), contact.Input{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	message := "Message sent successfully!"
	if result.DevMode {
		message = "Message received (email service not configured in development)"
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: message})
}
