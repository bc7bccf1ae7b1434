package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/subscription"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Subscribe はemailを購読者として登録する。
	Subscribe(ctx context.Context, email, name string) (*subscription.SubscribeResult, error)
	// Unsubscribe は購読を解除する。
	Unsubscribe(ctx context.Context, email, reason string) (*subscription.UnsubscribeResult, error)
	// ListActive は有効な購読者の一覧を返す。
	ListActive(ctx context.Context) ([]model.Subscriber, error)
}

// SubscriberHandler はニュースレター購読のHTTPハンドラー。
type SubscriberHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriberHandler はSubscriberHandlerを生成する。
func NewSubscriberHandler(service SubscriptionServiceInterface) *SubscriberHandler {
	return &SubscriberHandler{service: service}
}

// messageResponse は成功時の共通レスポンス。
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// subscriberResponse は購読者一覧の1件。
type subscriberResponse struct {
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// subscriberListResponse は購読者一覧のレスポンス。
type subscriberListResponse struct {
	Count       int                  `json:"count"`
	Subscribers []subscriberResponse `json:"subscribers"`
}

// oneClickUnsubscribeResponse はワンクリック購読解除のレスポンス。
type oneClickUnsubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// Subscribe は購読を登録する。
// POST /api/subscribe
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if _, err := h.service.Subscribe(r.Context(), req.Email, req.Name); err != nil {
		handleServiceError(w, r, err)
		return
	}

	greeting := "Thanks for subscribing"
	if req.Name != "" {
		greeting += ", " + req.Name
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: greeting + "! Check your email for a welcome message.",
	})
}

// ListSubscribers は有効な購読者の一覧を返す。
// GET /api/subscribe
func (h *SubscriberHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := subscriberListResponse{
		Count:       len(subs),
		Subscribers: make([]subscriberResponse, len(subs)),
	}
	for i, sub := range subs {
		resp.Subscribers[i] = subscriberResponse{
			Email:        sub.Email,
			Name:         sub.Name,
			SubscribedAt: sub.SubscribedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Unsubscribe は購読を解除する。
// POST /api/unsubscribe
func (h *SubscriberHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Unsubscribe(r.Context(), req.Email, req.Reason)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	suffix := "A confirmation email has been sent."
	if result.DevMode {
		suffix = "(Dev mode - no email sent)"
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "You have been successfully unsubscribed. " + suffix,
	})
}

// UnsubscribeLink はメール内リンクからのワンクリック購読解除を処理する。
// 解除済みのemailも成功として扱う。
// GET /api/unsubscribe?email=
func (h *SubscriberHandler) UnsubscribeLink(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"email": "Email parameter is required for unsubscribe.",
		}))
		return
	}

	if _, err := h.service.Unsubscribe(r.Context(), email, ""); err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAlreadyUnsubscribed {
			handleServiceError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, oneClickUnsubscribeResponse{
		Success: true,
		Message: "You have been successfully unsubscribed.",
		Email:   email,
	})
}
