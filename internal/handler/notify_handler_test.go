package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

func validNotify() map[string]string {
	return map[string]string{
		"title":       "Staying Human",
		"slug":        "staying-human",
		"excerpt":     "Notes on building with care.",
		"publishedAt": "2026-03-01T09:00:00Z",
		"apiKey":      "notify-secret",
	}
}

func TestNotifyHandler_Notify(t *testing.T) {
	notifier := &mockNotifier{
		notifyFn: func(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error) {
			return &model.NotificationResult{
				SentTo:    3,
				MessageID: "email_abc",
				Message:   `Notification sent to 3 subscribers about "Staying Human"`,
			}, nil
		},
	}
	h := NewNotifyHandler(notifier)

	w := httptest.NewRecorder()
	h.Notify(w, jsonRequest(http.MethodPost, "/api/notify-subscribers", validNotify()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["sentTo"] != float64(3) {
		t.Errorf("body = %v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["id"] != "email_abc" {
		t.Errorf("data = %v, want id email_abc", body["data"])
	}

	if notifier.lastKey != "notify-secret" {
		t.Errorf("apiKey = %q", notifier.lastKey)
	}
	if notifier.lastPost.Slug != "staying-human" {
		t.Errorf("slug = %q", notifier.lastPost.Slug)
	}
	want := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if notifier.lastPost.PublishedAt == nil || !notifier.lastPost.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", notifier.lastPost.PublishedAt, want)
	}
}

func TestNotifyHandler_Notify_NoSubscribersOmitsData(t *testing.T) {
	notifier := &mockNotifier{
		notifyFn: func(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error) {
			return &model.NotificationResult{Message: "No subscribers to notify"}, nil
		},
	}
	h := NewNotifyHandler(notifier)

	w := httptest.NewRecorder()
	h.Notify(w, jsonRequest(http.MethodPost, "/api/notify-subscribers", validNotify()))

	body := decodeBody(t, w)
	if body["sentTo"] != float64(0) || body["message"] != "No subscribers to notify" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["data"]; ok {
		t.Error("送信IDがない場合はdataを含めない")
	}
}

func TestNotifyHandler_Notify_Validation(t *testing.T) {
	tests := []struct {
		field   string
		value   string
		wantMsg string
	}{
		{"title", "", "Title is required"},
		{"slug", "", "Slug is required"},
		{"excerpt", "", "Excerpt is required"},
		{"apiKey", "", "API key is required"},
		{"publishedAt", "last tuesday", "Published date must be an ISO 8601 timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			notifier := &mockNotifier{}
			h := NewNotifyHandler(notifier)

			payload := validNotify()
			payload[tt.field] = tt.value

			w := httptest.NewRecorder()
			h.Notify(w, jsonRequest(http.MethodPost, "/api/notify-subscribers", payload))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := parseAPIErrorResponse(t, w); body.Fields[tt.field] != tt.wantMsg {
				t.Errorf("fields = %v, want %s=%q", body.Fields, tt.field, tt.wantMsg)
			}
			if notifier.calls != 0 {
				t.Errorf("notifier calls = %d, want 0", notifier.calls)
			}
		})
	}
}

func TestNotifyHandler_Notify_DateOnly(t *testing.T) {
	notifier := &mockNotifier{}
	h := NewNotifyHandler(notifier)

	payload := validNotify()
	payload["publishedAt"] = "2026-03-01"

	w := httptest.NewRecorder()
	h.Notify(w, jsonRequest(http.MethodPost, "/api/notify-subscribers", payload))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if notifier.lastPost.PublishedAt == nil || notifier.lastPost.PublishedAt.Day() != 1 {
		t.Errorf("PublishedAt = %v", notifier.lastPost.PublishedAt)
	}
}

func TestNotifyHandler_Notify_Unauthorized(t *testing.T) {
	notifier := &mockNotifier{
		notifyFn: func(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewNotifyHandler(notifier)

	w := httptest.NewRecorder()
	h.Notify(w, jsonRequest(http.MethodPost, "/api/notify-subscribers", validNotify()))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if body := parseAPIErrorResponse(t, w); body.Message != "Invalid API key" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestNotifyHandler_MethodNotAllowed(t *testing.T) {
	h := NewNotifyHandler(&mockNotifier{})

	w := httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodGet, "/api/notify-subscribers", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if body := parseAPIErrorResponse(t, w); body.Message != "This endpoint only accepts POST requests." {
		t.Errorf("message = %q", body.Message)
	}
}
