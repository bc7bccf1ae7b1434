package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/subscription"
)

// --- モック定義 ---

// mockContentResolver はContentResolverInterfaceのモック実装。
type mockContentResolver struct {
	projects      []model.Project
	posts         []model.Post
	featured      []model.Post
	profile       model.Profile
	categoryCalls []string
}

func (m *mockContentResolver) ListProjects(ctx context.Context) []model.Project {
	return m.projects
}

func (m *mockContentResolver) ListProjectsByCategory(ctx context.Context, category string) []model.Project {
	m.categoryCalls = append(m.categoryCalls, category)
	out := []model.Project{}
	for _, p := range m.projects {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockContentResolver) GetProjectBySlug(ctx context.Context, slug string) *model.Project {
	for i := range m.projects {
		if m.projects[i].Slug == slug {
			return &m.projects[i]
		}
	}
	return nil
}

func (m *mockContentResolver) ListPosts(ctx context.Context) []model.Post {
	return m.posts
}

func (m *mockContentResolver) ListFeaturedPosts(ctx context.Context) []model.Post {
	return m.featured
}

func (m *mockContentResolver) GetPostBySlug(ctx context.Context, slug string) *model.Post {
	for i := range m.posts {
		if m.posts[i].Slug == slug {
			return &m.posts[i]
		}
	}
	return nil
}

func (m *mockContentResolver) GetProfile(ctx context.Context) model.Profile {
	return m.profile
}

// mockSubscriptionService はSubscriptionServiceInterfaceのモック実装。
type mockSubscriptionService struct {
	subscribeFn   func(ctx context.Context, email, name string) (*subscription.SubscribeResult, error)
	unsubscribeFn func(ctx context.Context, email, reason string) (*subscription.UnsubscribeResult, error)
	listActiveFn  func(ctx context.Context) ([]model.Subscriber, error)
}

func (m *mockSubscriptionService) Subscribe(ctx context.Context, email, name string) (*subscription.SubscribeResult, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email, name)
	}
	return &subscription.SubscribeResult{}, nil
}

func (m *mockSubscriptionService) Unsubscribe(ctx context.Context, email, reason string) (*subscription.UnsubscribeResult, error) {
	if m.unsubscribeFn != nil {
		return m.unsubscribeFn(ctx, email, reason)
	}
	return &subscription.UnsubscribeResult{}, nil
}

func (m *mockSubscriptionService) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return []model.Subscriber{}, nil
}

// mockContactService はContactServiceInterfaceのモック実装。
type mockContactService struct {
	submitFn func(ctx context.Context, in contact.Input) (*contact.Result, error)
	calls    int
}

func (m *mockContactService) Submit(ctx context.Context, in contact.Input) (*contact.Result, error) {
	m.calls++
	if m.submitFn != nil {
		return m.submitFn(ctx, in)
	}
	return &contact.Result{}, nil
}

// mockNotifier はNotifierInterfaceのモック実装。
type mockNotifier struct {
	notifyFn func(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error)
	calls    int
	lastPost model.PostNotification
	lastKey  string
}

func (m *mockNotifier) NotifySubscribers(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error) {
	m.calls++
	m.lastPost = post
	m.lastKey = apiKey
	if m.notifyFn != nil {
		return m.notifyFn(ctx, post, apiKey)
	}
	return &model.NotificationResult{SentTo: 1, MessageID: "email_1", Message: "ok"}, nil
}

// --- ヘルパー ---

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// apiErrorBody はエラーレスポンスのテスト用表現。
type apiErrorBody struct {
	Success   bool              `json:"success"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Fields    map[string]string `json:"fields"`
	ResetTime string            `json:"resetTime"`
}

// parseAPIErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) apiErrorBody {
	t.Helper()
	var result apiErrorBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディをmapにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
