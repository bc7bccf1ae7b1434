package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/ratelimit"
)

// mockRecorder はRejectionRecorderのテスト用モック。
type mockRecorder struct {
	mu     sync.Mutex
	scopes []string
}

func (m *mockRecorder) RecordRateLimited(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes = append(m.scopes, scope)
}

func (m *mockRecorder) count(scope string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.scopes {
		if s == scope {
			n++
		}
	}
	return n
}

func newRequestFrom(method, path, ip string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":54321"
	return req
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// --- GeneralMiddleware (API全般) のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2, // 2 req/sec
		GeneralBurst:    5, // バースト5
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg, nil)
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.1"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfterHeader(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		CleanupInterval: 1 * time.Minute,
	}

	recorder := &mockRecorder{}
	rl := NewRateLimiter(cfg, recorder)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.2"))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.2"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("Retry-After header should be set")
	}
	if sec, err := strconv.Atoi(retryAfter); err != nil || sec < 1 {
		t.Errorf("Retry-After = %q, want a positive integer", retryAfter)
	}

	if got := recorder.count("general"); got != 1 {
		t.Errorf("recorded general rejections = %d, want 1", got)
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg, nil)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	// クライアントAがリミットを使い切る
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.3"))
	}

	// クライアントBは影響を受けない
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.4"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount() = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		CleanupInterval: 50 * time.Millisecond, // テスト用に短く
	}

	rl := NewRateLimiter(cfg, nil)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)
	handler.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodGet, "/api/posts", "198.51.100.5"))

	if rl.LimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(250 * time.Millisecond)

	if count := rl.LimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(60)
	if cfg.GeneralRate != 1 {
		t.Errorf("GeneralRate = %v, want 1", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 60 {
		t.Errorf("GeneralBurst = %d, want 60", cfg.GeneralBurst)
	}

	def := DefaultRateLimiterConfig()
	if def.GeneralBurst != 120 {
		t.Errorf("default GeneralBurst = %d, want 120", def.GeneralBurst)
	}
	if def.CleanupInterval != 5*time.Minute {
		t.Errorf("default CleanupInterval = %v, want 5m", def.CleanupInterval)
	}

	if got := NewRateLimiterConfig(0).GeneralBurst; got != 120 {
		t.Errorf("GeneralBurst for 0 = %d, want 120", got)
	}
}

// --- FixedWindowMiddleware (フォーム送信) のテスト ---

func TestFixedWindowMiddleware_AllowsFiveThenReturns429(t *testing.T) {
	fw := ratelimit.NewFixedWindow(5, 15*time.Minute)
	recorder := &mockRecorder{}
	handler := NewFixedWindowMiddleware(fw, "contact", recorder)(okHandler)

	for i := 1; i <= 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newRequestFrom(http.MethodPost, "/api/contact", "203.0.113.10"))
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newRequestFrom(http.MethodPost, "/api/contact", "203.0.113.10"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
	if body.ResetTime == nil || !body.ResetTime.After(time.Now()) {
		t.Errorf("resetTime = %v, want a future time", body.ResetTime)
	}

	sec, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After is not an integer: %v", err)
	}
	if sec < 1 || sec > int((15 * time.Minute).Seconds()) {
		t.Errorf("Retry-After = %d, want within (0, 900]", sec)
	}

	if got := recorder.count("contact"); got != 1 {
		t.Errorf("recorded contact rejections = %d, want 1", got)
	}
}

func TestFixedWindowMiddleware_UsesForwardedClientIPBehindRealIP(t *testing.T) {
	fw := ratelimit.NewFixedWindow(1, time.Minute)
	handler := chimw.RealIP(NewFixedWindowMiddleware(fw, "newsletter", nil)(okHandler))

	req := newRequestFrom(http.MethodPost, "/api/newsletter/subscribe", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// 同じプロキシ経由でも別クライアントなら許可される
	other := newRequestFrom(http.MethodPost, "/api/newsletter/subscribe", "10.0.0.2")
	other.Header.Set("X-Forwarded-For", "192.0.2.2, 10.0.0.2")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("other client: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	again := newRequestFrom(http.MethodPost, "/api/newsletter/subscribe", "10.0.0.2")
	again.Header.Set("X-Forwarded-For", "192.0.2.1")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, again)
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("same client: status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}

// TestFixedWindowMiddleware_IgnoresSpoofedForwardedFor はRealIPなしでは
// X-Forwarded-Forを毎回変えても同じ接続元として数えることを検証する。
func TestFixedWindowMiddleware_IgnoresSpoofedForwardedFor(t *testing.T) {
	fw := ratelimit.NewFixedWindow(2, time.Minute)
	handler := NewFixedWindowMiddleware(fw, "contact", nil)(okHandler)

	var last int
	for i := 0; i < 3; i++ {
		req := newRequestFrom(http.MethodPost, "/api/contact", "198.51.100.30")
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		req.Header.Set("X-Real-IP", "203.0.113."+strconv.Itoa(i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Result().StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestFixedWindowMiddleware_SeparateWindowsPerEndpoint(t *testing.T) {
	contact := NewFixedWindowMiddleware(ratelimit.NewFixedWindow(1, time.Minute), "contact", nil)(okHandler)
	subscribe := NewFixedWindowMiddleware(ratelimit.NewFixedWindow(1, time.Minute), "subscribe", nil)(okHandler)

	contact.ServeHTTP(httptest.NewRecorder(), newRequestFrom(http.MethodPost, "/api/contact", "203.0.113.20"))

	w := httptest.NewRecorder()
	subscribe.ServeHTTP(w, newRequestFrom(http.MethodPost, "/api/newsletter/subscribe", "203.0.113.20"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// --- ClientIP のテスト ---

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{"forwarded headers are ignored", "203.0.113.1, 10.0.0.1", "198.51.100.9", "10.0.0.1:1234", "10.0.0.1"},
		{"remote addr host", "", "", "192.0.2.7:5555", "192.0.2.7"},
		{"remote addr without port", "", "", "192.0.2.8", "192.0.2.8"},
		{"ipv6 remote addr", "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"unknown", "", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestClientIP_AfterRealIP はRealIPを通した後はプロキシヘッダーのアドレスを返すことを検証する。
func TestClientIP_AfterRealIP(t *testing.T) {
	var got string
	handler := chimw.RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	req := newRequestFrom(http.MethodGet, "/", "10.0.0.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.1" {
		t.Errorf("ClientIP() = %q, want %q", got, "203.0.113.1")
	}
}
