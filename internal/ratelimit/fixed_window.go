// Package ratelimit はクライアントキー単位の固定ウィンドウ・レート制限を提供する。
package ratelimit

import (
	"sync"
	"time"
)

// デフォルトのウィンドウ設定（15分間に5リクエスト）。
const (
	DefaultMax    = 5
	DefaultWindow = 15 * time.Minute
)

// Result はレート制限判定の結果。
// 拒否時のResetAtは現在のウィンドウが終了する時刻。
type Result struct {
	Allowed bool
	ResetAt time.Time
}

// RetryAfter はリセットまでの残り時間を返す。許可済みの場合は0。
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// window はキーごとのリクエスト数とリセット時刻。
type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow はキーごとの固定ウィンドウ・カウンタ。
//
// 初回リクエスト、またはリセット時刻を過ぎた後のリクエストで新しいウィンドウ
// （count=1, reset=now+window）を開始して許可する。それ以外はcountがmax未満の間
// インクリメントして許可し、max以上になると拒否してリセット時刻を返す。
// ウィンドウ境界ではバーストが発生しうる。
//
// マップのエントリは削除されないため、異なるキーの数に比例してメモリが増える。
// プロセスローカルであり、複数インスタンス間では共有されない。
type FixedWindow struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option はFixedWindowの生成オプション。
type Option func(*FixedWindow)

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) Option {
	return func(fw *FixedWindow) {
		fw.now = now
	}
}

// NewFixedWindow はウィンドウあたりmax件を許可するFixedWindowを生成する。
// maxまたはwindowが0以下の場合はデフォルト値を使用する。
func NewFixedWindow(max int, period time.Duration, opts ...Option) *FixedWindow {
	if max <= 0 {
		max = DefaultMax
	}
	if period <= 0 {
		period = DefaultWindow
	}
	fw := &FixedWindow{
		max:     max,
		window:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw
}

// Check はkeyのリクエストを1件記録し、許可されるかを返す。
func (fw *FixedWindow) Check(key string) Result {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	w, ok := fw.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(fw.window)}
		fw.windows[key] = w
		return Result{Allowed: true, ResetAt: w.resetAt}
	}

	if w.count >= fw.max {
		return Result{Allowed: false, ResetAt: w.resetAt}
	}

	w.count++
	return Result{Allowed: true, ResetAt: w.resetAt}
}

// Len は保持しているキー数を返す。テストおよびメトリクス用。
func (fw *FixedWindow) Len() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.windows)
}
