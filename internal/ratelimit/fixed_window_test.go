package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock はテスト用の手動で進める時計。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestFixedWindow_AllowsFiveThenDeniesSixth(t *testing.T) {
	clock := newClock()
	fw := NewFixedWindow(5, 15*time.Minute, WithClock(clock.Now))

	for i := 1; i <= 5; i++ {
		res := fw.Check("1.2.3.4")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	res := fw.Check("1.2.3.4")
	if res.Allowed {
		t.Fatal("6th request should be denied")
	}
	if !res.ResetAt.After(clock.Now()) {
		t.Errorf("ResetAt = %v, want a time after %v", res.ResetAt, clock.Now())
	}
	if want := clock.Now().Add(15 * time.Minute); !res.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", res.ResetAt, want)
	}
}

func TestFixedWindow_ResetsAfterWindowElapses(t *testing.T) {
	clock := newClock()
	fw := NewFixedWindow(5, 15*time.Minute, WithClock(clock.Now))

	for i := 0; i < 6; i++ {
		fw.Check("k")
	}

	clock.Advance(15*time.Minute + time.Second)

	res := fw.Check("k")
	if !res.Allowed {
		t.Fatal("request after the window elapsed should be allowed")
	}

	// カウンタは1から再開しているので、さらに4件許可される
	for i := 0; i < 4; i++ {
		if !fw.Check("k").Allowed {
			t.Fatalf("request %d in the new window should be allowed", i+2)
		}
	}
	if fw.Check("k").Allowed {
		t.Error("6th request in the new window should be denied")
	}
}

func TestFixedWindow_DeniedRequestsDoNotExtendWindow(t *testing.T) {
	clock := newClock()
	fw := NewFixedWindow(1, time.Minute, WithClock(clock.Now))

	first := fw.Check("k")
	clock.Advance(30 * time.Second)
	denied := fw.Check("k")

	if denied.Allowed {
		t.Fatal("second request should be denied")
	}
	if !denied.ResetAt.Equal(first.ResetAt) {
		t.Errorf("ResetAt moved from %v to %v", first.ResetAt, denied.ResetAt)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	fw := NewFixedWindow(1, time.Minute, WithClock(newClock().Now))

	if !fw.Check("a").Allowed {
		t.Fatal("first request for a should be allowed")
	}
	if !fw.Check("b").Allowed {
		t.Error("first request for b should be allowed regardless of a")
	}
	if fw.Check("a").Allowed {
		t.Error("second request for a should be denied")
	}
	if fw.Len() != 2 {
		t.Errorf("Len() = %d, want 2", fw.Len())
	}
}

func TestFixedWindow_Defaults(t *testing.T) {
	fw := NewFixedWindow(0, 0)
	if fw.max != DefaultMax {
		t.Errorf("max = %d, want %d", fw.max, DefaultMax)
	}
	if fw.window != DefaultWindow {
		t.Errorf("window = %v, want %v", fw.window, DefaultWindow)
	}
}

func TestFixedWindow_ConcurrentChecksCountExactly(t *testing.T) {
	fw := NewFixedWindow(50, time.Hour, WithClock(newClock().Now))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fw.Check("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed)
	}
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	denied := Result{Allowed: false, ResetAt: now.Add(90 * time.Second)}
	if got := denied.RetryAfter(now); got != 90*time.Second {
		t.Errorf("RetryAfter = %v, want %v", got, 90*time.Second)
	}

	allowed := Result{Allowed: true, ResetAt: now.Add(time.Minute)}
	if got := allowed.RetryAfter(now); got != 0 {
		t.Errorf("RetryAfter for allowed = %v, want 0", got)
	}
}
