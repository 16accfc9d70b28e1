package scanner

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tw_scanner_backend/services/market"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (tc *testClock) now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.t
}

func (tc *testClock) set(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.t = t
}

func newTestSession(t *testing.T, start time.Time) (*market.Session, *testClock) {
	t.Helper()
	clock := &testClock{t: start}
	return market.NewSession(clock.now), clock
}

func taipeiLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// Wednesday during the trading session.
func wednesdayAt(loc *time.Location, hour, min int) time.Time {
	return time.Date(2026, 8, 19, hour, min, 0, 0, loc)
}

func TestCache_FreshHitSkipsRebuild(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 10, 0))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() ([]string, error) {
		builds++
		return []string{"2330"}, nil
	})

	if _, st := c.Get(false); st.FromCache {
		t.Error("first get should rebuild")
	}
	clock.set(wednesdayAt(loc, 10, 2))
	payload, st := c.Get(false)
	if !st.FromCache {
		t.Error("second get inside TTL should hit cache")
	}
	if builds != 1 {
		t.Errorf("expected 1 build, got %d", builds)
	}
	if len(payload) != 1 || payload[0] != "2330" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestCache_MarketTTLExpiry(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 10, 0))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() (int, error) {
		builds++
		return builds, nil
	})

	c.Get(false)
	clock.set(wednesdayAt(loc, 10, 6))
	v, st := c.Get(false)
	if st.FromCache {
		t.Error("expected rebuild after market TTL elapsed")
	}
	if v != 2 || builds != 2 {
		t.Errorf("expected second build, got v=%d builds=%d", v, builds)
	}
}

func TestCache_OffHoursTTLLonger(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 15, 0))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() (int, error) {
		builds++
		return builds, nil
	})

	c.Get(false)
	clock.set(wednesdayAt(loc, 15, 30))
	if _, st := c.Get(false); !st.FromCache {
		t.Error("30 minutes after close should still be cached under the off-hours TTL")
	}
	if builds != 1 {
		t.Errorf("expected 1 build, got %d", builds)
	}
}

func TestCache_PreMarketWriteStaleAtOpen(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 8, 50))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() (int, error) {
		builds++
		return builds, nil
	})

	c.Get(false)
	// Only 11 minutes later, inside even the market TTL window, but the
	// session has opened since the write.
	clock.set(wednesdayAt(loc, 9, 1))
	if _, st := c.Get(false); st.FromCache {
		t.Error("pre-market payload must go stale once the session opens")
	}
	if builds != 2 {
		t.Errorf("expected rebuild at open, got %d builds", builds)
	}
}

func TestCache_NewDayForcesStale(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 14, 0))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, 24*time.Hour, func() (int, error) {
		builds++
		return builds, nil
	})

	c.Get(false)
	clock.set(time.Date(2026, 8, 20, 7, 0, 0, 0, loc))
	if _, st := c.Get(false); st.FromCache {
		t.Error("payload from the previous calendar day must be stale")
	}
	if builds != 2 {
		t.Errorf("expected rebuild on new day, got %d builds", builds)
	}
}

func TestCache_RebuildFailureServesPreviousPayload(t *testing.T) {
	loc := taipeiLoc(t)
	sess, clock := newTestSession(t, wednesdayAt(loc, 10, 0))

	fail := false
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() (string, error) {
		if fail {
			return "", errors.New("source unreachable")
		}
		return "good", nil
	})

	c.Get(false)
	fail = true
	clock.set(wednesdayAt(loc, 10, 10))
	payload, st := c.Get(false)
	if payload != "good" {
		t.Errorf("expected previous payload, got %q", payload)
	}
	if !st.Stale || st.Error {
		t.Errorf("expected stale-not-error status, got %+v", st)
	}
}

func TestCache_ColdFailureReturnsErrorFlag(t *testing.T) {
	loc := taipeiLoc(t)
	sess, _ := newTestSession(t, wednesdayAt(loc, 10, 0))

	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() ([]int, error) {
		return nil, errors.New("source unreachable")
	})

	payload, st := c.Get(false)
	if len(payload) != 0 {
		t.Errorf("expected empty payload, got %v", payload)
	}
	if !st.Error {
		t.Error("expected error flag on cold failure")
	}
}

func TestCache_ForceBypassesFreshPayload(t *testing.T) {
	loc := taipeiLoc(t)
	sess, _ := newTestSession(t, wednesdayAt(loc, 10, 0))

	builds := 0
	c := NewCache("test", sess, 5*time.Minute, time.Hour, func() (int, error) {
		builds++
		return builds, nil
	})

	c.Get(false)
	if v, st := c.Get(true); st.FromCache || v != 2 {
		t.Errorf("force should rebuild: v=%d status=%+v", v, st)
	}
}

func TestRun_CollectsMatchesAndFoldsErrors(t *testing.T) {
	codes := []string{"1101", "2330", "2454", "9999", "3008"}
	got := Run("test", codes, 3, func(code string) Outcome[string] {
		switch code {
		case "2330", "2454":
			return Match(code)
		case "9999":
			return Failed[string](errors.New("boom"))
		default:
			return NoMatch[string]()
		}
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(got), got)
	}
	seen := map[string]bool{}
	for _, c := range got {
		seen[c] = true
	}
	if !seen["2330"] || !seen["2454"] {
		t.Errorf("missing expected matches: %v", got)
	}
}

func TestRun_NoCrossCallLeakage(t *testing.T) {
	eval := func(code string) Outcome[string] { return Match(code) }
	first := Run("test", []string{"a", "b"}, 2, eval)
	second := Run("test", []string{"c"}, 2, eval)
	if len(first) != 2 || len(second) != 1 {
		t.Errorf("runs leaked state: first=%v second=%v", first, second)
	}
}
