package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

// fakeUpstream scripts per-key responses and records attempt order.
type fakeUpstream struct {
	mu        sync.Mutex
	attempts  []string
	responses map[string]func(w http.ResponseWriter)
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{responses: make(map[string]func(w http.ResponseWriter))}
}

func (f *fakeUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		f.mu.Lock()
		f.attempts = append(f.attempts, key)
		respond := f.responses[key]
		f.mu.Unlock()

		if respond != nil {
			respond(w)
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	}
}

func (f *fakeUpstream) attemptedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attempts...)
}

func respondOK(w http.ResponseWriter) {
	fmt.Fprint(w, `{"items":[{"id":"UCxxxxxxxxxxxxxxxxxxxxxx"}]}`)
}

func respondQuotaExceeded(w http.ResponseWriter) {
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, `{"error":{"code":403,"message":"Daily Limit Exceeded","errors":[{"reason":"quotaExceeded"}]}}`)
}

func respondBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid filter","errors":[{"reason":"invalidFilters"}]}}`)
}

func TestCallEmptyPool(t *testing.T) {
	c := newTestClient("http://unused")

	_, err := c.Call(context.Background(), "channels", nil)
	appErr, ok := err.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != utils.ErrorCodeNoAPIKeys {
		t.Errorf("Expected NO_API_KEYS_CONFIGURED, got %s", appErr.Code)
	}
}

func TestCallSkipsInvalidKey(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["good"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "bad", Status: models.KeyStatusInvalid},
		{Value: "good", Status: models.KeyStatusUnknown},
	})

	if _, err := c.Call(context.Background(), "channels", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, key := range upstream.attemptedKeys() {
		if key == "bad" {
			t.Error("Invalid key must never be attempted in a multi-key pool")
		}
	}
}

func TestCallSingleBadKeyStillAttempted(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["lonely"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "lonely", Status: models.KeyStatusInvalid},
	})

	if _, err := c.Call(context.Background(), "channels", nil); err != nil {
		t.Fatalf("Expected lone key to be attempted despite status, got %v", err)
	}
	if got := upstream.attemptedKeys(); len(got) != 1 || got[0] != "lonely" {
		t.Errorf("Expected exactly one attempt with the lone key, got %v", got)
	}
}

func TestCallRotatesOnQuotaExhaustion(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["first"] = respondQuotaExceeded
	upstream.responses["second"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "first", Status: models.KeyStatusValid},
		{Value: "second", Status: models.KeyStatusValid},
	})

	var cursorMoves []int
	c.OnIndexChanged(func(i int) { cursorMoves = append(cursorMoves, i) })

	body, err := c.Call(context.Background(), "channels", map[string]string{"part": "id"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(string(body), "items") {
		t.Errorf("Expected parsed upstream body, got %s", body)
	}

	if got := upstream.attemptedKeys(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Expected rotation first->second, got %v", got)
	}

	// The winner becomes the new cursor position.
	if got := c.CurrentIndex(); got != 1 {
		t.Errorf("Expected cursor at winning index 1, got %d", got)
	}
	if len(cursorMoves) != 1 || cursorMoves[0] != 1 {
		t.Errorf("Expected one cursor notification with index 1, got %v", cursorMoves)
	}

	// Usage lands on the winner only.
	keys := c.Keys()
	if keys[0].DailyUsage != 0 {
		t.Errorf("Expected no charge against the exhausted key, got %d", keys[0].DailyUsage)
	}
	if keys[1].DailyUsage != 1 {
		t.Errorf("Expected winning key charged 1 unit, got %d", keys[1].DailyUsage)
	}
}

func TestCallHardErrorDoesNotRotate(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["first"] = respondBadRequest
	upstream.responses["second"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "first", Status: models.KeyStatusValid},
		{Value: "second", Status: models.KeyStatusValid},
	})

	_, err := c.Call(context.Background(), "channels", map[string]string{"id": "nonsense"})
	appErr, ok := err.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != utils.ErrorCodeYouTubeAPIError {
		t.Errorf("Expected YOUTUBE_API_ERROR, got %s", appErr.Code)
	}
	if got := upstream.attemptedKeys(); len(got) != 1 {
		t.Errorf("A request-shape failure must not rotate, got attempts %v", got)
	}
}

func TestCallAllKeysExhausted(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["first"] = respondQuotaExceeded
	upstream.responses["second"] = respondQuotaExceeded
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "first", Status: models.KeyStatusValid},
		{Value: "second", Status: models.KeyStatusValid},
	})

	_, err := c.Call(context.Background(), "channels", nil)
	appErr, ok := err.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != utils.ErrorCodeAllKeysExhausted {
		t.Errorf("Expected ALL_KEYS_EXHAUSTED, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "quotaExceeded") {
		t.Errorf("Expected the last underlying error embedded, got %q", appErr.Message)
	}
	// Every eligible key attempted exactly once.
	if got := upstream.attemptedKeys(); len(got) != 2 {
		t.Errorf("Expected exactly 2 attempts, got %v", got)
	}
}

func TestCallStartsScanAtCursor(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["a"] = respondOK
	upstream.responses["b"] = respondOK
	upstream.responses["c"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "a", Status: models.KeyStatusValid},
		{Value: "b", Status: models.KeyStatusValid},
		{Value: "c", Status: models.KeyStatusValid},
	})
	c.mu.Lock()
	c.currentIndex = 1
	c.mu.Unlock()

	if _, err := c.Call(context.Background(), "videos", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := upstream.attemptedKeys(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Expected scan to start at cursor (key b), got %v", got)
	}
}

func TestCallSkipsKeyOverDailyCap(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["fresh"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "drained", Status: models.KeyStatusValid, DailyUsage: 10000, LastUsedDate: today()},
		{Value: "fresh", Status: models.KeyStatusValid},
	})

	if _, err := c.Call(context.Background(), "channels", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := upstream.attemptedKeys(); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("Expected the capped key skipped, got attempts %v", got)
	}
}

func TestCallCappedKeyEligibleAfterDayRollover(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["stale"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	c := newTestClient(ts.URL)
	// Capped yesterday: today it starts from zero.
	c.LoadKeys([]models.APIKey{
		{Value: "stale", Status: models.KeyStatusValid, DailyUsage: 10000, LastUsedDate: "2020-01-01"},
		{Value: "other", Status: models.KeyStatusValid},
	})

	if _, err := c.Call(context.Background(), "channels", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := upstream.attemptedKeys(); len(got) != 1 || got[0] != "stale" {
		t.Errorf("Expected yesterday's cap to be ignored, got attempts %v", got)
	}
}

func TestCallRotatesOnTransportFailure(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.responses["good"] = respondOK
	ts := httptest.NewServer(upstream.handler())
	defer ts.Close()

	// First key points at a dead endpoint via a scripted hijack: simulate by
	// closing the connection mid-response.
	upstream.responses["flaky"] = func(w http.ResponseWriter) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("hijack unsupported")
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}

	c := newTestClient(ts.URL)
	c.LoadKeys([]models.APIKey{
		{Value: "flaky", Status: models.KeyStatusValid},
		{Value: "good", Status: models.KeyStatusValid},
	})

	if _, err := c.Call(context.Background(), "channels", nil); err != nil {
		t.Fatalf("Expected rotation past the transport failure, got %v", err)
	}
	if got := upstream.attemptedKeys(); len(got) != 2 || got[1] != "good" {
		t.Errorf("Expected flaky then good, got %v", got)
	}
}
