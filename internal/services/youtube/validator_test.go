package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/models"
)

func TestValidateEmptyKey(t *testing.T) {
	var requests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	check := c.ValidateKey(context.Background(), "   ")

	if check.Status != models.KeyStatusInvalid {
		t.Errorf("Expected invalid, got %s", check.Status)
	}
	if check.Error != "Key cannot be empty" {
		t.Errorf("Expected empty-key message, got %q", check.Error)
	}
	if atomic.LoadInt32(&requests) != 0 {
		t.Error("Blank key must not hit the network")
	}
}

func TestValidateClassification(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		body       string
		wantStatus models.KeyStatus
		wantError  string
	}{
		{
			name:       "OK response",
			status:     http.StatusOK,
			body:       `{"items":[{"id":"UC_x5XG1OV2P6uZZ5FSM9Ttw"}]}`,
			wantStatus: models.KeyStatusValid,
		},
		{
			name:       "Quota exhausted",
			status:     http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"Quota exceeded","errors":[{"reason":"quotaExceeded"}]}}`,
			wantStatus: models.KeyStatusQuotaExceeded,
		},
		{
			name:       "Bad key with server message",
			status:     http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"API key not valid","errors":[{"reason":"badRequest"}]}}`,
			wantStatus: models.KeyStatusInvalid,
			wantError:  "API key not valid",
		},
		{
			name:       "Unclassified failure",
			status:     http.StatusInternalServerError,
			body:       `not json`,
			wantStatus: models.KeyStatusInvalid,
			wantError:  "HTTP 500",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer ts.Close()

			c := newTestClient(ts.URL)
			check := c.ValidateKey(context.Background(), "some-key")

			if check.Status != tc.wantStatus {
				t.Errorf("Expected %s, got %s", tc.wantStatus, check.Status)
			}
			if tc.wantError != "" && check.Error != tc.wantError {
				t.Errorf("Expected error %q, got %q", tc.wantError, check.Error)
			}
		})
	}
}

func TestValidateTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // dead endpoint

	c := newTestClient(ts.URL)
	check := c.ValidateKey(context.Background(), "some-key")

	if check.Status != models.KeyStatusInvalid {
		t.Errorf("Expected invalid on transport failure, got %s", check.Status)
	}
	if check.Error == "" {
		t.Error("Expected the transport error carried in the result")
	}
}

func TestKickValidationSerializesProbes(t *testing.T) {
	var inFlight, maxInFlight int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if n <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.SetKeys([]string{"k1", "k2", "k3"})
	c.KickValidation(context.Background())

	deadline := time.After(5 * time.Second)
	for {
		done := true
		for _, k := range c.Keys() {
			if k.Status == models.KeyStatusUnknown || k.Status == models.KeyStatusChecking {
				done = false
			}
		}
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Validation did not drain the pool in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := atomic.LoadInt32(&maxInFlight); got > 1 {
		t.Errorf("Expected at most one probe in flight, observed %d", got)
	}
	for _, k := range c.Keys() {
		if k.Status != models.KeyStatusValid {
			t.Errorf("Expected key %s valid after drain, got %s", k.Value, k.Status)
		}
	}
}
