package youtube

import (
	"context"
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/models"
)

func TestOperationCost(t *testing.T) {
	testCases := []struct {
		operation string
		want      int
	}{
		{"channels", 1},
		{"playlistItems", 1},
		{"videos", 1},
		{"search", 100},
		{"captions", 1}, // unlisted operations default to 1
	}

	for _, tc := range testCases {
		t.Run(tc.operation, func(t *testing.T) {
			if got := OperationCost(tc.operation); got != tc.want {
				t.Errorf("OperationCost(%q) = %d, want %d", tc.operation, got, tc.want)
			}
		})
	}
}

func TestRecordUsageAccounting(t *testing.T) {
	c := newTestClient("http://unused")
	day := today()
	c.LoadKeys([]models.APIKey{
		{Value: "a", Status: models.KeyStatusValid, DailyUsage: 10, LastUsedDate: day},
		{Value: "b", Status: models.KeyStatusValid, DailyUsage: 5, LastUsedDate: day},
	})

	var snapshot models.QuotaUsage
	c.OnQuotaChanged(func(u models.QuotaUsage) { snapshot = u })

	c.recordUsage("b", 100)

	keys := c.Keys()
	if keys[1].DailyUsage != 105 {
		t.Errorf("Expected key b daily usage 105, got %d", keys[1].DailyUsage)
	}
	if keys[0].DailyUsage != 10 {
		t.Errorf("Expected key a untouched at 10, got %d", keys[0].DailyUsage)
	}
	if snapshot.Session != 100 {
		t.Errorf("Expected session total 100, got %d", snapshot.Session)
	}
	if snapshot.Daily != 115 {
		t.Errorf("Expected daily total 115 (sum of all keys), got %d", snapshot.Daily)
	}
}

func TestRecordUsageRollsOverDayBoundary(t *testing.T) {
	c := newTestClient("http://unused")
	c.LoadKeys([]models.APIKey{
		{Value: "a", Status: models.KeyStatusValid, DailyUsage: 9000, LastUsedDate: "2020-01-01"},
	})

	c.recordUsage("a", 1)

	keys := c.Keys()
	if keys[0].DailyUsage != 1 {
		t.Errorf("Expected stale usage reset before charging, got %d", keys[0].DailyUsage)
	}
	if keys[0].LastUsedDate != today() {
		t.Errorf("Expected last used date updated to today, got %s", keys[0].LastUsedDate)
	}
}

type captureSink struct {
	calls chan sinkCall
}

type sinkCall struct {
	value        string
	dailyUsage   int
	lastUsedDate string
}

func (s *captureSink) RecordKeyUsage(_ context.Context, value string, dailyUsage int, lastUsedDate string) error {
	s.calls <- sinkCall{value, dailyUsage, lastUsedDate}
	return nil
}

func TestRecordUsageSyncsToSink(t *testing.T) {
	c := newTestClient("http://unused")
	c.LoadKeys([]models.APIKey{
		{Value: "a", Status: models.KeyStatusValid},
	})
	sink := &captureSink{calls: make(chan sinkCall, 1)}
	c.SetUsageSink(sink)

	c.recordUsage("a", 3)

	select {
	case call := <-sink.calls:
		if call.value != "a" || call.dailyUsage != 3 || call.lastUsedDate != today() {
			t.Errorf("Unexpected sink call: %+v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected usage sync to reach the sink")
	}
}

func TestEffectiveDailyUsage(t *testing.T) {
	day := today()
	testCases := []struct {
		name string
		key  models.APIKey
		want int
	}{
		{"used today", models.APIKey{DailyUsage: 42, LastUsedDate: day}, 42},
		{"used yesterday", models.APIKey{DailyUsage: 42, LastUsedDate: "2020-01-01"}, 0},
		{"never used", models.APIKey{}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := effectiveDailyUsage(tc.key, day); got != tc.want {
				t.Errorf("effectiveDailyUsage = %d, want %d", got, tc.want)
			}
		})
	}
}
