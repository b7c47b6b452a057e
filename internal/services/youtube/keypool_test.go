package youtube

import (
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/models"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.YouTubeConfig{
		BaseURL:             baseURL,
		DailyQuotaPerKey:    10000,
		ValidationChannelID: "UCtestvalidationchannel",
		HTTPTimeout:         5 * time.Second,
	})
}

func TestSetKeysPreservesUsage(t *testing.T) {
	c := newTestClient("http://unused")
	c.LoadKeys([]models.APIKey{
		{Value: "key-a", Status: models.KeyStatusValid, DailyUsage: 500, LastUsedDate: today()},
	})

	c.SetKeys([]string{"key-a", "key-b"})

	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	if keys[0].DailyUsage != 500 {
		t.Errorf("Expected retained key to keep usage 500, got %d", keys[0].DailyUsage)
	}
	if keys[0].Status != models.KeyStatusValid {
		t.Errorf("Expected retained key to keep status valid, got %s", keys[0].Status)
	}
	if keys[1].DailyUsage != 0 {
		t.Errorf("Expected new key to start at 0, got %d", keys[1].DailyUsage)
	}
	if keys[1].Status != models.KeyStatusUnknown {
		t.Errorf("Expected new key to start unknown, got %s", keys[1].Status)
	}
}

func TestSetKeysClampsCursor(t *testing.T) {
	c := newTestClient("http://unused")
	c.SetKeys([]string{"a", "b", "c"})
	c.mu.Lock()
	c.currentIndex = 2
	c.mu.Unlock()

	c.SetKeys([]string{"a"})
	if got := c.CurrentIndex(); got != 0 {
		t.Errorf("Expected cursor reset to 0 after shrink, got %d", got)
	}

	c.SetKeys([]string{})
	if got := c.CurrentIndex(); got != 0 {
		t.Errorf("Expected cursor 0 on empty pool, got %d", got)
	}
}

func TestSetKeysDropsDuplicates(t *testing.T) {
	c := newTestClient("http://unused")
	c.SetKeys([]string{"a", "b", "a"})
	if got := len(c.Keys()); got != 2 {
		t.Errorf("Expected duplicates collapsed to 2 keys, got %d", got)
	}
}

func TestSetKeysNotifiesAllQuotaObservers(t *testing.T) {
	c := newTestClient("http://unused")
	c.LoadKeys([]models.APIKey{
		{Value: "key-a", Status: models.KeyStatusValid, DailyUsage: 7, LastUsedDate: today()},
	})

	var first, second models.QuotaUsage
	c.OnQuotaChanged(func(u models.QuotaUsage) { first = u })
	c.OnQuotaChanged(func(u models.QuotaUsage) { second = u })

	c.SetKeys([]string{"key-a", "key-b"})

	if first.Daily != 7 || second.Daily != 7 {
		t.Errorf("Expected both observers to see daily=7, got %d and %d", first.Daily, second.Daily)
	}
}

func TestResetStatuses(t *testing.T) {
	c := newTestClient("http://unused")
	c.LoadKeys([]models.APIKey{
		{Value: "a", Status: models.KeyStatusValid},
		{Value: "b", Status: models.KeyStatusInvalid, Error: "bad key"},
	})

	c.ResetStatuses()

	for _, k := range c.Keys() {
		if k.Status != models.KeyStatusUnknown {
			t.Errorf("Expected key %s back to unknown, got %s", k.Value, k.Status)
		}
		if k.Error != "" {
			t.Errorf("Expected key %s error cleared, got %q", k.Value, k.Error)
		}
	}
}
