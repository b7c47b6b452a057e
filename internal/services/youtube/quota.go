package youtube

import (
	"context"
	"time"

	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

// operationCosts maps a Data API operation name to its quota cost in units.
// search is two orders of magnitude more expensive than the read endpoints.
var operationCosts = map[string]int{
	"channels":      1,
	"playlistItems": 1,
	"videos":        1,
	"search":        100,
}

// OperationCost returns the quota cost of an operation. Unlisted operations
// cost 1 unit.
func OperationCost(operation string) int {
	if cost, ok := operationCosts[operation]; ok {
		return cost
	}
	return 1
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// effectiveDailyUsage is the usage counted against today's cap. A key whose
// last use predates today starts the day at zero.
func effectiveDailyUsage(key models.APIKey, day string) int {
	if key.LastUsedDate != day {
		return 0
	}
	return key.DailyUsage
}

// QuotaSnapshot returns the current {session, daily} totals. The daily total
// is always recomputed from the keys, never stored, so it cannot drift.
func (c *Client) QuotaSnapshot() models.QuotaUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotaSnapshotLocked()
}

func (c *Client) quotaSnapshotLocked() models.QuotaUsage {
	daily := 0
	for _, k := range c.keys {
		daily += k.DailyUsage
	}
	return models.QuotaUsage{Session: c.sessionUsage, Daily: daily}
}

// recordUsage charges cost against the winning key, rolls the key over the
// day boundary when needed, bumps the session total and fires the quota
// observers. The updated counters are pushed to the usage sink asynchronously;
// a sync failure is logged and never rolls back the in-memory state.
func (c *Client) recordUsage(value string, cost int) {
	day := today()

	c.mu.Lock()
	var usage int
	var found bool
	for i := range c.keys {
		if c.keys[i].Value != value {
			continue
		}
		if c.keys[i].LastUsedDate != day {
			c.keys[i].DailyUsage = 0
		}
		c.keys[i].DailyUsage += cost
		c.keys[i].LastUsedDate = day
		usage = c.keys[i].DailyUsage
		found = true
		break
	}
	c.sessionUsage += cost

	snapshot := c.quotaSnapshotLocked()
	observers := append([]QuotaObserver(nil), c.quotaObservers...)
	sink := c.usageSink
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}

	if sink == nil || !found {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sink.RecordKeyUsage(ctx, value, usage, day); err != nil {
			utils.LogWarn(ctx, "Failed to sync key usage", utils.Fields{
				"daily_usage": usage,
				"error":       err.Error(),
			})
		}
	}()
}
