package youtube

import (
	"github.com/tubedash/tubedash/internal/models"
)

// SetKeys replaces the working set of API keys. Keys whose value was already
// tracked keep their accumulated usage and status; new values start unknown
// with zero usage. Duplicate values collapse to the first occurrence. The
// rotation cursor resets to 0 when it falls out of bounds.
func (c *Client) SetKeys(values []string) {
	c.mu.Lock()

	previous := make(map[string]models.APIKey, len(c.keys))
	for _, k := range c.keys {
		previous[k.Value] = k
	}

	keys := make([]models.APIKey, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if old, ok := previous[v]; ok {
			keys = append(keys, old)
			continue
		}
		keys = append(keys, models.APIKey{
			Value:  v,
			Status: models.KeyStatusUnknown,
		})
	}

	c.keys = keys
	if c.currentIndex >= len(c.keys) {
		c.currentIndex = 0
	}

	snapshot := c.quotaSnapshotLocked()
	observers := append([]QuotaObserver(nil), c.quotaObservers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// LoadKeys rehydrates the pool from persisted state, preserving usage and
// status bookkeeping. Used once at startup.
func (c *Client) LoadKeys(keys []models.APIKey) {
	c.mu.Lock()
	c.keys = append([]models.APIKey(nil), keys...)
	if c.currentIndex >= len(c.keys) {
		c.currentIndex = 0
	}
	snapshot := c.quotaSnapshotLocked()
	observers := append([]QuotaObserver(nil), c.quotaObservers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Keys returns a snapshot of the pool.
func (c *Client) Keys() []models.APIKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.APIKey(nil), c.keys...)
}

// CurrentIndex returns the rotation cursor.
func (c *Client) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// MarkKeyStatus records a validation outcome for the key with the given
// value. Unknown values are ignored (the key was removed mid-validation).
func (c *Client) MarkKeyStatus(value string, status models.KeyStatus, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.keys {
		if c.keys[i].Value == value {
			c.keys[i].Status = status
			c.keys[i].Error = errMsg
			return
		}
	}
}

// ResetStatuses forces every key back to unknown so the validator will
// re-probe the whole pool ("revalidate all").
func (c *Client) ResetStatuses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.keys {
		c.keys[i].Status = models.KeyStatusUnknown
		c.keys[i].Error = ""
	}
}
