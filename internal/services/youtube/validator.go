package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

// KeyCheck is the outcome of probing a single key.
type KeyCheck struct {
	Status models.KeyStatus
	Error  string
}

// ValidateKey classifies one key by issuing a minimal-cost channels.list
// read against a fixed well-known channel. It never panics past this
// boundary: transport failures come back as invalid with the error text.
// The probe bypasses the router on purpose; it must exercise exactly the
// key under test, not whatever the rotation would pick.
func (c *Client) ValidateKey(ctx context.Context, value string) KeyCheck {
	if strings.TrimSpace(value) == "" {
		return KeyCheck{Status: models.KeyStatusInvalid, Error: "Key cannot be empty"}
	}

	_, err := c.doRequest(ctx, "channels", map[string]string{
		"part": "id",
		"id":   c.cfg.ValidationChannelID,
	}, value)
	if err != nil {
		if ue, ok := err.(*upstreamError); ok {
			if _, quota := quotaReasons[ue.Reason]; quota {
				return KeyCheck{Status: models.KeyStatusQuotaExceeded, Error: ue.Message}
			}
			msg := ue.Message
			if msg == "" {
				msg = fmt.Sprintf("HTTP %d", ue.HTTPStatus)
			}
			return KeyCheck{Status: models.KeyStatusInvalid, Error: msg}
		}
		return KeyCheck{Status: models.KeyStatusInvalid, Error: err.Error()}
	}
	return KeyCheck{Status: models.KeyStatusValid}
}

// KickValidation drives the probing policy: at most one probe in flight at a
// time, tracked by key value. It picks the first unknown key, marks it
// checking and validates it in the background, then kicks itself again so
// the whole pool drains one key at a time.
func (c *Client) KickValidation(ctx context.Context) {
	c.vmu.Lock()
	if len(c.inFlight) > 0 {
		c.vmu.Unlock()
		return
	}

	c.mu.Lock()
	var target string
	for i := range c.keys {
		if c.keys[i].Status == models.KeyStatusUnknown {
			target = c.keys[i].Value
			c.keys[i].Status = models.KeyStatusChecking
			break
		}
	}
	c.mu.Unlock()

	if target == "" {
		c.vmu.Unlock()
		return
	}
	c.inFlight[target] = struct{}{}
	c.vmu.Unlock()

	go func() {
		check := c.ValidateKey(ctx, target)
		c.MarkKeyStatus(target, check.Status, check.Error)

		c.mu.Lock()
		observers := append([]ValidationObserver(nil), c.validationObservers...)
		c.mu.Unlock()
		for _, fn := range observers {
			fn(target, check)
		}

		utils.LogInfo(ctx, "API key validated", utils.Fields{
			"status": string(check.Status),
		})

		c.vmu.Lock()
		delete(c.inFlight, target)
		c.vmu.Unlock()

		c.KickValidation(ctx)
	}()
}
