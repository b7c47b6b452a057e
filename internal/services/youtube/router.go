package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

// quotaReasons are the error reason codes that signal key exhaustion rather
// than a malformed request. They are recovered by rotating to the next key.
var quotaReasons = map[string]struct{}{
	"quotaExceeded":         {},
	"dailyLimitExceeded":    {},
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
}

// upstreamError is a classified non-2xx response from the Data API.
type upstreamError struct {
	HTTPStatus int
	Reason     string
	Message    string
}

func (e *upstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("youtube api error %d (%s): %s", e.HTTPStatus, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api error %d (%s)", e.HTTPStatus, e.Reason)
}

// keyRelated reports whether the failure is attributable to the key rather
// than the request shape. 403 and 429 are treated as key exhaustion even
// without a reason code.
func (e *upstreamError) keyRelated() bool {
	if _, ok := quotaReasons[e.Reason]; ok {
		return true
	}
	return e.HTTPStatus == http.StatusForbidden || e.HTTPStatus == http.StatusTooManyRequests
}

// Call routes one logical Data API operation through the key pool. Starting
// at the rotation cursor it tries each key at most once, skipping keys known
// bad or over their daily cap (a lone key is always attempted). Key-related
// failures rotate to the next candidate; anything else surfaces immediately.
// On success the winning key is charged and becomes the new cursor position.
func (c *Client) Call(ctx context.Context, operation string, params map[string]string) ([]byte, error) {
	c.mu.Lock()
	if len(c.keys) == 0 {
		c.mu.Unlock()
		return nil, utils.NewNoAPIKeysError()
	}
	keys := append([]models.APIKey(nil), c.keys...)
	start := c.currentIndex
	if start >= len(keys) {
		start = 0
	}
	c.mu.Unlock()

	cost := OperationCost(operation)
	day := today()
	dailyCap := c.cfg.DailyQuotaPerKey

	var lastErr error
	for i := 0; i < len(keys); i++ {
		idx := (start + i) % len(keys)
		key := keys[idx]

		// A lone key is exempt from the skip policy: with nothing to rotate
		// to, attempting a known-bad key at least yields a fresh error.
		if len(keys) > 1 {
			if key.Status == models.KeyStatusInvalid || key.Status == models.KeyStatusQuotaExceeded {
				continue
			}
			if effectiveDailyUsage(key, day)+cost > dailyCap {
				continue
			}
		}

		body, err := c.doRequest(ctx, operation, params, key.Value)
		if err != nil {
			if ue, ok := err.(*upstreamError); ok {
				if !ue.keyRelated() {
					// Request-shape problem; rotating would repeat it.
					return nil, utils.NewYouTubeAPIError(ue.HTTPStatus, ue.Error())
				}
				lastErr = ue
				utils.LogWarn(ctx, "API key exhausted, rotating", utils.Fields{
					"operation": operation,
					"key_index": idx,
					"reason":    ue.Reason,
				})
				continue
			}
			// Transport failure: try the next key.
			lastErr = err
			utils.LogWarn(ctx, "Transport failure, rotating", utils.Fields{
				"operation": operation,
				"key_index": idx,
				"error":     err.Error(),
			})
			continue
		}

		c.finishCall(key.Value, cost)
		return body, nil
	}

	lastMsg := "no eligible API key"
	if lastErr != nil {
		lastMsg = lastErr.Error()
	}
	return nil, utils.NewAllKeysExhaustedError(lastMsg)
}

// finishCall charges the winner and advances the rotation cursor to it so
// the next call starts there (round-robin fairness). The winner is located
// by value: the pool may have been replaced while the request was in flight.
func (c *Client) finishCall(value string, cost int) {
	c.recordUsage(value, cost)

	c.mu.Lock()
	moved := false
	for i := range c.keys {
		if c.keys[i].Value == value {
			c.currentIndex = i
			moved = true
			break
		}
	}
	index := c.currentIndex
	observers := append([]IndexObserver(nil), c.indexObservers...)
	c.mu.Unlock()

	if !moved {
		return
	}
	for _, fn := range observers {
		fn(index)
	}
}

// doRequest issues one GET against the Data API with the given key attached
// and classifies the response.
func (c *Client) doRequest(ctx context.Context, operation string, params map[string]string, keyValue string) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("key", keyValue)

	endpoint := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, operation, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyFailure(resp.StatusCode, body)
	}
	return body, nil
}

// classifyFailure extracts the conventional error envelope from a non-2xx
// body. An unparseable body is an unclassified failure carrying only the
// HTTP status.
func classifyFailure(status int, body []byte) *upstreamError {
	var envelope apiErrorEnvelope
	if err := decodeResponse("error", body, &envelope); err != nil {
		return &upstreamError{HTTPStatus: status}
	}
	return &upstreamError{
		HTTPStatus: status,
		Reason:     envelope.reason(),
		Message:    envelope.message(),
	}
}
