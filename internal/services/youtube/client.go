package youtube

import (
	"context"
	"net/http"
	"sync"

	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/models"
)

// UsageSink receives best-effort writes of per-key usage after each
// successful call. Implementations must tolerate being called from a
// background goroutine; a returned error is logged and dropped, never
// surfaced to the caller of the originating request.
type UsageSink interface {
	RecordKeyUsage(ctx context.Context, value string, dailyUsage int, lastUsedDate string) error
}

// QuotaObserver is notified after the ledger changes.
type QuotaObserver func(models.QuotaUsage)

// IndexObserver is notified after the rotation cursor moves.
type IndexObserver func(int)

// ValidationObserver is notified after a key probe completes and its outcome
// has been applied to the pool.
type ValidationObserver func(value string, check KeyCheck)

// Client is one session's multi-key Data API client. It owns the rotating
// key pool, the rotation cursor and the quota ledger; all of that state is
// instance-scoped, so independent sessions never share counters.
type Client struct {
	cfg        *config.YouTubeConfig
	httpClient *http.Client

	mu           sync.Mutex
	keys         []models.APIKey
	currentIndex int
	sessionUsage int

	quotaObservers      []QuotaObserver
	indexObservers      []IndexObserver
	validationObservers []ValidationObserver

	usageSink UsageSink

	// Validation bookkeeping: at most one probe in flight at a time.
	vmu      sync.Mutex
	inFlight map[string]struct{}
}

// NewClient creates a client with an empty key pool.
func NewClient(cfg *config.YouTubeConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		inFlight: make(map[string]struct{}),
	}
}

// SetUsageSink wires the persistence collaborator for usage sync.
func (c *Client) SetUsageSink(sink UsageSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usageSink = sink
}

// OnQuotaChanged registers an observer for ledger updates. Multiple
// observers are supported; all fire synchronously after the mutation.
func (c *Client) OnQuotaChanged(fn QuotaObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotaObservers = append(c.quotaObservers, fn)
}

// OnIndexChanged registers an observer for rotation cursor moves.
func (c *Client) OnIndexChanged(fn IndexObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexObservers = append(c.indexObservers, fn)
}

// OnKeyValidated registers an observer for completed key probes.
func (c *Client) OnKeyValidated(fn ValidationObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validationObservers = append(c.validationObservers, fn)
}
