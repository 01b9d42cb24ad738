package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rgould/auctionsync/internal/store"
)

// DefaultAttemptTimeout bounds a single delivery attempt so one unresponsive
// endpoint cannot stall an entire sync run.
const DefaultAttemptTimeout = 10 * time.Second

// decisionPayload is the wire format of the decision-acceptance endpoint.
type decisionPayload struct {
	CaseNumber  string `json:"case_number"`
	AuctionDate string `json:"auction_date"`
	Decision    string `json:"decision"`
	Notes       string `json:"notes,omitempty"`
}

// Client delivers decisions to the remote decision-acceptance endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	httpc    *http.Client
}

// NewClient creates a client for the decision-acceptance endpoint.
// A non-positive timeout falls back to DefaultAttemptTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		httpc:    &http.Client{},
	}
}

// Deliver POSTs one decision to the endpoint. Any transport error or
// non-2xx response is a delivery failure.
func (c *Client) Deliver(ctx context.Context, d *store.PendingDecision) error {
	payload := decisionPayload{
		CaseNumber:  d.CaseNumber,
		AuctionDate: d.AuctionDate,
		Decision:    string(d.Decision),
		Notes:       d.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for diagnostics; the content is
		// advisory only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("remote rejected decision: %s (%s)", resp.Status, bytes.TrimSpace(snippet))
	}

	return nil
}
