package stockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freshmart/cart-service/internal/observability"
)

const (
	defaultTimeout = 10 * time.Second
	componentStock = "stock_api"
)

// Client queries the inventory boundary over HTTP. One request carries the
// whole batch of entry IDs; the boundary is a network hop and per-item calls
// would multiply latency on multi-item adds. The client never issues a
// mutating call.
type Client struct {
	baseURL string
	http    *http.Client
	log     observability.Logger

	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func New(baseURL string, tel observability.Observability) *Client {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     tel.Logger().With(observability.F("component", componentStock)),

		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

type stockRequest struct {
	ProductIDs []string `json:"productIds"`
}

type stockResponse struct {
	Items []stockItem `json:"items"`
}

type stockItem struct {
	ProductID string `json:"productId"`
	OnStock   int    `json:"onStock"`
}

// Availability returns the available quantity per entry. Entries the boundary
// does not report come back as zero. Any transport or status failure is
// returned as an error; the fail-closed policy of treating that as zero
// availability belongs to the caller.
func (c *Client) Availability(ctx context.Context, entryIDs []string) (_ map[string]int, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.extCounter.Add(1,
			observability.L("peer", componentStock),
			observability.L("endpoint", "stock"),
			observability.L("outcome", outcome),
		)
		c.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", componentStock),
			observability.L("endpoint", "stock"),
		)
	}()

	body, err := json.Marshal(stockRequest{ProductIDs: entryIDs})
	if err != nil {
		return nil, fmt.Errorf("stock api: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stock", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("stock api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock api: unexpected status %d", resp.StatusCode)
	}

	var payload stockResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("stock api: decode response: %w", err)
	}

	available := make(map[string]int, len(entryIDs))
	for _, id := range entryIDs {
		available[id] = 0
	}
	for _, item := range payload.Items {
		if item.OnStock < 0 {
			continue
		}
		available[item.ProductID] = item.OnStock
	}
	return available, nil
}
