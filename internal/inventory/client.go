// Package inventory talks to the external FastAPI inventory service. It
// fetches one dealer's current stone snapshot per call and normalizes the
// service's loosely shaped JSON at the boundary, so the matcher only ever
// sees strongly typed items.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tiptophouse/diamond-webhook/internal/domain"
)

// Client fetches per-dealer inventory snapshots over HTTP with a bearer
// credential. It is safe for concurrent use; the underlying http.Client
// carries the per-request timeout, so a slow dealer endpoint cannot hang a
// scan indefinitely.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient constructs a Client for the given backend base URL and access
// token. timeout bounds each snapshot fetch at the transport layer.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchStones retrieves the inventory snapshot for one dealer. A non-2xx
// response or an undecodable body is an error; callers treat any error as
// "skip this dealer" and move on.
func (c *Client) FetchStones(ctx context.Context, dealerTelegramID int64) ([]domain.InventoryItem, error) {
	u := fmt.Sprintf("%s/api/v1/get_all_stones?user_id=%s",
		c.baseURL, url.QueryEscape(strconv.FormatInt(dealerTelegramID, 10)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory fetch for dealer %d: status %d", dealerTelegramID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(body), nil
}

// arrayKeys are the object keys probed, in order, when the snapshot is not a
// bare array.
var arrayKeys = []string{"data", "stones", "diamonds", "inventory"}

// DecodeSnapshot normalizes a raw snapshot body into typed items. The
// service returns either a bare JSON array or an object carrying the array
// under one of several keys; anything unrecognized decodes closed to an
// empty slice rather than failing the scan.
func DecodeSnapshot(raw []byte) []domain.InventoryItem {
	var items []domain.InventoryItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	for _, key := range arrayKeys {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &items); err == nil {
			return items
		}
	}
	return nil
}
