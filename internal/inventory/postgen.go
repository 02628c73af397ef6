package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GenerateDiamondPost asks the backend to render and publish a diamond post
// for the seller. The call is fire-and-forget from the webhook's point of
// view; the backend owns everything past this request.
func (c *Client) GenerateDiamondPost(ctx context.Context, sellerTelegramID int64, text string) error {
	payload, err := json.Marshal(map[string]any{
		"user_id": sellerTelegramID,
		"message": text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/generate_diamond_post", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("generate diamond post for seller %d: status %d", sellerTelegramID, resp.StatusCode)
	}
	return nil
}
