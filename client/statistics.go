package client

import (
	"context"
	"net/http"
)

// Statistics fetches the account's aggregated FAQ statistics.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	var out Statistics
	if err := c.send(ctx, "Client.Statistics", http.MethodGet, "/faq/statistics/", nil, &out, true); err != nil {
		return Statistics{}, err
	}
	return out, nil
}
