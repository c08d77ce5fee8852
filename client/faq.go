package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// ListFAQs fetches one page of the account's FAQs, newest first.
func (c *Client) ListFAQs(ctx context.Context, params ListParams) (FAQPage, error) {
	path := "/faq/"
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.Ordering != "" {
		query.Set("ordering", params.Ordering)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out FAQPage
	if err := c.send(ctx, "Client.ListFAQs", http.MethodGet, path, nil, &out, true); err != nil {
		return FAQPage{}, err
	}
	return out, nil
}

// GetFAQ fetches a single FAQ by id.
func (c *Client) GetFAQ(ctx context.Context, id int64) (FAQ, error) {
	var out FAQ
	if err := c.send(ctx, "Client.GetFAQ", http.MethodGet, fmt.Sprintf("/faq/%d/", id), nil, &out, true); err != nil {
		return FAQ{}, err
	}
	return out, nil
}

// CreateFAQ stores a new FAQ record.
func (c *Client) CreateFAQ(ctx context.Context, faq FAQ) (FAQ, error) {
	var out FAQ
	if err := c.send(ctx, "Client.CreateFAQ", http.MethodPost, "/faq/", faq, &out, true); err != nil {
		return FAQ{}, err
	}
	return out, nil
}

// UpdateFAQ replaces an existing FAQ record.
func (c *Client) UpdateFAQ(ctx context.Context, id int64, faq FAQ) (FAQ, error) {
	var out FAQ
	if err := c.send(ctx, "Client.UpdateFAQ", http.MethodPut, fmt.Sprintf("/faq/%d/", id), faq, &out, true); err != nil {
		return FAQ{}, err
	}
	return out, nil
}

// DeleteFAQ removes an FAQ record.
func (c *Client) DeleteFAQ(ctx context.Context, id int64) error {
	return c.send(ctx, "Client.DeleteFAQ", http.MethodDelete, fmt.Sprintf("/faq/%d/", id), nil, nil, true)
}

// DownloadPDF fetches the rendered PDF export of an FAQ. The returned
// filename comes from the backend's Content-Disposition header, falling back
// to a name derived from the id.
func (c *Client) DownloadPDF(ctx context.Context, id int64) ([]byte, string, error) {
	const op = "Client.DownloadPDF"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(fmt.Sprintf("/faq/%d/download/", id)), nil)
	if err != nil {
		return nil, "", fmt.Errorf("[%s] create request: %w", op, err)
	}

	resp, err := c.do(op, req, true)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("[%s] read response: %w", op, err)
	}

	filename := fmt.Sprintf("faq-%d.pdf", id)
	if _, dispositionParams, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := dispositionParams["filename"]; name != "" {
			filename = name
		}
	}
	return data, filename, nil
}
