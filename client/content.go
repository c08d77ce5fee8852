package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Scrape extracts the readable text content of a web page via the backend
// scraper.
func (c *Client) Scrape(ctx context.Context, pageURL string) (string, error) {
	body := struct {
		URL string `json:"url"`
	}{URL: pageURL}

	var out struct {
		Content string `json:"content"`
	}
	if err := c.send(ctx, "Client.Scrape", http.MethodPost, "/faq/scrape/", body, &out, true); err != nil {
		return "", err
	}
	return out.Content, nil
}

// UploadPDF sends a PDF to the backend and returns its extracted text.
func (c *Client) UploadPDF(ctx context.Context, filename string, file io.Reader) (string, error) {
	const op = "Client.UploadPDF"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("[%s] create form file: %w", op, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("[%s] copy file: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("[%s] finalise form: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/faq/upload-pdf/"), &buf)
	if err != nil {
		return "", fmt.Errorf("[%s] create request: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(op, req, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	var out struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(resp.Body, &out); err != nil {
		return "", fmt.Errorf("[%s] decode response: %w", op, err)
	}
	return out.Content, nil
}
