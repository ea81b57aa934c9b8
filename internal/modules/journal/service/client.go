package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
)

// Client talks to the external journaling workspace API: JSON over
// HTTP, bearer token, records grouped into databases.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

// Record is one workspace page with its flattened property values.
type Record struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// FindRecord looks a record up by its dedup key. nil without error
// means the record does not exist yet.
func (c *Client) FindRecord(ctx context.Context, database, dedupKey string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/v1/databases/%s/records?dedup_key=%s",
		c.baseURL, url.PathEscape(database), url.QueryEscape(dedupKey))

	var payload struct {
		Results []Record `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}

func (c *Client) CreateRecord(ctx context.Context, database string, properties map[string]string) error {
	endpoint := fmt.Sprintf("%s/v1/databases/%s/records", c.baseURL, url.PathEscape(database))
	body := map[string]any{"properties": properties}
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

func (c *Client) UpdateRecord(ctx context.Context, recordID string, properties map[string]string) error {
	endpoint := fmt.Sprintf("%s/v1/records/%s", c.baseURL, url.PathEscape(recordID))
	body := map[string]any{"properties": properties}
	return c.do(ctx, http.MethodPatch, endpoint, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("workspace http %d: %s", resp.StatusCode, string(b))
	}

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if err := sonic.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	return nil
}
