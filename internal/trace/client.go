package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Envelope is the JSON body of every call-trace API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Traces  []Record `json:"traces,omitempty"`
	Trace   *Record  `json:"trace,omitempty"`
}

// Client is a Store backed by a remote gateway's call-trace API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the gateway at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, poolSize int, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  NewPooledHTTPClient(poolSize, timeout),
	}
}

// NewPooledHTTPClient creates an http.Client with connection pooling and tuned transport.
func NewPooledHTTPClient(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}

func (c *Client) List(ctx context.Context) ([]Record, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/call-traces", nil)
	if err != nil {
		return nil, err
	}
	if env.Traces == nil {
		return []Record{}, nil
	}
	return env.Traces, nil
}

func (c *Client) Append(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal call trace: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/call-traces", body)
	return err
}

func (c *Client) Clear(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/call-traces", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	decodeErr := json.Unmarshal(data, &env)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrDuplicateID
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, env.Message)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s status %d: %s", method, path, resp.StatusCode, snippet(data))
	case decodeErr != nil:
		return nil, fmt.Errorf("decode %s %s response: %w", method, path, decodeErr)
	case !env.Success:
		return nil, fmt.Errorf("%s %s: %s", method, path, env.Message)
	}
	return &env, nil
}

func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return strings.TrimSpace(string(b))
}
