package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiError mirrors server.ErrorResponse so a failed call surfaces the
// same code/message pair the HTTP handler returned.
type apiError struct {
	Message string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Client talks to a vectord server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a new vectord API client. Requests time out after
// 30s since vectordctl runs interactively and a hung server should fail
// fast rather than block a terminal indefinitely.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verboseOutput,
	}
}

// request issues method against path, JSON-encoding body if present and
// decoding the response into result if it's non-nil.
func (c *Client) request(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vectordctl")

	if c.verbose {
		fmt.Printf("--> %s %s\n", method, path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if c.verbose {
		fmt.Printf("<-- %d %s\n", resp.StatusCode, path)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}

	return nil
}

// Get performs a GET request against the vectord server.
func (c *Client) Get(path string, result interface{}) error {
	return c.request(context.Background(), http.MethodGet, path, nil, result)
}

// Post performs a POST request against the vectord server.
func (c *Client) Post(path string, body, result interface{}) error {
	return c.request(context.Background(), http.MethodPost, path, body, result)
}
