package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fridgemap/internal/models"
)

// APIError is a non-2xx answer from the fridge API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fridge api: %d %s", e.StatusCode, e.Message)
}

// Unwrap lets callers test for models.ErrNotFound and models.ErrValidation.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusBadRequest:
		return models.ErrValidation
	}
	return nil
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the fridge API rooted at baseURL, e.g. http://localhost:3000/api/fridges/.
type Client struct {
	http    HTTPClient
	baseURL *url.URL
}

// New creates a client for the fridge collection at baseURL.
func New(baseURL string, httpClient HTTPClient) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base URL %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

// ListFridges fetches every fridge.
func (c *Client) ListFridges(ctx context.Context) ([]models.Fridge, error) {
	fridges := make([]models.Fridge, 0)
	if err := c.do(ctx, http.MethodGet, "", nil, &fridges); err != nil {
		return nil, err
	}
	return fridges, nil
}

// GetFridge fetches one fridge by id.
func (c *Client) GetFridge(ctx context.Context, id string) (*models.Fridge, error) {
	var fridge models.Fridge
	if err := c.do(ctx, http.MethodGet, "./"+url.PathEscape(id), nil, &fridge); err != nil {
		return nil, err
	}
	return &fridge, nil
}

// CreateFridge stores a new fridge and returns it with its assigned id.
func (c *Client) CreateFridge(ctx context.Context, fridge models.Fridge) (*models.Fridge, error) {
	var created models.Fridge
	if err := c.do(ctx, http.MethodPost, "", fridge, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFridge sets the fields in delta on the fridge with the given id.
func (c *Client) UpdateFridge(ctx context.Context, id string, delta models.FieldDelta) (*models.Fridge, error) {
	var updated models.Fridge
	if err := c.do(ctx, http.MethodPut, "./"+url.PathEscape(id), delta, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("client: invalid path %q: %w", path, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return fmt.Errorf("client: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

// IsNotFound reports whether err means the fridge does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
