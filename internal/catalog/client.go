package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Transflower/pkg/kit"
)

var (
	ErrUnauthorized = errors.New("catalog unauthorized")
	ErrUpstream     = errors.New("catalog upstream error")
	ErrUnavailable  = errors.New("catalog unavailable")
)

// Client calls the catalog HTTP API and maps responses back onto the
// store's sentinel errors, so callers can use it wherever a Store fits.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

var _ Store = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/readyz", nil, nil)
}

func (c *Client) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p)
	if errors.Is(err, ErrNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (c *Client) Add(ctx context.Context, p Product) error {
	return c.do(ctx, http.MethodPost, "/products", p, nil)
}

func (c *Client) Update(ctx context.Context, p Product) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", p.ID), p, nil)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var e kit.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, e.Error)
	case http.StatusBadRequest:
		return validationFromResponse(e)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Error)
	default:
		return fmt.Errorf("%w: status=%d %s", ErrUpstream, resp.StatusCode, e.Error)
	}
}

func validationFromResponse(e kit.ErrorResponse) error {
	verr := &ValidationError{Reason: e.Error}

	if d, ok := e.Details.(map[string]any); ok {
		if f, ok := d["field"].(string); ok {
			verr.Field = f
		}
		if r, ok := d["reason"].(string); ok {
			verr.Reason = r
		}
	}
	return verr
}
