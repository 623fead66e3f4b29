// Package client talks to the chitieu API and keeps a local view of the
// ledger for terminal and test use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chitieu/internal/core"
)

const DefaultTimeout = 5 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (timeout DefaultTimeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080". The /api prefix is added here.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type createRequest struct {
	Title  string     `json:"title"`
	Amount core.Money `json:"amount"`
	Type   core.Kind  `json:"type"`
}

func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	var items []core.Expense
	if err := c.do(ctx, "list expenses", http.MethodGet, "/expenses", nil, 0, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []core.Expense{}
	}
	return items, nil
}

func (c *Client) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	var e core.Expense
	body := createRequest{Title: n.Title, Amount: n.Amount, Type: n.Type}
	err := c.do(ctx, "create expense", http.MethodPost, "/expenses", body, 0, &e)
	return e, err
}

func (c *Client) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := c.do(ctx, "toggle expense", http.MethodPatch, "/expenses/"+strconv.FormatInt(id, 10)+"/toggle", nil, id, &e)
	return e, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete expense", http.MethodDelete, "/expenses/"+strconv.FormatInt(id, 10), nil, id, nil)
}

func (c *Client) Summary(ctx context.Context) (core.Totals, error) {
	var t core.Totals
	err := c.do(ctx, "summary", http.MethodGet, "/summary", nil, 0, &t)
	return t, err
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/ping", nil, 0, nil)
}

// do sends one request and maps the outcome onto the client error types.
// id is reported in NotFoundError.
func (c *Client) do(ctx context.Context, op, method, path string, in any, id int64, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{ID: id}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New("rate limited")}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		ve := &ValidationError{Message: eb.Message, StatusCode: resp.StatusCode}
		for field, msgs := range eb.Errors {
			ve.Field = field
			if len(msgs) > 0 {
				ve.Message = msgs[0]
			}
			break
		}
		if ve.Message == "" {
			ve.Message = http.StatusText(resp.StatusCode)
		}
		return ve
	default:
		msg := eb.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
}
