// Package oanda implements broker.Broker over the OANDA v20 REST API.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/trendbot/broker"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"

	DefaultUnitsPerLot = 100000
)

type Config struct {
	BaseURL     string
	Token       string
	AccountID   string
	UnitsPerLot float64
	HTTP        *http.Client
}

// Client is an OANDA v20 session for one account.
type Client struct {
	baseURL     string
	token       string
	accountID   string
	unitsPerLot float64
	httpClient  *http.Client

	mu        sync.Mutex
	currency  string
	precision map[string]int
}

var _ broker.Broker = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PracticeURL
	}
	if cfg.UnitsPerLot <= 0 {
		cfg.UnitsPerLot = DefaultUnitsPerLot
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		accountID:   cfg.AccountID,
		unitsPerLot: cfg.UnitsPerLot,
		httpClient:  cfg.HTTP,
		precision:   make(map[string]int),
	}
}

// apiError is the body OANDA sends with 4xx responses.
type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// statusError is a non-2xx response that is not an auth failure.
type statusError struct {
	Status int
	apiError
	Body string
}

func (e *statusError) Error() string {
	msg := e.ErrorMessage
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("oanda http %d: %s", e.Status, msg)
}

func (c *Client) accountPath(format string, args ...any) string {
	return "/v3/accounts/" + url.PathEscape(c.accountID) + fmt.Sprintf(format, args...)
}

// do sends a request and decodes a 2xx JSON body into out. 401 and 403
// map to broker.ErrConnection.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("oanda http %d: %w", resp.StatusCode, broker.ErrConnection)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		se := &statusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, &se.apiError)
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func (c *Client) formatPrice(instrument string, price float64) string {
	c.mu.Lock()
	prec, ok := c.precision[instrument]
	c.mu.Unlock()
	if !ok {
		prec = 5
	}
	return strconv.FormatFloat(price, 'f', prec, 64)
}
