package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"videomixer/internal/history"
)

// ErrUnavailable reports that no API server answered.
var ErrUnavailable = errors.New("videomixer API unavailable")

// Client talks to a running `videomixer serve` instance.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// NewClient returns a client for bind, which may be host:port or a URL. An
// empty bind yields a nil client whose calls report ErrUnavailable.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path, base.RawQuery, base.Fragment = "", "", ""
	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: cancelTimeout + 5*time.Second},
	}, nil
}

// Current returns the running or most recent job.
func (c *Client) Current(ctx context.Context) (CurrentJobResponse, error) {
	var out CurrentJobResponse
	err := c.do(ctx, http.MethodGet, "/api/jobs/current", nil, &out)
	return out, err
}

// Cancel asks the server to stop the running job.
func (c *Client) Cancel(ctx context.Context) (CancelJobResponse, error) {
	var out CancelJobResponse
	err := c.do(ctx, http.MethodDelete, "/api/jobs/current", nil, &out)
	return out, err
}

// History lists recent jobs, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]history.Record, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", values, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, dst any) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, &env)
		return &StatusError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// IsUnavailable reports whether err means nothing is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
