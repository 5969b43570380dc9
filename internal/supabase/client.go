// Package supabase is a small client for the Supabase Auth (GoTrue) API used
// by the admin login, OTP and user management routes.
package supabase

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

	"github.com/tidwall/gjson"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrNoServiceKey is returned by admin operations when no service role key is configured.
	ErrNoServiceKey = errors.New("service role key not configured")
)

type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	HTTPClient     *http.Client
}

type Client struct {
	authURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		authURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		httpClient: httpClient,
	}, nil
}

// Error is a non-2xx answer from the auth server.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase auth %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase auth %d: %s", e.StatusCode, e.Message)
}

func parseError(body []byte, status int) error {
	e := &Error{StatusCode: status}
	if !gjson.ValidBytes(body) {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}
	res := gjson.ParseBytes(body)
	for _, k := range []string{"msg", "message", "error_description", "error"} {
		if v := res.Get(k); v.Exists() && v.String() != "" {
			e.Message = v.String()
			break
		}
	}
	if v := res.Get("error_code"); v.Exists() {
		e.Code = v.String()
	} else if v := res.Get("code"); v.Exists() && v.Type == gjson.String {
		e.Code = v.String()
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// do sends a JSON request. bearer is the Authorization token; the apikey
// header always carries apiKey.
func (c *Client) do(ctx context.Context, method, path, apiKey, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.authURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return parseError(respBody, resp.StatusCode)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) anon(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, method, path, c.anonKey, c.anonKey, in, out)
}

func (c *Client) admin(ctx context.Context, method, path string, in, out any) error {
	if c.serviceKey == "" {
		return ErrNoServiceKey
	}
	return c.do(ctx, method, path, c.serviceKey, c.serviceKey, in, out)
}
