package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ApiError is one entry of the uniform error list every endpoint may return.
type ApiError struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Details string   `json:"details"`
	Path    []string `json:"path"`
}

// Envelope is the uniform response shape: data or errors, either may be
// null. Null data with null errors means "legitimately empty".
type Envelope struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []ApiError          `json:"errors"`
}

// APIError carries the server's error list verbatim.
type APIError struct {
	Status int
	Errors []ApiError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		if err.Details != "" {
			parts = append(parts, err.Details)
		} else {
			parts = append(parts, err.Message)
		}
	}
	return strings.Join(parts, ", ")
}

func (e *APIError) unauthorized() bool {
	if e.Status == http.StatusUnauthorized {
		return true
	}
	for _, err := range e.Errors {
		switch err.Code {
		case "UNAUTHORIZED", "UNAUTHENTICATED":
			return true
		}
		if strings.Contains(strings.ToLower(err.Message), "unauthorized") {
			return true
		}
	}
	return false
}

// SessionStore holds the bearer token between requests. Clear is invoked
// when the server rejects the session; the owner decides how to
// re-authenticate.
type SessionStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// Client talks to the POS backend. Every request carries the session bearer
// token and a deadline so a hung request degrades to a transport error
// instead of hanging its caller forever.
type Client struct {
	endpoint string
	http     *http.Client
	session  SessionStore
	timeout  time.Duration

	// OnUnauthorized fires after the session has been cleared by a
	// 401-class response. Optional.
	OnUnauthorized func()
}

const defaultTimeout = 10 * time.Second

func New(endpoint string, session SessionStore, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if session == nil {
		session = NewMemorySession()
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{},
		session:  session,
		timeout:  timeout,
	}
}

// Session returns the client's session store.
func (c *Client) Session() SessionStore {
	return c.session
}

// do performs one request and decodes the envelope. The returned bool is
// false when the server answered with the explicit empty envelope. Server
// errors come back as *APIError; anything else is a transport failure.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return false, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return false, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, errors.Wrap(err, "read response")
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A proxy or gateway 401 may carry a non-envelope body; the stale
		// session still has to go.
		if resp.StatusCode == http.StatusUnauthorized {
			return false, c.apiError(&APIError{Status: resp.StatusCode})
		}
		return false, errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}

	if len(env.Errors) > 0 || resp.StatusCode >= 400 {
		return false, c.apiError(&APIError{Status: resp.StatusCode, Errors: env.Errors})
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return false, errors.Wrap(err, "decode data")
		}
	}
	return true, nil
}

// apiError applies the session-invalidation side effect of a 401-class
// response before handing the error back.
func (c *Client) apiError(apiErr *APIError) *APIError {
	if apiErr.unauthorized() {
		c.session.Clear()
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
	}
	return apiErr
}
