package untappd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Untappd v4 API root.
	DefaultBaseURL = "https://api.untappd.com/v4"

	defaultTimeout = 30 * time.Second
)

// Credentials is the client_id/client_secret pair attached to every API call.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads UNTAPPD_CLIENT_ID and UNTAPPD_CLIENT_SECRET.
// Both must be set and non-empty.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		ClientID:     strings.TrimSpace(os.Getenv("UNTAPPD_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("UNTAPPD_CLIENT_SECRET")),
	}
	if creds.ClientID == "" {
		return Credentials{}, errors.New("missing UNTAPPD_CLIENT_ID")
	}
	if creds.ClientSecret == "" {
		return Credentials{}, errors.New("missing UNTAPPD_CLIENT_SECRET")
	}
	return creds, nil
}

// APIError is an error response recognized as coming from the Untappd API.
// Detail is empty when the error body carried no meta.error_detail field.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Client issues authenticated GET requests against the Untappd API.
// The credentials ride along as query parameters on every request.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
}

func NewClient(creds Credentials) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL overrides the API root. Used by config and tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

// Get issues GET {baseURL}{path} with the credentials and extra query
// parameters attached, returning the raw response body. A non-2xx status
// becomes an *APIError carrying the body's meta.error_detail when present;
// any other failure is returned as-is.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	q.Set("client_id", c.creds.ClientID)
	q.Set("client_secret", c.creds.ClientSecret)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
	}
	return body, nil
}

func errorDetail(body []byte) string {
	var payload struct {
		Meta struct {
			ErrorDetail string `json:"error_detail"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Meta.ErrorDetail
}
