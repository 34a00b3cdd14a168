package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// APIError is a non-2xx answer from either API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, truncate(e.Body, 200))
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is a shared HTTP client used by the source and target clients.
type Client struct {
	baseURL    string
	authorize  func(req *http.Request)
	httpClient *http.Client
}

// NewClient creates a Client from a Connection. An unparseable CA bundle is
// an error unless verification is disabled.
func NewClient(conn *models.Connection) (*Client, error) {
	transport, err := newTransport(conn)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(conn.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   conn.Timeout,
		},
	}, nil
}

func newTransport(conn *models.Connection) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if conn.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			return nil, fmt.Errorf("%s: no certificates found in CA bundle", conn.Name)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
	}
	return transport, nil
}

// resolve turns an API path into a URL. Absolute URLs (Location headers,
// next links) pass through.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do sends one request and returns the body and headers of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, http.Header, int, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bodyReader)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.Header, resp.StatusCode, &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body)}
	}
	return body, resp.Header, resp.StatusCode, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	body, _, _, err := c.do(ctx, http.MethodGet, path, nil)
	return body, err
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// paginatedResponse is the target's list envelope.
type paginatedResponse struct {
	Values   []json.RawMessage `json:"values"`
	Metadata struct {
		NextMarker *string `json:"next_marker"`
	} `json:"metadata"`
}

// GetAll fetches all pages of a marker-paginated endpoint.
func (c *Client) GetAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	params := url.Values{}

	for {
		body, err := c.Get(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var page paginatedResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		all = append(all, page.Values...)

		next := page.Metadata.NextMarker
		if next == nil || *next == "" || *next == params.Get("marker") {
			return all, nil
		}
		params.Set("marker", *next)
	}
}

// Post performs an authenticated POST request with a JSON body. It returns
// the body and the Location header if one was sent.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, string, error) {
	body, header, _, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return body, "", err
	}
	return body, header.Get("Location"), nil
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, payload interface{}) (string, error) {
	_, header, _, err := c.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return "", err
	}
	return header.Get("Location"), nil
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, _, _, err := c.do(ctx, http.MethodDelete, path, nil)
	if IsNotFound(err) {
		return nil // already gone
	}
	return err
}

// CreateAndFetch posts payload, then reads the created record from the
// Location header into dest.
func (c *Client) CreateAndFetch(ctx context.Context, path string, payload, dest interface{}) error {
	_, location, err := c.Post(ctx, path, payload)
	if err != nil {
		return err
	}
	if location == "" {
		return fmt.Errorf("POST %s: response has no Location header", path)
	}
	return c.GetJSON(ctx, location, nil, dest)
}

// UpdateAndFetch puts payload, then re-reads the record into dest.
func (c *Client) UpdateAndFetch(ctx context.Context, path string, payload, dest interface{}) error {
	location, err := c.Put(ctx, path, payload)
	if err != nil {
		return err
	}
	if location == "" {
		location = path
	}
	return c.GetJSON(ctx, location, nil, dest)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
