// Package hub is a small client for the Hugging Face hub HTTP API.
//
// Constructing a Client never touches the network; the token is first
// checked by the hub when a request is made.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hubtools/space-restart/build"
	"github.com/hubtools/space-restart/log"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultEndpoint = "https://huggingface.co"

// maxErrorBody bounds how much of a failed response is kept on HTTPError.
const maxErrorBody = 64 << 10

type Client struct {
	endpoint   *url.URL
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Entry
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(endpoint string, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme: %q", u.Scheme)
	}

	c := &Client{
		endpoint:  u,
		token:     token,
		userAgent: fmt.Sprintf("restart-space/%s", build.Version),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.NewLogger("hub"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// resolve turns an API path, or an absolute URL handed back by the hub in a
// Link header, into a request URL on the configured endpoint.
func (c *Client) resolve(ref string, query url.Values) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u := c.endpoint.ResolveReference(r)
	if u.Host != c.endpoint.Host {
		return "", fmt.Errorf("refusing to follow %s: host differs from %s", u.Redacted(), c.endpoint.Host)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) newRequest(ctx context.Context, method string, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	return req, nil
}

// sendRequest performs the request and decodes a JSON body into out when
// out is non-nil. Non-2xx responses are returned as *HTTPError.
func (c *Client) sendRequest(ctx context.Context, method string, rawURL string, out interface{}) (http.Header, error) {
	req, err := c.newRequest(ctx, method, rawURL)
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("[http] %s %s", method, rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		apiErr := handleAPIError(resp)
		c.logger.Debugf("[http %d] %s %s: %s", resp.StatusCode, method, rawURL, apiErr.Message)
		return resp.Header, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, fmt.Errorf("[http %d] decode response: %w", resp.StatusCode, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.Header, nil
}
