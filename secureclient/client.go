package secureclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ServiceContract identifies the remote service interface a produced client
// talks to.
type ServiceContract struct {
	// Name of the remote service interface, e.g. "CatalogService".
	Name string

	// MediaType is the default media type for request bodies. Optional.
	MediaType string
}

// MessageBodyProvider serializes request bodies and deserializes response
// bodies for one media type. Callers register providers at factory build
// time for the payload formats their service contract uses.
type MessageBodyProvider interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Client is a disposable secured client produced by a factory. It carries a
// call-specific security context (basic-auth header, session cookie with a
// signed assertion) and must not be reused for a second logical request
// sequence or shared across concurrent calls. Request a fresh client from
// the factory instead.
type Client struct {
	endpoint   *url.URL
	contract   *ServiceContract
	httpClient *http.Client
	header     http.Header
	baseHeader http.Header
	cookies    []*http.Cookie
	providers  []MessageBodyProvider
}

// Endpoint returns a copy of the endpoint URL the client is bound to.
func (c *Client) Endpoint() *url.URL {
	u := *c.endpoint
	return &u
}

// Contract returns the service contract the client conforms to.
func (c *Client) Contract() *ServiceContract {
	return c.contract
}

// Header exposes the headers attached to every outgoing request.
func (c *Client) Header() http.Header {
	return c.header
}

// AddCookie attaches a cookie sent with every outgoing request.
func (c *Client) AddCookie(cookie *http.Cookie) {
	c.cookies = append(c.cookies, cookie)
}

// Cookies returns the cookies attached to the client.
func (c *Client) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, len(c.cookies))
	copy(out, c.cookies)
	return out
}

// Reset restores the client to its post-construction state: headers back to
// the base configuration, attached cookies cleared. The session cookie jar
// is left alone.
func (c *Client) Reset() {
	c.header = c.baseHeader.Clone()
	c.cookies = nil
}

// NewRequest builds a request for a path relative to the client's endpoint,
// with the client's headers and cookies attached.
func (c *Client) NewRequest(ctx context.Context, method, relPath string, body io.Reader) (*http.Request, error) {
	target := c.endpoint.JoinPath(relPath)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}

	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	return req, nil
}

// Do dispatches a request through the client's secured transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Get issues a GET for a path relative to the client's endpoint.
func (c *Client) Get(ctx context.Context, relPath string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, relPath, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Invoke performs a request with a typed body and decodes a typed response
// using the registered message body providers. A nil in skips the request
// body; a nil out discards the response body.
func (c *Client) Invoke(ctx context.Context, method, relPath string, in, out any) error {
	var body io.Reader
	var contentType string

	if in != nil {
		provider, err := c.providerFor(c.requestMediaType())
		if err != nil {
			return err
		}
		data, err := provider.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = provider.ContentType()
	}

	req, err := c.NewRequest(ctx, method, relPath, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s returned %d: %s", method, relPath, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	provider, err := c.providerFor(resp.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	if err := provider.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not parse response body: %w", err)
	}
	return nil
}

func (c *Client) requestMediaType() string {
	if c.contract != nil && c.contract.MediaType != "" {
		return c.contract.MediaType
	}
	return ""
}

// providerFor picks the registered provider for a media type, falling back
// to the first registered provider when the media type is unknown or blank.
func (c *Client) providerFor(mediaType string) (MessageBodyProvider, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("no message body providers registered for %s", c.contract.Name)
	}
	mediaType = strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0])
	for _, provider := range c.providers {
		if mediaType != "" && strings.EqualFold(provider.ContentType(), mediaType) {
			return provider, nil
		}
	}
	return c.providers[0], nil
}

// tracingRoundTripper logs every request and response crossing the conduit,
// mirroring wire-level in/out interceptors. Credential-bearing headers are
// not logged.
type tracingRoundTripper struct {
	next http.RoundTripper
	log  *slog.Logger
}

func (t *tracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.Debug("Outbound request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()))

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.log.Debug("Outbound request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
			slog.Duration("duration", time.Since(start)),
			slog.Any("err", err))
		return nil, err
	}

	t.log.Debug("Inbound response",
		slog.String("method", req.Method),
		slog.String("url", req.URL.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}
