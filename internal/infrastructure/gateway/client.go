// Package gateway is the typed HTTP client of the nutrition backend.
//
// Every operation issues a single request: there is no retry, no backoff and
// no client-side timeout. Responses are normalized from the backend record
// shapes (Mongo-style "_id") into the domain types.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Client implements ports.Backend over net/http.
type Client struct {
	baseURL string
	base    Doer // transport with the shared middlewares applied
	doer    Doer // base, plus credentials when bound
	log     zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	doer        Doer
	middlewares []Middleware
	log         zerolog.Logger
}

// WithDoer replaces the underlying transport (defaults to an http.Client
// without timeout).
func WithDoer(d Doer) Option {
	return func(o *clientOptions) { o.doer = d }
}

// WithMiddleware adds middlewares applied to every call of the client and of
// every credentialed view derived from it.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *clientOptions) { o.middlewares = append(o.middlewares, mws...) }
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// New returns an anonymous client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{doer: &http.Client{}, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	base := Chain(o.doer, o.middlewares...)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    base,
		doer:    base,
		log:     o.log,
	}
}

// WithCredentials returns a view of the client that attaches src's token to
// every request.
func (c *Client) WithCredentials(src ports.TokenSource) ports.Backend {
	cp := *c
	cp.doer = Bearer(src)(c.base)
	return &cp
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.send(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	return c.send(ctx, op, method, path, body, contentTypeJSON, out)
}

func (c *Client) sendForm(ctx context.Context, op, path string, form url.Values, out any) error {
	return c.send(ctx, op, http.MethodPost, path, strings.NewReader(form.Encode()), contentTypeForm, out)
}

func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(withOp(ctx, op), method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return &domain.GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &domain.GatewayError{
			Op:     op,
			Status: resp.StatusCode,
			Detail: parseDetail(raw),
			Err:    sentinelFor(resp.StatusCode),
		}
		c.log.Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("detail", gerr.Detail).
			Msg("backend call failed")
		return gerr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
