// Package fetch is the outbound HTTP transport shared by the retailer adapters.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	gbytes "github.com/labstack/gommon/bytes"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/metrics"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 20 * time.Second
	retryWait      = 10 * time.Millisecond
	maxBodySize    = 32 << 20
)

// Delay bounds the random pause taken before every outbound call.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) pick() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

func retryable(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

type Client struct {
	name      string
	http      *http.Client
	transport *http.Transport
	headers   http.Header
	delay     Delay
	retries   uint64
	limiter   *rate.Limiter
	sleep     func(ctx context.Context, d time.Duration) error
	hasCert   bool
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithDelay(d Delay) Option {
	return func(c *Client) { c.delay = d }
}

func WithRetries(n uint64) Option {
	return func(c *Client) { c.retries = n }
}

// WithLimiter adds a per-retailer rate limit on top of the random delay.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithCertificate makes the client present cert in TLS handshakes.
func WithCertificate(cert tls.Certificate) Option {
	return func(c *Client) {
		if c.transport.TLSClientConfig == nil {
			c.transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		c.transport.TLSClientConfig.Certificates = []tls.Certificate{cert}
		c.hasCert = true
	}
}

// WithTransport replaces the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// LoadCertificate reads a PEM client certificate and key pair.
func LoadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tls.LoadX509KeyPair: %w", err)
	}
	return cert, nil
}

// New builds a client whose metrics and logs are labelled with name.
func New(name string, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		name:      name,
		transport: transport,
		http:      &http.Client{Timeout: defaultTimeout, Transport: transport},
		headers:   make(http.Header),
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) HasClientCertificate() bool {
	return c.hasCert
}

// RequestOption adjusts a single request.
type RequestOption func(*http.Request)

func Header(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.sleep(ctx, c.delay.pick()); err != nil {
		return err
	}
	if c.limiter != nil {
		return c.limiter.Wait(ctx)
	}
	return nil
}

type response struct {
	body        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, url string, opts []RequestOption) (*response, error) {
	var res *response
	err := backoff.Retry(
		func() error {
			// пауза перед каждым запросом, в том числе повторным
			if err := c.wait(ctx); err != nil {
				return backoff.Permanent(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("http.NewRequestWithContext: %w", err))
			}
			for k, v := range c.headers {
				req.Header[k] = v
			}
			for _, opt := range opts {
				opt(req)
			}

			start := time.Now()
			resp, err := c.http.Do(req)
			if err != nil {
				metrics.RecordFetch(c.name, 0, time.Since(start))
				return fmt.Errorf("http.Do: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
			metrics.RecordFetch(c.name, resp.StatusCode, time.Since(start))
			if err != nil {
				return fmt.Errorf("io.ReadAll: %w", err)
			}

			logger.Debugf(ctx, "GET %s: %d, %s in %s", url, resp.StatusCode, gbytes.Format(int64(len(body))), time.Since(start))

			if resp.StatusCode != http.StatusOK {
				statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
				if retryable(resp.StatusCode) {
					return statusErr
				}
				return backoff.Permanent(statusErr)
			}

			res = &response{body: body, contentType: resp.Header.Get("Content-Type")}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(retryWait), c.retries),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Get returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	res, err := c.do(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return res.body, nil
}

// Document fetches an HTML page and decodes it according to its declared charset.
func (c *Client) Document(ctx context.Context, url string, opts ...RequestOption) (*goquery.Document, error) {
	res, err := c.do(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReader(bytes.NewReader(res.body), res.contentType)
	if err != nil {
		return nil, fmt.Errorf("charset.NewReader: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	return doc, nil
}

// JSON fetches url and decodes the body into v.
func (c *Client) JSON(ctx context.Context, url string, v any, opts ...RequestOption) error {
	res, err := c.do(ctx, url, opts)
	if err != nil {
		return err
	}

	if err = sonic.Unmarshal(res.body, v); err != nil {
		return fmt.Errorf("sonic.Unmarshal: %w", err)
	}

	return nil
}

// IsStatus reports whether err carries the given response status.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
