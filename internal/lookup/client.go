// Package lookup asks a remote HTTP endpoint for the caller's IP address.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"myip/internal/validator"
)

// FailureMessage is logged after the error whenever a lookup fails.
const FailureMessage = "Unable To Find Ip Address"

// DefaultURL is the endpoint queried when none is configured.
const DefaultURL = "http://php:80/api/get_my_ip.php"

var (
	// ErrInvalidJSON is returned when the response body is not a single JSON value.
	ErrInvalidJSON = errors.New("response body is not valid JSON")
	// ErrBodyTooLarge is returned when the response body exceeds Config.MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Config describes the endpoint to query.
type Config struct {
	URL string
	// Timeout bounds the whole request. Zero leaves it to the transport.
	Timeout time.Duration
	// MaxBodySize caps the bytes read from the response. Zero means no cap.
	MaxBodySize int64
}

// Client performs IP lookups against a single endpoint.
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for lookup results and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a lookup client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if !validator.IsHTTPURL(cfg.URL) {
		return nil, fmt.Errorf("invalid endpoint url %q: must be an absolute http or https URL", cfg.URL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %s: must not be negative", cfg.Timeout)
	}
	if cfg.MaxBodySize < 0 {
		return nil, fmt.Errorf("invalid max body size %d: must not be negative", cfg.MaxBodySize)
	}

	c := &Client{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL returns the endpoint the client queries.
func (c *Client) URL() string {
	return c.config.URL
}

// GetMyIP queries the endpoint once and returns the decoded JSON value.
// Any failure is logged, followed by FailureMessage, and yields nil.
func (c *Client) GetMyIP(ctx context.Context) any {
	log := c.logger.With(zap.String("lookup_id", uuid.NewString()))

	result, err := c.lookup(ctx, log)
	if err != nil {
		log.Error("IP lookup failed", zap.Error(err))
		log.Error(FailureMessage)
		return nil
	}

	return result
}

// Lookup queries the endpoint once and returns the decoded JSON value.
func (c *Client) Lookup(ctx context.Context) (any, error) {
	return c.lookup(ctx, c.logger)
}

func (c *Client) lookup(ctx context.Context, log *zap.Logger) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	log.Debug("Endpoint responded",
		zap.String("url", c.config.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	return decode(body)
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.config.MaxBodySize <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, c.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.config.MaxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.config.MaxBodySize)
	}
	return body, nil
}

// utf8BOM is stripped before decoding, as UTF-8 text decoders do.
var utf8BOM = []byte("\xef\xbb\xbf")

// decode parses body as exactly one JSON value of any shape.
func decode(body []byte) (any, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidJSON)
	}

	return v, nil
}
