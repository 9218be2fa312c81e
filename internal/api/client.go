package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/proto"
)

// Header names sent to the game server.
const (
	HeaderClientID  = "X-Client-ID"
	HeaderRequestID = "X-Request-ID"
)

// Client calls the Tombola game server.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zerolog.Logger

	mu        sync.RWMutex
	clientID  string
	authToken string
}

// New creates a client for baseURL. A nil httpClient uses one with the given timeout.
func New(baseURL string, timeout time.Duration, httpClient *http.Client, logger *zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Info().Str("endpoint", baseURL).Msg("tombola api client initialized")
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

// BaseURL returns the game server root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetClientID sets the identity attached as X-Client-ID. Empty clears it.
func (c *Client) SetClientID(id string) {
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

// ClientID returns the identity currently attached to calls.
func (c *Client) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// SetAuthToken sets the bearer token of the signed-in user. Empty clears it.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
}

type callOptions struct {
	clientID   *string
	noIdentity bool
	bearer     *string
	headers    map[string]string
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

// WithClientID overrides the identity header for one call.
func WithClientID(id string) CallOption {
	return func(o *callOptions) { o.clientID = &id }
}

// WithoutIdentity sends the call without X-Client-ID.
func WithoutIdentity() CallOption {
	return func(o *callOptions) { o.noIdentity = true }
}

// WithBearer overrides the bearer token for one call.
func WithBearer(token string) CallOption {
	return func(o *callOptions) { o.bearer = &token }
}

// WithHeader adds a header to one call.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// Call performs method on endpoint, encoding body as JSON when non-nil and
// decoding the response into out when non-nil. Decoded values implementing
// proto.Validator are validated before returning.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())

	c.mu.RLock()
	clientID, token := c.clientID, c.authToken
	c.mu.RUnlock()
	if o.clientID != nil {
		clientID = *o.clientID
	}
	if o.bearer != nil {
		token = *o.bearer
	}
	if clientID != "" && !o.noIdentity {
		req.Header.Set(HeaderClientID, clientID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("request failed")
		return &NetworkError{Endpoint: endpoint, BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, BaseURL: c.baseURL, Err: err}
	}

	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
		var errBody proto.ErrorBody
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	if v, ok := out.(proto.Validator); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Endpoint: endpoint, Err: err}
		}
	}
	return nil
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
