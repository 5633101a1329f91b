// Package client provides a typed HTTP client for the remote students
// collection. Every operation logs its failure and returns it; nothing
// is retried and nothing is swallowed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-results/internal/types"
)

const (
	defaultTimeout = 10 * time.Second
	collectionPath = "/students"
	contentJSON    = "application/json"

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// ErrMalformedRecord marks a response that decoded but is not a usable record.
var ErrMalformedRecord = errors.New("malformed student record")

// TransportError is the single failure kind of this client: the network
// failed, the store answered with a non-success status, or the body was
// not a valid record.
type TransportError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

// Error reads "op: METHOD url[: status N]: cause".
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s %s: status %d: %v", e.Op, e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the root URL of the store (for example: http://localhost:5000).
	BaseURL string
	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client
	// Logger receives failure diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the students collection.
type Client struct {
	http     *http.Client
	endpoint string
	log      *slog.Logger
	validate *validator.Validate
}

// New creates a client for the collection under cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		http:     hc,
		endpoint: baseURL + collectionPath,
		log:      log,
		validate: validator.New(),
	}, nil
}

// ListAll returns every record in store order.
func (c *Client) ListAll(ctx context.Context) ([]types.Student, error) {
	const op = "listing students"

	var students []types.Student
	if err := c.do(ctx, op, http.MethodGet, c.endpoint, nil, &students); err != nil {
		return nil, err
	}

	for i, s := range students {
		if err := c.checkRecord(s); err != nil {
			return nil, c.fail(&TransportError{
				Op: op, Method: http.MethodGet, URL: c.endpoint,
				Err: fmt.Errorf("record %d: %w", i, err),
			})
		}
	}

	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// GetByID returns one record.
func (c *Client) GetByID(ctx context.Context, id string) (types.Student, error) {
	return c.single(ctx, "getting student", http.MethodGet, c.itemURL(id), nil)
}

// Create persists a new record and returns it with its store-assigned id.
func (c *Client) Create(ctx context.Context, s types.Student) (types.Student, error) {
	s.ID = ""
	return c.single(ctx, "creating student", http.MethodPost, c.endpoint, s)
}

// Update replaces the whole record stored under id.
func (c *Client) Update(ctx context.Context, id string, s types.Student) (types.Student, error) {
	s.ID = id
	return c.single(ctx, "updating student", http.MethodPut, c.itemURL(id), s)
}

// Remove deletes the record stored under id.
func (c *Client) Remove(ctx context.Context, id string) (bool, error) {
	if err := c.do(ctx, "deleting student", http.MethodDelete, c.itemURL(id), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) itemURL(id string) string {
	return c.endpoint + "/" + url.PathEscape(strings.TrimSpace(id))
}

func (c *Client) single(ctx context.Context, op, method, target string, body any) (types.Student, error) {
	var s types.Student
	if err := c.do(ctx, op, method, target, body, &s); err != nil {
		return types.Student{}, err
	}

	if err := c.checkRecord(s); err != nil {
		return types.Student{}, c.fail(&TransportError{Op: op, Method: method, URL: target, Err: err})
	}
	return s, nil
}

// checkRecord rejects records the rest of the application cannot use.
func (c *Client) checkRecord(s types.Student) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if err := c.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return c.fail(&TransportError{Op: op, Method: method, URL: target, Err: err})
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return c.fail(&TransportError{Op: op, Method: method, URL: target, Err: err})
	}
	req.Header.Set("Accept", contentJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(&TransportError{Op: op, Method: method, URL: target, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(&TransportError{Op: op, Method: method, URL: target, StatusCode: resp.StatusCode, Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(&TransportError{
			Op: op, Method: method, URL: target, StatusCode: resp.StatusCode,
			Err: errors.New(http.StatusText(resp.StatusCode)),
		})
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(&TransportError{
			Op: op, Method: method, URL: target, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("%w: %v", ErrMalformedRecord, err),
		})
	}
	return nil
}

func (c *Client) fail(err *TransportError) error {
	c.log.Error("store request failed",
		slog.String("op", err.Op),
		slog.String("method", err.Method),
		slog.String("url", err.URL),
		slog.Int("status", err.StatusCode),
		slog.String("error", err.Err.Error()),
	)
	return err
}
