package usersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	domain "user-table/internal/domain/user"
	"user-table/pkg/logger"
)

const jsonContentType = "application/json"

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 4 << 10

// Config holds the settings for a users API client.
type Config struct {
	BaseURL   string        // collection endpoint, e.g. https://dummyjson.com/users
	Timeout   time.Duration // 0 means no timeout
	UserAgent string
}

// Client calls a dummyjson-compatible users REST API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       *zap.Logger
}

// NewClient creates a Client. When hc is nil a pooled client from go-cleanhttp is used.
func NewClient(cfg Config, hc *http.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	hc.Timeout = cfg.Timeout

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      hc,
		log:       log.Named("usersapi"),
	}
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 answer from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type listResponse struct {
	Users *[]domain.User `json:"users"`
}

// ListUsers fetches the collection endpoint.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return nil, fmt.Errorf("GET %s: response has no users field", c.baseURL)
	}
	return *resp.Users, nil
}

// CreateUser posts p to the add endpoint and returns the user the API answered with.
func (c *Client) CreateUser(ctx context.Context, p domain.Profile) (domain.User, error) {
	var created domain.User
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/add", p, &created); err != nil {
		return domain.User{}, err
	}
	return created, nil
}

// UpdateUser puts p to the user's resource and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, id int64, p domain.Profile) (domain.User, error) {
	var updated domain.User
	if err := c.do(ctx, http.MethodPut, c.userURL(id), p, &updated); err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// DeleteUser deletes the user's resource. The response body is ignored.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.userURL(id), nil, nil)
}

func (c *Client) userURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, url, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", jsonContentType+"; charset=utf-8")
	}
	req.Header.Set("Accept", jsonContentType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	logger.WithContext(ctx, c.log).Debug("users api call",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, url, err)
	}
	return nil
}

// errorMessage extracts the "message" field dummyjson puts in error bodies.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(bytes.TrimSpace(data))
}
