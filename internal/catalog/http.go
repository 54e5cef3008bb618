package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/coursepick/internal/model"
)

const (
	// DefaultBaseURL matches the address the mock server listens on.
	DefaultBaseURL = "http://localhost:4232"
	// CoursePath is the collection path relative to the base URL.
	CoursePath = "courseList"

	defaultTimeout = 10 * time.Second
	maxBackoff     = 2 * time.Second
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status for %s %s: %s", e.Method, e.URL, e.Status)
}

// HTTPSource fetches courses from a JSON endpoint.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	retries int
	backoff time.Duration
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithBackoff sets the initial delay between retries.
func WithBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.backoff = d
	}
}

// NewHTTPSource builds a source for the given base URL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &HTTPSource{
		baseURL: baseURL,
		client:  http.DefaultClient,
		timeout: defaultTimeout,
		retries: 2,
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCourses implements Source.
func (s *HTTPSource) FetchCourses(ctx context.Context) ([]model.CourseDTO, error) {
	endpoint := s.baseURL + "/" + CoursePath
	var courses []model.CourseDTO
	err := s.do(ctx, http.MethodGet, endpoint, func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return statusError(http.MethodGet, endpoint, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&courses); err != nil {
			return fmt.Errorf("failed to decode course list: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// RemoveCourse implements Remover.
func (s *HTTPSource) RemoveCourse(ctx context.Context, id int64) error {
	endpoint := s.baseURL + "/" + CoursePath + "/" + url.PathEscape(strconv.FormatInt(id, 10))
	return s.do(ctx, http.MethodDelete, endpoint, func(resp *http.Response) error {
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		default:
			return statusError(http.MethodDelete, endpoint, resp)
		}
	})
}

// do runs the request, retrying transport failures and 5xx responses with a
// doubling delay capped at maxBackoff.
func (s *HTTPSource) do(ctx context.Context, method, endpoint string, handle func(*http.Response) error) error {
	delay := s.backoff
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if delay < maxBackoff {
				delay *= 2
				if delay > maxBackoff {
					delay = maxBackoff
				}
			}
		}
		retry, err := s.attempt(ctx, method, endpoint, handle)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

func (s *HTTPSource) attempt(ctx context.Context, method, endpoint string, handle func(*http.Response) error) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 500 {
		return true, statusError(method, endpoint, resp)
	}
	return false, handle(resp)
}

func statusError(method, endpoint string, resp *http.Response) error {
	return &StatusError{Method: method, URL: endpoint, Code: resp.StatusCode, Status: resp.Status}
}
