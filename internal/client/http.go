package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"

	"github.com/alfredjeanlab/devcamper/internal/model"
)

const apiPrefix = "/api/v1"

// HTTPClient implements DevcamperClient using the devcamper REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:5000"). When token is non-empty, an Authorization
// header is set on every request. GET requests are retried on temporary
// network errors and gateway failures.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	tr := rehttp.NewTransport(nil,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(2),
			rehttp.RetryHTTPMethods(http.MethodGet),
			rehttp.RetryAny(
				rehttp.RetryTemporaryErr(),
				rehttp.RetryStatuses(http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout),
			),
		),
		rehttp.ExpJitterDelay(100*time.Millisecond, time.Second),
	)
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Transport: tr, Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Bootcamps ---

func (c *HTTPClient) ListBootcamps(ctx context.Context, q *ListQuery) (*ListResponse, error) {
	return c.list(ctx, "/bootcamps", q)
}

func (c *HTTPClient) GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error) {
	var b model.Bootcamp
	if err := c.doData(ctx, http.MethodGet, "/bootcamps/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *HTTPClient) CreateBootcamp(ctx context.Context, b *model.Bootcamp) (*model.Bootcamp, error) {
	var out model.Bootcamp
	if err := c.doData(ctx, http.MethodPost, "/bootcamps", b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteBootcamp(ctx context.Context, id string) error {
	return c.doData(ctx, http.MethodDelete, "/bootcamps/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) BootcampsInRadius(ctx context.Context, zipcode string, miles float64) ([]*model.Bootcamp, error) {
	path := "/bootcamps/radius/" + url.PathEscape(zipcode) + "/" + strconv.FormatFloat(miles, 'f', -1, 64)
	var out []*model.Bootcamp
	if err := c.doData(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Courses ---

func (c *HTTPClient) ListCourses(ctx context.Context, q *ListQuery) (*ListResponse, error) {
	return c.list(ctx, "/courses", q)
}

func (c *HTTPClient) ListBootcampCourses(ctx context.Context, bootcampID string) ([]*model.Course, error) {
	var out []*model.Course
	if err := c.doData(ctx, http.MethodGet, "/bootcamps/"+url.PathEscape(bootcampID)+"/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCourse(ctx context.Context, id string) (*model.CourseWithBootcamp, error) {
	var out model.CourseWithBootcamp
	if err := c.doData(ctx, http.MethodGet, "/courses/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Auth ---

func (c *HTTPClient) Register(ctx context.Context, req *model.Registration) (*model.User, error) {
	var u model.User
	if err := c.doData(ctx, http.MethodPost, "/auth/register", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, apiPrefix+"/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

func (c *HTTPClient) list(ctx context.Context, path string, q *ListQuery) (*ListResponse, error) {
	v, err := q.Values()
	if err != nil {
		return nil, err
	}
	path = apiPrefix + path
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var resp ListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doData performs a request against an API path and decodes the "data" member
// of the response envelope into result.
func (c *HTTPClient) doData(ctx context.Context, method, path string, body any, result any) error {
	if result == nil {
		return c.doJSON(ctx, method, apiPrefix+path, body, nil)
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.doJSON(ctx, method, apiPrefix+path, body, &env); err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
