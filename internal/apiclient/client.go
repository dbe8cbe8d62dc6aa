package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketplace-storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// TokenSource supplies the bearer token and drops it on a 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// File is one multipart file part forwarded to the API.
type File struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// Request describes one call relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string

	// Multipart form; used instead of Body when Files or Fields are set.
	Fields map[string]string
	Files  []File
}

// Client wraps the marketplace REST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func()
	logger         *zap.Logger
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers the hook run after a 401 cleared the token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for baseURL (which already ends in /api).
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     util.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler replaces the 401 hook after construction.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, result)
}

func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, result)
}

func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, result)
}

func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, result)
}

// Upload sends a multipart form with the given fields and files.
func (c *Client) Upload(ctx context.Context, method, path string, fields map[string]string, files []File, result interface{}) error {
	return c.Do(ctx, &Request{Method: method, Path: path, Fields: fields, Files: files}, result)
}

// Do executes req and decodes the (envelope-unwrapped) body into result.
func (c *Client) Do(ctx context.Context, req *Request, result interface{}) error {
	route := routeLabel(req.Path)
	ctx, span := util.StartSpan(ctx, "APIClient."+req.Method+" "+route)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.path", req.Path),
	)

	start := time.Now()
	status, err := c.do(ctx, req, result)
	util.APIRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	util.APIRequestsTotal.WithLabelValues(req.Method, route, statusLabel(status, err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	return err
}

func (c *Client) do(ctx context.Context, req *Request, result interface{}) (int, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("API request timed out",
				zap.String("method", req.Method), zap.String("path", req.Path))
			return 0, fmt.Errorf("%w: %s %s", ErrTimeout, req.Method, req.Path)
		}
		c.logger.Warn("API request failed",
			zap.String("method", req.Method), zap.String("path", req.Path), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		return resp.StatusCode, newAPIError(resp.StatusCode, errorMessage(raw))
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, newAPIError(resp.StatusCode, errorMessage(raw))
	}

	if result == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(unwrapEnvelope(raw), result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", req.Path, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case len(req.Files) > 0 || len(req.Fields) > 0:
		buf, ct, err := encodeMultipart(req.Fields, req.Files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if c.tokens != nil && httpReq.Header.Get("Authorization") == "" {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("Failed to read session token", zap.Error(err))
		} else if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	util.UnauthorizedTotal.Inc()
	if c.tokens != nil {
		if err := c.tokens.Clear(ctx); err != nil {
			c.logger.Error("Failed to clear session after 401", zap.Error(err))
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func encodeMultipart(fields map[string]string, files []File) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("failed to copy form file %s: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// unwrapEnvelope returns data from {"success":..,"data":..,"message":..};
// any other body is returned unchanged.
func unwrapEnvelope(raw []byte) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	data, ok := obj["data"]
	if !ok {
		return raw
	}
	for k := range obj {
		switch k {
		case "data", "success", "message":
		default:
			return raw
		}
	}
	return data
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// routeLabel keeps metric cardinality bounded: /products/42/images -> /products
func routeLabel(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

func statusLabel(status int, err error) string {
	switch {
	case status > 0:
		return strconv.Itoa(status)
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case err != nil:
		return "error"
	}
	return "0"
}
