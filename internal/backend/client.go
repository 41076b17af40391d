// Package backend talks to the equipment management REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// Upload is a file forwarded to the backend as multipart/form-data.
type Upload struct {
	Field    string
	Filename string
	Content  io.Reader
}

// RequestOptions shapes a single backend call.
type RequestOptions struct {
	Method string
	Query  url.Values
	Body   any
	Upload *Upload
}

// Client wraps every call to the backend. Failures are reported to the
// notifier bound to the request (or the client default) and then returned.
type Client struct {
	baseURL    string
	publicURL  string
	httpClient *http.Client
	logger     *slog.Logger
	notifier   Notifier
	observers  []Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDefaultNotifier sets the notifier used when the request context carries none.
func WithDefaultNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithObservers registers process-wide observers such as metrics.
func WithObservers(obs ...Observer) Option {
	return func(c *Client) {
		for _, o := range obs {
			if o != nil {
				c.observers = append(c.observers, o)
			}
		}
	}
}

// WithPublicURL sets the base URL browsers use for navigated downloads.
func WithPublicURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.publicURL = strings.TrimRight(u, "/")
		}
	}
}

// NewClient constructs a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL:    base,
		publicURL:  base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
		notifier:   SessionNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root used for API calls.
func (c *Client) BaseURL() string { return c.baseURL }

// PublicURL resolves endpoint against the browser-facing backend root.
func (c *Client) PublicURL(endpoint string) string {
	return c.publicURL + endpoint
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodGet, Query: query}, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body}, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPut, Body: body}, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodDelete}, out)
}

// Upload posts a file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, endpoint string, upload Upload, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Upload: &upload}, out)
}

// Request performs one backend call and decodes the JSON answer into out.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions, out any) (err error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	info := RequestInfo{Method: method, Endpoint: endpoint}
	message := UserMessage
	if opts.Upload != nil {
		message = UploadMessage
	}
	observers := c.observersFor(ctx)
	for _, o := range observers {
		o.RequestStarted(ctx, info)
	}
	start := time.Now()
	defer func() {
		info.Err = err
		info.Elapsed = time.Since(start)
		for _, o := range observers {
			o.RequestFinished(ctx, info)
		}
		if err != nil {
			c.fail(ctx, info, err, message(err))
		}
	}()

	req, err := c.newRequest(ctx, method, endpoint, opts)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	info.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read body", Err: err}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: "decode " + endpoint, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, opts RequestOptions) (*http.Request, error) {
	target := c.baseURL + endpoint
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case opts.Upload != nil:
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		field := opts.Upload.Field
		if field == "" {
			field = "file"
		}
		part, err := writer.CreateFormFile(field, opts.Upload.Filename)
		if err != nil {
			return nil, &TransportError{Op: "build upload", Err: err}
		}
		if opts.Upload.Content != nil {
			if _, err := io.Copy(part, opts.Upload.Content); err != nil {
				return nil, &TransportError{Op: "build upload", Err: err}
			}
		}
		if err := writer.Close(); err != nil {
			return nil, &TransportError{Op: "build upload", Err: err}
		}
		body = buf
		contentType = writer.FormDataContentType()
	case opts.Body != nil:
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &TransportError{Op: "encode body", Err: err}
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	return req, nil
}

func (c *Client) observersFor(ctx context.Context) []Observer {
	obs := c.observers
	if o := observerFromContext(ctx); o != nil {
		obs = append(append([]Observer(nil), obs...), o)
	}
	return obs
}

func (c *Client) fail(ctx context.Context, info RequestInfo, err error, message string) {
	if !errors.Is(err, context.Canceled) {
		c.logger.Warn("backend request failed",
			slog.String("method", info.Method),
			slog.String("endpoint", info.Endpoint),
			slog.Int("status", info.Status),
			slog.Any("error", err))
	}
	Notify(ctx, c.notifier, Notification{Kind: KindError, Message: message})
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case strings.TrimSpace(payload.Error) != "":
			apiErr.Message = payload.Error
		case strings.TrimSpace(payload.Message) != "":
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/configuracoes/status", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}
