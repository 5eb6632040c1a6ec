package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/upload-form/internal/config"
	"github.com/HaiFongPan/upload-form/internal/form"
)

// RequestIDHeader carries the per-submission id.
const RequestIDHeader = "X-Request-ID"

// ProgressCallback reports bytes of the request body sent so far. total is
// the whole multipart body, slightly larger than the file.
type ProgressCallback func(sent, total int64, percentage float64)

// uploadError wraps a failure of one step of the upload.
type uploadError struct {
	operation string
	path      string
	err       error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("upload %s failed for %s: %v", e.operation, e.path, e.err)
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// Client posts form payloads to the backend as multipart/form-data.
type Client struct {
	http     *resty.Client
	endpoint string
	progress ProgressCallback
}

// Option configures a Client.
type Option func(*Client)

// WithProgress reports upload progress to callback. It is called from the
// HTTP transport's writer goroutine as the body goes out.
func WithProgress(callback ProgressCallback) Option {
	return func(c *Client) {
		c.progress = callback
	}
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg *config.ServerConfig, opts ...Option) *Client {
	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:     httpClient,
		endpoint: cfg.Endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.progress != nil {
		base := httpClient.GetClient().Transport
		if base == nil {
			base = http.DefaultTransport
		}
		httpClient.SetTransport(&progressTransport{base: base, callback: c.progress})
	}
	return c
}

// Endpoint returns the URL uploads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload sends the payload's file under its field name. Responses outside
// the 2xx range are returned, not treated as errors.
func (c *Client) Upload(ctx context.Context, payload form.Payload) (*form.Response, error) {
	if payload.File == nil {
		return nil, &uploadError{operation: "prepare", path: payload.Field, err: errors.New("no file in payload")}
	}
	file := payload.File

	body, err := file.Open()
	if err != nil {
		return nil, &uploadError{operation: "open file", path: file.Name, err: err}
	}
	defer body.Close()

	requestID := uuid.NewString()
	logrus.Infof("Uploading %s (%d bytes, %s) as %s to %s [%s]",
		file.Name, file.Size, file.MediaType, payload.Field, c.endpoint, requestID)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		SetMultipartField(payload.Field, file.Name, file.MediaType, body).
		Post(c.endpoint)
	if err != nil {
		return nil, &uploadError{operation: "post", path: file.Name, err: err}
	}

	result := &form.Response{
		StatusCode: resp.StatusCode(),
		RequestID:  requestID,
	}

	if !resp.IsSuccess() {
		result.Detail = errorDetail(resp.Body())
		logrus.Warnf("Upload of %s rejected with status %d: %s", file.Name, result.StatusCode, result.Detail)
		return result, nil
	}

	var decoded struct {
		Results json.RawMessage `json:"results"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, &uploadError{operation: "decode response", path: file.Name, err: err}
	}

	result.Results = decoded.Results
	result.Message = decoded.Message
	logrus.Infof("Successfully uploaded %s (status %d)", file.Name, result.StatusCode)
	return result, nil
}

// errorDetail extracts a readable reason from an error body such as
// {"detail": "No file part"}.
func errorDetail(body []byte) string {
	var decoded struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded.Detail) == 0 {
		return strings.TrimSpace(truncate(string(body), 200))
	}

	var text string
	if err := json.Unmarshal(decoded.Detail, &text); err == nil {
		return text
	}
	return string(decoded.Detail)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
