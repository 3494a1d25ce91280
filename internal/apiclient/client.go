package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/comfykit/studio-ui/internal/errors"
)

// Client is a thin HTTP client for the workflow backend. It resolves relative
// paths against the configured base URL, attaches the bearer token from the
// per-call TokenSource, and maps failure statuses onto the shared error
// taxonomy. It holds no session state of its own.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend prefix relative paths resolve against,
	// e.g. "http://127.0.0.1:1145/api/v1".
	BaseURL string

	// HTTPClient overrides the underlying transport. Nil uses a client
	// with a 30s timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpc:   httpc,
		logger:  logger,
	}
}

// Request describes a single backend call.
type Request struct {
	Method string

	// Path is resolved against the client's base URL unless it is already
	// an absolute http(s) URL, which passes through untouched.
	Path string

	// Header holds extra request headers. Content-Type set here wins over
	// the JSON default.
	Header http.Header

	// Body may be nil, an io.Reader, []byte, or string (sent as-is with
	// headers untouched), or any other value (JSON-encoded, Content-Type
	// defaulted to application/json).
	Body any

	// Token supplies the bearer token. Nil means unauthenticated.
	Token TokenSource
}

// Do sends the request and returns the response for any 2xx status. The
// caller owns closing the body. Non-2xx statuses are consumed and returned
// as errors: 401 becomes an AuthError, everything else a RequestError with a
// truncated body snippet and, for 422, the parsed validation detail.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	target := req.Path
	if !isAbsoluteURL(target) {
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}

	body, err := encodeBody(&req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Token != nil {
		if token, ok := req.Token.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		c.logger.Debug("backend rejected token", "method", req.Method, "path", req.Path)
		return nil, apierrors.NewAuthError()
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	reqErr := &apierrors.RequestError{
		Status: resp.StatusCode,
		Body:   apierrors.Snippet(string(raw)),
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		var validation apierrors.ValidationError
		if json.Unmarshal(raw, &validation) == nil && len(validation.Detail) > 0 {
			reqErr.Validation = &validation
		}
	}
	c.logger.Warn("backend request failed",
		"method", req.Method, "path", req.Path, "status", resp.StatusCode)
	return nil, reqErr
}

// DoJSON sends the request and decodes a JSON response body into out. A 204
// response leaves out untouched. When out is a *string the body is captured
// as text regardless of content type; otherwise a non-JSON 2xx body is an
// error. Passing a nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}

	if text, ok := out.(*string); ok {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		*text = string(raw)
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "json") {
		return fmt.Errorf("unexpected content type %q for %s %s", contentType, req.Method, req.Path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// GetJSON is a convenience wrapper for authenticated GET calls.
func (c *Client) GetJSON(ctx context.Context, path string, token TokenSource, out any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodGet, Path: path, Token: token}, out)
}

// PostJSON is a convenience wrapper for authenticated POST calls with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body any, token TokenSource, out any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Token: token}, out)
}

// Delete is a convenience wrapper for authenticated DELETE calls that
// discards any response body.
func (c *Client) Delete(ctx context.Context, path string, token TokenSource) error {
	return c.DoJSON(ctx, Request{Method: http.MethodDelete, Path: path, Token: token}, nil)
}

func isAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func encodeBody(req *Request) (io.Reader, error) {
	switch b := req.Body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		if req.Header == nil {
			req.Header = http.Header{}
		}
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		return bytes.NewReader(data), nil
	}
}
