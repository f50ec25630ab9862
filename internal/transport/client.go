package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jo-hoe/gardengallery/internal/credentials"
)

const (
	DefaultTimeout  = 30 * time.Second
	RequestIDHeader = "X-Request-ID"

	// maxAttempts bounds the auth retry: the first send plus one resend
	// after re-reading the token.
	maxAttempts = 2
)

// Request describes one logical call. Body is kept as bytes so that the
// single auth retry can resend it unchanged.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Progress    ProgressFunc
}

// Response is the outcome of Do. Err is nil only for 2xx responses.
type Response struct {
	Status int
	Body   []byte
	Err    error
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials credentials.Store
	timeout     time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(baseURL string, store credentials.Store, options ...Option) *Client {
	if store == nil {
		store = credentials.NewStaticStore("")
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
		credentials: store,
		timeout:     DefaultTimeout,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Do sends the request, re-reading the token and resending exactly once if
// the server answers 401. It never returns a separate error; all failures
// are reported through Response.Err.
func (c *Client) Do(ctx context.Context, request Request) Response {
	var response Response
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := c.credentials.Token(ctx)
		if err != nil {
			slog.Warn("Transport: failed to read token, sending without it",
				"path", request.Path, "attempt", attempt, "error", err)
			token = ""
		}

		response = c.send(ctx, request, token)
		if response.Status != http.StatusUnauthorized {
			return response
		}
		if attempt < maxAttempts {
			slog.Info("Transport: received 401, retrying once with latest token",
				"method", request.Method, "path", request.Path)
		}
	}
	slog.Warn("Transport: still unauthorized after token re-read",
		"method", request.Method, "path", request.Path)
	return response
}

func (c *Client) send(ctx context.Context, request Request, token string) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpRequest, err := c.newHTTPRequest(ctx, request)
	if err != nil {
		return Response{Err: &Error{Kind: KindNetwork, Message: err.Error()}}
	}
	httpRequest = AttachAuth(httpRequest, token)

	start := time.Now()
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		transportErr := classifySendError(ctx, err)
		slog.Error("Transport: request failed",
			"method", request.Method, "path", request.Path,
			"kind", transportErr.Kind.String(), "error", err)
		return Response{Err: transportErr}
	}
	defer func() {
		if cerr := httpResponse.Body.Close(); cerr != nil {
			slog.Debug("Transport: failed to close response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		transportErr := classifySendError(ctx, err)
		return Response{Status: httpResponse.StatusCode, Err: transportErr}
	}

	slog.Debug("Transport: response received",
		"method", request.Method, "path", request.Path,
		"status", httpResponse.StatusCode, "latency", time.Since(start),
		"request_id", httpRequest.Header.Get(RequestIDHeader))

	response := Response{Status: httpResponse.StatusCode, Body: body}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		response.Err = statusError(httpResponse.StatusCode, body)
	}
	return response
}

func (c *Client) newHTTPRequest(ctx context.Context, request Request) (*http.Request, error) {
	target := c.baseURL + request.Path
	if len(request.Query) > 0 {
		target += "?" + request.Query.Encode()
	}

	var body io.Reader
	if request.Body != nil {
		size := int64(len(request.Body))
		body = newProgressReader(bytes.NewReader(request.Body), size, request.Progress)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", request.Method, target, err)
	}
	if request.Body != nil {
		httpRequest.ContentLength = int64(len(request.Body))
	}
	if request.ContentType != "" {
		httpRequest.Header.Set("Content-Type", request.ContentType)
	}
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set(RequestIDHeader, uuid.NewString())
	return httpRequest, nil
}

func classifySendError(ctx context.Context, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "request timed out"}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Message: "request canceled"}
	default:
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
}
