// Package apiclient is the HTTP client for the remote chatbot API.
package apiclient

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

const contentType = "application/json;charset=UTF-8"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Config holds remote API settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

// Client calls the remote chatbot API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

// New creates a client. The transport is instrumented with OpenTelemetry.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.Component("apiclient"),
	}, nil
}

// envelope is the common response wrapper of the remote API.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Data    json.RawMessage `json:"data"`
	Meta    *model.Meta     `json:"meta"`
}

func (e *envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(e.Detail, &detail); err == nil {
		return detail
	}
	return string(e.Detail)
}

// request describes one remote call.
type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

// do performs the request and returns the decoded envelope.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = "transport_error"
		if IsBusiness(err) {
			outcome = "business_error"
		}
		c.logger.Warn("remote call failed",
			zap.String("operation", req.operation),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
	}
	metrics.RecordUpstream(req.operation, outcome, time.Since(start).Seconds())

	return env, err
}

func (c *Client) roundTrip(ctx context.Context, req request) (*envelope, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Operation: req.operation, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Operation: req.operation, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Operation: req.operation, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Operation: req.operation, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	env := &envelope{}
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.message() != "" {
			return nil, &Error{Kind: KindBusiness, Operation: req.operation, Status: resp.StatusCode, Message: env.message()}
		}
		return nil, &Error{Kind: KindTransport, Operation: req.operation, Status: resp.StatusCode, Err: fmt.Errorf("request failed with status: %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindTransport, Operation: req.operation, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", decodeErr)}
	}
	if env.failed() {
		return nil, &Error{Kind: KindBusiness, Operation: req.operation, Status: resp.StatusCode, Message: env.message()}
	}

	return env, nil
}

// decodeData unmarshals the envelope payload into out.
func decodeData(operation string, env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindTransport, Operation: operation, Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	return nil
}

// decodePage decodes a list envelope.
func decodePage[T any](operation string, env *envelope) (*model.Page[T], error) {
	page := &model.Page[T]{Items: []T{}}
	if err := decodeData(operation, env, &page.Items); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	if env.Meta != nil {
		page.Meta = *env.Meta
	}
	return page, nil
}

func ack(env *envelope) *model.Ack {
	return &model.Ack{Success: true, Message: env.Message}
}

// listQuery builds list query parameters, skipping zero values.
func listQuery(params model.ListParams, extra map[string]string) url.Values {
	q := url.Values{}
	for k, v := range extra {
		if v != "" {
			q.Set(k, v)
		}
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	return q
}

// Ping checks that the remote API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{
		operation: "ping",
		method:    http.MethodGet,
		path:      "/tenants/",
		query:     listQuery(model.ListParams{Page: 1, PageSize: 1}, nil),
	})
	return err
}
