// Package http sends fixture requests to the system under test.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

type Client struct {
	logger *zap.Logger
	client *retryablehttp.Client
}

// New creates a client that gives up on a request after timeout and retries
// connection failures up to retries times. Responses are never retried,
// whatever their status code.
func New(logger *zap.Logger, timeout time.Duration, retries int) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.RetryMax = retries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = &leveledLogger{s: logger.Sugar()}
	rc.CheckRetry = retryConnectionErrors
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{logger: logger, client: rc}
}

func retryConnectionErrors(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req models.HTTPRequest) (*models.HTTPResponse, error) {
	var body interface{}
	if req.Body != nil {
		body = req.Body
	}
	r, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Body != nil && req.MediaType != "" {
		r.Header.Set("Content-Type", string(req.MediaType))
	}
	if req.MediaType != "" {
		r.Header.Set("Accept", string(req.MediaType))
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	c.logger.Debug("sending request", zap.String("method", req.Method), zap.String("url", req.URL))
	resp, err := c.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &models.HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// leveledLogger routes retryablehttp logs through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
