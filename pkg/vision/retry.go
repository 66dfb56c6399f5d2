package vision

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
)

type retryClient struct {
	next Client
	cfg  config.RetryConfig
}

// WithRetry retries transient failures of next. With Attempts <= 1 it returns
// next unchanged.
func WithRetry(next Client, cfg config.RetryConfig) Client {
	if cfg.Attempts <= 1 {
		return next
	}
	return &retryClient{next: next, cfg: cfg}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (string, error) {
	delayType := retry.BackOffDelay
	if c.cfg.BackoffType == "fixed" {
		delayType = retry.FixedDelay
	}

	var (
		reply    string
		attempts []error
	)
	err := retry.Do(
		func() error {
			var err error
			reply, err = c.next.Complete(ctx, req)
			if err != nil {
				attempts = append(attempts, err)
			}
			return err
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(uint(c.cfg.Attempts)),
		retry.Delay(c.cfg.InitialDelay),
		retry.MaxDelay(c.cfg.MaxDelay),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("attempt", n+1).
				WithField("max_attempts", c.cfg.Attempts).
				Warn("retrying vision request")
		}),
	)
	if err != nil && len(attempts) > 1 {
		return "", errors.Wrapf(err, "vision request failed after %d attempts", len(attempts))
	}
	return reply, err
}

var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"internal error",
	"overloaded",
	"quota exceeded",
	"rate limit",
	"too many requests",
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return retryableStatus(anthropicErr.StatusCode)
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.HTTPStatusCode)
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return requestErr.HTTPStatusCode == 0 || retryableStatus(requestErr.HTTPStatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
