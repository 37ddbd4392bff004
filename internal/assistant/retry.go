package assistant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/joelkehle/mark3/internal/apperr"
)

const maxAttempts = 3

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

func (c failureClass) transient() bool {
	return c == failureTimeout || c == failureRateLimit || c == failureServer
}

var retryDelay = backoffDelay

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

// withRetry runs call up to maxAttempts times, retrying transient transport
// failures, and maps the final failure onto apperr.
func withRetry(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	var class failureClass
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		class = classifyTransportError(err)
		if !class.transient() || attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		timer := time.NewTimer(retryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	switch class {
	case failureTimeout:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperr.Upstream("the assistant timed out", lastErr)
	case failureRateLimit:
		return "", apperr.RateLimited("the assistant is receiving too many requests, please try again shortly", 30*time.Second, lastErr)
	default:
		return "", apperr.Upstream("the assistant is unavailable right now", lastErr)
	}
}

func classifyTransportError(err error) failureClass {
	if err == nil {
		return failureNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	if status := statusCode(err); status != 0 {
		return classifyStatus(status)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "status=5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4") || strings.Contains(msg, "status=4") || strings.HasPrefix(msg, "error 4"):
		return failureClient
	default:
		return failureServer
	}
}

func statusCode(err error) int {
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil {
		return gp.Code
	}
	return 0
}

func classifyStatus(status int) failureClass {
	switch {
	case status == http.StatusTooManyRequests:
		return failureRateLimit
	case status == http.StatusRequestTimeout:
		return failureTimeout
	case status >= 500:
		return failureServer
	default:
		return failureClient
	}
}
