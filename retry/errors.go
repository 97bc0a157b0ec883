package retry

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/spetersoncode/stride"
)

// statusCoder matches errors carrying an HTTP status code. The Anthropic
// and OpenAI SDK error types both implement it.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether an error is worth retrying. Errors that
// implement stride.CategorizedError are classified explicitly; anything
// else falls back to heuristics: rate limits (429), server errors (5xx),
// network timeouts, connection resets and DNS failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce stride.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == stride.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}

	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	if code == 429 {
		return true
	}
	return code >= 500 && code < 600
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	// Message-pattern fallback for errors the SDKs surface as plain strings.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
