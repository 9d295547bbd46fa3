package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Outbound integration errors
var (
	ErrServiceUnreachable = errors.New("service unreachable")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrUpstreamRejected   = errors.New("upstream rejected request")
	ErrConfigMissing      = errors.New("configuration missing")
)

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("Service %s is unreachable", service),
		Cause:      cause,
	}
}

func NewRateLimitError(service string, retryAfter time.Duration) *ApiErr {
	details := fmt.Sprintf("Rate limit exceeded for %s service", service)
	if retryAfter > 0 {
		details = fmt.Sprintf("%s, retry after %s", details, retryAfter)
	}
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    details,
	}
}

// NewUpstreamError reports a request the integration answered with an error.
// It surfaces as 502 so callers can tell it apart from our own failures.
func NewUpstreamError(service string, status int, message string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstreamRejected,
		Details:    fmt.Sprintf("%s answered %d", service, status),
		Cause:      errors.New(message),
	}
}

// NewConfigError is returned by integrations that were not configured at
// startup, for example a mailer without an API key.
func NewConfigError(configName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("%s is not configured", configName),
	}
}

func IsServiceUnreachableError(err error) bool {
	return errors.Is(err, ErrServiceUnreachable)
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamRejected)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}
