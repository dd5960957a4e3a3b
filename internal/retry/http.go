// SPDX-License-Identifier: MIT

package retry

import (
	"context"
	"errors"
	"net/http"
)

// RetryableStatus reports whether an HTTP status code is worth retrying:
// 5xx and 429 are, other 4xx are not.
func RetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code < 600
}

// RetryableError classifies transport-level failures. Network and timeout
// errors are retryable unless the failure is an explicit cancellation.
func RetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
