package fetch

import (
	"context"
	"errors"
	"fmt"
)

// Source performs one transfer attempt for one part. Implementations exist
// for plain HTTP GET and for S3 GetObject; both return the complete part
// body or an error, never partial bytes.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ServerError is a failed transfer attempt: non-200 status, transport error,
// or an empty body. It is the retryable class; everything else aborts the
// retry loop immediately.
type ServerError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server returned %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("transfer failed for %s: %v", e.URL, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// DigestError means the fetched bytes do not match the configured checksum.
// Treated as retryable: the store may have served a bad read once.
type DigestError struct {
	URL      string
	Expected string
}

func (e *DigestError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (expected %s)", e.URL, e.Expected)
}

func IsRetryable(err error) bool {
	var se *ServerError
	var de *DigestError
	return errors.As(err, &se) || errors.As(err, &de)
}
