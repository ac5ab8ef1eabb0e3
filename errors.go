package curlew

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// configured maximum. It is distinct from transfer errors: the hops
	// themselves all succeeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrUnexpectedStatusCode is the sentinel wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")

	// ErrClientClosed is returned by operations on a closed [Client].
	ErrClientClosed = errors.New("client closed")
)

// UnexpectedStatusError is returned when a download response status
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
