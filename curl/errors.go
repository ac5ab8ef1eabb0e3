package curl

import (
	"errors"
	"fmt"
)

var (
	// ErrInit is wrapped by errors returned when a native allocation
	// (easy session or multi engine) fails. The failed handle must not
	// be retried; create a new one.
	ErrInit = errors.New("native allocation failed")

	// ErrClosed is wrapped by errors returned for any operation on a
	// handle or coordinator after Close, and rejects transfers still
	// pending when the coordinator closes.
	ErrClosed = errors.New("closed")

	// ErrCancelled rejects a pending transfer removed via
	// [Multi.RemoveHandle] before its completion was drained.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrNotSupported is returned by [Easy.Impersonate] when the loaded
	// library is stock libcurl without the impersonate extension.
	ErrNotSupported = errors.New("not supported by loaded library")
)

// OptionError reports a rejected option. Option carries the symbolic
// native name so callers can log without native code tables.
type OptionError struct {
	Option string
	Code   Code
	Detail string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("setting %s: %s (curl code %d)", e.Option, e.Detail, e.Code)
}

// TransferError reports a transfer that completed with a non-zero native
// result code. Detail holds the native human-readable error string.
type TransferError struct {
	Code   Code
	Detail string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %s (curl code %d)", e.Detail, e.Code)
}

// MultiError reports a failed multi-engine call, e.g. an attach refused
// by the native engine. The handle remains usable standalone.
type MultiError struct {
	Op     string
	Code   MultiCode
	Detail string
}

func (e *MultiError) Error() string {
	return fmt.Sprintf("multi %s: %s (curlm code %d)", e.Op, e.Detail, e.Code)
}
