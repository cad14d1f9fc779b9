// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"fmt"
	"log/slog"
)

// StoreAccessError indicates the object store could not list or read an
// object. Code carries the service error code when one is available.
type StoreAccessError struct {
	Bucket  string
	Key     string
	Code    string
	wrapped error
}

func (e *StoreAccessError) Error() string {
	what := fmt.Sprintf("s3://%s/%s", e.Bucket, e.Key)
	if e.Code != "" {
		return fmt.Sprintf("error accessing %s (%s): %v", what, e.Code, e.wrapped)
	}
	return fmt.Sprintf("error accessing %s: %v", what, e.wrapped)
}

func (e *StoreAccessError) Unwrap() error {
	return e.wrapped
}

func (e *StoreAccessError) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("bucket", e.Bucket),
		slog.String("key", e.Key),
	}
	if e.Code != "" {
		attrs = append(attrs, slog.String("code", e.Code))
	}
	return attrs
}

// DecodeError indicates an archive object held neither gzip-compressed nor
// plain JSON.
type DecodeError struct {
	Key     string
	wrapped error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding %s: %v", e.Key, e.wrapped)
}

func (e *DecodeError) Unwrap() error {
	return e.wrapped
}

func (e *DecodeError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("key", e.Key)}
}

// InvalidArgumentError indicates that the user has provided an invalid value
// for a query or option. It may wrap an underlying error.
type InvalidArgumentError struct {
	wrapped error
	message string
}

func (e *InvalidArgumentError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.wrapped
}
