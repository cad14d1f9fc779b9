// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNullIsland is returned for telemetry positioned at exactly 0,0.
	ErrNullIsland = errors.New("telemetry position is 0,0")

	// ErrNoSatellites is returned for telemetry reporting zero satellites,
	// whose position is likely inaccurate.
	ErrNoSatellites = errors.New("telemetry reports 0 satellites")
)

// UploadError indicates a request could not be completed at the transport
// level. The batch it carried is dropped without retry.
type UploadError struct {
	URL     string
	wrapped error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s failed: %v", e.URL, e.wrapped)
}

func (e *UploadError) Unwrap() error {
	return e.wrapped
}

func (e *UploadError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("url", e.URL)}
}

// UploadRejectedError indicates the server answered with a status that is
// not a success.
type UploadRejectedError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UploadRejectedError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf(
			"upload to %s rejected with status %d: %s",
			e.URL,
			e.StatusCode,
			e.Body,
		)
	}
	return fmt.Sprintf(
		"upload to %s rejected with status %d",
		e.URL,
		e.StatusCode,
	)
}

func (e *UploadRejectedError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("url", e.URL),
		slog.Int("status_code", e.StatusCode),
	}
}

// Transient reports whether the rejection was a server-side failure that is
// worth retrying.
func (e *UploadRejectedError) Transient() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// InvalidTelemetryError indicates a telemetry observation was missing a
// mandatory field or carried an unusable value.
type InvalidTelemetryError struct {
	Field   string
	Reason  string
	wrapped error
}

func (e *InvalidTelemetryError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("invalid telemetry field %s: %s: %v",
			e.Field, e.Reason, e.wrapped)
	}
	return fmt.Sprintf("invalid telemetry field %s: %s", e.Field, e.Reason)
}

func (e *InvalidTelemetryError) Unwrap() error {
	return e.wrapped
}

func (e *InvalidTelemetryError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("field", e.Field)}
}

// InvalidArgumentError indicates that the user has provided an invalid value
// for an option or request. It may wrap an underlying error.
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
