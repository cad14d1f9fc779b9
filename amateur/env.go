// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"strconv"

	"github.com/sondehub/sondehub-go/internal/envconfig"
)

// UploaderConfigFromEnv parses an uploader configuration from well-known
// environment variables. It only returns an error if a variable fails to
// parse; unset variables keep their defaults.
func UploaderConfigFromEnv() (*UploaderOptions, error) {
	opts := &UploaderOptions{}

	for key, val := range envconfig.Vars("SONDEHUB_") {
		switch key {
		case "SONDEHUB_UPLOAD_INTERVAL":
			d, err := envconfig.ParseDuration(val)
			if err != nil {
				return nil, invalidEnv(key, err)
			}
			opts.Interval = d

		case "SONDEHUB_UPLOAD_TIMEOUT":
			d, err := envconfig.ParseDuration(val)
			if err != nil {
				return nil, invalidEnv(key, err)
			}
			opts.Timeout = d

		case "SONDEHUB_UPLOAD_RETRIES":
			n, err := strconv.ParseUint(val, 10, 0)
			if err != nil {
				return nil, invalidEnv(key, err)
			}
			opts.Retries = uint(n)

		case "SONDEHUB_DEVELOPER_MODE":
			dev, err := strconv.ParseBool(val)
			if err != nil {
				return nil, invalidEnv(key, err)
			}
			opts.DeveloperMode = dev

		case "SONDEHUB_TELEMETRY_URL":
			opts.TelemetryURL = val

		case "SONDEHUB_LISTENERS_URL":
			opts.ListenersURL = val
		}
	}
	return opts, nil
}

// NewUploaderFromEnv constructs an uploader from environment variables.
// Explicit options take precedence over the environment.
func NewUploaderFromEnv(
	callsign string,
	opts ...UploaderOption,
) (*Uploader, error) {
	envOpts, err := UploaderConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewUploader(callsign, append([]UploaderOption{envOpts}, opts...)...)
}

func invalidEnv(key string, err error) error {
	return &InvalidArgumentError{
		message: "could not parse " + key,
		wrapped: err,
	}
}
