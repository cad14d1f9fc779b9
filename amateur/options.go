// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sondehub/sondehub-go/internal/options"
	"github.com/sondehub/sondehub-go/metrics"
)

type (
	// UploaderOption represents a single option for the uploader.
	UploaderOption interface{ uploader(*UploaderOptions) }

	// UploaderOptions are the resolved options for the uploader.
	UploaderOptions struct {
		// UploaderPosition is the station position as [lat, lon, alt]. It is
		// attached to every record unless overridden per packet.
		UploaderPosition []float64
		UploaderRadio    string
		UploaderAntenna  string

		SoftwareName    string
		SoftwareVersion string

		// Interval is the pause between buffer drains.
		Interval time.Duration

		// Timeout bounds connection setup; ReadTimeout bounds the wait for
		// response headers. Neither applies when HTTPClient is set.
		Timeout     time.Duration
		ReadTimeout time.Duration

		// Retries is the maximum number of attempts for one request.
		Retries uint

		// DeveloperMode marks every upload as test data.
		DeveloperMode bool

		TelemetryURL string
		ListenersURL string
		HTTPClient   *http.Client

		Logger  *slog.Logger
		Metrics *metrics.Metrics
	}

	// WithUploaderPosition sets the station position as [lat, lon, alt].
	WithUploaderPosition [3]float64

	// WithUploaderRadio describes the station radio.
	WithUploaderRadio string

	// WithUploaderAntenna describes the station antenna.
	WithUploaderAntenna string

	// WithInterval sets the pause between buffer drains. Defaults to 2s.
	WithInterval time.Duration

	// WithTimeout bounds connection setup for each request. Defaults to 20s.
	WithTimeout time.Duration

	// WithReadTimeout bounds the wait for response headers. Defaults to 6.1s.
	WithReadTimeout time.Duration

	// WithRetries sets the maximum number of attempts per request. Defaults
	// to 5.
	WithRetries uint

	// WithDeveloperMode flags every upload as development data, which the
	// tracker hides from the public map.
	WithDeveloperMode bool

	// WithTelemetryURL overrides the telemetry endpoint.
	WithTelemetryURL string

	// WithListenersURL overrides the station position endpoint.
	WithListenersURL string

	withSoftware   struct{ name, version string }
	withHTTPClient struct{ *http.Client }
	withLogger     struct{ *slog.Logger }
	withMetrics    struct{ *metrics.Metrics }
)

const (
	DefaultSoftwareName = "sondehub-go"
	DefaultInterval     = 2 * time.Second
	DefaultTimeout      = 20 * time.Second
	DefaultReadTimeout  = 6100 * time.Millisecond
	DefaultRetries      = 5

	DefaultTelemetryURL = "https://api.v2.sondehub.org/amateur/telemetry"
	DefaultListenersURL = "https://api.v2.sondehub.org/amateur/listeners"
)

// Version is reported as the default software version and in the
// User-Agent header.
const Version = "0.3.0"

// Apply resolves the provided list of options.
func (o *UploaderOptions) Apply(
	opts []UploaderOption,
	rest ...UploaderOption,
) {
	for opt := range options.Apply[UploaderOption](opts, rest...) {
		opt.uploader(o)
	}
}

func (o *UploaderOptions) uploader(opt *UploaderOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithUploaderPosition) uploader(opt *UploaderOptions) {
	opt.UploaderPosition = []float64{o[0], o[1], o[2]}
}

func (o WithUploaderRadio) uploader(opt *UploaderOptions) {
	opt.UploaderRadio = string(o)
}

func (o WithUploaderAntenna) uploader(opt *UploaderOptions) {
	opt.UploaderAntenna = string(o)
}

// WithSoftware identifies the software producing the telemetry. A version
// is required whenever a name is given.
func WithSoftware(name, version string) UploaderOption {
	return withSoftware{name, version}
}

func (o withSoftware) uploader(opt *UploaderOptions) {
	opt.SoftwareName = o.name
	opt.SoftwareVersion = o.version
}

func (o WithInterval) uploader(opt *UploaderOptions) {
	opt.Interval = time.Duration(o)
}

func (o WithTimeout) uploader(opt *UploaderOptions) {
	opt.Timeout = time.Duration(o)
}

func (o WithReadTimeout) uploader(opt *UploaderOptions) {
	opt.ReadTimeout = time.Duration(o)
}

func (o WithRetries) uploader(opt *UploaderOptions) {
	opt.Retries = uint(o)
}

func (o WithDeveloperMode) uploader(opt *UploaderOptions) {
	opt.DeveloperMode = bool(o)
}

func (o WithTelemetryURL) uploader(opt *UploaderOptions) {
	opt.TelemetryURL = string(o)
}

func (o WithListenersURL) uploader(opt *UploaderOptions) {
	opt.ListenersURL = string(o)
}

// WithHTTPClient sets the HTTP client used for uploads. The timeout options
// are ignored when a client is provided.
func WithHTTPClient(client *http.Client) UploaderOption {
	return withHTTPClient{client}
}

func (o withHTTPClient) uploader(opt *UploaderOptions) {
	opt.HTTPClient = o.Client
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) UploaderOption {
	return withLogger{logger}
}

func (o withLogger) uploader(opt *UploaderOptions) {
	opt.Logger = o.Logger
}

// WithMetrics records uploader metrics in the provided collector.
func WithMetrics(m *metrics.Metrics) UploaderOption {
	return withMetrics{m}
}

func (o withMetrics) uploader(opt *UploaderOptions) {
	opt.Metrics = o.Metrics
}
