// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package amateur

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sondehub/sondehub-go/internal/log"
	"github.com/sondehub/sondehub-go/internal/queue"
	"github.com/sondehub/sondehub-go/internal/wallclock"
	"github.com/sondehub/sondehub-go/retry"
)

// Uploader buffers amateur telemetry and uploads it to SondeHub in batches
// from a background loop. Enqueueing never blocks on the network, and upload
// failures are logged rather than returned to the producer.
type Uploader struct {
	callsign string
	opts     UploaderOptions

	http   *http.Client
	retry  retry.Policy
	buffer *queue.Queue[Record]
	log    log.Logger

	running atomic.Bool
	stop    chan struct{}
	once    sync.Once
	done    chan struct{}
}

// Upload batch results, as recorded in metrics.
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

// NewUploader creates an uploader for the given station callsign and starts
// its background loop.
func NewUploader(callsign string, opts ...UploaderOption) (*Uploader, error) {
	if callsign == "" {
		return nil, &InvalidArgumentError{message: "uploader callsign is empty"}
	}

	u := &Uploader{
		callsign: callsign,
		buffer:   queue.New[Record](0),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	u.opts.Apply(opts)

	if u.opts.SoftwareName == "" {
		if u.opts.SoftwareVersion != "" {
			return nil, &InvalidArgumentError{
				message: "software version provided without a software name",
			}
		}
		u.opts.SoftwareName = DefaultSoftwareName
		u.opts.SoftwareVersion = Version
	} else if u.opts.SoftwareVersion == "" {
		return nil, &InvalidArgumentError{
			message: "software name provided without a software version",
		}
	}

	if u.opts.Interval <= 0 {
		u.opts.Interval = DefaultInterval
	}
	if u.opts.Timeout <= 0 {
		u.opts.Timeout = DefaultTimeout
	}
	if u.opts.ReadTimeout <= 0 {
		u.opts.ReadTimeout = DefaultReadTimeout
	}
	if u.opts.Retries == 0 {
		u.opts.Retries = DefaultRetries
	}
	if u.opts.TelemetryURL == "" {
		u.opts.TelemetryURL = DefaultTelemetryURL
	}
	if u.opts.ListenersURL == "" {
		u.opts.ListenersURL = DefaultListenersURL
	}

	u.http = u.opts.HTTPClient
	if u.http == nil {
		u.http = newHTTPClient(u.opts.Timeout, u.opts.ReadTimeout)
	}

	u.retry = &retry.Immediate{
		MaxAttempts: uint64(u.opts.Retries),
		Logger:      u.opts.Logger,
	}
	u.log = log.Wrap(u.opts.Logger)

	u.running.Store(true)
	go u.run()
	return u, nil
}

func newHTTPClient(timeout, readTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{Transport: transport}
}

// AddTelemetry validates and shapes one observation and adds it to the
// upload buffer. Rejected observations never reach the buffer.
func (u *Uploader) AddTelemetry(t Telemetry) error {
	r, err := u.record(&t, wallclock.Instance.Now())
	if err != nil {
		return err
	}
	u.AddRecord(r)
	return nil
}

// AddRecord adds a pre-formed record to the upload buffer without any
// validation. Records added after Close are accepted but may not be
// uploaded.
func (u *Uploader) AddRecord(r Record) {
	u.buffer.Push(r)
	u.opts.Metrics.BufferDepth(u.buffer.Size())
}

// Close stops the background loop after one final drain of the buffer. It
// does not wait for the loop to exit; use Wait for that.
func (u *Uploader) Close() {
	u.once.Do(func() {
		u.running.Store(false)
		close(u.stop)
	})
}

// Running reports whether the background loop has not been asked to stop.
func (u *Uploader) Running() bool {
	return u.running.Load()
}

// Wait blocks until the background loop has exited.
func (u *Uploader) Wait() {
	<-u.done
}

func (u *Uploader) run() {
	defer close(u.done)
	ctx := context.Background()

	for u.running.Load() {
		u.flush(ctx)

		select {
		case <-u.stop:
		case <-wallclock.Instance.After(u.opts.Interval):
		}
	}
	u.flush(ctx)
}

// flush drains whatever is buffered and uploads it as one batch.
func (u *Uploader) flush(ctx context.Context) {
	batch := u.buffer.Drain()
	u.opts.Metrics.BufferDepth(u.buffer.Size())
	if len(batch) == 0 {
		return
	}
	u.uploadTelemetry(ctx, batch)
}

func (u *Uploader) uploadTelemetry(ctx context.Context, batch []Record) {
	start := wallclock.Instance.Now()

	body, kept, err := u.compress(ctx, batch)
	if err != nil {
		u.log.Error(ctx, "could not encode telemetry batch",
			slog.String("error", err.Error()),
			slog.Int("records", len(batch)),
		)
		u.opts.Metrics.UploadBatch(resultError, len(batch), 0)
		return
	}
	if len(kept) == 0 {
		return
	}
	batch = kept

	err = u.retry.Start(ctx, "upload telemetry", func(
		ctx context.Context,
	) (bool, error) {
		res, err := u.put(ctx, u.opts.TelemetryURL, body, true)
		if err != nil {
			return false, err
		}

		switch {
		case res.status == http.StatusAccepted:
			u.logAccepted(ctx, res.body)
			return false, nil
		case res.status >= 200 && res.status < 300:
			return false, nil
		default:
			rej := res.rejected(u.opts.TelemetryURL)
			return rej.Transient(), rej
		}
	})
	took := wallclock.Instance.Now().Sub(start)

	if err != nil {
		u.log.Err(ctx, err, slog.Int("records", len(batch)))
		result := resultError
		var rej *UploadRejectedError
		if errors.As(err, &rej) {
			result = resultRejected
		}
		u.opts.Metrics.UploadBatch(result, len(batch), took)
		return
	}

	u.log.Info(ctx, "uploaded telemetry",
		slog.Int("records", len(batch)),
		slog.Duration("took", took),
	)
	u.opts.Metrics.UploadBatch(resultSuccess, len(batch), took)
}

// logAccepted reports the per-record errors and warnings the telemetry API
// returns alongside a 202.
func (u *Uploader) logAccepted(ctx context.Context, body []byte) {
	var res struct {
		Errors []struct {
			Message string `json:"error_message"`
		} `json:"errors"`
		Warnings []struct {
			Message string `json:"warning_message"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		u.log.Warn(ctx, "could not parse upload response",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, e := range res.Errors {
		u.log.Error(ctx, "telemetry rejected",
			slog.String("message", e.Message),
		)
	}
	for _, w := range res.Warnings {
		u.log.Warn(ctx, "telemetry warning",
			slog.String("message", w.Message),
		)
	}
}

type response struct {
	status int
	body   []byte
}

func (r *response) rejected(url string) *UploadRejectedError {
	return &UploadRejectedError{
		URL:        url,
		StatusCode: r.status,
		Body:       string(bytes.TrimSpace(r.body)),
	}
}

// put performs one PUT request. Only transport failures are returned as
// errors; every HTTP status is left for the caller to classify.
func (u *Uploader) put(
	ctx context.Context,
	url string,
	body []byte,
	gzipped bool,
) (*response, error) {
	u.opts.Metrics.UploadAttempt()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, &UploadError{URL: url, wrapped: err}
	}

	req.Header.Set("User-Agent", DefaultSoftwareName+"-"+Version)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(
		"Date",
		wallclock.Instance.Now().UTC().Format(http.TimeFormat),
	)
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
	}

	res, err := u.http.Do(req)
	if err != nil {
		return nil, &UploadError{URL: url, wrapped: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &UploadError{URL: url, wrapped: err}
	}
	return &response{status: res.StatusCode, body: data}, nil
}

// compress encodes the batch as one gzipped JSON array. Records that cannot
// be encoded are logged and left out; the records kept are returned.
func (u *Uploader) compress(
	ctx context.Context,
	batch []Record,
) ([]byte, []Record, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	kept := batch[:0]

	if _, err := zw.Write([]byte{'['}); err != nil {
		return nil, nil, err
	}
	for _, r := range batch {
		data, err := json.Marshal(r)
		if err != nil {
			u.log.Warn(ctx, "dropping unencodable record",
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(kept) > 0 {
			data = append([]byte{','}, data...)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, nil, err
		}
		kept = append(kept, r)
	}
	if _, err := zw.Write([]byte{']'}); err != nil {
		return nil, nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), kept, nil
}
