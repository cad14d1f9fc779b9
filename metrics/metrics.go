// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is the metric namespace used by the command-line tool.
const DefaultNamespace = "sondehub"

// Metrics is a prometheus.Collector that collects metrics about the live
// feed client, the archive fetcher and the telemetry uploader. A nil
// *Metrics is valid and records nothing, so components can take one
// unconditionally.
type Metrics struct {
	connectAttempts   prometheus.Counter
	reconnects        prometheus.Counter
	messages          prometheus.Counter
	subscribeFailures prometheus.Counter

	archiveTasks        prometheus.Counter
	archiveTaskFailures *prometheus.CounterVec
	archiveRecords      prometheus.Counter

	uploadBatches  *prometheus.CounterVec
	uploadAttempts prometheus.Counter
	uploadRecords  prometheus.Counter
	uploadDuration prometheus.Histogram
	bufferDepth    prometheus.Gauge
}

// New returns a new Metrics. An empty namespace selects DefaultNamespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	counter := func(subsystem, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		connectAttempts: counter("stream", "connect_attempts_total",
			"The number of connection attempts made to the live feed."),
		reconnects: counter("stream", "reconnects_total",
			"The number of times the live feed connection was re-established."),
		messages: counter("stream", "messages_total",
			"The number of live feed messages delivered to handlers."),
		subscribeFailures: counter("stream", "subscribe_failures_total",
			"The number of failed subscribe or unsubscribe requests."),

		archiveTasks: counter("archive", "tasks_total",
			"The number of archive objects queued for download."),
		archiveTaskFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "task_failures_total",
				Help:      "The number of archive objects that could not be fetched or decoded.",
			}, []string{"reason"},
		),
		archiveRecords: counter("archive", "records_total",
			"The number of telemetry records decoded from the archive."),

		uploadBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "batches_total",
				Help:      "The number of telemetry batches by upload outcome.",
			}, []string{"result"},
		),
		uploadAttempts: counter("upload", "attempts_total",
			"The number of upload requests sent, including retries."),
		uploadRecords: counter("upload", "records_total",
			"The number of telemetry records successfully uploaded."),
		uploadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "duration_seconds",
				Help:      "The time taken to upload one batch, across retries.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
			},
		),
		bufferDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "buffer_depth",
				Help:      "The number of telemetry records waiting for the next batch.",
			},
		),
	}
}

// Register registers the collector with the registerer.
func (c *Metrics) Register(r prometheus.Registerer) error {
	return r.Register(c)
}

// Describe is part of the prometheus.Collector interface.
func (c *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect is part of the prometheus.Collector interface.
func (c *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.connectAttempts,
		c.reconnects,
		c.messages,
		c.subscribeFailures,
		c.archiveTasks,
		c.archiveTaskFailures,
		c.archiveRecords,
		c.uploadBatches,
		c.uploadAttempts,
		c.uploadRecords,
		c.uploadDuration,
		c.bufferDepth,
	}
}

// ConnectAttempt records one live feed connection attempt.
func (c *Metrics) ConnectAttempt() {
	if c != nil {
		c.connectAttempts.Inc()
	}
}

// Reconnect records a connection established after the first one.
func (c *Metrics) Reconnect() {
	if c != nil {
		c.reconnects.Inc()
	}
}

// Message records one delivered live feed message.
func (c *Metrics) Message() {
	if c != nil {
		c.messages.Inc()
	}
}

// SubscribeFailure records a failed subscribe or unsubscribe.
func (c *Metrics) SubscribeFailure() {
	if c != nil {
		c.subscribeFailures.Inc()
	}
}

// ArchiveTasks records n queued archive objects.
func (c *Metrics) ArchiveTasks(n int) {
	if c != nil {
		c.archiveTasks.Add(float64(n))
	}
}

// ArchiveTaskFailure records a dropped archive object.
func (c *Metrics) ArchiveTaskFailure(reason string) {
	if c != nil {
		c.archiveTaskFailures.WithLabelValues(reason).Inc()
	}
}

// ArchiveRecords records n decoded archive records.
func (c *Metrics) ArchiveRecords(n int) {
	if c != nil {
		c.archiveRecords.Add(float64(n))
	}
}

// UploadAttempt records one upload request.
func (c *Metrics) UploadAttempt() {
	if c != nil {
		c.uploadAttempts.Inc()
	}
}

// UploadBatch records the outcome of one batch and how long it took.
func (c *Metrics) UploadBatch(result string, records int, took time.Duration) {
	if c == nil {
		return
	}
	c.uploadBatches.WithLabelValues(result).Inc()
	c.uploadDuration.Observe(took.Seconds())
	if result == "success" {
		c.uploadRecords.Add(float64(records))
	}
}

// BufferDepth sets the number of records waiting in the upload buffer.
func (c *Metrics) BufferDepth(n int) {
	if c != nil {
		c.bufferDepth.Set(float64(n))
	}
}
